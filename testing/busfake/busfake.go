// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package busfake provides a fake device and a recording client for
testing bus wiring and the wire adapter, mirroring how
barista's testing/bar package gives barista modules a fake bar instance
to run against instead of a real i3bar process.
*/
package busfake

import (
	"sync"

	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/property"
)

// Device is a minimal bus.Device whose ChangeProperty just records the
// call and, unless Reject is set, echoes the write back with state OK.
type Device struct {
	IDValue string
	Reject  error

	mu       sync.Mutex
	b        *bus.Bus
	vectors  map[string]property.Vector
	Changes  []property.Vector
	Attached bool
	Detached bool
}

// NewDevice constructs a fake Device named id, owning the given initial
// vectors.
func NewDevice(id string, vectors ...property.Vector) *Device {
	d := &Device{IDValue: id, vectors: map[string]property.Vector{}}
	for _, v := range vectors {
		d.vectors[v.Name] = v
	}
	return d
}

// ID implements bus.Device.
func (d *Device) ID() string { return d.IDValue }

// Attach implements bus.Device.
func (d *Device) Attach(b *bus.Bus) error {
	d.mu.Lock()
	d.b = b
	d.Attached = true
	d.mu.Unlock()
	return nil
}

// Detach implements bus.Device.
func (d *Device) Detach() {
	d.mu.Lock()
	d.Detached = true
	d.mu.Unlock()
}

// Properties implements bus.Device.
func (d *Device) Properties() []property.Vector {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]property.Vector, 0, len(d.vectors))
	for _, v := range d.vectors {
		out = append(out, v)
	}
	return out
}

// ChangeProperty implements bus.Device.
func (d *Device) ChangeProperty(src bus.Client, p property.Vector) error {
	d.mu.Lock()
	d.Changes = append(d.Changes, p)
	if d.Reject != nil {
		err := d.Reject
		d.mu.Unlock()
		return err
	}
	p.State = property.OK
	d.vectors[p.Name] = p
	b := d.b
	d.mu.Unlock()
	if b != nil {
		b.UpdateProperty(d.IDValue, p)
	}
	return nil
}

// Client is a recording bus.Client implementing every optional
// fan-out interface, so tests can assert on exactly which
// notifications a bus delivered.
type Client struct {
	IDValue string

	mu      sync.Mutex
	Defines []Notification
	Updates []Notification
	Deletes []Notification
	Messages []Message
}

// Notification records one defProperty/setProperty/delProperty call.
type Notification struct {
	Device string
	Vector property.Vector
}

// Message records one SendMessage call.
type Message struct {
	Device, Text string
}

// NewClient constructs a fake Client named id.
func NewClient(id string) *Client {
	return &Client{IDValue: id}
}

// ID implements bus.Client.
func (c *Client) ID() string { return c.IDValue }

// DefineProperty implements bus.PropertyDefiner.
func (c *Client) DefineProperty(device string, p property.Vector) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Defines = append(c.Defines, Notification{device, p})
	return nil
}

// UpdateProperty implements bus.PropertyUpdater.
func (c *Client) UpdateProperty(device string, p property.Vector) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Updates = append(c.Updates, Notification{device, p})
	return nil
}

// DeleteProperty implements bus.PropertyDeleter.
func (c *Client) DeleteProperty(device string, p property.Vector) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes = append(c.Deletes, Notification{device, p})
	return nil
}

// SendMessage implements bus.MessageSender.
func (c *Client) SendMessage(device, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = append(c.Messages, Message{device, text})
	return nil
}

// LastUpdate returns the most recent setProperty notification recorded,
// or the zero Notification if none arrived yet.
func (c *Client) LastUpdate() Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Updates) == 0 {
		return Notification{}
	}
	return c.Updates[len(c.Updates)-1]
}
