// Copyright 2017 Google Inc.
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

package wire

import (
	"io"
	"sync"

	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/property"
)

// Client adapts one raw, bidirectional byte stream (a TCP connection, a
// pair of pipe ends, anything satisfying io.ReadWriteCloser) into a
// bus.Client. Outbound notifications are serialised through a single
// mutex so concurrent DefineProperty/UpdateProperty/DeleteProperty/
// SendMessage calls from the bus never interleave their XML on the wire;
// inbound bytes are decoded on their own goroutine and turned into
// ChangeProperty calls against the bus.
type Client struct {
	id   string
	conn io.ReadWriteCloser
	bus  *bus.Bus

	writeMu sync.Mutex

	mu       sync.Mutex
	blobMode map[string]string
}

// NewClient wraps conn for use against b. Callers must call Serve to
// attach the client and start decoding inbound traffic.
func NewClient(id string, conn io.ReadWriteCloser, b *bus.Bus) *Client {
	return &Client{id: id, conn: conn, bus: b, blobMode: map[string]string{}}
}

// ID implements bus.Client.
func (c *Client) ID() string { return c.id }

// Serve attaches c to the bus and decodes conn until it errors or the
// stream closes, then detaches c. It blocks until the stream ends, so
// callers typically invoke it in its own goroutine per connection.
func (c *Client) Serve() error {
	if err := c.bus.AttachClient(c); err != nil {
		return err
	}
	defer c.bus.DetachClient(c)

	d := NewDecoder(c.conn, decodeTarget{c}, decodeTarget{c})
	err := d.Run()
	c.mu.Lock()
	for k, v := range d.BLOBMode {
		c.blobMode[k] = v
	}
	c.mu.Unlock()
	return err
}

// decodeTarget routes decoded elements from c's own stream back into the
// bus, attributing writes to c.
type decodeTarget struct{ c *Client }

func (t decodeTarget) ChangeProperty(device string, v property.Vector) error {
	return t.c.bus.ChangeProperty(t.c, device, v)
}

func (t decodeTarget) ReplayTo(device, name string) {
	t.c.bus.ReplayProperties(t.c, device, name)
}

// wantsBLOB reports whether this client currently wants BLOB bytes for
// (device, name), honouring the bus-wide wildcard set by a bare
// <enableBLOB> (empty device and name).
func (c *Client) wantsBLOB(device, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	mode := c.blobMode[device+"\x00"+name]
	if mode == "" {
		mode = c.blobMode["\x00"]
	}
	switch mode {
	case "Never":
		return false
	default:
		return true
	}
}

func (c *Client) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(b)
	return err
}

func (c *Client) withoutBLOBBytes(device string, v property.Vector) property.Vector {
	if v.Type != property.BLOB || c.wantsBLOB(device, v.Name) {
		return v
	}
	stripped := v.Clone()
	for i, it := range stripped.Items {
		bv := it.BLOBValue()
		bv.Bytes = nil
		stripped.Items[i] = property.NewBLOB(it.Name, it.Label, bv)
	}
	return stripped
}

// DefineProperty implements bus.PropertyDefiner.
func (c *Client) DefineProperty(device string, v property.Vector) error {
	logging.Fine("wire: %s defProperty %s.%s", c.id, device, v.Name)
	return c.write(EncodeDefine(device, c.withoutBLOBBytes(device, v)))
}

// UpdateProperty implements bus.PropertyUpdater.
func (c *Client) UpdateProperty(device string, v property.Vector) error {
	return c.write(EncodeUpdate(device, c.withoutBLOBBytes(device, v)))
}

// DeleteProperty implements bus.PropertyDeleter.
func (c *Client) DeleteProperty(device string, v property.Vector) error {
	return c.write(EncodeDelete(device, v))
}

// SendMessage implements bus.MessageSender.
func (c *Client) SendMessage(device, text string) error {
	return c.write(EncodeMessage(device, text))
}
