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

package bus

import (
	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/property"
)

// AttachDevice registers d, calls d.Attach, then fans out a defProperty
// notification to every attached client for each vector d now owns.
func (b *Bus) AttachDevice(d Device) error {
	b.mu.Lock()
	if b.maxDevices > 0 && len(b.devices) >= b.maxDevices {
		b.mu.Unlock()
		return property.ReasonTooMany
	}
	if _, exists := b.devices[d.ID()]; exists {
		b.mu.Unlock()
		return fmtErr("device %s: already attached: %w", d.ID(), property.ReasonBadRequest)
	}
	b.devices[d.ID()] = d
	b.mu.Unlock()

	if err := d.Attach(b); err != nil {
		b.mu.Lock()
		delete(b.devices, d.ID())
		b.mu.Unlock()
		return err
	}
	logging.Log("%s: attached", logging.ID(d))

	for _, p := range d.Properties() {
		b.fanOutDefine(d.ID(), p)
	}
	return nil
}

// DetachDevice fans out delProperty for every vector the device owns, then
// calls d.Detach and removes it from the registry. A device's entire
// vector set is deleted on detach.
func (b *Bus) DetachDevice(d Device) {
	for _, p := range d.Properties() {
		b.fanOutDelete(d.ID(), p)
	}
	d.Detach()
	b.mu.Lock()
	delete(b.devices, d.ID())
	b.mu.Unlock()
	logging.Log("%s: detached", logging.ID(d))
}

// AttachClient registers c, then replays every currently-defined vector
// from every device to it, as if each had just been defined.
func (b *Bus) AttachClient(c Client) error {
	b.mu.Lock()
	if b.maxClients > 0 && len(b.clients) >= b.maxClients {
		b.mu.Unlock()
		return property.ReasonTooMany
	}
	if _, exists := b.clients[c.ID()]; exists {
		b.mu.Unlock()
		return fmtErr("client %s: already attached: %w", c.ID(), property.ReasonBadRequest)
	}
	b.clients[c.ID()] = c
	devices := make([]Device, 0, len(b.devices))
	for _, d := range b.devices {
		devices = append(devices, d)
	}
	b.mu.Unlock()

	for _, d := range devices {
		for _, p := range d.Properties() {
			b.sendDefine(c, d.ID(), p)
		}
	}
	return nil
}

// DetachClient invalidates a client registration. A driver/client
// crash does not require an explicit DetachClient call from elsewhere: the
// adapter that owns the client calls this once it can no longer deliver.
func (b *Bus) DetachClient(c Client) {
	b.mu.Lock()
	delete(b.clients, c.ID())
	delete(b.clientLocks, c.ID())
	delete(b.limiters, c.ID())
	b.mu.Unlock()
}

// DefineProperty fans p out to every client as a defProperty notification.
// Called by a device after constructing a new vector.
func (b *Bus) DefineProperty(deviceID string, p property.Vector) {
	b.fanOutDefine(deviceID, p)
}

// UpdateProperty fans p out to every client as a setProperty notification.
// Called by a device after mutating an existing vector.
func (b *Bus) UpdateProperty(deviceID string, p property.Vector) {
	b.fanOutUpdate(deviceID, p)
}

// DeleteProperty fans p out to every client as a delProperty notification.
// Called by a device before it stops owning a vector.
func (b *Bus) DeleteProperty(deviceID string, p property.Vector) {
	b.fanOutDelete(deviceID, p)
}

// ReplayProperties sends c a defProperty for every currently-defined
// vector matching device and name (either may be empty as a wildcard),
// as if those vectors had just been defined. It implements the
// getProperties query.
func (b *Bus) ReplayProperties(c Client, device, name string) {
	b.mu.RLock()
	devices := make([]Device, 0, len(b.devices))
	for _, d := range b.devices {
		devices = append(devices, d)
	}
	b.mu.RUnlock()

	for _, d := range devices {
		if device != "" && d.ID() != device {
			continue
		}
		for _, p := range d.Properties() {
			if name != "" && p.Name != name {
				continue
			}
			b.sendDefine(c, d.ID(), p)
		}
	}
}

// ChangeProperty routes a client-originated write to the owning device.
// The device is responsible for validating, mutating, and emitting the
// resulting UpdateProperty; any error from ChangeProperty is returned only
// to src.
func (b *Bus) ChangeProperty(src Client, deviceID string, p property.Vector) error {
	d, ok := b.Device(deviceID)
	if !ok {
		return fmtErr("device %s: %w", deviceID, property.ReasonNotFound)
	}
	return d.ChangeProperty(src, p)
}

func (b *Bus) fanOutDefine(deviceID string, p property.Vector) {
	for _, c := range b.snapshotClients() {
		definer, ok := c.(PropertyDefiner)
		if !ok {
			continue
		}
		b.deliver(c.ID(), func() error { return definer.DefineProperty(deviceID, p) })
	}
}

func (b *Bus) fanOutUpdate(deviceID string, p property.Vector) {
	for _, c := range b.snapshotClients() {
		updater, ok := c.(PropertyUpdater)
		if !ok {
			continue
		}
		if l := b.limiterFor(c.ID()); l != nil && !l.Allow() {
			logging.Fine("client %s: update dropped, rate limit exceeded", c.ID())
			continue
		}
		b.deliver(c.ID(), func() error { return updater.UpdateProperty(deviceID, p) })
	}
}

func (b *Bus) fanOutDelete(deviceID string, p property.Vector) {
	for _, c := range b.snapshotClients() {
		deleter, ok := c.(PropertyDeleter)
		if !ok {
			continue
		}
		b.deliver(c.ID(), func() error { return deleter.DeleteProperty(deviceID, p) })
	}
}

// sendDefine is like fanOutDefine but targets a single, just-attached client.
func (b *Bus) sendDefine(c Client, deviceID string, p property.Vector) {
	definer, ok := c.(PropertyDefiner)
	if !ok {
		return
	}
	b.deliver(c.ID(), func() error { return definer.DefineProperty(deviceID, p) })
}

// deliver calls fn under the per-client write mutex, so FIFO ordering for a
// single (device, vector) stream is preserved at each client. A non-OK
// result does not abort dispatch to other clients; it is logged and
// dispatch continues. The WithClientRateLimit budget is checked by
// fanOutUpdate before it calls deliver; defines and deletes are never
// dropped.
func (b *Bus) deliver(clientID string, fn func() error) {
	lock := b.lockFor(clientID)
	lock.Lock()
	defer lock.Unlock()
	if err := fn(); err != nil {
		logging.Log("client %s: dispatch error: %v", clientID, err)
	}
}
