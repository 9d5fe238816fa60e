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
Package bus implements the registry and dispatch core of the
instrument-control bus: the attach/detach lifecycle for devices and
clients, and the publish/subscribe fan-out of property-vector
notifications between them.

There is no central event loop. A Bus may be driven concurrently from
any number of goroutines (SDK callback threads, scheduler workers,
client readers); dispatch calls take a read lock over the registries
only long enough to snapshot the client list, then release it before
calling into any client, so a slow or blocked client callback never
stalls device attach/detach or another device's notifications.
*/
package bus

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/kkretzschmar/indigo-go/property"
)

// Device is the bus-facing capability contract a device (CCD, wheel,
// guider, ...) must satisfy.
type Device interface {
	// ID returns the device identifier, unique within the bus.
	ID() string
	// Attach is called once, with exclusive access to register the
	// device's initial property vectors via b before they are fanned
	// out to existing clients.
	Attach(b *Bus) error
	// Detach releases any resources held by the device. The bus has
	// already issued delProperty fan-out for every vector by the time
	// Detach is called.
	Detach()
	// Properties returns the device's currently owned vectors.
	Properties() []property.Vector
	// ChangeProperty handles a client-originated write, routed by the
	// bus. The device validates, mutates, and is responsible for
	// eventually emitting an UpdateProperty reflecting the outcome
	// (OK or ALERT); a returned error is surfaced only to src.
	ChangeProperty(src Client, p property.Vector) error
}

// Client is the minimal capability every bus client must satisfy. The
// remaining notification methods are optional: a client only receives a
// given kind of fan-out if it implements the matching interface below
// (PropertyDefiner, PropertyUpdater, PropertyDeleter, MessageSender),
// mirroring how the wire adapter is "just another client".
type Client interface {
	ID() string
}

// PropertyDefiner is implemented by clients that want defProperty fan-out.
type PropertyDefiner interface {
	DefineProperty(device string, p property.Vector) error
}

// PropertyUpdater is implemented by clients that want setProperty fan-out.
type PropertyUpdater interface {
	UpdateProperty(device string, p property.Vector) error
}

// PropertyDeleter is implemented by clients that want delProperty fan-out.
type PropertyDeleter interface {
	DeleteProperty(device string, p property.Vector) error
}

// MessageSender is implemented by clients that want free-form messages.
type MessageSender interface {
	SendMessage(device, message string) error
}

// Bus is the registry of devices and clients, and the dispatcher between
// them. The zero value is not usable; construct with New.
type Bus struct {
	mu      sync.RWMutex
	devices map[string]Device
	clients map[string]Client
	// per-client write mutex: guarantees that fan-out calls to a given
	// client for ordered events land in call order, without
	// holding the registry lock while the client callback runs.
	clientLocks map[string]*sync.Mutex
	// per-client token bucket, lazily created, used to shed dispatch load
	// from one slow client without blocking fan-out to the others. Nil
	// (the default) means unlimited.
	limiters map[string]*rate.Limiter

	maxDevices int
	maxClients int

	dispatchRate  rate.Limit
	dispatchBurst int
}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithMaxDevices caps the number of simultaneously attached devices. A
// zero (default) value means unbounded.
func WithMaxDevices(n int) Option { return func(b *Bus) { b.maxDevices = n } }

// WithMaxClients caps the number of simultaneously attached clients.
func WithMaxClients(n int) Option { return func(b *Bus) { b.maxClients = n } }

// WithClientRateLimit caps the rate of property updates dispatched to
// each client independently, at r events/sec with burst allowance
// burst. An update that would exceed the limit is dropped for that
// client rather than queued, so a burst of thousands of updates per
// second from one device sheds load at a slow client without blocking
// delivery to any other attached client. Defines and deletes are not
// counted against the limit and are never dropped.
func WithClientRateLimit(r rate.Limit, burst int) Option {
	return func(b *Bus) { b.dispatchRate = r; b.dispatchBurst = burst }
}

// New constructs an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		devices:     make(map[string]Device),
		clients:     make(map[string]Client),
		clientLocks: make(map[string]*sync.Mutex),
		limiters:    make(map[string]*rate.Limiter),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Device looks up an attached device by id.
func (b *Bus) Device(id string) (Device, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.devices[id]
	return d, ok
}

// snapshotClients returns the current client list without holding the
// registry lock during fan-out.
func (b *Bus) snapshotClients() []Client {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Client, 0, len(b.clients))
	for _, c := range b.clients {
		out = append(out, c)
	}
	return out
}

func (b *Bus) lockFor(clientID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.clientLocks[clientID]
	if !ok {
		m = &sync.Mutex{}
		b.clientLocks[clientID] = m
	}
	return m
}

// limiterFor returns clientID's token bucket, lazily creating it, or nil
// if no rate limit is configured on this bus.
func (b *Bus) limiterFor(clientID string) *rate.Limiter {
	if b.dispatchRate <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.limiters[clientID]
	if !ok {
		l = rate.NewLimiter(b.dispatchRate, b.dispatchBurst)
		b.limiters[clientID] = l
	}
	return l
}

// fmtErr is a small helper kept for consistency with the rest of the
// package's error construction.
func fmtErr(format string, args ...interface{}) error { return fmt.Errorf(format, args...) }
