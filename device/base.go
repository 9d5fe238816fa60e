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
Package device implements the common device-class scaffolding every
driver builds on: the mandatory CONNECTION/DEBUG/INFO vectors, a default
change_property that handles them, and the per-class bases (CCD, filter
wheel, guider) that add their own mandatory vectors and state machines on
top.

Base is embedded, not used standalone: a concrete device embeds Base,
lets it own the universal vectors, and overrides ChangeProperty for its
own class-specific ones, delegating anything it doesn't recognise back
to Base.HandleUniversal.
*/
package device

import (
	"sync"

	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/property"
)

// ConnectHook is called when a client requests CONNECT or DISCONNECT.
// It returns nil on success; any error puts CONNECTION into ALERT with
// the error text as the vector message.
type ConnectHook func(connect bool) error

// Option configures a Base at construction time.
type Option func(*Base)

// WithConnectHook installs the callback driving hardware connect/disconnect.
func WithConnectHook(fn ConnectHook) Option {
	return func(b *Base) { b.onConnect = fn }
}

// WithInfo sets the initial INFO.DEVICE_MODEL text item.
func WithInfo(model string) Option {
	return func(b *Base) { b.infoModel = model }
}

// Base holds the vectors and bus plumbing common to every device class:
// CONNECTION, DEBUG and INFO, plus a default ChangeProperty for them.
type Base struct {
	id  string
	bus *bus.Bus

	mu         sync.Mutex
	properties map[string]property.Vector

	onConnect ConnectHook
	infoModel string
	connected bool
}

// NewBase constructs the universal vectors for a device named id. Concrete
// device constructors call this first, then add their own vectors with
// Define before attaching.
func NewBase(id string, opts ...Option) *Base {
	b := &Base{id: id, properties: map[string]property.Vector{}}
	for _, o := range opts {
		o(b)
	}
	logging.Label(b, id)

	connection := property.NewSwitchVector(id, "CONNECTION", "Main Control", "Connection",
		property.ReadWrite, property.OneOfMany,
		property.NewSwitch("CONNECT", "Connect", false),
		property.NewSwitch("DISCONNECT", "Disconnect", true))
	connection.State = property.OK
	b.properties[connection.Name] = connection

	debug := property.NewSwitchVector(id, "DEBUG", "Options", "Debug",
		property.ReadWrite, property.OneOfMany,
		property.NewSwitch("ENABLE", "Enable", false),
		property.NewSwitch("DISABLE", "Disable", true))
	debug.State = property.OK
	b.properties[debug.Name] = debug

	info := property.NewTextVector(id, "INFO", "Main Control", "Info", property.ReadOnly,
		property.NewText("DEVICE_MODEL", "Model", b.infoModel))
	info.State = property.OK
	b.properties[info.Name] = info

	return b
}

// ID implements bus.Device.
func (b *Base) ID() string { return b.id }

// Attach implements bus.Device. Concrete devices that add more vectors
// before attaching do so via Define, then call Base.Attach from their
// own Attach so later Update calls can fan out notifications.
func (b *Base) Attach(bx *bus.Bus) error {
	b.bus = bx
	return nil
}

// Detach implements bus.Device: disconnects if still connected.
func (b *Base) Detach() {
	if b.onConnect != nil && b.Connected() {
		b.onConnect(false)
	}
}

// Properties implements bus.Device.
func (b *Base) Properties() []property.Vector {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]property.Vector, 0, len(b.properties))
	for _, p := range b.properties {
		out = append(out, p)
	}
	return out
}

// Define registers or replaces a vector owned by this device.
func (b *Base) Define(p property.Vector) {
	b.mu.Lock()
	b.properties[p.Name] = p
	b.mu.Unlock()
}

// Vector returns the current value of a named vector.
func (b *Base) Vector(name string) (property.Vector, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.properties[name]
	return p, ok
}

// Update stores a new vector value and, if attached to a bus, fans out
// an update_property notification for it.
func (b *Base) Update(p property.Vector) {
	b.mu.Lock()
	b.properties[p.Name] = p
	attached := b.bus
	b.mu.Unlock()
	if attached != nil {
		attached.UpdateProperty(b.id, p)
	}
}

// Connected reports whether CONNECTION.CONNECT is currently true.
func (b *Base) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// HandleUniversal handles a client write to CONNECTION or DEBUG, and is
// the fallback for INFO (read-only, always rejected). Concrete devices
// call this from their own ChangeProperty for any vector name they don't
// recognise themselves.
func (b *Base) HandleUniversal(src bus.Client, p property.Vector) error {
	switch p.Name {
	case "CONNECTION":
		return b.changeConnection(p)
	case "DEBUG":
		return b.changeDebug(p)
	default:
		return property.ReasonNotFound
	}
}

func (b *Base) changeConnection(p property.Vector) error {
	current, _ := b.Vector("CONNECTION")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	wantConnect := merged.Items[0].SwitchValue()

	merged.State = property.Busy
	b.Update(merged)

	var hookErr error
	if b.onConnect != nil {
		hookErr = b.onConnect(wantConnect)
	}

	b.mu.Lock()
	b.connected = wantConnect && hookErr == nil
	b.mu.Unlock()

	if hookErr != nil {
		merged.State = property.Alert
		merged.Message = hookErr.Error()
		b.Update(merged)
		return nil
	}
	merged.State = property.OK
	merged.Message = ""
	b.Update(merged)
	return nil
}

func (b *Base) changeDebug(p property.Vector) error {
	current, _ := b.Vector("DEBUG")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	merged.State = property.OK
	b.Update(merged)
	return nil
}
