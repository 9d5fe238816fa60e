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

package property

// Item is one item of a property vector, of any of the five types. Item is
// a tagged sum: Kind reports which type's payload (TEXT, NUMBER, SWITCH,
// LIGHT or BLOB) this value holds, and the shared Name/Label attributes
// live outside the tag, on Item itself, rather than being duplicated per
// variant.
type Item struct {
	Name  string
	Label string

	kind Type
	text string
	num  NumberPayload
	sw   bool
	lt   State
	blob BLOBPayload
}

// NumberPayload is the item payload for a NUMBER item: target is the
// client's last-requested value, value is the device-observed one. Equality
// between them is not required.
type NumberPayload struct {
	Value  float64
	Target float64
	Min    float64
	Max    float64
	Step   float64
}

// BLOBPayload is the item payload for a BLOB item. Format is a mime-like
// suffix such as ".fits" or ".jpeg"; Bytes is only populated when the
// owning vector's State is OK.
type BLOBPayload struct {
	Format string
	Size   int
	Bytes  []byte
}

// Kind returns the item's tag, i.e. which accessor is valid to call.
func (i Item) Kind() Type { return i.kind }

// Text returns the TEXT payload. Valid only when Kind() == Text.
func (i Item) Text() string { return i.text }

// NumberValue returns the NUMBER payload. Valid only when Kind() == Number.
func (i Item) NumberValue() NumberPayload { return i.num }

// SwitchValue returns the SWITCH payload. Valid only when Kind() == Switch.
func (i Item) SwitchValue() bool { return i.sw }

// LightState returns the LIGHT payload, read-only to clients.
// Valid only when Kind() == Light.
func (i Item) LightState() State { return i.lt }

// BLOBValue returns the BLOB payload. Valid only when Kind() == BLOB.
func (i Item) BLOBValue() BLOBPayload { return i.blob }

// NewText constructs a TEXT item.
func NewText(name, label, value string) Item {
	return Item{Name: name, Label: label, kind: Text, text: value}
}

// NewNumber constructs a NUMBER item.
func NewNumber(name, label string, payload NumberPayload) Item {
	return Item{Name: name, Label: label, kind: Number, num: payload}
}

// NewSwitch constructs a SWITCH item.
func NewSwitch(name, label string, on bool) Item {
	return Item{Name: name, Label: label, kind: Switch, sw: on}
}

// NewLight constructs a LIGHT item. Perm is implicitly read-only.
func NewLight(name, label string, state State) Item {
	return Item{Name: name, Label: label, kind: Light, lt: state}
}

// NewBLOB constructs a BLOB item.
func NewBLOB(name, label string, payload BLOBPayload) Item {
	return Item{Name: name, Label: label, kind: BLOB, blob: payload}
}

// withText returns a copy of i with its TEXT payload replaced.
func (i Item) withText(v string) Item { i.text = v; return i }

// withNumber returns a copy of i with its NUMBER payload replaced.
func (i Item) withNumber(v NumberPayload) Item { i.num = v; return i }

// withSwitch returns a copy of i with its SWITCH payload replaced.
func (i Item) withSwitch(v bool) Item { i.sw = v; return i }

// withLight returns a copy of i with its LIGHT payload replaced.
func (i Item) withLight(v State) Item { i.lt = v; return i }

// withBLOB returns a copy of i with its BLOB payload replaced.
func (i Item) withBLOB(v BLOBPayload) Item { i.blob = v; return i }
