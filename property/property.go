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

// Package property implements the typed property-vector data model shared
// by every device and client on the bus: TEXT, NUMBER, SWITCH, LIGHT and
// BLOB vectors, their items, and the rules that govern mutating them.
package property

import "fmt"

// Type identifies the wire/item type of a Vector. It is fixed for the
// lifetime of a Vector.
type Type int

// The five property types defined by the wire dialect.
const (
	Text Type = iota
	Number
	Switch
	Light
	BLOB
)

// String implements fmt.Stringer, returning the wire element infix used by
// the XML adapter (e.g. "Text" for <defTextVector>).
func (t Type) String() string {
	switch t {
	case Text:
		return "Text"
	case Number:
		return "Number"
	case Switch:
		return "Switch"
	case Light:
		return "Light"
	case BLOB:
		return "BLOB"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Perm is the access mode of a Vector.
type Perm int

// Access modes.
const (
	ReadOnly Perm = iota
	WriteOnly
	ReadWrite
)

// String implements fmt.Stringer, returning the wire attribute value.
func (p Perm) String() string {
	switch p {
	case ReadOnly:
		return "ro"
	case WriteOnly:
		return "wo"
	case ReadWrite:
		return "rw"
	default:
		return fmt.Sprintf("Perm(%d)", int(p))
	}
}

// State is the lifecycle indicator of a Vector, or of a single LIGHT item.
type State int

// Lifecycle states.
const (
	Idle State = iota
	OK
	Busy
	Alert
)

// String implements fmt.Stringer, returning the wire attribute value.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case OK:
		return "Ok"
	case Busy:
		return "Busy"
	case Alert:
		return "Alert"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Rule constrains how many SWITCH items of a vector may be true at once.
type Rule int

// Switch arity rules.
const (
	OneOfMany Rule = iota
	AtMostOne
	AnyOfMany
)

// String implements fmt.Stringer, returning the wire attribute value.
func (r Rule) String() string {
	switch r {
	case OneOfMany:
		return "OneOfMany"
	case AtMostOne:
		return "AtMostOne"
	case AnyOfMany:
		return "AnyOfMany"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}
