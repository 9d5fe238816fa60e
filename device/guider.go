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

package device

import (
	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/property"
)

// Guider is the ST-4 autoguider device class: two NUMBER vectors whose
// writes translate directly into timed pulse-guide calls against the
// shared hardware handle. There is no state machine: each write either
// succeeds (state OK) or fails (state ALERT).
type Guider struct {
	*Base
	hw driver.GuiderHandle
}

// NewGuider constructs a Guider named id, pulsing hw for RA/Dec corrections.
func NewGuider(id string, hw driver.GuiderHandle, opts ...Option) *Guider {
	g := &Guider{Base: NewBase(id, opts...), hw: hw}
	logging.Label(g, id+".guider")

	dec := property.NewNumberVector(id, "GUIDER_GUIDE_DEC", "Guide", "Declination",
		property.ReadWrite,
		property.NewNumber("NORTH", "North (ms)", property.NumberPayload{Min: 0, Max: 60000}),
		property.NewNumber("SOUTH", "South (ms)", property.NumberPayload{Min: 0, Max: 60000}))
	dec.State = property.OK
	g.Define(dec)

	ra := property.NewNumberVector(id, "GUIDER_GUIDE_RA", "Guide", "Right ascension",
		property.ReadWrite,
		property.NewNumber("WEST", "West (ms)", property.NumberPayload{Min: 0, Max: 60000}),
		property.NewNumber("EAST", "East (ms)", property.NumberPayload{Min: 0, Max: 60000}))
	ra.State = property.OK
	g.Define(ra)

	return g
}

// ChangeProperty implements bus.Device.
func (g *Guider) ChangeProperty(src bus.Client, p property.Vector) error {
	switch p.Name {
	case "GUIDER_GUIDE_DEC":
		return g.pulse(p, "NORTH", driver.AxisDec, driver.DirectionPositive, "SOUTH", driver.DirectionNegative)
	case "GUIDER_GUIDE_RA":
		return g.pulse(p, "WEST", driver.AxisRA, driver.DirectionPositive, "EAST", driver.DirectionNegative)
	default:
		return g.HandleUniversal(src, p)
	}
}

// pulse merges a client write onto the named vector and issues a single
// PulseGuide call for whichever of its two directional items carries a
// nonzero duration (the hardware contract only accepts one active
// direction per call; if both are nonzero, the later item in the vector
// is used).
func (g *Guider) pulse(p property.Vector, posName string, axis driver.Axis, posDir driver.Direction, negName string, negDir driver.Direction) error {
	current, _ := g.Vector(p.Name)
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}

	var durationMs int
	var dir driver.Direction
	for _, it := range merged.Items {
		ms := int(it.NumberValue().Target)
		if ms <= 0 {
			continue
		}
		durationMs = ms
		if it.Name == posName {
			dir = posDir
		} else if it.Name == negName {
			dir = negDir
		}
	}

	merged.State = property.Busy
	g.Update(merged)

	if durationMs == 0 {
		merged.State = property.OK
		g.Update(merged)
		return nil
	}
	if g.hw == nil {
		merged.State = property.Alert
		merged.Message = "no guider hardware attached"
		g.Update(merged)
		return nil
	}
	if err := g.hw.PulseGuide(axis, dir, durationMs); err != nil {
		merged.State = property.Alert
		merged.Message = err.Error()
		g.Update(merged)
		return nil
	}
	merged.State = property.OK
	g.Update(merged)
	return nil
}
