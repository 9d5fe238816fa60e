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

// AO is the adaptive-optics tip/tilt device class: like Guider it
// drives a shared handle's pulse-guide call directly from a write, but
// exposes a single two-axis vector instead of separate RA/Dec vectors
// since an AO unit corrects both axes from one mirror.
type AO struct {
	*Base
	hw driver.GuiderHandle
}

// NewAO constructs an AO named id, steering hw for tip/tilt correction.
func NewAO(id string, hw driver.GuiderHandle, opts ...Option) *AO {
	a := &AO{Base: NewBase(id, opts...), hw: hw}
	logging.Label(a, id+".ao")

	guide := property.NewNumberVector(id, "AO_GUIDE", "Main Control", "Guide",
		property.ReadWrite,
		property.NewNumber("NORTH", "North (ms)", property.NumberPayload{Min: 0, Max: 1000}),
		property.NewNumber("SOUTH", "South (ms)", property.NumberPayload{Min: 0, Max: 1000}),
		property.NewNumber("EAST", "East (ms)", property.NumberPayload{Min: 0, Max: 1000}),
		property.NewNumber("WEST", "West (ms)", property.NumberPayload{Min: 0, Max: 1000}))
	guide.State = property.OK
	a.Define(guide)

	return a
}

// ChangeProperty implements bus.Device.
func (a *AO) ChangeProperty(src bus.Client, p property.Vector) error {
	if p.Name != "AO_GUIDE" {
		return a.HandleUniversal(src, p)
	}
	current, _ := a.Vector("AO_GUIDE")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}

	axisPairs := []struct {
		name string
		axis driver.Axis
		dir  driver.Direction
	}{
		{"NORTH", driver.AxisDec, driver.DirectionPositive},
		{"SOUTH", driver.AxisDec, driver.DirectionNegative},
		{"EAST", driver.AxisRA, driver.DirectionNegative},
		{"WEST", driver.AxisRA, driver.DirectionPositive},
	}

	a.Update(vectorWithState(merged, property.Busy))

	if a.hw == nil {
		a.Update(vectorWithMessage(merged, property.Alert, "no adaptive optics hardware attached"))
		return nil
	}

	var pulseErr error
	for i, it := range merged.Items {
		ms := int(it.NumberValue().Target)
		if ms <= 0 {
			continue
		}
		pair := axisPairs[i]
		if err := a.hw.PulseGuide(pair.axis, pair.dir, ms); err != nil {
			pulseErr = err
			break
		}
	}
	if pulseErr != nil {
		a.Update(vectorWithMessage(merged, property.Alert, pulseErr.Error()))
		return nil
	}
	a.Update(vectorWithState(merged, property.OK))
	return nil
}

func vectorWithState(v property.Vector, state property.State) property.Vector {
	v.State = state
	return v
}

func vectorWithMessage(v property.Vector, state property.State, msg string) property.Vector {
	v.State = state
	v.Message = msg
	return v
}
