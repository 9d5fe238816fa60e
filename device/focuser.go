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
	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/property"
)

// FocuserHandle is the capability contract for a motorized focuser.
type FocuserHandle interface {
	MoveTo(steps int) error
	CurrentPosition() (int, error)
	Halt() error
}

// Focuser is the focuser device class: one NUMBER vector for absolute
// position, plus an abort switch. There is no multi-state machine: a
// move either completes (state OK) or fails (state ALERT).
type Focuser struct {
	*Base
	hw FocuserHandle
}

// NewFocuser constructs a Focuser named id with travel [0, maxSteps].
func NewFocuser(id string, hw FocuserHandle, maxSteps int, opts ...Option) *Focuser {
	f := &Focuser{Base: NewBase(id, opts...), hw: hw}
	logging.Label(f, id+".focuser")

	pos := property.NewNumberVector(id, "FOCUS_ABSOLUTE_POSITION", "Main Control", "Position",
		property.ReadWrite, property.NewNumber("FOCUS_ABSOLUTE_POSITION", "Steps",
			property.NumberPayload{Min: 0, Max: float64(maxSteps), Step: 1}))
	pos.State = property.OK
	f.Define(pos)

	abort := property.NewSwitchVector(id, "FOCUS_ABORT_MOTION", "Main Control", "Abort",
		property.ReadWrite, property.OneOfMany,
		property.NewSwitch("ABORT_MOTION", "Abort", false))
	abort.State = property.OK
	f.Define(abort)

	return f
}

// ChangeProperty implements bus.Device.
func (f *Focuser) ChangeProperty(src bus.Client, p property.Vector) error {
	switch p.Name {
	case "FOCUS_ABSOLUTE_POSITION":
		return f.changePosition(p)
	case "FOCUS_ABORT_MOTION":
		return f.changeAbort(p)
	default:
		return f.HandleUniversal(src, p)
	}
}

func (f *Focuser) changePosition(p property.Vector) error {
	current, _ := f.Vector("FOCUS_ABSOLUTE_POSITION")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	target := int(merged.Items[0].NumberValue().Target)

	merged.State = property.Busy
	f.Update(merged)

	if f.hw == nil {
		merged.State = property.Alert
		merged.Message = "no focuser hardware attached"
		f.Update(merged)
		return nil
	}
	if err := f.hw.MoveTo(target); err != nil {
		merged.State = property.Alert
		merged.Message = err.Error()
		f.Update(merged)
		return nil
	}
	num := merged.Items[0].NumberValue()
	num.Value = float64(target)
	merged.Items[0] = property.NewNumber("FOCUS_ABSOLUTE_POSITION", "Steps", num)
	merged.State = property.OK
	f.Update(merged)
	return nil
}

func (f *Focuser) changeAbort(p property.Vector) error {
	current, _ := f.Vector("FOCUS_ABORT_MOTION")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	if f.hw != nil {
		f.hw.Halt()
	}
	merged.State = property.OK
	f.Update(merged)
	return nil
}
