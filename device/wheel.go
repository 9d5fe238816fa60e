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
	"fmt"

	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/property"
)

// FilterWheel is the filter-wheel device class: one NUMBER slot selector
// and one TEXT vector naming each slot.
type FilterWheel struct {
	*Base
	hw driver.WheelHandle
}

// NewFilterWheel constructs a FilterWheel named id with len(slotNames)
// positions, labelled by slotNames (in slot order, 1-indexed).
func NewFilterWheel(id string, hw driver.WheelHandle, slotNames []string, opts ...Option) *FilterWheel {
	w := &FilterWheel{Base: NewBase(id, opts...), hw: hw}
	logging.Label(w, id+".wheel")

	slot := property.NewNumberVector(id, "WHEEL_SLOT", "Main Control", "Slot",
		property.ReadWrite, property.NewNumber("SLOT", "Slot",
			property.NumberPayload{Min: 1, Max: float64(len(slotNames)), Step: 1, Value: 1, Target: 1}))
	slot.State = property.OK
	w.Define(slot)

	items := make([]property.Item, len(slotNames))
	for i, name := range slotNames {
		items[i] = property.NewText(fmt.Sprintf("SLOT_NAME_%d", i+1), name, name)
	}
	names := property.NewTextVector(id, "WHEEL_SLOT_NAME", "Main Control", "Slot names",
		property.ReadWrite, items...)
	names.State = property.OK
	w.Define(names)

	return w
}

// ChangeProperty implements bus.Device.
func (w *FilterWheel) ChangeProperty(src bus.Client, p property.Vector) error {
	switch p.Name {
	case "WHEEL_SLOT":
		return w.changeSlot(p)
	case "WHEEL_SLOT_NAME":
		return w.changeSlotNames(p)
	default:
		return w.HandleUniversal(src, p)
	}
}

func (w *FilterWheel) changeSlot(p property.Vector) error {
	current, _ := w.Vector("WHEEL_SLOT")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	target := int(merged.Items[0].NumberValue().Target)

	merged.State = property.Busy
	w.Update(merged)

	if w.hw == nil {
		merged.State = property.Alert
		merged.Message = "no wheel hardware attached"
		w.Update(merged)
		return nil
	}
	if err := w.hw.MoveTo(target); err != nil {
		merged.State = property.Alert
		merged.Message = err.Error()
		w.Update(merged)
		return nil
	}
	num := merged.Items[0].NumberValue()
	num.Value = float64(target)
	merged.Items[0] = property.NewNumber("SLOT", "Slot", num)
	merged.State = property.OK
	w.Update(merged)
	return nil
}

func (w *FilterWheel) changeSlotNames(p property.Vector) error {
	current, _ := w.Vector("WHEEL_SLOT_NAME")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	merged.State = property.OK
	w.Update(merged)
	return nil
}
