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

// MountHandle is the capability contract for a telescope mount's slew
// and tracking control.
type MountHandle interface {
	SlewTo(raHours, decDegrees float64) error
	AbortSlew() error
	SetTracking(on bool) error
	Coordinates() (raHours, decDegrees float64, err error)
}

// Mount is the mount device class: equatorial coordinate slewing plus
// tracking on/off, following the same busy-then-settle pattern as CCD
// exposure but without an intermediate transfer phase.
type Mount struct {
	*Base
	hw MountHandle
}

// NewMount constructs a Mount named id.
func NewMount(id string, hw MountHandle, opts ...Option) *Mount {
	m := &Mount{Base: NewBase(id, opts...), hw: hw}
	logging.Label(m, id+".mount")

	coords := property.NewNumberVector(id, "MOUNT_EQUATORIAL_COORDINATES", "Main Control", "Coordinates",
		property.ReadWrite,
		property.NewNumber("RA", "Right ascension (h)", property.NumberPayload{Min: 0, Max: 24}),
		property.NewNumber("DEC", "Declination (deg)", property.NumberPayload{Min: -90, Max: 90}))
	coords.State = property.OK
	m.Define(coords)

	abort := property.NewSwitchVector(id, "MOUNT_ABORT_MOTION", "Main Control", "Abort",
		property.ReadWrite, property.OneOfMany,
		property.NewSwitch("ABORT_MOTION", "Abort", false))
	abort.State = property.OK
	m.Define(abort)

	tracking := property.NewSwitchVector(id, "MOUNT_TRACKING", "Main Control", "Tracking",
		property.ReadWrite, property.OneOfMany,
		property.NewSwitch("ON", "On", true),
		property.NewSwitch("OFF", "Off", false))
	tracking.State = property.OK
	m.Define(tracking)

	return m
}

// ChangeProperty implements bus.Device.
func (m *Mount) ChangeProperty(src bus.Client, p property.Vector) error {
	switch p.Name {
	case "MOUNT_EQUATORIAL_COORDINATES":
		return m.changeCoordinates(p)
	case "MOUNT_ABORT_MOTION":
		return m.changeAbort(p)
	case "MOUNT_TRACKING":
		return m.changeTracking(p)
	default:
		return m.HandleUniversal(src, p)
	}
}

func (m *Mount) changeCoordinates(p property.Vector) error {
	current, _ := m.Vector("MOUNT_EQUATORIAL_COORDINATES")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	ra := merged.Items[0].NumberValue().Target
	dec := merged.Items[1].NumberValue().Target

	merged.State = property.Busy
	m.Update(merged)

	if m.hw == nil {
		merged.State = property.Alert
		merged.Message = "no mount hardware attached"
		m.Update(merged)
		return nil
	}
	if err := m.hw.SlewTo(ra, dec); err != nil {
		merged.State = property.Alert
		merged.Message = err.Error()
		m.Update(merged)
		return nil
	}
	merged.State = property.OK
	m.Update(merged)
	return nil
}

func (m *Mount) changeAbort(p property.Vector) error {
	current, _ := m.Vector("MOUNT_ABORT_MOTION")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	if m.hw != nil {
		m.hw.AbortSlew()
	}
	merged.State = property.OK
	m.Update(merged)
	return nil
}

func (m *Mount) changeTracking(p property.Vector) error {
	current, _ := m.Vector("MOUNT_TRACKING")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	on := merged.Items[0].SwitchValue()
	if m.hw != nil {
		if err := m.hw.SetTracking(on); err != nil {
			merged.State = property.Alert
			merged.Message = err.Error()
			m.Update(merged)
			return nil
		}
	}
	merged.State = property.OK
	m.Update(merged)
	return nil
}
