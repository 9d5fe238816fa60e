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
Package driver defines the capability contract a vendor SDK wrapper must
satisfy to plug into the bus, plus the hot-plug reconciliation loop and
shared-handle discipline that sit between that contract and the devices
in package device.

There is deliberately no concrete vendor SDK here: enumerate/open/close
and the per-role control calls are interfaces, so a real driver package
(for a specific camera family, say) implements them against its own SDK
bindings and hands the result to Manager.Reconcile.
*/
package driver

import "sync"

// Instance is one hardware unit as reported by Enumerate: a stable
// identifier plus whatever roles (camera, guider, ...) it exposes.
type Instance struct {
	ID    string
	Roles []string
}

// Enumerator lists currently present hardware instances.
type Enumerator interface {
	Enumerate() ([]Instance, error)
}

// HotplugRegistrar lets a driver ask to be invoked whenever its SDK
// observes a hardware change, so the caller can re-run reconciliation.
type HotplugRegistrar interface {
	RegisterHotplugCallback(fn func())
}

// Handle is a single opened hardware connection.
type Handle interface {
	Close() error
}

// Opener opens a hardware instance by id, returning the shared handle
// roles of that instance will multiplex over.
type Opener interface {
	Open(id string) (Handle, error)
}

// Axis and Direction parameterise a ST-4 pulse-guide call.
type Axis int

const (
	AxisRA Axis = iota
	AxisDec
)

type Direction int

const (
	DirectionPositive Direction = iota
	DirectionNegative
)

// FrameConfig describes one exposure request: region of interest,
// binning, bit depth and exposure duration.
type FrameConfig struct {
	X, Y, Width, Height int
	BinX, BinY          int
	BitsPerPixel        int
	ExposureSeconds     float64
}

// CameraHandle is the capability contract for the imaging role of a
// hardware unit: configure, pull or push acquisition, and TEC control.
type CameraHandle interface {
	Handle
	Configure(cfg FrameConfig) error
	// StartPull arms a single-frame acquisition; fn is invoked once with
	// the filled pixel buffer when the frame is ready.
	StartPull(fn func(buf []byte)) error
	// StartPush arms streaming acquisition; fn is invoked once per frame
	// and returns false to request the stream stop.
	StartPush(fn func(buf []byte) bool) error
	StopAcquisition() error
	AbortExposure() error

	SupportsTEC() bool
	Temperature() (value, target float64, err error)
	SetTargetTemperature(target float64) error
	SetCoolerOn(on bool) error
	CoolerOn() (bool, error)
}

// GuiderHandle is the capability contract for the ST-4 guiding role.
type GuiderHandle interface {
	Handle
	PulseGuide(axis Axis, dir Direction, durationMs int) error
}

// WheelHandle is the capability contract for a filter wheel role.
type WheelHandle interface {
	Handle
	SlotCount() int
	MoveTo(slot int) error
	CurrentSlot() (int, error)
}

// globalLock serialises connect/disconnect across every driver in the
// process: no two drivers may probe conflicting hardware buses (e.g. two
// USB enumerations) concurrently.
var globalLock sync.Mutex

// Lock acquires the process-wide hardware probe lock. A driver takes it
// at first-connect and releases it at last-disconnect.
func Lock() { globalLock.Lock() }

// Unlock releases the process-wide hardware probe lock.
func Unlock() { globalLock.Unlock() }
