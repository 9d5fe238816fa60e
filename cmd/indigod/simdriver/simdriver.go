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
Package simdriver is a software-only stand-in for a vendor SDK binding:
it implements driver.Opener and the camera/guider/wheel capability
contracts against an in-memory fake sensor, so cmd/indigod can run end
to end without any attached hardware.
*/
package simdriver

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kkretzschmar/indigo-go/driver"
)

// Opener opens simulated hardware instances by id; every id opens a
// handle exposing a camera, a guider and an 8-slot wheel.
type Opener struct{}

// Open implements driver.Opener.
func (Opener) Open(id string) (driver.Handle, error) {
	return &handle{id: id, coolerTarget: 20, coolerTemp: 20}, nil
}

type handle struct {
	id  string
	cfg driver.FrameConfig

	coolerOn     bool
	coolerTarget float64
	coolerTemp   float64

	slot int
}

// Close implements driver.Handle.
func (h *handle) Close() error { return nil }

// Configure implements driver.CameraHandle.
func (h *handle) Configure(cfg driver.FrameConfig) error {
	h.cfg = cfg
	return nil
}

// StartPull implements driver.CameraHandle: it sleeps for the
// configured exposure duration, then hands fn a buffer of zeroed
// pixels, wide enough to carry the caller's FITS header reservation
// ahead of the pixel data.
func (h *handle) StartPull(fn func(buf []byte)) error {
	time.Sleep(time.Duration(h.cfg.ExposureSeconds * float64(time.Second)))
	bytesPerPixel := h.cfg.BitsPerPixel / 8
	if bytesPerPixel == 0 {
		bytesPerPixel = 2
	}
	pixels := h.cfg.Width * h.cfg.Height * bytesPerPixel
	buf := make([]byte, 2880+pixels)
	fn(buf)
	return nil
}

// StartPush implements driver.CameraHandle; the simulator never
// streams, so this is unsupported.
func (h *handle) StartPush(fn func(buf []byte) bool) error {
	return fmt.Errorf("simdriver: streaming not supported")
}

// StopAcquisition implements driver.CameraHandle.
func (h *handle) StopAcquisition() error { return nil }

// AbortExposure implements driver.CameraHandle.
func (h *handle) AbortExposure() error { return nil }

// SupportsTEC implements driver.CameraHandle.
func (h *handle) SupportsTEC() bool { return true }

// Temperature implements driver.CameraHandle, drifting toward the
// target by a degree per poll to give the cooling loop something to
// report.
func (h *handle) Temperature() (value, target float64, err error) {
	if h.coolerOn {
		diff := h.coolerTarget - h.coolerTemp
		switch {
		case diff > 1:
			h.coolerTemp++
		case diff < -1:
			h.coolerTemp--
		default:
			h.coolerTemp = h.coolerTarget
		}
	} else {
		h.coolerTemp += rand.Float64()*0.4 - 0.2
	}
	return h.coolerTemp, h.coolerTarget, nil
}

// SetTargetTemperature implements driver.CameraHandle.
func (h *handle) SetTargetTemperature(target float64) error {
	h.coolerTarget = target
	return nil
}

// SetCoolerOn implements driver.CameraHandle.
func (h *handle) SetCoolerOn(on bool) error {
	h.coolerOn = on
	return nil
}

// CoolerOn implements driver.CameraHandle.
func (h *handle) CoolerOn() (bool, error) { return h.coolerOn, nil }

// PulseGuide implements driver.GuiderHandle by sleeping for the
// requested duration, mirroring how a real ST-4 pulse blocks the
// calling goroutine for its duration.
func (h *handle) PulseGuide(axis driver.Axis, dir driver.Direction, durationMs int) error {
	time.Sleep(time.Duration(durationMs) * time.Millisecond)
	return nil
}

// SlotCount implements driver.WheelHandle.
func (h *handle) SlotCount() int { return 8 }

// MoveTo implements driver.WheelHandle.
func (h *handle) MoveTo(slot int) error {
	if slot < 1 || slot > h.SlotCount() {
		return fmt.Errorf("simdriver: slot %d out of range", slot)
	}
	time.Sleep(200 * time.Millisecond)
	h.slot = slot
	return nil
}

// CurrentSlot implements driver.WheelHandle.
func (h *handle) CurrentSlot() (int, error) { return h.slot, nil }
