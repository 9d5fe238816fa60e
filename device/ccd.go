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
	"math"
	"sync"
	"time"

	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/imaging"
	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/property"
	"github.com/kkretzschmar/indigo-go/scheduler"
)

// ccdState is the imaging device's acquisition state.
type ccdState int

const (
	ccdIdle ccdState = iota
	ccdConfiguring
	ccdExposing
	ccdTransferring
	ccdStreaming
)

// Sink receives a completed frame. The callee owns buf read-only for the
// duration of the call, exactly as the driver contract specifies.
type Sink func(buf []byte, width, height, bitsPerPixel int, isRaw bool, hint string)

// CCD is the imaging device class: exposure control, frame transfer, and
// (when the hardware supports it) a cooling loop.
type CCD struct {
	*Base

	hw    driver.CameraHandle
	sched scheduler.Scheduler
	sink  Sink

	mu      sync.Mutex
	state   ccdState
	aborted bool
	remain  int

	frameWidth, frameHeight, frameBPP int

	coolTimer scheduler.Handle
}

// NewCCD constructs a CCD device named id, controlling hw through sched
// for its timers, delivering completed frames to sink. width, height and
// bitsPerPixel describe the sensor's native frame geometry, used both to
// configure the hardware and to fill the NAXIS1/NAXIS2/BITPIX cards of
// the fixed-size FITS header the imaging package reserves ahead of each
// delivered buffer.
func NewCCD(id string, hw driver.CameraHandle, sched scheduler.Scheduler, sink Sink, width, height, bitsPerPixel int, opts ...Option) *CCD {
	c := &CCD{
		Base: NewBase(id, opts...), hw: hw, sched: sched, sink: sink,
		frameWidth: width, frameHeight: height, frameBPP: bitsPerPixel,
	}
	logging.Label(c, id+".ccd")

	exposure := property.NewNumberVector(id, "CCD_EXPOSURE", "Main Control", "Expose",
		property.ReadWrite, property.NewNumber("EXPOSURE", "Duration (s)",
			property.NumberPayload{Min: 0, Max: 3600, Step: 0.01}))
	exposure.State = property.OK
	c.Define(exposure)

	abort := property.NewSwitchVector(id, "CCD_ABORT_EXPOSURE", "Main Control", "Abort",
		property.ReadWrite, property.OneOfMany,
		property.NewSwitch("ABORT", "Abort", false))
	abort.State = property.OK
	c.Define(abort)

	streaming := property.NewNumberVector(id, "CCD_STREAMING", "Main Control", "Stream",
		property.ReadWrite, property.NewNumber("COUNT", "Frame count",
			property.NumberPayload{Min: 1, Max: 100000, Step: 1}))
	streaming.State = property.OK
	c.Define(streaming)

	if hw != nil && hw.SupportsTEC() {
		cooler := property.NewSwitchVector(id, "CCD_COOLER", "Main Control", "Cooler",
			property.ReadWrite, property.OneOfMany,
			property.NewSwitch("ON", "On", false),
			property.NewSwitch("OFF", "Off", true))
		cooler.State = property.OK
		c.Define(cooler)

		temp := property.NewNumberVector(id, "CCD_TEMPERATURE", "Main Control", "Temperature",
			property.ReadWrite, property.NewNumber("TEMPERATURE", "Sensor (C)",
				property.NumberPayload{Min: -60, Max: 50}))
		temp.State = property.OK
		c.Define(temp)
	}

	return c
}

// Attach implements bus.Device, starting the cooling loop once attached.
func (c *CCD) Attach(b *bus.Bus) error {
	if err := c.Base.Attach(b); err != nil {
		return err
	}
	if c.hw != nil && c.hw.SupportsTEC() && c.sched != nil {
		c.coolTimer = c.sched.SetTimer(c.ID(), 5*time.Second, c.pollCooling)
	}
	return nil
}

// Detach implements bus.Device, stopping the cooling loop.
func (c *CCD) Detach() {
	if c.coolTimer != 0 && c.sched != nil {
		c.sched.CancelTimer(c.coolTimer)
	}
	c.Base.Detach()
}

// ChangeProperty implements bus.Device.
func (c *CCD) ChangeProperty(src bus.Client, p property.Vector) error {
	switch p.Name {
	case "CCD_EXPOSURE":
		return c.changeExposure(p)
	case "CCD_ABORT_EXPOSURE":
		return c.changeAbort(p)
	case "CCD_STREAMING":
		return c.changeStreaming(p)
	case "CCD_COOLER":
		return c.changeCooler(p)
	case "CCD_TEMPERATURE":
		return c.changeTemperatureTarget(p)
	default:
		return c.HandleUniversal(src, p)
	}
}

func (c *CCD) changeExposure(p property.Vector) error {
	current, _ := c.Vector("CCD_EXPOSURE")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	target := merged.Items[0].NumberValue().Target

	c.mu.Lock()
	c.state = ccdConfiguring
	c.aborted = false
	c.mu.Unlock()

	merged.State = property.Busy
	c.Update(merged)

	if c.hw == nil {
		merged.State = property.Alert
		merged.Message = "no camera hardware attached"
		c.Update(merged)
		return nil
	}

	cfg := driver.FrameConfig{
		Width: c.frameWidth, Height: c.frameHeight, BitsPerPixel: c.frameBPP,
		BinX: 1, BinY: 1, ExposureSeconds: target,
	}
	if err := c.hw.Configure(cfg); err != nil {
		merged.State = property.Alert
		merged.Message = err.Error()
		c.Update(merged)
		return nil
	}

	c.mu.Lock()
	c.state = ccdExposing
	c.mu.Unlock()

	runAsync := c.sched.Async
	if runAsync == nil {
		runAsync = func(fn func()) { fn() }
	}
	runAsync(func() {
		err := c.hw.StartPull(func(buf []byte) {
			c.mu.Lock()
			aborted := c.aborted
			c.state = ccdTransferring
			c.mu.Unlock()
			if aborted {
				return
			}
			if c.sink != nil {
				imaging.Process(buf, c.frameWidth, c.frameHeight, c.frameBPP, true, "CCD_EXPOSURE", c.sink)
			}
		})

		c.mu.Lock()
		c.state = ccdIdle
		aborted := c.aborted
		c.mu.Unlock()

		out := merged.Clone()
		if err != nil {
			out.State = property.Alert
			out.Message = err.Error()
		} else if aborted {
			out.State = property.OK
		} else {
			num := out.Items[0].NumberValue()
			num.Value = target
			out.Items[0] = property.NewNumber("EXPOSURE", "Duration (s)", num)
			out.State = property.OK
		}
		c.Update(out)
	})
	return nil
}

// changeStreaming arms push-mode acquisition for a fixed number of frames:
// each delivered frame decrements the remaining counter, and the stream
// stops itself (by returning false from the push callback) once it hits
// zero, mirroring the single-shot path's configure/arm/transfer sequence.
func (c *CCD) changeStreaming(p property.Vector) error {
	current, _ := c.Vector("CCD_STREAMING")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	count := int(merged.Items[0].NumberValue().Target)
	if count <= 0 {
		merged.State = property.Alert
		merged.Message = "streaming count must be positive"
		c.Update(merged)
		return nil
	}

	c.mu.Lock()
	c.state = ccdConfiguring
	c.aborted = false
	c.remain = count
	c.mu.Unlock()

	merged.State = property.Busy
	c.Update(merged)

	if c.hw == nil {
		merged.State = property.Alert
		merged.Message = "no camera hardware attached"
		c.Update(merged)
		return nil
	}

	cfg := driver.FrameConfig{
		Width: c.frameWidth, Height: c.frameHeight, BitsPerPixel: c.frameBPP,
		BinX: 1, BinY: 1,
	}
	if err := c.hw.Configure(cfg); err != nil {
		merged.State = property.Alert
		merged.Message = err.Error()
		c.Update(merged)
		return nil
	}

	c.mu.Lock()
	c.state = ccdStreaming
	c.mu.Unlock()

	runAsync := c.sched.Async
	if runAsync == nil {
		runAsync = func(fn func()) { fn() }
	}
	runAsync(func() {
		err := c.hw.StartPush(func(buf []byte) bool {
			c.mu.Lock()
			aborted := c.aborted
			c.mu.Unlock()
			if aborted {
				return false
			}
			if c.sink != nil {
				imaging.Process(buf, c.frameWidth, c.frameHeight, c.frameBPP, true, "CCD_STREAMING", c.sink)
			}
			c.mu.Lock()
			c.remain--
			keepGoing := c.remain > 0
			c.mu.Unlock()
			return keepGoing
		})

		c.mu.Lock()
		c.state = ccdIdle
		aborted := c.aborted
		c.mu.Unlock()

		out := merged.Clone()
		if err != nil {
			out.State = property.Alert
			out.Message = err.Error()
		} else if aborted {
			out.State = property.OK
		} else {
			out.State = property.OK
		}
		c.Update(out)
	})
	return nil
}

func (c *CCD) changeAbort(p property.Vector) error {
	current, _ := c.Vector("CCD_ABORT_EXPOSURE")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}

	c.mu.Lock()
	wasExposing := c.state == ccdExposing || c.state == ccdTransferring || c.state == ccdStreaming
	c.aborted = true
	c.mu.Unlock()

	stopErr := error(nil)
	if wasExposing && c.hw != nil {
		stopErr = c.hw.AbortExposure()
	}

	exposure, ok := c.Vector("CCD_EXPOSURE")
	if ok {
		if stopErr != nil {
			exposure.State = property.Alert
			exposure.Message = stopErr.Error()
		} else {
			exposure.State = property.OK
		}
		c.Update(exposure)
	}

	merged.State = property.OK
	c.Update(merged)
	return nil
}

func (c *CCD) changeCooler(p property.Vector) error {
	current, _ := c.Vector("CCD_COOLER")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	on := merged.Items[0].SwitchValue()
	if c.hw != nil {
		if err := c.hw.SetCoolerOn(on); err != nil {
			merged.State = property.Alert
			merged.Message = err.Error()
			c.Update(merged)
			return nil
		}
	}
	merged.State = property.OK
	c.Update(merged)
	return nil
}

func (c *CCD) changeTemperatureTarget(p property.Vector) error {
	current, _ := c.Vector("CCD_TEMPERATURE")
	merged, err := property.CopyValues(current, p, true)
	if err != nil {
		return err
	}
	target := merged.Items[0].NumberValue().Target
	if c.hw != nil {
		if err := c.hw.SetTargetTemperature(target); err != nil {
			merged.State = property.Alert
			merged.Message = err.Error()
			c.Update(merged)
			return nil
		}
	}
	merged.State = property.Busy
	c.Update(merged)
	return nil
}

// pollCooling runs every 5 seconds while TEC is supported: reads the
// current/target temperature and reflects whether the sensor is still
// actively cooling toward its setpoint.
func (c *CCD) pollCooling() {
	defer func() {
		if c.sched != nil {
			c.sched.RescheduleTimer(c.coolTimer, 5*time.Second)
		}
	}()
	if c.hw == nil {
		return
	}
	value, target, err := c.hw.Temperature()
	if err != nil {
		return
	}
	on, _ := c.hw.CoolerOn()

	vec, ok := c.Vector("CCD_TEMPERATURE")
	if !ok {
		return
	}
	num := vec.Items[0].NumberValue()
	num.Value = value
	num.Target = target
	vec.Items[0] = property.NewNumber("TEMPERATURE", "Sensor (C)", num)
	if on && math.Abs(target-value) > 1.0 {
		vec.State = property.Busy
	} else {
		vec.State = property.OK
	}
	c.Update(vec)
}

