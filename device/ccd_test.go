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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/imaging"
	"github.com/kkretzschmar/indigo-go/property"
	"github.com/kkretzschmar/indigo-go/scheduler"
)

// fakeCamera blocks inside StartPull until release is closed, so a test
// can issue an abort while an exposure is in flight.
type fakeCamera struct {
	mu           sync.Mutex
	configured   driver.FrameConfig
	started      chan struct{}
	release      chan struct{}
	abortHit     bool
	abortErr     error
	supportsTEC  bool
	coolerOn     bool
	temp, target float64

	pushFrames int
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (c *fakeCamera) Close() error { return nil }
func (c *fakeCamera) Configure(cfg driver.FrameConfig) error {
	c.mu.Lock()
	c.configured = cfg
	c.mu.Unlock()
	return nil
}
func (c *fakeCamera) StartPull(fn func(buf []byte)) error {
	c.started <- struct{}{}
	<-c.release
	buf := make([]byte, imaging.HeaderSize+16)
	fn(buf)
	return nil
}
// StartPush delivers frames until fn returns false or abortHit is set,
// counting how many frames it actually delivered in pushFrames.
func (c *fakeCamera) StartPush(fn func(buf []byte) bool) error {
	for {
		c.mu.Lock()
		aborted := c.abortHit
		c.mu.Unlock()
		if aborted {
			return nil
		}
		buf := make([]byte, imaging.HeaderSize+16)
		c.mu.Lock()
		c.pushFrames++
		c.mu.Unlock()
		if !fn(buf) {
			return nil
		}
	}
}
func (c *fakeCamera) StopAcquisition() error { return nil }
func (c *fakeCamera) AbortExposure() error {
	c.mu.Lock()
	c.abortHit = true
	err := c.abortErr
	c.mu.Unlock()
	close(c.release)
	return err
}
func (c *fakeCamera) SupportsTEC() bool { return c.supportsTEC }
func (c *fakeCamera) Temperature() (float64, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.temp, c.target, nil
}
func (c *fakeCamera) SetTargetTemperature(target float64) error {
	c.mu.Lock()
	c.target = target
	c.mu.Unlock()
	return nil
}
func (c *fakeCamera) SetCoolerOn(on bool) error {
	c.mu.Lock()
	c.coolerOn = on
	c.mu.Unlock()
	return nil
}
func (c *fakeCamera) CoolerOn() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coolerOn, nil
}

func waitForExposureState(t *testing.T, c *CCD, want property.State) property.Vector {
	t.Helper()
	return waitForVectorState(t, c, "CCD_EXPOSURE", want)
}

func waitForVectorState(t *testing.T, c *CCD, name string, want property.State) property.Vector {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, ok := c.Vector(name)
		if ok && v.State == want {
			return v
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("%s never reached state %v", name, want)
	return property.Vector{}
}

func TestCCDExposureDeliversFrameToSink(t *testing.T) {
	hw := newFakeCamera()
	var delivered []byte
	sink := func(buf []byte, w, h, bpp int, isRaw bool, hint string) { delivered = buf }

	c := NewCCD("ccd-1", hw, scheduler.New(), sink, 64, 48, 16)

	write := property.NewNumberVector("ccd-1", "CCD_EXPOSURE", "", "", property.ReadWrite,
		property.NewNumber("EXPOSURE", "", property.NumberPayload{Target: 1}))
	require.NoError(t, c.ChangeProperty(nil, write))

	<-hw.started
	close(hw.release)

	waitForExposureState(t, c, property.OK)
	assert.NotNil(t, delivered, "a completed, non-aborted exposure must deliver a frame to the sink")
}

func TestCCDAbortDuringExposureSkipsSink(t *testing.T) {
	hw := newFakeCamera()
	sinkCalled := false
	sink := func(buf []byte, w, h, bpp int, isRaw bool, hint string) { sinkCalled = true }

	c := NewCCD("ccd-1", hw, scheduler.New(), sink, 64, 48, 16)

	write := property.NewNumberVector("ccd-1", "CCD_EXPOSURE", "", "", property.ReadWrite,
		property.NewNumber("EXPOSURE", "", property.NumberPayload{Target: 30}))
	require.NoError(t, c.ChangeProperty(nil, write))

	<-hw.started

	abort := property.NewSwitchVector("ccd-1", "CCD_ABORT_EXPOSURE", "", "", property.ReadWrite, property.OneOfMany,
		property.NewSwitch("ABORT", "", true))
	require.NoError(t, c.ChangeProperty(nil, abort))

	waitForExposureState(t, c, property.OK)
	assert.False(t, sinkCalled, "an aborted exposure must not deliver a frame")
	assert.True(t, hw.abortHit)
}

func TestCCDExposureWithoutHardwareAlerts(t *testing.T) {
	c := NewCCD("ccd-1", nil, scheduler.New(), nil, 64, 48, 16)

	write := property.NewNumberVector("ccd-1", "CCD_EXPOSURE", "", "", property.ReadWrite,
		property.NewNumber("EXPOSURE", "", property.NumberPayload{Target: 1}))
	require.NoError(t, c.ChangeProperty(nil, write))

	v, _ := c.Vector("CCD_EXPOSURE")
	assert.Equal(t, property.Alert, v.State)
}

func TestCCDStreamingStopsAfterRequestedFrameCount(t *testing.T) {
	hw := newFakeCamera()
	var delivered int
	sink := func(buf []byte, w, h, bpp int, isRaw bool, hint string) { delivered++ }

	c := NewCCD("ccd-1", hw, scheduler.New(), sink, 64, 48, 16)

	write := property.NewNumberVector("ccd-1", "CCD_STREAMING", "", "", property.ReadWrite,
		property.NewNumber("COUNT", "", property.NumberPayload{Target: 3}))
	require.NoError(t, c.ChangeProperty(nil, write))

	waitForVectorState(t, c, "CCD_STREAMING", property.OK)
	assert.Equal(t, 3, delivered, "streaming must stop once the requested frame count is delivered")
	assert.Equal(t, 3, hw.pushFrames)
}

func TestCCDStreamingNonPositiveCountAlerts(t *testing.T) {
	c := NewCCD("ccd-1", newFakeCamera(), scheduler.New(), nil, 64, 48, 16)

	write := property.NewNumberVector("ccd-1", "CCD_STREAMING", "", "", property.ReadWrite,
		property.NewNumber("COUNT", "", property.NumberPayload{Target: 0}))
	require.NoError(t, c.ChangeProperty(nil, write))

	v, _ := c.Vector("CCD_STREAMING")
	assert.Equal(t, property.Alert, v.State)
}

func TestCCDStreamingWithoutHardwareAlerts(t *testing.T) {
	c := NewCCD("ccd-1", nil, scheduler.New(), nil, 64, 48, 16)

	write := property.NewNumberVector("ccd-1", "CCD_STREAMING", "", "", property.ReadWrite,
		property.NewNumber("COUNT", "", property.NumberPayload{Target: 2}))
	require.NoError(t, c.ChangeProperty(nil, write))

	v, _ := c.Vector("CCD_STREAMING")
	assert.Equal(t, property.Alert, v.State)
}

func TestCCDCoolerDefinesVectorsOnlyWhenTECSupported(t *testing.T) {
	withTEC := newFakeCamera()
	withTEC.supportsTEC = true
	c := NewCCD("ccd-1", withTEC, scheduler.New(), nil, 64, 48, 16)
	_, ok := c.Vector("CCD_COOLER")
	assert.True(t, ok)

	withoutTEC := newFakeCamera()
	withoutTEC.supportsTEC = false
	c2 := NewCCD("ccd-2", withoutTEC, scheduler.New(), nil, 64, 48, 16)
	_, ok = c2.Vector("CCD_COOLER")
	assert.False(t, ok)
}
