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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/property"
)

type fakeGuider struct {
	calls []pulseCall
	err   error
}

type pulseCall struct {
	axis driver.Axis
	dir  driver.Direction
	ms   int
}

func (g *fakeGuider) PulseGuide(axis driver.Axis, dir driver.Direction, ms int) error {
	g.calls = append(g.calls, pulseCall{axis, dir, ms})
	return g.err
}
func (g *fakeGuider) Close() error { return nil }

func TestGuiderDecPulsesNorth(t *testing.T) {
	hw := &fakeGuider{}
	g := NewGuider("guider-1", hw)

	write := property.NewNumberVector("guider-1", "GUIDER_GUIDE_DEC", "", "", property.ReadWrite,
		property.NewNumber("NORTH", "", property.NumberPayload{Target: 250}),
		property.NewNumber("SOUTH", "", property.NumberPayload{Target: 0}))
	require.NoError(t, g.ChangeProperty(nil, write))

	require.Len(t, hw.calls, 1)
	assert.Equal(t, driver.AxisDec, hw.calls[0].axis)
	assert.Equal(t, driver.DirectionPositive, hw.calls[0].dir)
	assert.Equal(t, 250, hw.calls[0].ms)

	v, _ := g.Vector("GUIDER_GUIDE_DEC")
	assert.Equal(t, property.OK, v.State)
}

func TestGuiderRaPulsesEast(t *testing.T) {
	hw := &fakeGuider{}
	g := NewGuider("guider-1", hw)

	write := property.NewNumberVector("guider-1", "GUIDER_GUIDE_RA", "", "", property.ReadWrite,
		property.NewNumber("WEST", "", property.NumberPayload{Target: 0}),
		property.NewNumber("EAST", "", property.NumberPayload{Target: 120}))
	require.NoError(t, g.ChangeProperty(nil, write))

	require.Len(t, hw.calls, 1)
	assert.Equal(t, driver.AxisRA, hw.calls[0].axis)
	assert.Equal(t, driver.DirectionNegative, hw.calls[0].dir)
}

func TestGuiderZeroDurationSkipsHardwareCall(t *testing.T) {
	hw := &fakeGuider{}
	g := NewGuider("guider-1", hw)

	write := property.NewNumberVector("guider-1", "GUIDER_GUIDE_DEC", "", "", property.ReadWrite,
		property.NewNumber("NORTH", "", property.NumberPayload{Target: 0}),
		property.NewNumber("SOUTH", "", property.NumberPayload{Target: 0}))
	require.NoError(t, g.ChangeProperty(nil, write))

	assert.Empty(t, hw.calls)
	v, _ := g.Vector("GUIDER_GUIDE_DEC")
	assert.Equal(t, property.OK, v.State)
}

func TestGuiderHardwareErrorSetsAlert(t *testing.T) {
	hw := &fakeGuider{err: errors.New("st4 cable disconnected")}
	g := NewGuider("guider-1", hw)

	write := property.NewNumberVector("guider-1", "GUIDER_GUIDE_DEC", "", "", property.ReadWrite,
		property.NewNumber("NORTH", "", property.NumberPayload{Target: 100}),
		property.NewNumber("SOUTH", "", property.NumberPayload{Target: 0}))
	require.NoError(t, g.ChangeProperty(nil, write))

	v, _ := g.Vector("GUIDER_GUIDE_DEC")
	assert.Equal(t, property.Alert, v.State)
	assert.Equal(t, "st4 cable disconnected", v.Message)
}
