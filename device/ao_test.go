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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/property"
)

func TestAOGuidePulsesEachNonzeroAxis(t *testing.T) {
	hw := &fakeGuider{}
	a := NewAO("ao-1", hw)

	write := property.NewNumberVector("ao-1", "AO_GUIDE", "", "", property.ReadWrite,
		property.NewNumber("NORTH", "", property.NumberPayload{Target: 50}),
		property.NewNumber("SOUTH", "", property.NumberPayload{Target: 0}),
		property.NewNumber("EAST", "", property.NumberPayload{Target: 0}),
		property.NewNumber("WEST", "", property.NumberPayload{Target: 30}))
	require.NoError(t, a.ChangeProperty(nil, write))

	require.Len(t, hw.calls, 2)
	assert.Equal(t, driver.AxisDec, hw.calls[0].axis)
	assert.Equal(t, driver.DirectionPositive, hw.calls[0].dir)
	assert.Equal(t, 50, hw.calls[0].ms)
	assert.Equal(t, driver.AxisRA, hw.calls[1].axis)
	assert.Equal(t, driver.DirectionPositive, hw.calls[1].dir)
	assert.Equal(t, 30, hw.calls[1].ms)

	v, _ := a.Vector("AO_GUIDE")
	assert.Equal(t, property.OK, v.State)
}

func TestAOWithoutHardwareAlerts(t *testing.T) {
	a := NewAO("ao-1", nil)

	write := property.NewNumberVector("ao-1", "AO_GUIDE", "", "", property.ReadWrite,
		property.NewNumber("NORTH", "", property.NumberPayload{Target: 10}),
		property.NewNumber("SOUTH", "", property.NumberPayload{Target: 0}),
		property.NewNumber("EAST", "", property.NumberPayload{Target: 0}),
		property.NewNumber("WEST", "", property.NumberPayload{Target: 0}))
	require.NoError(t, a.ChangeProperty(nil, write))

	v, _ := a.Vector("AO_GUIDE")
	assert.Equal(t, property.Alert, v.State)
}
