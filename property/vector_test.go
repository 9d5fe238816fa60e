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

package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchWildcards(t *testing.T) {
	v := NewNumberVector("ccd-1", "CCD_EXPOSURE", "Main Control", "Expose", ReadWrite,
		NewNumber("EXPOSURE", "Duration (s)", NumberPayload{Min: 0, Max: 3600}))

	assert.True(t, v.Match("", ""), "empty device and name match everything")
	assert.True(t, v.Match("ccd-1", ""), "empty name matches any vector on the device")
	assert.True(t, v.Match("", "CCD_EXPOSURE"), "empty device matches any device with the name")
	assert.True(t, v.Match("ccd-1", "CCD_EXPOSURE"), "exact match")
	assert.False(t, v.Match("ccd-2", ""), "different device does not match")
	assert.False(t, v.Match("ccd-1", "CCD_ABORT_EXPOSURE"), "different name does not match")
}

func TestCopyValuesSubsetOnly(t *testing.T) {
	dst := NewNumberVector("ccd-1", "CCD_EXPOSURE", "Main Control", "Expose", ReadWrite,
		NewNumber("EXPOSURE", "Duration (s)", NumberPayload{Min: 0, Max: 3600, Value: 0, Target: 0}))

	src := NewNumberVector("ccd-1", "CCD_EXPOSURE", "", "", ReadWrite,
		NewNumber("EXPOSURE", "", NumberPayload{Target: 5}))

	merged, err := CopyValues(dst, src, true)
	require.NoError(t, err)
	assert.Equal(t, 5.0, merged.Items[0].NumberValue().Target)
	assert.Equal(t, "Duration (s)", merged.Items[0].Label, "label from dst is preserved, not overwritten by the partial write")
}

func TestCopyValuesUnknownItemRejected(t *testing.T) {
	dst := NewNumberVector("ccd-1", "CCD_EXPOSURE", "Main Control", "Expose", ReadWrite,
		NewNumber("EXPOSURE", "Duration (s)", NumberPayload{Min: 0, Max: 3600}))
	src := NewNumberVector("ccd-1", "CCD_EXPOSURE", "", "", ReadWrite,
		NewNumber("NOT_A_REAL_ITEM", "", NumberPayload{Target: 1}))

	_, err := CopyValues(dst, src, false)
	assert.Error(t, err, "writing an item the vector doesn't own must fail")
}

func TestVectorClone(t *testing.T) {
	v := NewTextVector("mount-1", "INFO", "Main Control", "Info", ReadOnly,
		NewText("DEVICE_MODEL", "Model", "Simulated Mount"))
	clone := v.Clone()
	clone.Items[0] = NewText("DEVICE_MODEL", "Model", "changed")

	assert.Equal(t, "Simulated Mount", v.Items[0].Text(), "mutating the clone must not affect the original")
}
