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

package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkretzschmar/indigo-go/property"
)

type recordingTarget struct {
	device string
	vector property.Vector
}

func (r *recordingTarget) ChangeProperty(device string, v property.Vector) error {
	r.device = device
	r.vector = v
	return nil
}

type recordingSource struct {
	device, name string
}

func (r *recordingSource) ReplayTo(device, name string) {
	r.device, r.name = device, name
}

func TestDecodeNewVectorRoutesToTarget(t *testing.T) {
	const xml = `<newNumberVector device='ccd-1' name='CCD_EXPOSURE'>
  <oneNumber name='EXPOSURE'>5.5</oneNumber>
</newNumberVector>`

	target := &recordingTarget{}
	d := NewDecoder(strings.NewReader(xml), target, nil)
	require.NoError(t, d.Run())

	assert.Equal(t, "ccd-1", target.device)
	require.Len(t, target.vector.Items, 1)
	assert.Equal(t, 5.5, target.vector.Items[0].NumberValue().Target)
}

func TestDecodeConcatenatedElementsWithoutWhitespace(t *testing.T) {
	const xml = `<newSwitchVector device='wheel-1' name='WHEEL_CONNECT'><oneSwitch name='CONNECT'>On</oneSwitch></newSwitchVector><getProperties device='wheel-1'/>`

	target := &recordingTarget{}
	source := &recordingSource{}
	d := NewDecoder(strings.NewReader(xml), target, source)
	require.NoError(t, d.Run())

	assert.Equal(t, "wheel-1", target.device)
	assert.Equal(t, "wheel-1", source.device)
}

func TestDecodeSkipsUnrecognisedElementAndContinues(t *testing.T) {
	const xmlFragment = `<somethingWeird foo='bar'/><newTextVector device='d' name='INFO'><oneText name='DEVICE_MODEL'>x</oneText></newTextVector>`

	target := &recordingTarget{}
	d := NewDecoder(strings.NewReader(xmlFragment), target, nil)
	require.NoError(t, d.Run())
	assert.Equal(t, "d", target.device)
}

func TestEnableBLOBTracksPerDeviceAndNameMode(t *testing.T) {
	const xmlFragment = `<enableBLOB device='ccd-1' name='CCD1'>Also</enableBLOB>`
	d := NewDecoder(strings.NewReader(xmlFragment), &recordingTarget{}, nil)
	require.NoError(t, d.Run())
	assert.Equal(t, "Also", d.BLOBMode["ccd-1\x00CCD1"])
}

func TestDecodeSnapshotRoundTripsEncodeDefine(t *testing.T) {
	v := property.NewNumberVector("ccd-1", "CCD_EXPOSURE", "Main Control", "Expose", property.ReadWrite,
		property.NewNumber("EXPOSURE", "Duration (s)", property.NumberPayload{Value: 5, Target: 5, Min: 0, Max: 3600}))
	v.State = property.OK

	data := EncodeDefine("ccd-1", v)
	snapshot, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "ccd-1", snapshot[0].Device)
	assert.Equal(t, "CCD_EXPOSURE", snapshot[0].Name)
	require.Len(t, snapshot[0].Items, 1)
	assert.Equal(t, 5.0, snapshot[0].Items[0].NumberValue().Target)
}

func TestDecodeSnapshotMultipleVectors(t *testing.T) {
	a := property.NewSwitchVector("wheel-1", "CONNECTION", "Main Control", "Connection", property.ReadWrite,
		property.OneOfMany, property.NewSwitch("CONNECT", "Connect", true), property.NewSwitch("DISCONNECT", "Disconnect", false))
	b := property.NewNumberVector("wheel-1", "WHEEL_SLOT", "Main Control", "Slot", property.ReadWrite,
		property.NewNumber("SLOT", "Slot", property.NumberPayload{Value: 2, Target: 2}))

	var data []byte
	data = append(data, EncodeDefine("wheel-1", a)...)
	data = append(data, EncodeDefine("wheel-1", b)...)

	snapshot, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "CONNECTION", snapshot[0].Name)
	assert.Equal(t, "WHEEL_SLOT", snapshot[1].Name)
}
