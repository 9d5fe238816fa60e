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

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkretzschmar/indigo-go/property"
)

func TestSaveConfigThenLoadConfigRoundTripsSlotPosition(t *testing.T) {
	SetFilesystem(afero.NewMemMapFs())
	defer SetFilesystem(afero.NewOsFs())

	hw := &fakeWheel{}
	w := NewFilterWheel("wheel-1", hw, []string{"Red", "Green", "Blue"})

	write := property.NewNumberVector("wheel-1", "WHEEL_SLOT", "", "", property.ReadWrite,
		property.NewNumber("SLOT", "", property.NumberPayload{Target: 2}))
	require.NoError(t, w.ChangeProperty(nil, write))

	require.NoError(t, SaveConfig(w.Base, "/etc/indigo/wheel-1.xml"))

	fresh := NewFilterWheel("wheel-1", &fakeWheel{}, []string{"Red", "Green", "Blue"})
	require.NoError(t, LoadConfig(fresh.Base, "/etc/indigo/wheel-1.xml"))

	v, ok := fresh.Vector("WHEEL_SLOT")
	require.True(t, ok)
	assert.Equal(t, 2.0, v.Items[0].NumberValue().Target)
	assert.Equal(t, property.OK, v.State)
}

func TestLoadConfigMissingFileReturnsError(t *testing.T) {
	SetFilesystem(afero.NewMemMapFs())
	defer SetFilesystem(afero.NewOsFs())

	w := NewFilterWheel("wheel-1", &fakeWheel{}, []string{"Red"})
	err := LoadConfig(w.Base, "/does/not/exist.xml")
	assert.Error(t, err)
}

func TestLoadConfigIgnoresUnknownVectorNames(t *testing.T) {
	SetFilesystem(afero.NewMemMapFs())
	defer SetFilesystem(afero.NewOsFs())

	donor := NewMount("mount-1", &fakeMount{})
	require.NoError(t, SaveConfig(donor.Base, "/snapshot.xml"))

	w := NewFilterWheel("wheel-1", &fakeWheel{}, []string{"Red"})
	require.NoError(t, LoadConfig(w.Base, "/snapshot.xml"), "vectors absent from the live device must be skipped, not error")
}
