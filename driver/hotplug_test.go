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

package driver_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/testing/busfake"
)

type fixedEnumerator struct {
	instances []driver.Instance
}

func (e *fixedEnumerator) Enumerate() ([]driver.Instance, error) {
	return e.instances, nil
}

type fakeOpener struct{}

func (fakeOpener) Open(id string) (driver.Handle, error) { return fakeHandle{}, nil }

type fakeHandle struct{}

func (fakeHandle) Close() error { return nil }

func sortedSlots(m *driver.Manager) []string {
	ids := m.Slots()
	sort.Strings(ids)
	return ids
}

func TestReconcileAttachesNewlyEnumeratedInstances(t *testing.T) {
	b := bus.New()
	spawned := map[string]int{}
	spawn := func(inst driver.Instance, shared *driver.Shared) []bus.Device {
		spawned[inst.ID]++
		return []bus.Device{busfake.NewDevice(inst.ID)}
	}
	m := driver.NewManager(b, fakeOpener{}, spawn)
	enum := &fixedEnumerator{instances: []driver.Instance{{ID: "cam-1", Roles: []string{"camera"}}}}

	require.NoError(t, m.Reconcile(enum))
	assert.Equal(t, []string{"cam-1"}, sortedSlots(m))
	assert.Equal(t, 1, spawned["cam-1"])
}

func TestReconcileTwiceWithUnchangedEnumerationDoesNotRespawn(t *testing.T) {
	b := bus.New()
	spawned := map[string]int{}
	spawn := func(inst driver.Instance, shared *driver.Shared) []bus.Device {
		spawned[inst.ID]++
		return []bus.Device{busfake.NewDevice(inst.ID)}
	}
	m := driver.NewManager(b, fakeOpener{}, spawn)
	enum := &fixedEnumerator{instances: []driver.Instance{{ID: "cam-1", Roles: []string{"camera"}}}}

	require.NoError(t, m.Reconcile(enum))
	require.NoError(t, m.Reconcile(enum))

	assert.Equal(t, 1, spawned["cam-1"], "an unchanged enumeration must not respawn an already-present instance")
}

func TestReconcileDetachesInstancesNoLongerEnumerated(t *testing.T) {
	b := bus.New()
	var dev *busfake.Device
	spawn := func(inst driver.Instance, shared *driver.Shared) []bus.Device {
		dev = busfake.NewDevice(inst.ID)
		return []bus.Device{dev}
	}
	m := driver.NewManager(b, fakeOpener{}, spawn)

	present := &fixedEnumerator{instances: []driver.Instance{{ID: "cam-1", Roles: []string{"camera"}}}}
	require.NoError(t, m.Reconcile(present))
	require.NotNil(t, dev)

	empty := &fixedEnumerator{}
	require.NoError(t, m.Reconcile(empty))

	assert.Empty(t, m.Slots())
	assert.True(t, dev.Detached)
}

func TestReconcileKeepsSlotAcrossRepeatedPresence(t *testing.T) {
	b := bus.New()
	spawned := map[string]int{}
	spawn := func(inst driver.Instance, shared *driver.Shared) []bus.Device {
		spawned[inst.ID]++
		return []bus.Device{busfake.NewDevice(inst.ID)}
	}
	m := driver.NewManager(b, fakeOpener{}, spawn)

	enum := &fixedEnumerator{instances: []driver.Instance{
		{ID: "cam-1", Roles: []string{"camera"}},
		{ID: "wheel-1", Roles: []string{"wheel"}},
	}}
	require.NoError(t, m.Reconcile(enum))
	require.NoError(t, m.Reconcile(enum))

	assert.Equal(t, []string{"cam-1", "wheel-1"}, sortedSlots(m))
	assert.Equal(t, 1, spawned["cam-1"])
	assert.Equal(t, 1, spawned["wheel-1"])
}
