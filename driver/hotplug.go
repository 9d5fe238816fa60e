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

package driver

import (
	"sync"

	"github.com/kkretzschmar/indigo-go/bus"
	"github.com/kkretzschmar/indigo-go/logging"
)

// Spawn builds the role devices for a newly discovered hardware instance,
// wiring each to shared for its hardware access.
type Spawn func(inst Instance, shared *Shared) []bus.Device

// slot is the bookkeeping Manager keeps for one piece of hardware,
// present or not.
type slot struct {
	instance Instance
	shared   *Shared
	roles    []bus.Device
	present  bool
}

// Manager runs hot-plug reconciliation for one Enumerator/Opener pair
// against a Bus, keeping a map of hardware id to slot rather than a
// fixed-size array: there is no capacity to exceed and no stale loop
// index to misuse when searching for a free entry.
type Manager struct {
	mu    sync.Mutex
	bus   *bus.Bus
	open  Opener
	spawn Spawn
	slots map[string]*slot
}

// NewManager constructs a Manager that reconciles instances from enum
// against b, opening hardware through open and building role devices
// with spawn.
func NewManager(b *bus.Bus, open Opener, spawn Spawn) *Manager {
	return &Manager{bus: b, open: open, spawn: spawn, slots: map[string]*slot{}}
}

// Reconcile runs one mark/enumerate/sweep pass: every slot is marked
// absent, the enumeration is applied (matching slots are kept, new ones
// are allocated and attached), then every slot still absent is detached
// and its shared handle released. Running Reconcile twice in a row
// against an unchanged enumeration is a no-op on the second pass.
func (m *Manager) Reconcile(enum Enumerator) error {
	instances, err := enum.Enumerate()
	if err != nil {
		return err
	}

	m.mu.Lock()
	for _, s := range m.slots {
		s.present = false
	}

	var toAttach []*slot
	for _, inst := range instances {
		s, ok := m.slots[inst.ID]
		if ok {
			s.present = true
			continue
		}
		s = &slot{
			instance: inst,
			shared:   NewShared(inst.ID, m.open),
			present:  true,
		}
		m.slots[inst.ID] = s
		toAttach = append(toAttach, s)
	}

	var toDetach []*slot
	for id, s := range m.slots {
		if !s.present {
			toDetach = append(toDetach, s)
			delete(m.slots, id)
		}
	}
	m.mu.Unlock()

	for _, s := range toAttach {
		s.roles = m.spawn(s.instance, s.shared)
		for _, d := range s.roles {
			if err := m.bus.AttachDevice(d); err != nil {
				logging.Log("hotplug: attach %s: %v", d.ID(), err)
			}
		}
	}
	for _, s := range toDetach {
		for _, d := range s.roles {
			m.bus.DetachDevice(d)
		}
		for s.shared.Connected() > 0 {
			if err := s.shared.Release(); err != nil {
				logging.Log("hotplug: release %s: %v", s.instance.ID, err)
				break
			}
		}
	}
	return nil
}

// Slots reports the hardware ids currently believed present, for tests.
func (m *Manager) Slots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.slots))
	for id := range m.slots {
		ids = append(ids, id)
	}
	return ids
}
