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
Package netlinkhotplug enumerates network-attached instruments as
netlink links whose name carries a known prefix (the pattern a
network-bridged mount or camera gateway registers itself under), and
notifies on any link add/remove/state-change netlink reports.
*/
package netlinkhotplug

import (
	"strings"
	"sync"

	"github.com/vishvananda/netlink"

	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/logging"
)

// Source enumerates every "up" link whose name carries prefix as a
// driver.Instance exposing roles.
type Source struct {
	prefix string
	roles  []string

	mu       sync.Mutex
	callback func()
	done     chan struct{}
}

// New constructs a Source watching for links named prefix+"*".
func New(prefix string, roles []string) *Source {
	return &Source{prefix: prefix, roles: roles}
}

// Enumerate implements driver.Enumerator.
func (s *Source) Enumerate() ([]driver.Instance, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}
	var out []driver.Instance
	for _, link := range links {
		attrs := link.Attrs()
		if !strings.HasPrefix(attrs.Name, s.prefix) {
			continue
		}
		if attrs.OperState != netlink.OperUp {
			continue
		}
		out = append(out, driver.Instance{ID: attrs.Name, Roles: s.roles})
	}
	return out, nil
}

// RegisterHotplugCallback implements driver.HotplugRegistrar.
func (s *Source) RegisterHotplugCallback(fn func()) {
	s.mu.Lock()
	s.callback = fn
	if s.done == nil {
		s.done = make(chan struct{})
	}
	done := s.done
	s.mu.Unlock()

	updates := make(chan netlink.LinkUpdate, 16)
	if err := netlink.LinkSubscribe(updates, done); err != nil {
		logging.Log("netlinkhotplug: subscribe failed: %v", err)
		return
	}
	go s.listen(updates)
}

func (s *Source) listen(updates chan netlink.LinkUpdate) {
	for u := range updates {
		if !strings.HasPrefix(u.Link.Attrs().Name, s.prefix) {
			continue
		}
		s.mu.Lock()
		cb := s.callback
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}

// Close stops the netlink subscription.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}
