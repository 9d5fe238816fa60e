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
Package dbushotplug enumerates hardware instances advertised as DBus
well-known names under a service namespace (as a udisks-style daemon
does for USB-attached instruments) and notifies on ownership changes so
a driver.Manager can re-run reconciliation.
*/
package dbushotplug

import (
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/logging"
)

const (
	busIface         = "org.freedesktop.DBus"
	nameOwnerChanged = "NameOwnerChanged"
)

// Source enumerates every well-known name under namespace (e.g.
// "org.indigo.driver") as a driver.Instance, and invokes a registered
// hotplug callback whenever DBus reports an owner change for a name in
// that namespace.
type Source struct {
	namespace string
	roles     []string

	mu       sync.Mutex
	conn     *dbus.Conn
	callback func()
}

// New constructs a Source watching namespace for instances exposing
// roles (e.g. []string{"camera"}).
func New(namespace string, roles []string) *Source {
	return &Source{namespace: namespace, roles: roles}
}

// Enumerate implements driver.Enumerator.
func (s *Source) Enumerate() ([]driver.Instance, error) {
	conn, err := s.conn0()
	if err != nil {
		return nil, err
	}
	var names []string
	if err := conn.BusObject().Call(busIface+".ListNames", 0).Store(&names); err != nil {
		return nil, err
	}
	var out []driver.Instance
	for _, n := range names {
		if !strings.HasPrefix(n, s.namespace+".") {
			continue
		}
		out = append(out, driver.Instance{ID: n, Roles: s.roles})
	}
	return out, nil
}

// RegisterHotplugCallback implements driver.HotplugRegistrar.
func (s *Source) RegisterHotplugCallback(fn func()) {
	s.mu.Lock()
	s.callback = fn
	s.mu.Unlock()

	conn, err := s.conn0()
	if err != nil {
		logging.Log("dbushotplug: cannot watch %s: %v", s.namespace, err)
		return
	}
	call := conn.BusObject().Call(busIface+".AddMatch", 0,
		"type='signal',interface='"+busIface+"',member='"+nameOwnerChanged+"',arg0namespace='"+s.namespace+"'")
	if call.Err != nil {
		logging.Log("dbushotplug: AddMatch failed for %s: %v", s.namespace, call.Err)
		return
	}
	ch := make(chan *dbus.Signal, 16)
	conn.Signal(ch)
	go s.listen(ch)
}

func (s *Source) listen(ch chan *dbus.Signal) {
	for range ch {
		s.mu.Lock()
		cb := s.callback
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}

func (s *Source) conn0() (*dbus.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := dbus.SystemBusPrivate()
	if err != nil {
		return nil, err
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return nil, err
	}
	s.conn = conn
	return conn, nil
}
