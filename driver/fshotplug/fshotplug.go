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
Package fshotplug enumerates USB-serial instruments as device nodes
under a directory (e.g. /dev/serial/by-id) matching a name prefix, and
notifies on any fsnotify event in that directory so a driver.Manager
can re-run reconciliation when a cable is plugged or unplugged.
*/
package fshotplug

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/kkretzschmar/indigo-go/driver"
	"github.com/kkretzschmar/indigo-go/logging"
)

// Source enumerates entries of dir whose name carries prefix as a
// driver.Instance exposing roles.
type Source struct {
	dir    string
	prefix string
	roles  []string

	watcher *fsnotify.Watcher
}

// New constructs a Source watching dir for device nodes named prefix+"*".
func New(dir, prefix string, roles []string) *Source {
	return &Source{dir: dir, prefix: prefix, roles: roles}
}

// Enumerate implements driver.Enumerator.
func (s *Source) Enumerate() ([]driver.Instance, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []driver.Instance
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), s.prefix) {
			continue
		}
		out = append(out, driver.Instance{
			ID:    filepath.Join(s.dir, e.Name()),
			Roles: s.roles,
		})
	}
	return out, nil
}

// RegisterHotplugCallback implements driver.HotplugRegistrar.
func (s *Source) RegisterHotplugCallback(fn func()) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Log("fshotplug: watcher setup failed: %v", err)
		return
	}
	if err := w.Add(s.dir); err != nil {
		logging.Log("fshotplug: cannot watch %s: %v", s.dir, err)
		w.Close()
		return
	}
	s.watcher = w
	go s.listen(fn)
}

func (s *Source) listen(fn func()) {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasPrefix(filepath.Base(event.Name), s.prefix) {
				continue
			}
			fn()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logging.Log("fshotplug: watch error on %s: %v", s.dir, err)
		}
	}
}

// Close stops the directory watch.
func (s *Source) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
