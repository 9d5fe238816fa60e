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

	"github.com/kkretzschmar/indigo-go/logging"
)

// Shared is one hardware unit's multiplexed handle: every role device
// built on top of the same piece of hardware (e.g. imaging + autoguide)
// calls Acquire/Release on the same *Shared rather than opening its own
// connection. The underlying handle is opened on the first Acquire and
// closed only once Release has brought the connection count back to
// zero, so connecting or disconnecting one role never disturbs another
// role still in use.
type Shared struct {
	mu     sync.Mutex
	ID     string
	opener Opener
	handle Handle
	count  int
}

// NewShared constructs a Shared for hardware id, opened lazily via opener.
func NewShared(id string, opener Opener) *Shared {
	s := &Shared{ID: id, opener: opener}
	logging.Label(s, "driver.Shared("+id+")")
	return s
}

// Acquire increments the connection count, opening the handle if this is
// the first connected role.
func (s *Shared) Acquire() (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		h, err := s.opener.Open(s.ID)
		if err != nil {
			return nil, err
		}
		s.handle = h
		logging.Fine("%s: opened", logging.ID(s))
	}
	s.count++
	return s.handle, nil
}

// Release decrements the connection count, closing the handle once the
// last connected role releases it.
func (s *Shared) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return nil
	}
	s.count--
	if s.count > 0 {
		return nil
	}
	h := s.handle
	s.handle = nil
	if h == nil {
		return nil
	}
	logging.Fine("%s: closed", logging.ID(s))
	return h.Close()
}

// Connected reports the current number of connected roles, for tests
// asserting reference-count behavior.
func (s *Shared) Connected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
