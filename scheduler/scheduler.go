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
Package scheduler implements the timer and async-task primitives:
one-shot device-scoped timers with a synchronous, race-free Cancel, an
idempotent Reschedule, and fire-and-forget async tasks. It is the one
place in the module that owns real wall-clock timers; every other
package depends on it through the Scheduler interface so tests can
substitute the deterministic test-mode implementation below instead of
sleeping.
*/
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handle identifies a previously scheduled timer.
type Handle uint64

// Scheduler is the capability contract drivers depend on. A *Scheduler
// (below) implements it directly; tests use NewTestScheduler.
type Scheduler interface {
	// SetTimer schedules fn to run once, after delay, on its own
	// goroutine associated with device (used only for logging/ID
	// purposes; the goroutine is not shared across timers).
	SetTimer(device string, delay time.Duration, fn func()) Handle
	// RescheduleTimer changes the firing delay of an existing timer.
	// It is idempotent: if the timer has already fired, this behaves
	// exactly like a fresh SetTimer with the same handle.
	RescheduleTimer(h Handle, delay time.Duration)
	// CancelTimer synchronously guarantees that fn will not be invoked
	// after CancelTimer returns: it cancels a pending fire, or blocks
	// until an in-flight one completes.
	CancelTimer(h Handle)
	// Async launches fn as a fire-and-forget task.
	Async(fn func())
}

// timer is the live state for one scheduled callback.
type timer struct {
	mu     sync.Mutex
	device string
	fn     func()
	t      *time.Timer
	state  timerState
	doneCh chan struct{}
}

type timerState int

const (
	statePending timerState = iota
	stateFiring
	stateFired
	stateCancelled
)

func (tm *timer) fire() {
	tm.mu.Lock()
	if tm.state != statePending {
		tm.mu.Unlock()
		return
	}
	tm.state = stateFiring
	done := tm.doneCh
	tm.mu.Unlock()

	tm.fn()

	tm.mu.Lock()
	// fn may have re-armed the timer through reschedule; keep that state.
	if tm.state == stateFiring {
		tm.state = stateFired
	}
	close(done)
	tm.mu.Unlock()
}

// cancel implements the synchronous-cancel contract: it blocks only if a
// fire is already in flight, never if the timer is merely pending or has
// already completed.
func (tm *timer) cancel() {
	tm.mu.Lock()
	switch tm.state {
	case statePending:
		tm.t.Stop()
		tm.state = stateCancelled
		tm.mu.Unlock()
	case stateFiring:
		ch := tm.doneCh
		tm.mu.Unlock()
		<-ch
	default:
		tm.mu.Unlock()
	}
}

// reschedule arms (or re-arms) the timer to fire after delay. It is
// idempotent regardless of the timer's current state.
func (tm *timer) reschedule(delay time.Duration, newTimer func(time.Duration, func()) *time.Timer) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.t != nil {
		tm.t.Stop()
	}
	tm.doneCh = make(chan struct{})
	tm.state = statePending
	tm.t = newTimer(delay, tm.fire)
}

// Scheduler is the real, wall-clock-backed implementation of the
// Scheduler interface.
type Scheduler struct {
	mu     sync.Mutex
	timers map[Handle]*timer
	nextID uint64
}

// New constructs a real Scheduler.
func New() *Scheduler {
	return &Scheduler{timers: make(map[Handle]*timer)}
}

func (s *Scheduler) newTimer(delay time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(delay, fn)
}

// SetTimer implements Scheduler.
func (s *Scheduler) SetTimer(device string, delay time.Duration, fn func()) Handle {
	tm := &timer{device: device, fn: fn, doneCh: make(chan struct{})}
	h := Handle(atomic.AddUint64(&s.nextID, 1))
	s.mu.Lock()
	s.timers[h] = tm
	s.mu.Unlock()
	tm.reschedule(delay, s.newTimer)
	return h
}

// RescheduleTimer implements Scheduler.
func (s *Scheduler) RescheduleTimer(h Handle, delay time.Duration) {
	s.mu.Lock()
	tm, ok := s.timers[h]
	s.mu.Unlock()
	if !ok {
		return
	}
	tm.reschedule(delay, s.newTimer)
}

// CancelTimer implements Scheduler.
func (s *Scheduler) CancelTimer(h Handle) {
	s.mu.Lock()
	tm, ok := s.timers[h]
	s.mu.Unlock()
	if !ok {
		return
	}
	tm.cancel()
}

// Async implements Scheduler.
func (s *Scheduler) Async(fn func()) {
	go fn()
}
