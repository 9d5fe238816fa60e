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

package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestSchedulerFiresInOrder(t *testing.T) {
	s := NewTestScheduler()
	var order []int

	s.SetTimer("d1", 10*time.Second, func() { order = append(order, 1) })
	s.SetTimer("d1", 5*time.Second, func() { order = append(order, 2) })
	s.SetTimer("d1", 20*time.Second, func() { order = append(order, 3) })

	s.AdvanceBy(30 * time.Second)
	assert.Equal(t, []int{2, 1, 3}, order)
}

func TestTestSchedulerCancelPreventsFire(t *testing.T) {
	s := NewTestScheduler()
	fired := false
	h := s.SetTimer("d1", time.Second, func() { fired = true })
	s.CancelTimer(h)
	s.AdvanceBy(time.Hour)
	assert.False(t, fired)
}

func TestTestSchedulerRescheduleDelaysFire(t *testing.T) {
	s := NewTestScheduler()
	fired := false
	h := s.SetTimer("d1", time.Second, func() { fired = true })
	s.RescheduleTimer(h, time.Minute)

	s.AdvanceBy(2 * time.Second)
	assert.False(t, fired, "original delay must no longer apply")

	s.AdvanceBy(time.Minute)
	assert.True(t, fired)
}

func TestTestSchedulerAsyncRunsSynchronously(t *testing.T) {
	s := NewTestScheduler()
	ran := false
	s.Async(func() { ran = true })
	assert.True(t, ran, "test-mode Async must run inline so assertions made right after observe its effect")
}

func TestSchedulerCancelBlocksUntilInFlightFireCompletes(t *testing.T) {
	s := New()
	var started, finished int32
	release := make(chan struct{})

	h := s.SetTimer("d1", time.Millisecond, func() {
		atomic.StoreInt32(&started, 1)
		<-release
		atomic.StoreInt32(&finished, 1)
	})

	for atomic.LoadInt32(&started) == 0 {
		time.Sleep(time.Millisecond)
	}
	close(release)
	s.CancelTimer(h)
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished), "CancelTimer must block until the in-flight fire finishes")
}

func TestSchedulerSetTimerFiresAfterDelay(t *testing.T) {
	s := New()
	done := make(chan struct{})
	s.SetTimer("d1", time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestSchedulerCancelPendingTimerPreventsFire(t *testing.T) {
	s := New()
	fired := int32(0)
	h := s.SetTimer("d1", 50*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	s.CancelTimer(h)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestSchedulerRescheduleUnknownHandleIsNoop(t *testing.T) {
	s := New()
	require.NotPanics(t, func() { s.RescheduleTimer(Handle(999), time.Second) })
}
