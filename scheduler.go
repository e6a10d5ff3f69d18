// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameseq

import (
	"sync"
	"time"
)

// Scheduler runs callbacks at or after a requested time on behalf of
// Players. It is the only path by which the decode worker reaches the
// host: swap wake-ups and listener notifications are both delivered
// through it, never inline from the worker goroutine.
//
// Hosts with a dedicated render thread implement Scheduler so callbacks
// run on that thread; this preserves single-threaded delivery order for
// the host. [DefaultScheduler] runs callbacks on timer goroutines,
// which is fine for headless use and tests.
//
// Contract:
//   - Schedule must be safe to call from any goroutine and must not run
//     fn synchronously within the Schedule call.
//   - Cancel(owner) drops every callback scheduled with that owner that
//     has not started running yet. There is no ordering guarantee
//     between different owners' callbacks.
type Scheduler interface {
	Schedule(owner any, at time.Time, fn func())
	Cancel(owner any)
}

// TimerScheduler is the default Scheduler, backed by time.AfterFunc.
// Callbacks run on timer goroutines.
//
// Thread safety: all methods are safe for concurrent use.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[any]map[*time.Timer]struct{}
}

// NewTimerScheduler creates an empty timer-backed scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[any]map[*time.Timer]struct{}),
	}
}

// Schedule implements Scheduler. Times in the past fire immediately
// (on a timer goroutine, never inline).
func (s *TimerScheduler) Schedule(owner any, at time.Time, fn func()) {
	d := time.Until(at)
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	set := s.timers[owner]
	if set == nil {
		set = make(map[*time.Timer]struct{})
		s.timers[owner] = set
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		// A zero-delay timer can fire before AfterFunc returns; the
		// scheduling goroutine still holds the lock then, so this
		// waits until registration is complete before reading t.
		s.mu.Lock()
		if set, ok := s.timers[owner]; ok {
			delete(set, t)
			if len(set) == 0 {
				delete(s.timers, owner)
			}
		}
		s.mu.Unlock()
		fn()
	})
	set[t] = struct{}{}
	s.mu.Unlock()
}

// Cancel implements Scheduler. A callback that has already started
// firing may still run; Player callbacks tolerate such stale wakes.
func (s *TimerScheduler) Cancel(owner any) {
	s.mu.Lock()
	set := s.timers[owner]
	delete(s.timers, owner)
	s.mu.Unlock()

	for t := range set {
		t.Stop()
	}
}

// defaultScheduler is shared by all Players constructed without
// WithScheduler, lazily created on first use.
var (
	defaultSchedulerOnce sync.Once
	defaultScheduler     *TimerScheduler
)

// DefaultScheduler returns the process-wide timer-backed scheduler.
func DefaultScheduler() Scheduler {
	defaultSchedulerOnce.Do(func() {
		defaultScheduler = NewTimerScheduler()
	})
	return defaultScheduler
}
