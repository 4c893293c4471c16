package scheduler

import (
	"sync"
	"time"
)

// Handle identifies one scheduled callback. Handles are never reused within
// a Scheduler instance.
type Handle uint64

// Scheduler schedules a callback to run once after a delay.
// Implementations must be safe for concurrent use.
type Scheduler interface {
	// Schedule runs fn once after d has elapsed and returns a handle for
	// cancellation. The callback runs on an implementation-defined goroutine.
	Schedule(d time.Duration, fn func()) Handle

	// Cancel prevents the callback identified by handle from running.
	// Cancelling an unknown, fired, or already cancelled handle is a no-op.
	Cancel(handle Handle)
}

// TimerScheduler is the production Scheduler, backed by time.AfterFunc.
type TimerScheduler struct {
	mu         sync.Mutex
	timers     map[Handle]*time.Timer
	nextHandle Handle
}

// NewTimerScheduler creates a TimerScheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[Handle]*time.Timer),
	}
}

// Schedule arms a time.AfterFunc for d and returns its handle.
func (s *TimerScheduler) Schedule(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	s.nextHandle++
	handle := s.nextHandle

	s.timers[handle] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, handle)
		s.mu.Unlock()
		fn()
	})
	s.mu.Unlock()

	return handle
}

// Cancel stops the timer for handle if it has not fired yet.
func (s *TimerScheduler) Cancel(handle Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[handle]; ok {
		t.Stop()
		delete(s.timers, handle)
	}
}

// PendingCount returns the number of armed timers. Intended for tests and
// diagnostics.
func (s *TimerScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Compile-time interface satisfaction check.
var _ Scheduler = (*TimerScheduler)(nil)
