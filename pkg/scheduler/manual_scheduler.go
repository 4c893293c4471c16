package scheduler

import (
	"sync"
	"time"
)

// ManualScheduler is a Scheduler for deterministic tests. Scheduled callbacks
// never fire on their own; the test fires them explicitly with Fire or
// FireNext. The pending set and the delays it was armed with are inspectable.
//
// Safe for concurrent use.
type ManualScheduler struct {
	mu         sync.Mutex
	pending    map[Handle]*pendingTask
	order      []Handle // schedule order of still-pending handles
	nextHandle Handle

	// Counters since construction, for asserting scheduling discipline
	// (e.g. cancel-before-arm).
	scheduled int
	cancelled int
}

type pendingTask struct {
	delay time.Duration
	fn    func()
}

// NewManualScheduler creates a ManualScheduler with nothing pending.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{
		pending: make(map[Handle]*pendingTask),
	}
}

// Schedule records fn as pending and returns its handle. fn does not run
// until Fire or FireNext.
func (s *ManualScheduler) Schedule(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHandle++
	handle := s.nextHandle
	s.pending[handle] = &pendingTask{delay: d, fn: fn}
	s.order = append(s.order, handle)
	s.scheduled++
	return handle
}

// Cancel removes a pending callback. Unknown handles are ignored, but known
// ones count toward Cancelled.
func (s *ManualScheduler) Cancel(handle Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[handle]; !ok {
		return
	}
	delete(s.pending, handle)
	s.removeFromOrder(handle)
	s.cancelled++
}

// Fire runs the pending callback for handle and removes it.
// Returns false if the handle is not pending.
func (s *ManualScheduler) Fire(handle Handle) bool {
	s.mu.Lock()
	task, ok := s.pending[handle]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.pending, handle)
	s.removeFromOrder(handle)
	s.mu.Unlock()

	task.fn()
	return true
}

// FireNext fires the earliest-scheduled pending callback.
// Returns false if nothing is pending.
func (s *ManualScheduler) FireNext() bool {
	s.mu.Lock()
	if len(s.order) == 0 {
		s.mu.Unlock()
		return false
	}
	handle := s.order[0]
	s.mu.Unlock()

	return s.Fire(handle)
}

// PendingCount returns the number of pending callbacks.
func (s *ManualScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Pending returns the pending handles in schedule order.
func (s *ManualScheduler) Pending() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Handle, len(s.order))
	copy(out, s.order)
	return out
}

// Delay returns the delay a pending handle was armed with.
func (s *ManualScheduler) Delay(handle Handle) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.pending[handle]
	if !ok {
		return 0, false
	}
	return task.delay, true
}

// Scheduled returns the total number of Schedule calls.
func (s *ManualScheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

// Cancelled returns the number of Cancel calls that removed a pending task.
func (s *ManualScheduler) Cancelled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// removeFromOrder deletes handle from the order slice. Caller holds mu.
func (s *ManualScheduler) removeFromOrder(handle Handle) {
	for i, h := range s.order {
		if h == handle {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Compile-time interface satisfaction check.
var _ Scheduler = (*ManualScheduler)(nil)
