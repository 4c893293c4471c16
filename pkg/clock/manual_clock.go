package clock

import (
	"sync"
	"time"
)

// ManualClock is a Clock whose time only moves when told to.
// It is the foundation of deterministic tests: no sleeps, no flakiness.
//
// Safe for concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at the given time.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative durations are ignored to
// preserve monotonicity.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set jumps the clock to an absolute time. Unlike Advance this can move time
// backward; use it only to establish an initial state.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Compile-time interface satisfaction check.
var _ Clock = (*ManualClock)(nil)
