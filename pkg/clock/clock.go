package clock

import "time"

// Clock is the engine's source of "now".
// Implementations must be safe for concurrent use.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock implements Clock using the real system clock.
// The zero value is ready to use and can be shared across goroutines.
type SystemClock struct{}

// NewSystemClock creates a new SystemClock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns time.Now().
func (*SystemClock) Now() time.Time {
	return time.Now()
}

// Compile-time interface satisfaction check.
var _ Clock = (*SystemClock)(nil)
