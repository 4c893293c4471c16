package engine

import (
	"github.com/timemux/timemux-go/pkg/clock"
	"github.com/timemux/timemux-go/pkg/history"
	"github.com/timemux/timemux-go/pkg/log"
	"github.com/timemux/timemux-go/pkg/scheduler"
)

// Config holds engine configuration. Zero fields are replaced with the
// defaults from DefaultConfig.
type Config struct {
	// Clock is the time source used to capture snapshots.
	Clock clock.Clock

	// Scheduler provides the timer primitives. Inject a
	// scheduler.ManualScheduler for deterministic tests.
	Scheduler scheduler.Scheduler

	// Logger receives engine events. Nil disables logging.
	Logger log.Logger

	// History, if non-nil, records recent ticks for inspection.
	History *history.Record
}

// DefaultConfig returns the production configuration: system clock, real
// timers, no logging, no history.
func DefaultConfig() Config {
	return Config{
		Clock:     clock.NewSystemClock(),
		Scheduler: scheduler.NewTimerScheduler(),
		Logger:    log.NoopLogger{},
	}
}

// withDefaults fills empty fields from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clock.NewSystemClock()
	}
	if c.Scheduler == nil {
		c.Scheduler = scheduler.NewTimerScheduler()
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
	return c
}
