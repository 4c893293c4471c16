package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes engine events to an slog.Logger.
// Useful for development when you want to see engine events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("engine_id", event.EngineID),
		slog.String("category", event.Category.String()),
	}

	// Add type-specific attributes
	switch {
	case event.Subscription != nil:
		attrs = append(attrs,
			slog.String("action", event.Subscription.Action.String()),
			slog.String("registration", event.Subscription.RegistrationID),
			slog.Int("active_buckets", event.Subscription.ActiveBuckets),
		)
		if event.Subscription.Unbounded {
			attrs = append(attrs, slog.Bool("unbounded", true))
		} else {
			attrs = append(attrs, slog.Duration("interval", event.Subscription.Interval))
		}
		if event.Subscription.BucketChanged {
			attrs = append(attrs, slog.Bool("bucket_changed", true))
		}
	case event.Schedule != nil:
		attrs = append(attrs,
			slog.Bool("armed", event.Schedule.Armed),
			slog.Int("active_buckets", event.Schedule.ActiveBuckets),
		)
		if event.Schedule.Armed {
			attrs = append(attrs, slog.Duration("delay", event.Schedule.Delay))
		}
	case event.Tick != nil:
		attrs = append(attrs,
			slog.Uint64("sequence", event.Tick.Sequence),
			slog.Int("delivered", event.Tick.Delivered),
		)
		if event.Tick.Faults > 0 {
			attrs = append(attrs, slog.Int("faults", event.Tick.Faults))
		}
	case event.State != nil:
		attrs = append(attrs,
			slog.String("old_state", event.State.OldState),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("registration", event.Error.RegistrationID),
			slog.Uint64("sequence", event.Error.Sequence),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "timemux", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
