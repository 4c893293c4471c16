// Package commands implements the timemux-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/timemux/timemux-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	EngineID string
	Category *log.Category
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [engine:id] CATEGORY Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	engineID := shortenEngineID(event.EngineID)

	var typeLabel string
	switch {
	case event.Subscription != nil:
		typeLabel = event.Subscription.Action.String()
	case event.Schedule != nil:
		if event.Schedule.Armed {
			typeLabel = "Armed"
		} else {
			typeLabel = "Idle"
		}
	case event.Tick != nil:
		typeLabel = "Tick"
	case event.State != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Fault"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [engine:%s] %-12s %s\n", ts, engineID, event.Category.String(), typeLabel)

	switch {
	case event.Subscription != nil:
		formatSubscriptionDetails(w, event.Subscription)
	case event.Schedule != nil:
		formatScheduleDetails(w, event.Schedule)
	case event.Tick != nil:
		formatTickDetails(w, event.Tick)
	case event.State != nil:
		formatStateDetails(w, event.State)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenEngineID returns the first 8 characters of the engine ID.
func shortenEngineID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatSubscriptionDetails(w io.Writer, sub *log.SubscriptionEvent) {
	fmt.Fprintf(w, "  Registration: %s\n", shortenEngineID(sub.RegistrationID))
	if sub.Unbounded {
		fmt.Fprintln(w, "  Interval: unbounded")
	} else {
		fmt.Fprintf(w, "  Interval: %s\n", sub.Interval)
	}
	if sub.BucketChanged {
		fmt.Fprintf(w, "  Buckets: %d (changed)\n", sub.ActiveBuckets)
	} else {
		fmt.Fprintf(w, "  Buckets: %d\n", sub.ActiveBuckets)
	}
}

func formatScheduleDetails(w io.Writer, sched *log.ScheduleEvent) {
	if sched.Armed {
		fmt.Fprintf(w, "  Delay: %s\n", sched.Delay)
	}
	fmt.Fprintf(w, "  Buckets: %d\n", sched.ActiveBuckets)
}

func formatTickDetails(w io.Writer, tick *log.TickEvent) {
	fmt.Fprintf(w, "  Sequence: %d\n", tick.Sequence)
	fmt.Fprintf(w, "  Delivered: %d\n", tick.Delivered)
	if tick.Faults > 0 {
		fmt.Fprintf(w, "  Faults: %d\n", tick.Faults)
	}
}

func formatStateDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.RegistrationID != "" {
		fmt.Fprintf(w, "  Registration: %s\n", shortenEngineID(err.RegistrationID))
	}
	if err.Sequence > 0 {
		fmt.Fprintf(w, "  Sequence: %d\n", err.Sequence)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "subscription":
		return log.CategorySubscription, nil
	case "schedule":
		return log.CategorySchedule, nil
	case "tick":
		return log.CategoryTick, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be subscription, schedule, tick, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if filter.EngineID != "" && event.EngineID != filter.EngineID {
			continue
		}
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
