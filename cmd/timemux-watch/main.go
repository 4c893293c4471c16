// Command timemux-watch shows a live terminal view of a timemux engine.
//
// It starts an engine, establishes a few subscribers at different
// intervals, and renders the shared timer state, per-subscriber delivery
// counts, and recent ticks as they happen.
//
// Usage:
//
//	timemux-watch [flags]
//
// Flags:
//
//	-fast duration   Interval of the fast subscriber (default 1s)
//	-slow duration   Interval of the slow subscriber (default 5s)
//	-history int     Number of ticks to retain (default 64)
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/timemux/timemux-go/pkg/engine"
	"github.com/timemux/timemux-go/pkg/history"
	"github.com/timemux/timemux-go/pkg/snapshot"
)

func main() {
	fast := flag.Duration("fast", time.Second, "Interval of the fast subscriber")
	slow := flag.Duration("slow", 5*time.Second, "Interval of the slow subscriber")
	depth := flag.Int("history", history.DefaultDepth, "Number of ticks to retain")
	flag.Parse()

	if *fast <= 0 || *slow <= 0 {
		fmt.Fprintln(os.Stderr, "Intervals must be positive")
		os.Exit(1)
	}

	hist, err := history.NewRecord(*depth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid history depth: %v\n", err)
		os.Exit(1)
	}

	eng := engine.NewWithConfig(snapshot.Initial(time.Now()), engine.Config{
		History: hist,
	})
	defer eng.Cleanup()

	tui := NewWatchTUI()

	specs := []struct {
		name     string
		interval time.Duration
	}{
		{"fast", *fast},
		{"slow", *slow},
		{"ambient", engine.IntervalUnbounded},
	}

	rows := make([]subscriberRow, 0, len(specs))
	unsubs := make([]engine.UnsubscribeFunc, 0, len(specs))

	subscribeAll := func() error {
		for _, spec := range specs {
			name := spec.name
			unsub, err := eng.Subscribe(spec.interval, func(snap snapshot.Snapshot) {
				tui.Deliver(name, snap)
			})
			if err != nil {
				return fmt.Errorf("subscribe %s: %w", name, err)
			}
			unsubs = append(unsubs, unsub)
		}
		return nil
	}

	if err := subscribeAll(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	for _, spec := range specs {
		rows = append(rows, subscriberRow{Name: spec.name, Interval: spec.interval})
	}

	// Pause drops all subscribers and cancels the timer; resume
	// re-subscribes, which re-arms the schedule.
	pause := func() {
		for _, unsub := range unsubs {
			unsub()
		}
		unsubs = unsubs[:0]
		eng.Cleanup()
	}
	resume := func() {
		_ = subscribeAll()
	}

	if err := tui.Start(eng, hist, rows, pause, resume); err != nil {
		fmt.Fprintf(os.Stderr, "TUI failed: %v\n", err)
		os.Exit(1)
	}
}
