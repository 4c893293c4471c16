package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/timemux/timemux-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Engines          map[string]*EngineStats
	Ticks            int
	Delivered        int
	Faults           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// EngineStats holds statistics for a single engine.
type EngineStats struct {
	FirstSeen    time.Time
	LastSeen     time.Time
	Events       int
	Ticks        int
	LastSequence uint64
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Engines:          make(map[string]*EngineStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track engine stats
		eng, ok := stats.Engines[event.EngineID]
		if !ok {
			eng = &EngineStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Engines[event.EngineID] = eng
		}
		eng.Events++
		if event.Timestamp.After(eng.LastSeen) {
			eng.LastSeen = event.Timestamp
		}

		if event.Tick != nil {
			stats.Ticks++
			stats.Delivered += event.Tick.Delivered
			stats.Faults += event.Tick.Faults
			eng.Ticks++
			if event.Tick.Sequence > eng.LastSequence {
				eng.LastSequence = event.Tick.Sequence
			}
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== TimeMux Log Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{
		log.CategorySubscription,
		log.CategorySchedule,
		log.CategoryTick,
		log.CategoryState,
		log.CategoryError,
	} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if stats.Ticks > 0 {
		fmt.Fprintf(w, "Ticks: %d (%d deliveries, %d faults)\n", stats.Ticks, stats.Delivered, stats.Faults)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Engines: %d\n", len(stats.Engines))
	if len(stats.Engines) > 0 {
		type engineInfo struct {
			id    string
			stats *EngineStats
		}
		engines := make([]engineInfo, 0, len(stats.Engines))
		for id, es := range stats.Engines {
			engines = append(engines, engineInfo{id, es})
		}
		sort.Slice(engines, func(i, j int) bool {
			return engines[i].stats.FirstSeen.Before(engines[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, e := range engines {
			duration := e.stats.LastSeen.Sub(e.stats.FirstSeen).Round(time.Millisecond)
			shortID := e.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, e.stats.Events, duration)
			if e.stats.Ticks > 0 {
				fmt.Fprintf(w, "           Ticks: %d (last sequence %d)\n", e.stats.Ticks, e.stats.LastSequence)
			}
		}
	}
}
