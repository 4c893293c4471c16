package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/timemux/timemux-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "engine_id", "category", "type", "sequence", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		eventType := "unknown"
		sequence := ""
		detail := ""
		switch {
		case event.Subscription != nil:
			eventType = event.Subscription.Action.String()
			if event.Subscription.Unbounded {
				detail = "unbounded"
			} else {
				detail = event.Subscription.Interval.String()
			}
		case event.Schedule != nil:
			if event.Schedule.Armed {
				eventType = "armed"
				detail = event.Schedule.Delay.String()
			} else {
				eventType = "idle"
			}
		case event.Tick != nil:
			eventType = "tick"
			sequence = fmt.Sprintf("%d", event.Tick.Sequence)
			detail = fmt.Sprintf("delivered=%d faults=%d", event.Tick.Delivered, event.Tick.Faults)
		case event.State != nil:
			eventType = "state"
			detail = event.State.OldState + "->" + event.State.NewState
		case event.Error != nil:
			eventType = "fault"
			sequence = fmt.Sprintf("%d", event.Error.Sequence)
			detail = event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.EngineID,
			event.Category.String(),
			eventType,
			sequence,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
