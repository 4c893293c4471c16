// Command timemux-demo runs a timemux engine with an interactive prompt.
//
// This command demonstrates a complete engine setup with:
//   - CLI argument parsing
//   - Configuration file support
//   - CBOR event logging to a file
//   - Structured logging to stderr
//   - An interactive command loop for subscribing and inspecting
//
// Usage:
//
//	timemux-demo [flags]
//
// Flags:
//
//	-config string     Configuration file path
//	-log-file string   Write CBOR-encoded engine events to this file
//	-history int       Number of ticks to retain (default 64)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start with defaults and subscribe interactively
//	timemux-demo
//
//	# Start with config-declared subscriptions and an event log
//	timemux-demo -config demo.yaml -log-file events.cbor
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timemux/timemux-go/cmd/timemux-demo/interactive"
	"github.com/timemux/timemux-go/pkg/config"
	"github.com/timemux/timemux-go/pkg/engine"
	"github.com/timemux/timemux-go/pkg/history"
	"github.com/timemux/timemux-go/pkg/log"
	"github.com/timemux/timemux-go/pkg/snapshot"

	"flag"
)

var (
	configFile   string
	logFile      string
	historyDepth int
	logLevel     string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.StringVar(&logFile, "log-file", "", "Write CBOR-encoded engine events to this file")
	flag.IntVar(&historyDepth, "history", history.DefaultDepth, "Number of ticks to retain")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags override the config file.
	if logFile != "" {
		cfg.Log.File = logFile
	}
	if historyDepth != history.DefaultDepth {
		cfg.HistoryDepth = historyDepth
	}

	slogger := newSlog(logLevel)

	hist, err := history.NewRecord(cfg.HistoryDepth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid history depth: %v\n", err)
		os.Exit(1)
	}

	eventLogger, closeLogger, err := buildLogger(cfg, slogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up event logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLogger()

	eng := engine.NewWithConfig(snapshot.Initial(time.Now()), engine.Config{
		Logger:  eventLogger,
		History: hist,
	})
	defer eng.Cleanup()

	slogger.Info("engine started", "id", eng.ID(), "history_depth", cfg.HistoryDepth)

	session, err := interactive.New(eng, hist)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start interactive session: %v\n", err)
		os.Exit(1)
	}

	// Config-declared subscriptions come up before the prompt.
	for _, sub := range cfg.Subscriptions {
		interval := sub.Interval.Std()
		if sub.Unbounded {
			interval = engine.IntervalUnbounded
		}
		if err := session.AddSubscription(sub.Name, interval); err != nil {
			fmt.Fprintf(os.Stderr, "Subscription %q failed: %v\n", sub.Name, err)
			os.Exit(1)
		}
		slogger.Info("subscribed", "name", sub.Name, "interval", interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	session.Run(ctx, cancel)
}

// buildLogger assembles the event logger from config: optional CBOR file
// logging plus optional slog mirroring.
func buildLogger(cfg *config.Config, slogger *slog.Logger) (log.Logger, func(), error) {
	var loggers []log.Logger
	closer := func() {}

	if cfg.Log.File != "" {
		fl, err := log.NewFileLogger(cfg.Log.File)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		closer = func() { _ = fl.Close() }
	}
	if cfg.Log.Slog {
		loggers = append(loggers, log.NewSlogAdapter(slogger))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closer, nil
	case 1:
		return loggers[0], closer, nil
	default:
		return log.NewMultiLogger(loggers...), closer, nil
	}
}

// newSlog builds the stderr structured logger at the requested level.
func newSlog(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
