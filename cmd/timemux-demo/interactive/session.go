// Package interactive provides the interactive command-line interface
// for the timemux demo.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/timemux/timemux-go/pkg/engine"
	"github.com/timemux/timemux-go/pkg/history"
	"github.com/timemux/timemux-go/pkg/snapshot"
)

// Session handles interactive mode for timemux-demo.
type Session struct {
	eng  *engine.Engine
	hist *history.Record
	rl   *readline.Instance

	mu      sync.Mutex
	subs    map[string]*subscription
	nextNum int

	// Echo controls whether deliveries are printed as they happen.
	echo bool
}

type subscription struct {
	name     string
	interval time.Duration
	unsub    engine.UnsubscribeFunc
	count    int
}

// New creates a new interactive session around an engine.
func New(eng *engine.Engine, hist *history.Record) (*Session, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "timemux> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Session{
		eng:     eng,
		hist:    hist,
		rl:      rl,
		subs:    make(map[string]*subscription),
		nextNum: 1,
	}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with command input.
func (s *Session) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop.
func (s *Session) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "subscribe", "sub", "s":
			s.cmdSubscribe(args)

		case "unsubscribe", "unsub", "u":
			s.cmdUnsubscribe(args)

		case "list", "l":
			s.cmdList()

		case "value", "v":
			s.cmdValue()

		case "status":
			s.cmdStatus()

		case "history", "h":
			s.cmdHistory(args)

		case "echo":
			s.cmdEcho(args)

		case "cleanup":
			s.cmdCleanup()

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
TimeMux Commands:
  Subscriptions:
    subscribe <interval> [name]  - Subscribe with a max update interval (e.g. 500ms, 2s)
    subscribe unbounded [name]   - Subscribe without driving the schedule
    unsubscribe <name>           - Remove a subscription (safe to repeat)
    list                         - List active subscriptions

  Engine:
    value                        - Show the current time snapshot
    status                       - Show engine status (buckets, timer, ticks)
    history [n]                  - Show the n most recent ticks (default 10)
    echo on|off                  - Toggle printing of live deliveries
    cleanup                      - Cancel the pending timer (subscribing resumes it)

  General:
    help                         - Show this help
    quit                         - Exit`)
}

// AddSubscription subscribes under a name and tracks delivery counts.
// Used both by the subscribe command and for config-declared subscriptions.
func (s *Session) AddSubscription(name string, interval time.Duration) error {
	s.mu.Lock()
	if name == "" {
		name = fmt.Sprintf("sub-%d", s.nextNum)
	}
	if _, exists := s.subs[name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("subscription %q already exists", name)
	}
	s.nextNum++
	sub := &subscription{name: name, interval: interval}
	s.subs[name] = sub
	s.mu.Unlock()

	unsub, err := s.eng.Subscribe(interval, func(snap snapshot.Snapshot) {
		s.onDelivery(sub, snap)
	})
	if err != nil {
		s.mu.Lock()
		delete(s.subs, name)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	sub.unsub = unsub
	s.mu.Unlock()
	return nil
}

func (s *Session) onDelivery(sub *subscription, snap snapshot.Snapshot) {
	s.mu.Lock()
	sub.count++
	echo := s.echo
	s.mu.Unlock()

	if echo {
		fmt.Fprintf(s.rl.Stdout(), "\n[%s] %s <- %s\n",
			time.Now().Format("15:04:05"), sub.name, snap)
		s.rl.Refresh()
	}
}

func (s *Session) cmdSubscribe(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: subscribe <interval>|unbounded [name]")
		fmt.Fprintln(s.rl.Stdout(), "  Example: subscribe 500ms fast")
		return
	}

	var interval time.Duration
	if strings.EqualFold(args[0], "unbounded") {
		interval = engine.IntervalUnbounded
	} else {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Invalid interval: %v\n", err)
			return
		}
		interval = d
	}

	name := ""
	if len(args) >= 2 {
		name = args[1]
	}

	if err := s.AddSubscription(name, interval); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Subscribe failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

func (s *Session) cmdUnsubscribe(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: unsubscribe <name>")
		fmt.Fprintln(s.rl.Stdout(), "  Use 'list' to see subscription names")
		return
	}

	s.mu.Lock()
	sub, ok := s.subs[args[0]]
	if ok {
		delete(s.subs, args[0])
	}
	s.mu.Unlock()

	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "Subscription not found: %s\n", args[0])
		return
	}

	sub.unsub()
	fmt.Fprintln(s.rl.Stdout(), "Removed")
}

func (s *Session) cmdList() {
	s.mu.Lock()
	names := make([]string, 0, len(s.subs))
	for name := range s.subs {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([]*subscription, 0, len(names))
	for _, name := range names {
		sub := s.subs[name]
		rows = append(rows, &subscription{
			name:     sub.name,
			interval: sub.interval,
			count:    sub.count,
		})
	}
	s.mu.Unlock()

	if len(rows) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No subscriptions")
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "\nSubscriptions (%d):\n", len(rows))
	fmt.Fprintln(s.rl.Stdout(), "-------------------------------------------")
	for _, sub := range rows {
		interval := "unbounded"
		if sub.interval != engine.IntervalUnbounded {
			interval = sub.interval.String()
		}
		fmt.Fprintf(s.rl.Stdout(), "  %-16s %-12s %d updates\n", sub.name, interval, sub.count)
	}
	fmt.Fprintln(s.rl.Stdout())
}

func (s *Session) cmdValue() {
	fmt.Fprintf(s.rl.Stdout(), "%s\n", s.eng.Value())
}

func (s *Session) cmdStatus() {
	stats := s.eng.Stats()

	fmt.Fprintln(s.rl.Stdout(), "\nEngine Status")
	fmt.Fprintln(s.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(s.rl.Stdout(), "  Engine ID:      %s\n", s.eng.ID())
	fmt.Fprintf(s.rl.Stdout(), "  Current:        %s\n", s.eng.Value())
	fmt.Fprintf(s.rl.Stdout(), "  Buckets:        %d\n", stats.Buckets)
	fmt.Fprintf(s.rl.Stdout(), "  Registrations:  %d\n", stats.Registrations)
	fmt.Fprintf(s.rl.Stdout(), "  Ticks:          %d\n", stats.Ticks)
	if stats.TimerArmed {
		fmt.Fprintf(s.rl.Stdout(), "  Timer:          armed (%s)\n", stats.ArmedDelay)
	} else {
		fmt.Fprintf(s.rl.Stdout(), "  Timer:          idle\n")
	}
	fmt.Fprintln(s.rl.Stdout())
}

func (s *Session) cmdHistory(args []string) {
	if s.hist == nil {
		fmt.Fprintln(s.rl.Stdout(), "History not configured")
		return
	}

	n := 10
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			fmt.Fprintf(s.rl.Stdout(), "Invalid count: %s\n", args[0])
			return
		}
		n = v
	}

	entries := s.hist.Recent(n)
	if len(entries) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No ticks yet")
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "\nRecent Ticks (%d):\n", len(entries))
	fmt.Fprintln(s.rl.Stdout(), "-------------------------------------------")
	for _, entry := range entries {
		line := fmt.Sprintf("  %s  delivered=%d", entry.Snapshot, entry.Delivered)
		if entry.Faults > 0 {
			line += fmt.Sprintf("  faults=%d", entry.Faults)
		}
		fmt.Fprintln(s.rl.Stdout(), line)
	}
	fmt.Fprintln(s.rl.Stdout())
}

func (s *Session) cmdEcho(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: echo on|off")
		return
	}

	s.mu.Lock()
	switch strings.ToLower(args[0]) {
	case "on":
		s.echo = true
	case "off":
		s.echo = false
	default:
		s.mu.Unlock()
		fmt.Fprintf(s.rl.Stdout(), "Invalid argument: %s\n", args[0])
		return
	}
	echo := s.echo
	s.mu.Unlock()

	if echo {
		fmt.Fprintln(s.rl.Stdout(), "Deliveries will be printed")
	} else {
		fmt.Fprintln(s.rl.Stdout(), "Deliveries silenced")
	}
}

func (s *Session) cmdCleanup() {
	s.eng.Cleanup()
	fmt.Fprintln(s.rl.Stdout(), "Timer cancelled (subscribe or unsubscribe resumes scheduling)")
}
