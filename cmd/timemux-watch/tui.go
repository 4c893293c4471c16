package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/timemux/timemux-go/pkg/engine"
	"github.com/timemux/timemux-go/pkg/history"
	"github.com/timemux/timemux-go/pkg/snapshot"
)

// WatchTUI manages the live engine view.
type WatchTUI struct {
	program *tea.Program
	updates chan deliveryMsg
}

// subscriberRow is one subscriber line in the display.
type subscriberRow struct {
	Name     string
	Interval time.Duration
	Count    int
	Last     snapshot.Snapshot
}

// deliveryMsg reports one delivery to a named subscriber.
type deliveryMsg struct {
	Name     string
	Snapshot snapshot.Snapshot
}

type tickMsg time.Time

// watchModel is the bubbletea model for the engine view.
type watchModel struct {
	eng       *engine.Engine
	hist      *history.Record
	rows      []subscriberRow
	startTime time.Time
	paused    bool
	quitting  bool

	// pause restores subscriptions on resume.
	resume func()
	pause  func()
}

func (m watchModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "p":
			if m.paused {
				m.resume()
			} else {
				m.pause()
			}
			m.paused = !m.paused
		}
		return m, nil

	case tickMsg:
		// Periodic redraw keeps uptime and stats fresh even when no
		// deliveries arrive.
		return m, tickEvery()

	case deliveryMsg:
		for i := range m.rows {
			if m.rows[i].Name == msg.Name {
				m.rows[i].Count++
				m.rows[i].Last = msg.Snapshot
			}
		}
		return m, nil
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220"))

	stats := m.eng.Stats()

	var b strings.Builder

	b.WriteString(titleStyle.Render("TimeMux Watch"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Engine: "))
	b.WriteString(valueStyle.Render(m.eng.ID()))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Current: "))
	b.WriteString(valueStyle.Render(m.eng.Value().String()))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Uptime: "))
	uptime := time.Since(m.startTime).Round(time.Second)
	b.WriteString(valueStyle.Render(uptime.String()))
	b.WriteString("\n")

	timer := "idle"
	if stats.TimerArmed {
		timer = fmt.Sprintf("armed (%s)", stats.ArmedDelay)
	}
	if m.paused {
		timer = "paused"
	}
	b.WriteString(headerStyle.Render("Timer: "))
	b.WriteString(valueStyle.Render(timer))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Ticks: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d (%d buckets, %d subscribers)",
		stats.Ticks, stats.Buckets, stats.Registrations)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Subscribers (%d)", len(m.rows))))
	b.WriteString("\n\n")

	for _, row := range m.rows {
		interval := "unbounded"
		if row.Interval != engine.IntervalUnbounded {
			interval = row.Interval.String()
		}
		last := "-"
		if !row.Last.IsInitial() || row.Count > 0 {
			last = row.Last.String()
		}
		b.WriteString(fmt.Sprintf("  • %s", row.Name))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" (%s, %d updates, last %s)",
			interval, row.Count, last)))
		b.WriteString("\n")
	}

	if m.hist != nil {
		entries := m.hist.Recent(5)
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Recent Ticks"))
		b.WriteString("\n\n")
		if len(entries) == 0 {
			b.WriteString(valueStyle.Render("  No ticks yet"))
			b.WriteString("\n")
		} else {
			for _, entry := range entries {
				line := fmt.Sprintf("  %s  delivered=%d", entry.Snapshot, entry.Delivered)
				if entry.Faults > 0 {
					line += fmt.Sprintf("  faults=%d", entry.Faults)
				}
				b.WriteString(valueStyle.Render(line))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'p' to pause/resume, 'q' or Ctrl+C to quit"))

	return b.String()
}

// NewWatchTUI creates the live view around an engine.
func NewWatchTUI() *WatchTUI {
	return &WatchTUI{
		updates: make(chan deliveryMsg, 64),
	}
}

// Start runs the TUI until the user quits.
func (t *WatchTUI) Start(eng *engine.Engine, hist *history.Record, rows []subscriberRow, pause, resume func()) error {
	m := watchModel{
		eng:       eng,
		hist:      hist,
		rows:      rows,
		startTime: time.Now(),
		pause:     pause,
		resume:    resume,
	}

	t.program = tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for msg := range t.updates {
			if t.program != nil {
				t.program.Send(msg)
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

// Deliver forwards one delivery to the display.
func (t *WatchTUI) Deliver(name string, snap snapshot.Snapshot) {
	select {
	case t.updates <- deliveryMsg{Name: name, Snapshot: snap}:
	default:
		// Don't block the dispatch path if the display lags.
	}
}

// Stop shuts the TUI down.
func (t *WatchTUI) Stop() {
	if t.program != nil {
		t.program.Quit()
	}
	close(t.updates)
}
