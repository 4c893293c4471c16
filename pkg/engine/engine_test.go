package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/timemux/timemux-go/pkg/clock"
	"github.com/timemux/timemux-go/pkg/history"
	"github.com/timemux/timemux-go/pkg/log"
	"github.com/timemux/timemux-go/pkg/scheduler"
	"github.com/timemux/timemux-go/pkg/snapshot"
)

// testEngine bundles an engine with its injected test collaborators.
type testEngine struct {
	engine *Engine
	clk    *clock.ManualClock
	sched  *scheduler.ManualScheduler
	logged *recordingLogger
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	clk := clock.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := scheduler.NewManualScheduler()
	logged := &recordingLogger{}

	e := NewWithConfig(snapshot.Initial(clk.Now()), Config{
		Clock:     clk,
		Scheduler: sched,
		Logger:    logged,
	})
	return &testEngine{engine: e, clk: clk, sched: sched, logged: logged}
}

func mustSubscribe(t *testing.T, e *Engine, interval time.Duration, fn Callback) UnsubscribeFunc {
	t.Helper()
	unsub, err := e.Subscribe(interval, fn)
	if err != nil {
		t.Fatalf("Subscribe(%v) failed: %v", interval, err)
	}
	return unsub
}

// collector counts deliveries and remembers the snapshots it saw.
type collector struct {
	mu    sync.Mutex
	seen  []snapshot.Snapshot
	count int
}

func (c *collector) deliver(s snapshot.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, s)
	c.count++
}

func (c *collector) deliveries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *collector) last() snapshot.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seen) == 0 {
		return snapshot.Snapshot{}
	}
	return c.seen[len(c.seen)-1]
}

func TestSubscribeValidation(t *testing.T) {
	te := newTestEngine(t)

	if _, err := te.engine.Subscribe(time.Second, nil); err != ErrNilCallback {
		t.Errorf("Subscribe(nil callback) error = %v, want ErrNilCallback", err)
	}
	if _, err := te.engine.Subscribe(-time.Second, func(snapshot.Snapshot) {}); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("Subscribe(-1s) error = %v, want ErrInvalidInterval", err)
	}

	// Nothing was armed for rejected subscriptions.
	if got := te.sched.PendingCount(); got != 0 {
		t.Errorf("PendingCount() = %d after rejected subscriptions, want 0", got)
	}
}

func TestValueBeforeFirstTick(t *testing.T) {
	te := newTestEngine(t)

	initial := te.engine.Value()
	if !initial.IsInitial() {
		t.Error("Value() before first tick should be the initial snapshot")
	}

	// Repeated reads return the identical snapshot (no churn).
	for i := 0; i < 3; i++ {
		if !te.engine.Value().Equal(initial) {
			t.Fatal("Value() changed between ticks")
		}
	}
}

func TestBucketsTrackDistinctIntervals(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	unsubA := mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})
	unsubB := mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})
	unsubC := mustSubscribe(t, e, 5*time.Second, func(snapshot.Snapshot) {})

	stats := e.Stats()
	if stats.Buckets != 2 || stats.Registrations != 3 {
		t.Errorf("Stats = %d buckets / %d regs, want 2/3", stats.Buckets, stats.Registrations)
	}

	// Removing one of two same-interval subscribers keeps the bucket.
	unsubA()
	stats = e.Stats()
	if stats.Buckets != 2 || stats.Registrations != 2 {
		t.Errorf("Stats after first unsubscribe = %d/%d, want 2/2", stats.Buckets, stats.Registrations)
	}

	// Removing the last member deletes the bucket.
	unsubB()
	stats = e.Stats()
	if stats.Buckets != 1 || stats.Registrations != 1 {
		t.Errorf("Stats after emptying bucket = %d/%d, want 1/1", stats.Buckets, stats.Registrations)
	}

	unsubC()
	stats = e.Stats()
	if stats.Buckets != 0 || stats.Registrations != 0 {
		t.Errorf("Stats after last unsubscribe = %d/%d, want 0/0", stats.Buckets, stats.Registrations)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	unsubA := mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})
	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})

	unsubA()
	scheduledBefore := te.sched.Scheduled()

	// Repeated calls: no state change, no schedule churn.
	unsubA()
	unsubA()

	stats := e.Stats()
	if stats.Registrations != 1 {
		t.Errorf("Registrations = %d after repeated unsubscribe, want 1", stats.Registrations)
	}
	if got := te.sched.Scheduled(); got != scheduledBefore {
		t.Errorf("Scheduled() = %d after repeated unsubscribe, want %d", got, scheduledBefore)
	}
}

func TestSchedulingUsesMinimumInterval(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	mustSubscribe(t, e, 5*time.Second, func(snapshot.Snapshot) {})

	pending := te.sched.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending timers = %d, want 1", len(pending))
	}
	if d, _ := te.sched.Delay(pending[0]); d != 5*time.Second {
		t.Errorf("armed delay = %v, want 5s", d)
	}

	// A faster subscriber lowers the minimum; exactly one timer remains.
	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})

	pending = te.sched.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending timers after second subscribe = %d, want 1", len(pending))
	}
	if d, _ := te.sched.Delay(pending[0]); d != time.Second {
		t.Errorf("armed delay = %v, want 1s", d)
	}
}

func TestAtMostOnePendingTimer(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var unsubs []UnsubscribeFunc
	for _, interval := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second} {
		unsubs = append(unsubs, mustSubscribe(t, e, interval, func(snapshot.Snapshot) {}))
	}
	for _, unsub := range unsubs[:2] {
		unsub()
	}

	if got := te.sched.PendingCount(); got != 1 {
		t.Errorf("PendingCount() = %d, want 1 (cancel before arm)", got)
	}
	// Every arm beyond the first must have been preceded by a cancel.
	if s, c := te.sched.Scheduled(), te.sched.Cancelled(); s != c+1 {
		t.Errorf("Scheduled/Cancelled = %d/%d, want exactly one uncancelled timer", s, c)
	}
}

func TestTickDeliversIdenticalSnapshotToAllBuckets(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var fast, slow collector
	mustSubscribe(t, e, time.Second, fast.deliver)
	mustSubscribe(t, e, 5*time.Second, slow.deliver)

	te.clk.Advance(time.Second)
	if !te.sched.FireNext() {
		t.Fatal("no pending timer to fire")
	}

	// Both subscribers see the identical capture, exactly once, regardless
	// of their own requested interval.
	if fast.deliveries() != 1 || slow.deliveries() != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", fast.deliveries(), slow.deliveries())
	}
	if !fast.last().Equal(slow.last()) {
		t.Errorf("subscribers saw different snapshots: %v vs %v", fast.last(), slow.last())
	}
	if fast.last().Sequence != 1 {
		t.Errorf("snapshot sequence = %d, want 1", fast.last().Sequence)
	}

	// Value() now returns that same snapshot, stably.
	if !e.Value().Equal(fast.last()) {
		t.Error("Value() does not match the dispatched snapshot")
	}
	if !e.Value().Equal(e.Value()) {
		t.Error("Value() unstable between ticks")
	}
}

func TestTicksProduceMonotonicSequences(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var c collector
	mustSubscribe(t, e, time.Second, c.deliver)

	for i := 0; i < 3; i++ {
		te.clk.Advance(time.Second)
		if !te.sched.FireNext() {
			t.Fatalf("tick %d: no pending timer (engine did not re-arm)", i+1)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seen) != 3 {
		t.Fatalf("deliveries = %d, want 3", len(c.seen))
	}
	for i, s := range c.seen {
		if s.Sequence != uint64(i+1) {
			t.Errorf("tick %d sequence = %d, want %d", i, s.Sequence, i+1)
		}
	}
	if stats := e.Stats(); stats.Ticks != 3 {
		t.Errorf("Stats().Ticks = %d, want 3", stats.Ticks)
	}
}

func TestRearmAfterTickUsesCurrentMinimum(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})
	mustSubscribe(t, e, 5*time.Second, func(snapshot.Snapshot) {})

	te.clk.Advance(time.Second)
	te.sched.FireNext()

	pending := te.sched.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending timers after tick = %d, want 1", len(pending))
	}
	if d, _ := te.sched.Delay(pending[0]); d != time.Second {
		t.Errorf("re-armed delay = %v, want current minimum 1s", d)
	}
}

func TestScenarioFastAndSlowSubscriber(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	s0 := e.Value()

	var x, y collector
	unsubX := mustSubscribe(t, e, 1000*time.Millisecond, x.deliver)
	mustSubscribe(t, e, 5000*time.Millisecond, y.deliver)

	// The single timer is driven by X's 1000ms request.
	pending := te.sched.Pending()
	if d, _ := te.sched.Delay(pending[0]); d != 1000*time.Millisecond {
		t.Fatalf("armed delay = %v, want 1000ms", d)
	}

	te.clk.Advance(1000 * time.Millisecond)
	te.sched.FireNext()

	if x.deliveries() != 1 || y.deliveries() != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", x.deliveries(), y.deliveries())
	}
	if !x.last().Equal(y.last()) {
		t.Error("X and Y saw different snapshots in the same tick")
	}
	if x.last().Equal(s0) {
		t.Error("tick did not produce a new snapshot")
	}

	// With X gone, only Y's 5000ms request remains.
	unsubX()
	pending = te.sched.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending timers after unsubscribe = %d, want 1", len(pending))
	}
	if d, _ := te.sched.Delay(pending[0]); d != 5000*time.Millisecond {
		t.Errorf("re-armed delay = %v, want 5000ms", d)
	}
}

func TestIdleWhenNoBuckets(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	unsub := mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})
	unsub()

	if got := te.sched.PendingCount(); got != 0 {
		t.Errorf("PendingCount() = %d after last unsubscribe, want 0 (idle)", got)
	}

	// A new subscriber arms the engine again.
	mustSubscribe(t, e, 2*time.Second, func(snapshot.Snapshot) {})
	if got := te.sched.PendingCount(); got != 1 {
		t.Errorf("PendingCount() = %d after re-subscribe, want 1", got)
	}
}

func TestUnboundedIntervalNeverDrivesSchedule(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var ambient collector
	mustSubscribe(t, e, IntervalUnbounded, ambient.deliver)

	// Alone, an unbounded subscriber arms nothing.
	if got := te.sched.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d with only unbounded bucket, want 0", got)
	}

	// A finite bucket forces ticks; the unbounded subscriber rides along.
	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})
	te.clk.Advance(time.Second)
	te.sched.FireNext()

	if ambient.deliveries() != 1 {
		t.Errorf("unbounded subscriber deliveries = %d, want 1", ambient.deliveries())
	}
}

func TestSelfUnsubscribeDuringDispatch(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var a, b collector
	zCalls := 0
	var unsubZ UnsubscribeFunc
	unsubZ = mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {
		zCalls++
		unsubZ()
	})
	mustSubscribe(t, e, time.Second, a.deliver)
	mustSubscribe(t, e, time.Second, b.deliver)

	te.clk.Advance(time.Second)
	te.sched.FireNext()

	// Z's self-removal must not skip or double-call the others.
	if a.deliveries() != 1 || b.deliveries() != 1 {
		t.Errorf("sibling deliveries = %d/%d, want 1/1", a.deliveries(), b.deliveries())
	}
	if zCalls != 1 {
		t.Errorf("Z deliveries = %d, want 1", zCalls)
	}

	// Next tick: Z is gone.
	te.clk.Advance(time.Second)
	te.sched.FireNext()

	if zCalls != 1 {
		t.Errorf("Z deliveries after next tick = %d, want still 1", zCalls)
	}
	if a.deliveries() != 2 || b.deliveries() != 2 {
		t.Errorf("sibling deliveries after next tick = %d/%d, want 2/2", a.deliveries(), b.deliveries())
	}
}

func TestUnsubscribeOtherDuringDispatch(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var b, c collector
	var unsubB UnsubscribeFunc
	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {
		unsubB()
	})
	unsubB = mustSubscribe(t, e, time.Second, b.deliver)
	mustSubscribe(t, e, time.Second, c.deliver)

	te.clk.Advance(time.Second)
	te.sched.FireNext()

	// B's delivery this tick depends on iteration order, but it is at most
	// one, and the unaffected subscriber gets exactly one.
	if b.deliveries() > 1 {
		t.Errorf("B deliveries = %d, want at most 1", b.deliveries())
	}
	if c.deliveries() != 1 {
		t.Errorf("C deliveries = %d, want 1", c.deliveries())
	}

	// Next tick B is certainly gone.
	before := b.deliveries()
	te.clk.Advance(time.Second)
	te.sched.FireNext()
	if b.deliveries() != before {
		t.Error("B notified after being unsubscribed")
	}
}

func TestSubscribeDuringDispatch(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var late collector
	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {
		// Only the first tick adds the late subscriber.
		if late.deliveries() == 0 && e.Stats().Registrations == 1 {
			mustSubscribe(t, e, time.Second, late.deliver)
		}
	})

	te.clk.Advance(time.Second)
	te.sched.FireNext()

	// Not active at tick start: not notified this tick.
	if late.deliveries() != 0 {
		t.Errorf("late subscriber deliveries = %d on its joining tick, want 0", late.deliveries())
	}

	te.clk.Advance(time.Second)
	te.sched.FireNext()
	if late.deliveries() != 1 {
		t.Errorf("late subscriber deliveries = %d on next tick, want 1", late.deliveries())
	}
}

func TestDeliveryFaultIsolation(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var healthy collector
	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {
		panic("subscriber bug")
	})
	mustSubscribe(t, e, time.Second, healthy.deliver)

	te.clk.Advance(time.Second)
	te.sched.FireNext()

	if healthy.deliveries() != 1 {
		t.Errorf("healthy deliveries = %d, want 1 despite sibling panic", healthy.deliveries())
	}

	// Engine state is intact: still two registrations, timer re-armed.
	stats := e.Stats()
	if stats.Registrations != 2 {
		t.Errorf("Registrations = %d after fault, want 2", stats.Registrations)
	}
	if !stats.TimerArmed {
		t.Error("engine did not re-arm after a delivery fault")
	}

	// The fault is logged.
	if te.logged.countCategory(log.CategoryError) != 1 {
		t.Errorf("error events = %d, want 1", te.logged.countCategory(log.CategoryError))
	}

	// The engine keeps working: next tick delivers again.
	te.clk.Advance(time.Second)
	te.sched.FireNext()
	if healthy.deliveries() != 2 {
		t.Errorf("healthy deliveries after next tick = %d, want 2", healthy.deliveries())
	}
}

func TestCleanupStopsTicks(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	var c collector
	mustSubscribe(t, e, time.Second, c.deliver)

	e.Cleanup()

	if got := te.sched.PendingCount(); got != 0 {
		t.Errorf("PendingCount() = %d after Cleanup, want 0", got)
	}
	if te.sched.FireNext() {
		t.Error("a timer fired after Cleanup")
	}

	// Cleanup preserves value and registrations.
	if !e.Value().IsInitial() {
		t.Error("Cleanup changed the current snapshot")
	}
	if stats := e.Stats(); stats.Registrations != 1 {
		t.Errorf("Registrations = %d after Cleanup, want 1", stats.Registrations)
	}

	// Idempotent.
	e.Cleanup()
	e.Cleanup()

	// A subscription event resumes scheduling.
	mustSubscribe(t, e, 2*time.Second, func(snapshot.Snapshot) {})
	if got := te.sched.PendingCount(); got != 1 {
		t.Errorf("PendingCount() = %d after post-Cleanup subscribe, want 1", got)
	}
}

func TestCleanupDuringDispatchSuppressesRearm(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {
		e.Cleanup()
	})

	te.clk.Advance(time.Second)
	te.sched.FireNext()

	if got := te.sched.PendingCount(); got != 0 {
		t.Errorf("PendingCount() = %d after Cleanup from callback, want 0", got)
	}
}

func TestHistoryRecordsTicks(t *testing.T) {
	clk := clock.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := scheduler.NewManualScheduler()
	record, err := history.NewRecord(4)
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}

	e := NewWithConfig(snapshot.Initial(clk.Now()), Config{
		Clock:     clk,
		Scheduler: sched,
		History:   record,
	})

	mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})
	mustSubscribe(t, e, 5*time.Second, func(snapshot.Snapshot) {})

	clk.Advance(time.Second)
	sched.FireNext()
	clk.Advance(time.Second)
	sched.FireNext()

	if record.Len() != 2 {
		t.Fatalf("history Len() = %d, want 2", record.Len())
	}
	entry, ok := record.Get(2)
	if !ok {
		t.Fatal("history missing tick 2")
	}
	if entry.Delivered != 2 {
		t.Errorf("history Delivered = %d, want 2", entry.Delivered)
	}
}

func TestEngineLogsLifecycle(t *testing.T) {
	te := newTestEngine(t)
	e := te.engine

	unsub := mustSubscribe(t, e, time.Second, func(snapshot.Snapshot) {})
	te.clk.Advance(time.Second)
	te.sched.FireNext()
	unsub()

	if n := te.logged.countCategory(log.CategorySubscription); n != 2 {
		t.Errorf("subscription events = %d, want 2", n)
	}
	if n := te.logged.countCategory(log.CategoryTick); n != 1 {
		t.Errorf("tick events = %d, want 1", n)
	}
	if te.logged.countCategory(log.CategorySchedule) == 0 {
		t.Error("no schedule events logged")
	}
	// idle -> armed on subscribe, armed -> idle on last unsubscribe.
	if n := te.logged.countCategory(log.CategoryState); n < 2 {
		t.Errorf("state events = %d, want at least 2", n)
	}

	for _, ev := range te.logged.all() {
		if ev.EngineID != e.ID() {
			t.Fatalf("event EngineID = %q, want %q", ev.EngineID, e.ID())
		}
	}
}

// recordingLogger collects events for assertions. Thread-safe because tick
// logging can come from scheduler goroutines in other configurations.
type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingLogger) countCategory(c log.Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Category == c {
			n++
		}
	}
	return n
}

func (r *recordingLogger) all() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]log.Event, len(r.events))
	copy(out, r.events)
	return out
}
