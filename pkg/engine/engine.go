package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timemux/timemux-go/pkg/clock"
	"github.com/timemux/timemux-go/pkg/history"
	"github.com/timemux/timemux-go/pkg/log"
	"github.com/timemux/timemux-go/pkg/scheduler"
	"github.com/timemux/timemux-go/pkg/snapshot"
)

// Engine errors.
var (
	ErrNilCallback     = errors.New("subscription callback must not be nil")
	ErrInvalidInterval = errors.New("subscription interval must not be negative")
)

// IntervalUnbounded requests no periodic update of its own: the registration
// is only notified when some other bucket forces a tick. A bucket holding
// only unbounded registrations never contributes to the schedule.
const IntervalUnbounded = time.Duration(math.MaxInt64)

// Callback delivers one snapshot to a subscriber. It runs outside the engine
// lock and may freely call back into the engine (subscribe, unsubscribe,
// Value, Cleanup).
type Callback func(snapshot.Snapshot)

// UnsubscribeFunc removes a registration. Calling it more than once has no
// additional effect.
type UnsubscribeFunc func()

// registration is one subscriber: a unique handle plus its delivery
// function and owning interval. Removal is by handle identity, never by
// container position.
type registration struct {
	id       uuid.UUID
	interval time.Duration
	fn       Callback
}

// Engine multiplexes time subscriptions onto at most one pending timer.
// See the package documentation for the scheduling model.
type Engine struct {
	mu sync.Mutex

	id     string
	clock  clock.Clock
	sched  scheduler.Scheduler
	logger log.Logger
	hist   *history.Record

	// current is the latest captured snapshot. Assigned before any
	// delivery of a tick, so all callbacks in one tick see the same value.
	current snapshot.Snapshot

	// buckets groups registrations by requested interval.
	buckets map[time.Duration]map[uuid.UUID]*registration

	// Pending timer bookkeeping. timerGen invalidates fires from timers
	// that were cancelled after their callback was already on its way.
	timerArmed  bool
	timerHandle scheduler.Handle
	timerDelay  time.Duration
	timerGen    uint64

	// cleaned suppresses tick-driven re-arming after Cleanup until the
	// next subscribe/unsubscribe recomputation.
	cleaned bool

	tickCount uint64
}

// New creates an engine with the production configuration.
func New(initial snapshot.Snapshot) *Engine {
	return NewWithConfig(initial, DefaultConfig())
}

// NewWithConfig creates an engine with explicit clock/scheduler/logger
// overrides. The engine starts idle; the first subscription arms it.
func NewWithConfig(initial snapshot.Snapshot, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		id:      uuid.NewString(),
		clock:   cfg.Clock,
		sched:   cfg.Scheduler,
		logger:  cfg.Logger,
		hist:    cfg.History,
		current: initial,
		buckets: make(map[time.Duration]map[uuid.UUID]*registration),
	}
}

// ID returns the engine instance identifier used in log events.
func (e *Engine) ID() string {
	return e.id
}

// Subscribe registers fn for updates at most interval apart and returns its
// teardown function. interval must be >= 0 or IntervalUnbounded. Creating
// the first registration of a new interval recomputes the schedule.
func (e *Engine) Subscribe(interval time.Duration, fn Callback) (UnsubscribeFunc, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if interval < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}

	reg := &registration{
		id:       uuid.New(),
		interval: interval,
		fn:       fn,
	}

	e.mu.Lock()
	bucket, ok := e.buckets[interval]
	if !ok {
		bucket = make(map[uuid.UUID]*registration)
		e.buckets[interval] = bucket
	}
	bucket[reg.id] = reg

	events := []log.Event{e.subscriptionEventLocked(log.ActionSubscribed, reg, !ok)}
	if !ok {
		events = append(events, e.recomputeLocked("subscribe")...)
	}
	e.mu.Unlock()

	e.emit(events)

	return func() { e.unsubscribe(reg) }, nil
}

// unsubscribe removes reg from its bucket. Idempotent: a registration that
// was already removed is left alone, and no recomputation happens for it.
func (e *Engine) unsubscribe(reg *registration) {
	e.mu.Lock()
	bucket, ok := e.buckets[reg.interval]
	if !ok {
		e.mu.Unlock()
		return
	}
	if _, ok := bucket[reg.id]; !ok {
		e.mu.Unlock()
		return
	}

	delete(bucket, reg.id)
	emptied := len(bucket) == 0
	if emptied {
		delete(e.buckets, reg.interval)
	}

	events := []log.Event{e.subscriptionEventLocked(log.ActionUnsubscribed, reg, emptied)}
	if emptied {
		events = append(events, e.recomputeLocked("unsubscribe")...)
	}
	e.mu.Unlock()

	e.emit(events)
}

// Value returns the most recently captured snapshot. It never blocks and
// never triggers a capture; before the first tick it returns the snapshot
// the engine was constructed with.
func (e *Engine) Value() snapshot.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Cleanup cancels any pending timer and stops tick-driven re-arming.
// Idempotent. Registrations and the last snapshot survive; a later
// subscribe or unsubscribe resumes scheduling.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	var events []log.Event
	if e.timerArmed {
		e.sched.Cancel(e.timerHandle)
		e.timerArmed = false
		events = append(events, e.stateEventLocked("armed", "idle", "cleanup"))
	}
	e.timerGen++
	e.cleaned = true
	e.mu.Unlock()

	e.emit(events)
}

// Stats describes the engine's current state.
type Stats struct {
	// Buckets is the number of distinct active intervals.
	Buckets int

	// Registrations is the total subscriber count across buckets.
	Registrations int

	// Ticks is the number of ticks dispatched since construction.
	Ticks uint64

	// TimerArmed reports whether a timer is pending.
	TimerArmed bool

	// ArmedDelay is the delay the pending timer was armed with
	// (zero when idle).
	ArmedDelay time.Duration
}

// Stats returns a point-in-time view of the engine.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	regs := 0
	for _, bucket := range e.buckets {
		regs += len(bucket)
	}

	s := Stats{
		Buckets:       len(e.buckets),
		Registrations: regs,
		Ticks:         e.tickCount,
		TimerArmed:    e.timerArmed,
	}
	if e.timerArmed {
		s.ArmedDelay = e.timerDelay
	}
	return s
}

// recomputeLocked re-derives the pending timer from the active bucket set:
// cancel unconditionally, then arm for the minimum finite interval, or stay
// idle when none exists. Caller holds e.mu.
func (e *Engine) recomputeLocked(reason string) []log.Event {
	var events []log.Event

	wasArmed := e.timerArmed
	if e.timerArmed {
		e.sched.Cancel(e.timerHandle)
		e.timerArmed = false
	}
	e.timerGen++
	e.cleaned = false

	min, ok := e.minIntervalLocked()
	if !ok {
		if wasArmed {
			events = append(events, e.stateEventLocked("armed", "idle", reason))
		}
		events = append(events, e.scheduleEventLocked(false, 0))
		return events
	}

	gen := e.timerGen
	e.timerDelay = min
	e.timerHandle = e.sched.Schedule(min, func() { e.tick(gen) })
	e.timerArmed = true

	if !wasArmed {
		events = append(events, e.stateEventLocked("idle", "armed", reason))
	}
	events = append(events, e.scheduleEventLocked(true, min))
	return events
}

// minIntervalLocked returns the minimum finite interval across active
// buckets. Unbounded buckets never contribute. Caller holds e.mu.
func (e *Engine) minIntervalLocked() (time.Duration, bool) {
	min := IntervalUnbounded
	found := false
	for interval := range e.buckets {
		if interval == IntervalUnbounded {
			continue
		}
		if !found || interval < min {
			min = interval
			found = true
		}
	}
	return min, found
}

// tick handles one timer fire: capture a snapshot, dispatch it to every
// active registration, then re-arm.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if gen != e.timerGen || !e.timerArmed {
		// Stale fire: the timer was cancelled (recompute or Cleanup)
		// after its callback was already scheduled to run.
		e.mu.Unlock()
		return
	}
	e.timerArmed = false

	// Capture and store before notifying anyone, so every callback of this
	// tick observes the identical snapshot.
	snap := snapshot.New(e.clock.Now(), e.current.Sequence+1)
	e.current = snap
	e.tickCount++

	// Copy the active set. Callbacks run outside the lock and may mutate
	// the buckets; the copy keeps iteration stable while liveness is
	// re-checked per registration.
	regs := make([]*registration, 0, 8)
	for _, bucket := range e.buckets {
		for _, reg := range bucket {
			regs = append(regs, reg)
		}
	}
	e.mu.Unlock()

	delivered := 0
	var faults []log.Event
	for _, reg := range regs {
		// Skip registrations removed earlier in this same tick.
		if !e.isActive(reg) {
			continue
		}
		delivered++
		if msg, faulted := e.deliver(reg, snap); faulted {
			faults = append(faults, log.Event{
				Timestamp: e.clock.Now(),
				EngineID:  e.id,
				Category:  log.CategoryError,
				Error: &log.ErrorEventData{
					Message:        msg,
					RegistrationID: reg.id.String(),
					Sequence:       snap.Sequence,
				},
			})
		}
	}

	if e.hist != nil {
		e.hist.Add(history.Entry{
			Snapshot:  snap,
			Delivered: delivered,
			Faults:    len(faults),
		})
	}

	e.mu.Lock()
	events := []log.Event{{
		Timestamp: e.clock.Now(),
		EngineID:  e.id,
		Category:  log.CategoryTick,
		Tick: &log.TickEvent{
			Sequence:  snap.Sequence,
			Delivered: delivered,
			Faults:    len(faults),
		},
	}}
	events = append(events, faults...)
	if !e.cleaned {
		events = append(events, e.recomputeLocked("tick")...)
	}
	e.mu.Unlock()

	e.emit(events)
}

// deliver invokes one callback, isolating panics so a faulting subscriber
// cannot abort delivery to its siblings.
func (e *Engine) deliver(reg *registration, snap snapshot.Snapshot) (msg string, faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("callback panic: %v", r)
			faulted = true
		}
	}()

	reg.fn(snap)
	return "", false
}

// isActive reports whether reg is still registered.
func (e *Engine) isActive(reg *registration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	bucket, ok := e.buckets[reg.interval]
	if !ok {
		return false
	}
	_, ok = bucket[reg.id]
	return ok
}

// emit logs events outside the engine lock.
func (e *Engine) emit(events []log.Event) {
	for _, ev := range events {
		e.logger.Log(ev)
	}
}

// subscriptionEventLocked builds a subscribe/unsubscribe event.
// Caller holds e.mu.
func (e *Engine) subscriptionEventLocked(action log.SubscriptionAction, reg *registration, bucketChanged bool) log.Event {
	sub := &log.SubscriptionEvent{
		Action:         action,
		RegistrationID: reg.id.String(),
		BucketChanged:  bucketChanged,
		ActiveBuckets:  len(e.buckets),
	}
	if reg.interval == IntervalUnbounded {
		sub.Unbounded = true
	} else {
		sub.Interval = reg.interval
	}
	return log.Event{
		Timestamp:    e.clock.Now(),
		EngineID:     e.id,
		Category:     log.CategorySubscription,
		Subscription: sub,
	}
}

// scheduleEventLocked builds a schedule recomputation event. Caller holds e.mu.
func (e *Engine) scheduleEventLocked(armed bool, delay time.Duration) log.Event {
	return log.Event{
		Timestamp: e.clock.Now(),
		EngineID:  e.id,
		Category:  log.CategorySchedule,
		Schedule: &log.ScheduleEvent{
			Armed:         armed,
			Delay:         delay,
			ActiveBuckets: len(e.buckets),
		},
	}
}

// stateEventLocked builds a lifecycle state-change event. Caller holds e.mu.
func (e *Engine) stateEventLocked(oldState, newState, reason string) log.Event {
	return log.Event{
		Timestamp: e.clock.Now(),
		EngineID:  e.id,
		Category:  log.CategoryState,
		State: &log.StateChangeEvent{
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	}
}
