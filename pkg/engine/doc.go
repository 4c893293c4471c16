// Package engine implements the timemux engine: a shared source of "current
// time" for many independent consumers.
//
// Each consumer subscribes with the maximum interval at which it wants
// updates. Instead of one timer per consumer, the engine multiplexes all
// requests onto at most one pending timer, re-armed with the minimum interval
// across all active subscriptions.
//
// # Buckets
//
// Registrations are grouped into buckets by requested interval. Buckets are
// created lazily on first subscriber and deleted when their last subscriber
// leaves; whenever the set of distinct intervals changes, the schedule is
// recomputed. Bucketing exists only to make that recomputation cheap; it
// never gates delivery.
//
// # Ticks
//
// When the engine's timer fires, it captures exactly one snapshot, stores it
// as the current value, and then notifies every active registration in every
// bucket. All callbacks in one tick observe the identical snapshot. A
// subscriber whose requested interval is larger than the minimum is simply
// updated more often than it asked for, never less.
//
// # Scheduling
//
// At most one timer is pending at any instant: recomputation always cancels
// the previous timer before arming a new one. After each tick the engine
// re-arms with the full current minimum interval; time already elapsed since
// the previous tick is not credited, so a recomputation can defer the next
// tick by at most one interval. With no finite-interval buckets the engine
// is idle and arms nothing.
//
// # Lifecycle
//
// Cleanup cancels any pending timer and suppresses tick-driven re-arming.
// It is idempotent, keeps the last snapshot and all registrations, and a
// later subscribe or unsubscribe resumes scheduling.
package engine
