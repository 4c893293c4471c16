// Package snapshot defines the immutable time value handed to subscribers.
//
// A Snapshot is produced exactly once per engine tick. It pairs the wall-clock
// time at capture with a monotone capture sequence, so two snapshots compare
// equal only when they came from the same capture event, never merely because
// their clock readings coincide.
//
// # Identity
//
// The sequence is the identity. It starts at 0 for the snapshot an engine is
// constructed with and increases by one per tick. Consumers that cache a
// snapshot can cheaply detect "has a tick happened" by comparing sequences.
//
// # Immutability
//
// Snapshot is a plain value type with no pointers; it is always passed and
// stored by value. Nothing in the engine or its consumers can mutate a
// snapshot after capture.
package snapshot
