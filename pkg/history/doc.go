// Package history keeps a bounded record of recent engine ticks.
//
// The engine appends one entry per tick: the captured snapshot plus how many
// deliveries it made. The record is bounded; once the configured depth is
// reached, the oldest tick is evicted. It exists for diagnostics (the
// interactive demo's history command and the watch TUI read it) and has no
// effect on scheduling or dispatch.
package history
