// Package config loads engine and demo configuration from YAML files.
//
// # Format
//
// A configuration file names the engine, sizes the tick history, points
// the event log at a file, and optionally declares subscriptions to be
// established at startup:
//
//	engine_id: bench-1
//	history_depth: 128
//	log:
//	  file: events.cbor
//	  slog: true
//	subscriptions:
//	  - name: fast
//	    interval: 500ms
//	  - name: ambient
//	    unbounded: true
//
// Intervals use time.ParseDuration syntax. A subscription is either
// unbounded or carries a positive interval, never both.
package config
