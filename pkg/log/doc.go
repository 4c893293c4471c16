// Package log implements structured event logging for the timemux engine.
//
// Events capture everything an engine does that is worth replaying later:
// subscription changes, schedule recomputations, ticks, lifecycle state
// changes, and delivery faults. Applications receive events through the
// Logger interface; pass NoopLogger (or leave the engine config's Logger
// nil) to disable logging.
//
// # Storage Format
//
// FileLogger appends events to a file as a CBOR sequence with integer map
// keys, which keeps high-frequency tick logs compact. Reader streams events
// back, optionally filtered.
//
// # Console Output
//
// SlogAdapter bridges events into a standard log/slog logger for
// development. MultiLogger fans one event stream out to several sinks,
// typically a FileLogger plus a SlogAdapter.
package log
