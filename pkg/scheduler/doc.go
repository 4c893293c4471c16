// Package scheduler abstracts the engine's timer primitives.
//
// The engine never arms a time.Timer itself; it asks the Scheduler it was
// configured with to run a callback after a delay, and to cancel a previously
// scheduled callback. This keeps the engine free of any implicit dependency
// on a global timer registry and makes its scheduling fully testable.
//
// # Implementations
//
//   - TimerScheduler: production implementation on time.AfterFunc.
//   - ManualScheduler: test implementation; scheduled callbacks fire only
//     when the test says so, and the pending set can be inspected.
//   - mocks.MockScheduler: generated mock for expectation-style tests.
//
// # Handles
//
// Schedule returns an opaque Handle identifying the scheduled callback.
// Cancelling a handle that already fired or was already cancelled is a no-op;
// callers don't need to track whether a cancellation raced a fire.
package scheduler
