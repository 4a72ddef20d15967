// Package timing provides the timer service for the pacing core.
//
// The service schedules one-shot callbacks against a monotonic clock with
// microsecond-level resolution. Guarantees:
//   - a callback never fires earlier than its delay;
//   - Cancel before firing means the callback is never invoked;
//   - timers sharing a deadline fire in insertion order (FIFO tie-break).
//
// SystemTimers is the production implementation backed by the Go runtime
// timer heap. ManualTimers is a deterministic implementation for tests and
// bench simulation: time only moves when Advance is called, so pacing
// scenarios replay exactly.
package timing
