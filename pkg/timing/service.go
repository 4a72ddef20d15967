package timing

import (
	"time"
)

// Handle identifies a scheduled timer. Handles are never reused within a
// service instance.
type Handle uint64

// Callback is invoked when a timer fires. The fired argument is the
// service's clock reading at invocation; comparing it against the intended
// deadline gives the scheduling jitter.
type Callback func(fired time.Time)

// Service schedules one-shot callbacks against a monotonic clock.
type Service interface {
	// Now returns the current clock reading.
	Now() time.Time

	// Schedule arranges for fn to run once after delay. The callback fires
	// no earlier than delay. Timers with identical deadlines fire in
	// insertion order.
	Schedule(delay time.Duration, fn Callback) Handle

	// Cancel stops a pending timer. Returns true if the timer was still
	// pending; a true return guarantees the callback will not be invoked.
	Cancel(h Handle) bool
}
