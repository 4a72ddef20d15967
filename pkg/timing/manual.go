package timing

import (
	"sync"
	"time"
)

// ManualTimers is a deterministic timer service for tests and bench
// simulation. The clock only moves when Advance is called; due timers fire
// in deadline order with insertion-order tie-break, exactly matching the
// service contract but with zero jitter.
type ManualTimers struct {
	mu      sync.Mutex
	now     time.Time
	nextID  Handle
	nextSeq uint64
	pending []*manualTimer
}

type manualTimer struct {
	handle   Handle
	deadline time.Time
	seq      uint64
	fn       Callback
}

// NewManualTimers creates a manual timer service starting at the given
// instant. A zero start uses the Unix epoch.
func NewManualTimers(start time.Time) *ManualTimers {
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	return &ManualTimers{now: start}
}

// Now returns the current simulated clock reading.
func (m *ManualTimers) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Schedule arranges for fn to run once the clock has advanced by delay.
func (m *ManualTimers) Schedule(delay time.Duration, fn Callback) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.nextSeq++
	m.pending = append(m.pending, &manualTimer{
		handle:   m.nextID,
		deadline: m.now.Add(delay),
		seq:      m.nextSeq,
		fn:       fn,
	})
	return m.nextID
}

// Cancel stops a pending timer.
func (m *ManualTimers) Cancel(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.pending {
		if t.handle == h {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the clock forward by d, firing every timer whose deadline
// falls within the window. Each callback runs with the clock set to its own
// deadline, so callbacks that reschedule (periodic pacing) observe drift-free
// time. Callbacks run without the internal lock held and may call Schedule
// and Cancel.
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)

	for {
		t := m.popDueLocked(target)
		if t == nil {
			break
		}
		// Never run a callback early; move the clock to the deadline first.
		if t.deadline.After(m.now) {
			m.now = t.deadline
		}
		fired := m.now
		m.mu.Unlock()
		t.fn(fired)
		m.mu.Lock()
	}

	m.now = target
	m.mu.Unlock()
}

// AdvanceTo moves the clock forward to the given instant.
// Instants at or before the current reading are a no-op.
func (m *ManualTimers) AdvanceTo(instant time.Time) {
	m.mu.Lock()
	now := m.now
	m.mu.Unlock()

	if d := instant.Sub(now); d > 0 {
		m.Advance(d)
	}
}

// PendingCount returns the number of timers that have not fired or been
// cancelled.
func (m *ManualTimers) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// popDueLocked removes and returns the next timer due at or before target:
// earliest deadline first, insertion order breaking ties. Returns nil when
// nothing is due.
func (m *ManualTimers) popDueLocked(target time.Time) *manualTimer {
	best := -1
	for i, t := range m.pending {
		if t.deadline.After(target) {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		b := m.pending[best]
		if t.deadline.Before(b.deadline) || (t.deadline.Equal(b.deadline) && t.seq < b.seq) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	t := m.pending[best]
	m.pending = append(m.pending[:best], m.pending[best+1:]...)
	return t
}

var _ Service = (*ManualTimers)(nil)
