package log

import (
	"sync"
)

// DefaultMemoryCapacity is the default ring buffer capacity.
const DefaultMemoryCapacity = 256

// MemoryLogger keeps the most recent events in a bounded ring buffer.
// It backs the recent-event log shipped to the DCM in telemetry frames.
// Safe for concurrent use.
type MemoryLogger struct {
	mu    sync.Mutex
	buf   []Event
	start int
	count int
}

// NewMemoryLogger creates a memory logger holding at most capacity events.
// A capacity <= 0 uses DefaultMemoryCapacity.
func NewMemoryLogger(capacity int) *MemoryLogger {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryLogger{buf: make([]Event, capacity)}
}

// Log records the event, evicting the oldest when full.
func (m *MemoryLogger) Log(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count < len(m.buf) {
		m.buf[(m.start+m.count)%len(m.buf)] = event
		m.count++
		return
	}
	m.buf[m.start] = event
	m.start = (m.start + 1) % len(m.buf)
}

// Recent returns up to n most recent events, oldest first.
// n <= 0 returns all buffered events.
func (m *MemoryLogger) Recent(n int) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || n > m.count {
		n = m.count
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = m.buf[(m.start+m.count-n+i)%len(m.buf)]
	}
	return out
}

// Len returns the number of buffered events.
func (m *MemoryLogger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Clear discards all buffered events.
func (m *MemoryLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = 0
	m.count = 0
}

var _ Logger = (*MemoryLogger)(nil)
