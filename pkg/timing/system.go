package timing

import (
	"sync"
	"time"
)

// SystemTimers is the production timer service backed by the runtime timer
// heap. time.Now carries a monotonic reading on every supported platform, so
// deadlines are immune to wall-clock steps.
type SystemTimers struct {
	mu      sync.Mutex
	nextID  Handle
	pending map[Handle]*time.Timer
}

// NewSystemTimers creates a system timer service.
func NewSystemTimers() *SystemTimers {
	return &SystemTimers{pending: make(map[Handle]*time.Timer)}
}

// Now returns the current monotonic clock reading.
func (s *SystemTimers) Now() time.Time {
	return time.Now()
}

// Schedule arranges for fn to run once after delay.
func (s *SystemTimers) Schedule(delay time.Duration, fn Callback) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	h := s.nextID

	s.pending[h] = time.AfterFunc(delay, func() {
		// The runtime may invoke this concurrently with Cancel. The handle
		// acts as the arbiter: whoever removes it from the map first wins,
		// so a successful Cancel guarantees no invocation.
		s.mu.Lock()
		_, live := s.pending[h]
		if live {
			delete(s.pending, h)
		}
		s.mu.Unlock()

		if live {
			fn(time.Now())
		}
	})

	return h
}

// Cancel stops a pending timer.
func (s *SystemTimers) Cancel(h Handle) bool {
	s.mu.Lock()
	t, ok := s.pending[h]
	if ok {
		delete(s.pending, h)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	t.Stop()
	return true
}

// PendingCount returns the number of timers that have not fired or been
// cancelled. Diagnostic use only.
func (s *SystemTimers) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

var _ Service = (*SystemTimers)(nil)
