package pacing

import (
	"time"

	"github.com/openpacer/pacer-go/pkg/params"
	"github.com/openpacer/pacer-go/pkg/timing"
)

// modeMachine is the per-mode timing state machine. It owns the single
// pending escape-interval timer for the paced chamber; the invariant that
// at most one interval timer is pending at any instant is what rules out
// double pacing. Only the engine loop touches it.
type modeMachine struct {
	eng   *Engine
	mode  params.Mode
	paced Chamber

	// Escape intervals derived from the parameter snapshot.
	baseInterval time.Duration
	hystInterval time.Duration

	// Rate smoothing percentages (0 = off). Demand modes only.
	smoothUp   float64
	smoothDown float64

	// Pending interval timer. seq tags the current schedule so a fire that
	// was already queued when the timer was cancelled or superseded is
	// recognized as stale and dropped.
	pending  bool
	seq      uint64
	handle   timing.Handle
	deadline time.Time

	// lastCycle is the escape interval used for the previous cycle,
	// the reference for rate smoothing.
	lastCycle time.Duration
}

// newModeMachine builds a machine from a parameter snapshot. Timers are not
// started until start is called.
func newModeMachine(eng *Engine, snap params.Snapshot) *modeMachine {
	m := &modeMachine{
		eng:          eng,
		mode:         snap.Mode,
		paced:        PacedChamber(snap.Mode),
		baseInterval: snap.Interval(),
		hystInterval: snap.HysteresisInterval(),
	}
	if snap.Mode.Inhibited() {
		m.smoothUp = snap.Values[params.FieldRateSmoothingUp]
		m.smoothDown = snap.Values[params.FieldRateSmoothingDown]
	}
	return m
}

// start schedules the first escape interval from the given origin.
func (m *modeMachine) start(origin time.Time) {
	m.scheduleFrom(origin, m.baseInterval)
}

// cancel stops the pending interval timer. Any fire already in flight is
// invalidated by the seq check in onTimer.
func (m *modeMachine) cancel() {
	if m.pending {
		m.eng.timers.Cancel(m.handle)
		m.pending = false
	}
}

// scheduleFrom arranges the next pulse deadline at origin+want. Scheduling
// from the previous deadline (not from "now") keeps periodic pacing
// drift-free. Rate smoothing bounds the cycle-to-cycle change.
func (m *modeMachine) scheduleFrom(origin time.Time, want time.Duration) {
	interval := m.smooth(want)
	m.lastCycle = interval

	m.eng.timerSeq++
	seq := m.eng.timerSeq
	deadline := origin.Add(interval)

	delay := deadline.Sub(m.eng.timers.Now())
	if delay < 0 {
		delay = 0
	}

	m.seq = seq
	m.deadline = deadline
	m.pending = true
	m.handle = m.eng.timers.Schedule(delay, func(fired time.Time) {
		m.eng.enqueue(event{
			kind:     evIntervalTimer,
			chamber:  m.paced,
			at:       fired,
			deadline: deadline,
			seq:      seq,
		})
	})
}

// smooth applies rate smoothing to the wanted escape interval.
func (m *modeMachine) smooth(want time.Duration) time.Duration {
	if m.lastCycle <= 0 {
		return want
	}
	if m.smoothUp > 0 {
		// Bound how much the cycle may shorten.
		floor := time.Duration(float64(m.lastCycle) * (1 - m.smoothUp/100))
		if want < floor {
			return floor
		}
	}
	if m.smoothDown > 0 {
		// Bound how much the cycle may lengthen.
		ceil := time.Duration(float64(m.lastCycle) * (1 + m.smoothDown/100))
		if want > ceil {
			return ceil
		}
	}
	return want
}

// onSense handles a reported intrinsic beat. In asynchronous modes senses
// are received but never suppress pacing. In demand modes a beat on the
// paced chamber inhibits the pending pulse and restarts the escape interval
// from the sense timestamp; with hysteresis on, the restarted interval is
// derived from the hysteresis rate. Returns true when the sense inhibited a
// pending pulse.
func (m *modeMachine) onSense(chamber Chamber, t time.Time) bool {
	if !m.mode.Inhibited() || chamber != m.paced {
		return false
	}

	inhibited := m.pending
	m.cancel()
	m.scheduleFrom(t, m.hystInterval)
	return inhibited
}

// onTimer handles an interval timer fire. Returns false for stale fires:
// a timer from a cancelled schedule or a previous configuration. This is
// also how the sense-vs-expiry race resolves sense-wins: a sense processed
// first reschedules with a new seq, so the expiry that raced with it is
// dropped here.
func (m *modeMachine) onTimer(seq uint64) bool {
	if !m.pending || seq != m.seq {
		return false
	}
	m.pending = false
	return true
}

// restartAfterPace schedules the next cycle from the delivered pulse's
// deadline.
func (m *modeMachine) restartAfterPace() {
	m.scheduleFrom(m.deadline, m.baseInterval)
}
