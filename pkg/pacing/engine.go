package pacing

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openpacer/pacer-go/pkg/log"
	"github.com/openpacer/pacer-go/pkg/params"
	"github.com/openpacer/pacer-go/pkg/timing"
)

// Engine defaults.
const (
	// DefaultQueueSize is the event queue capacity.
	DefaultQueueSize = 64

	// DefaultJitterTolerance is how late a timer may fire before a
	// TimerOverrun fault is raised.
	DefaultJitterTolerance = time.Millisecond

	// DefaultAckTimeout bounds how long the engine waits for a pulse
	// trigger acknowledgement before raising a hardware fault.
	DefaultAckTimeout = 50 * time.Millisecond
)

// Engine errors.
var (
	ErrMissingTimers = errors.New("engine requires a timer service")
	ErrMissingStore  = errors.New("engine requires a parameter store")
	ErrMissingDriver = errors.New("engine requires a pulse driver")
	ErrNotRunning    = errors.New("engine not running")
)

// eventKind tags engine queue events.
type eventKind uint8

const (
	evSense eventKind = iota
	evIntervalTimer
	evAckTimer
	evAck
	evReconfigure
	evSync
	evStop
)

// event is one entry in the single-consumer queue. Interrupt-level sources
// build events and enqueue; they never touch engine state directly.
type event struct {
	kind     eventKind
	chamber  Chamber
	at       time.Time // sense timestamp or timer fire time
	deadline time.Time // interval timer scheduled deadline
	seq      uint64    // timer schedule tag
	syncCh   chan struct{}
}

// Config configures an Engine.
type Config struct {
	// Timers is the timer service (required).
	Timers timing.Service

	// Store is the parameter store (required). The engine registers the
	// store's OnChange hook; it must be the only OnChange consumer.
	Store *params.Store

	// Driver is the pulse hardware seam (required).
	Driver PulseDriver

	// Logger receives device events. Nil disables logging.
	Logger log.Logger

	// DeviceID stamps emitted events.
	DeviceID string

	// QueueSize overrides the event queue capacity.
	QueueSize int

	// JitterTolerance overrides the timer overrun threshold.
	JitterTolerance time.Duration

	// AckTimeout overrides the pulse acknowledgement timeout.
	AckTimeout time.Duration
}

// Engine is the pacing control loop: one goroutine consuming a single
// event queue, owning the sense channels, pace channels, and the mode
// state machine.
type Engine struct {
	timers   timing.Service
	store    *params.Store
	driver   PulseDriver
	logger   log.Logger
	deviceID string

	jitterTol  time.Duration
	ackTimeout time.Duration

	queue   chan event
	stopped chan struct{}
	dropped atomic.Uint64

	// Reconfigure flags. A full queue may drop the evReconfigure wake-up,
	// but never the change itself: the loop checks these before every event.
	reconfPending atomic.Bool
	resetPending  atomic.Bool

	mu      sync.Mutex
	running bool

	// Loop-owned state. Only the run goroutine touches these after Start.
	snap     params.Snapshot
	machine  *modeMachine
	sense    [2]*SenseChannel
	pace     [2]*PaceChannel
	timerSeq uint64

	// Pending pulse acknowledgement.
	ackPending bool
	ackSeq     uint64
	ackChamber Chamber
	ackHandle  timing.Handle
}

// NewEngine creates an engine from the configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Timers == nil {
		return nil, ErrMissingTimers
	}
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	if cfg.Driver == nil {
		return nil, ErrMissingDriver
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	jitterTol := cfg.JitterTolerance
	if jitterTol <= 0 {
		jitterTol = DefaultJitterTolerance
	}
	ackTimeout := cfg.AckTimeout
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}

	return &Engine{
		timers:     cfg.Timers,
		store:      cfg.Store,
		driver:     cfg.Driver,
		logger:     logger,
		deviceID:   cfg.DeviceID,
		jitterTol:  jitterTol,
		ackTimeout: ackTimeout,
		queue:      make(chan event, queueSize),
		stopped:    make(chan struct{}),
	}, nil
}

// Start builds the channels and state machine from the current parameter
// snapshot, schedules the first escape interval, and starts the run loop.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine already started")
	}
	e.running = true
	e.mu.Unlock()

	e.snap = e.store.Snapshot()
	e.sense[Atrium] = NewSenseChannel(Atrium, e.snap.RefractoryPeriod(true))
	e.sense[Ventricle] = NewSenseChannel(Ventricle, e.snap.RefractoryPeriod(false))
	e.pace[Atrium] = NewPaceChannel(Atrium, e.driver, e.sense[Atrium])
	e.pace[Ventricle] = NewPaceChannel(Ventricle, e.driver, e.sense[Ventricle])

	e.machine = newModeMachine(e, e.snap)
	e.machine.start(e.timers.Now())

	e.store.OnChange(e.onStoreChange)

	e.logState("", "RUNNING", "power-on")
	go e.run()
	return nil
}

// Stop halts the loop and cancels all pending timers. Blocks until the
// loop exits.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	e.queue <- event{kind: evStop}
	<-e.stopped
}

// SenseDetected is the interrupt entry point for raw chamber activity.
// It timestamps the pulse and enqueues it; it never blocks.
func (e *Engine) SenseDetected(chamber Chamber) {
	e.enqueue(event{kind: evSense, chamber: chamber, at: e.timers.Now()})
}

// PulseAcked is the driver's acknowledgement entry point. Never blocks.
func (e *Engine) PulseAcked(chamber Chamber) {
	e.enqueue(event{kind: evAck, chamber: chamber, at: e.timers.Now()})
}

// Sync blocks until every event enqueued before the call has been fully
// processed. Used by tests and the bench simulator to make timer advances
// deterministic.
func (e *Engine) Sync() {
	ch := make(chan struct{})
	select {
	case e.queue <- event{kind: evSync, syncCh: ch}:
		<-ch
	case <-e.stopped:
	}
}

// Dropped returns how many interrupt events were discarded because the
// queue was full.
func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

// enqueue adds an event without blocking. Interrupt sources must never
// stall; a full queue drops the event and counts it.
func (e *Engine) enqueue(ev event) {
	select {
	case e.queue <- ev:
	default:
		e.dropped.Add(1)
	}
}

// onStoreChange is the parameter store hook. Runs on the gateway goroutine:
// it logs the write and marks the loop for reconfiguration. An acknowledged
// write must reach the loop even when the queue is full, so the change
// travels through the flags and the queue only carries a wake-up.
func (e *Engine) onStoreChange(ch params.Change) {
	if !ch.ModeChanged {
		e.logger.Log(log.Event{
			Timestamp: e.timers.Now(),
			DeviceID:  e.deviceID,
			Category:  log.CategoryParam,
			Param:     &log.ParamEvent{Field: ch.Field.String(), Value: ch.Value},
		})
	}

	if ch.ModeChanged || ch.Field.AffectsTiming() {
		e.resetPending.Store(true)
	}
	e.reconfPending.Store(true)

	// Dropping the wake-up is harmless: a full queue means the loop has
	// events to dispatch, and it checks the flags before each one.
	e.enqueue(event{kind: evReconfigure})
}

// run is the single-consumer control loop. Each event handler runs to
// completion before the next is dispatched.
func (e *Engine) run() {
	for ev := range e.queue {
		if e.reconfPending.Swap(false) {
			e.applyReconfigure(e.resetPending.Swap(false))
		}
		switch ev.kind {
		case evSense:
			e.handleSense(ev)
		case evIntervalTimer:
			e.handleIntervalTimer(ev)
		case evAckTimer:
			e.handleAckTimeout(ev)
		case evAck:
			e.handleAck(ev)
		case evReconfigure:
			// Wake-up only; the flag check above did the work.
		case evSync:
			close(ev.syncCh)
		case evStop:
			e.machine.cancel()
			e.cancelAckTimer()
			e.logState("RUNNING", "STOPPED", "shutdown")
			close(e.stopped)
			return
		}
	}
}

// handleSense debounces raw activity through the chamber's sense channel
// and feeds reported beats to the state machine.
func (e *Engine) handleSense(ev event) {
	if !e.sense[ev.chamber].Sense(ev.at) {
		// Refractory: discarded, not reported, not counted.
		return
	}

	inhibited := e.machine.onSense(ev.chamber, ev.at)
	e.logger.Log(log.Event{
		Timestamp: ev.at,
		DeviceID:  e.deviceID,
		Category:  log.CategorySense,
		Sense:     &log.SenseEvent{Chamber: ev.chamber.LogChamber(), Inhibited: inhibited},
	})
}

// handleIntervalTimer delivers a pulse when the escape interval expires.
func (e *Engine) handleIntervalTimer(ev event) {
	if !e.machine.onTimer(ev.seq) {
		return // stale fire from a cancelled or superseded schedule
	}

	if late := ev.at.Sub(ev.deadline); late > e.jitterTol {
		e.logFault(log.FaultEvent{
			Code:     log.FaultTimerOverrun,
			Chamber:  ev.chamber.LogChamber(),
			Message:  "interval timer fired late",
			Lateness: late,
		})
	}

	e.deliverPulse(ev.chamber, ev.deadline, ev.at)
	e.machine.restartAfterPace()
}

// deliverPulse issues one pulse and arms the acknowledgement timeout.
// An amplitude programmed to zero means the chamber output is off; the
// escape interval keeps running so pacing resumes the moment an amplitude
// is programmed back.
func (e *Engine) deliverPulse(chamber Chamber, deadline, now time.Time) {
	amplitude, width := e.pulseConfig(chamber)
	if amplitude == 0 {
		return
	}

	pulse := Pulse{
		Chamber:   chamber,
		Amplitude: amplitude,
		Width:     width,
		Deadline:  deadline,
	}
	if err := e.pace[chamber].Deliver(pulse, now); err != nil {
		e.logFault(log.FaultEvent{
			Code:    log.FaultHardware,
			Chamber: chamber.LogChamber(),
			Message: err.Error(),
		})
		return
	}

	e.logger.Log(log.Event{
		Timestamp: now,
		DeviceID:  e.deviceID,
		Category:  log.CategoryPace,
		Pace: &log.PaceEvent{
			Chamber:   chamber.LogChamber(),
			Amplitude: amplitude,
			Width:     width,
			Deadline:  deadline,
		},
	})

	e.armAckTimer(chamber)
}

// pulseConfig returns the amplitude and width programmed for a chamber.
func (e *Engine) pulseConfig(chamber Chamber) (amplitude, width float64) {
	if chamber.Atrial() {
		return e.snap.Values[params.FieldAtrialAmplitude], e.snap.Values[params.FieldAtrialPulseWidth]
	}
	return e.snap.Values[params.FieldVentricularAmplitude], e.snap.Values[params.FieldVentricularPulseWidth]
}

// armAckTimer starts the bounded wait for the hardware acknowledgement.
func (e *Engine) armAckTimer(chamber Chamber) {
	e.cancelAckTimer()

	e.timerSeq++
	seq := e.timerSeq
	e.ackPending = true
	e.ackSeq = seq
	e.ackChamber = chamber
	e.ackHandle = e.timers.Schedule(e.ackTimeout, func(fired time.Time) {
		e.enqueue(event{kind: evAckTimer, chamber: chamber, at: fired, seq: seq})
	})
}

// cancelAckTimer clears any pending acknowledgement wait.
func (e *Engine) cancelAckTimer() {
	if e.ackPending {
		e.timers.Cancel(e.ackHandle)
		e.ackPending = false
	}
}

// handleAck clears the pending acknowledgement.
func (e *Engine) handleAck(ev event) {
	if e.ackPending && ev.chamber == e.ackChamber {
		e.cancelAckTimer()
	}
}

// handleAckTimeout raises a hardware fault for an unacknowledged pulse.
// The state machine keeps running its own timers regardless: a missed
// pulse must never stall future scheduling.
func (e *Engine) handleAckTimeout(ev event) {
	if !e.ackPending || ev.seq != e.ackSeq {
		return
	}
	e.ackPending = false
	e.logFault(log.FaultEvent{
		Code:    log.FaultHardware,
		Chamber: ev.chamber.LogChamber(),
		Message: fmt.Sprintf("pulse not acknowledged within %v", e.ackTimeout),
	})
}

// applyReconfigure applies a new parameter snapshot. Timing-relevant
// changes perform a full reset: cancel every pending timer, rebuild the
// state machine from the snapshot, restart the escape interval. Partial
// updates are never applied mid-cycle.
func (e *Engine) applyReconfigure(reset bool) {
	oldMode := e.snap.Mode
	e.snap = e.store.Snapshot()

	// Refractory durations always track the snapshot. A channel already in
	// refractory keeps its original window start.
	e.sense[Atrium].SetRefractoryPeriod(e.snap.RefractoryPeriod(true))
	e.sense[Ventricle].SetRefractoryPeriod(e.snap.RefractoryPeriod(false))

	if !reset {
		return
	}

	e.machine.cancel()
	e.machine = newModeMachine(e, e.snap)
	e.machine.start(e.timers.Now())

	if e.snap.Mode != oldMode {
		e.logger.Log(log.Event{
			Timestamp: e.timers.Now(),
			DeviceID:  e.deviceID,
			Category:  log.CategoryMode,
			Mode:      &log.ModeEvent{OldMode: oldMode.String(), NewMode: e.snap.Mode.String()},
		})
	}
	e.logState("RUNNING", "RUNNING", "timing reset")
}

// logFault emits a fault event.
func (e *Engine) logFault(f log.FaultEvent) {
	fault := f
	e.logger.Log(log.Event{
		Timestamp: e.timers.Now(),
		DeviceID:  e.deviceID,
		Category:  log.CategoryFault,
		Fault:     &fault,
	})
}

// logState emits an engine lifecycle event.
func (e *Engine) logState(oldState, newState, reason string) {
	e.logger.Log(log.Event{
		Timestamp: e.timers.Now(),
		DeviceID:  e.deviceID,
		Category:  log.CategoryState,
		State:     &log.StateEvent{OldState: oldState, NewState: newState, Reason: reason},
	})
}
