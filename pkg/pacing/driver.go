package pacing

import (
	"errors"
	"sync"
	"time"
)

// Pulse describes one pacing pulse handed to the hardware driver.
type Pulse struct {
	// Chamber to pace.
	Chamber Chamber

	// Amplitude in volts.
	Amplitude float64

	// Width in milliseconds.
	Width float64

	// Deadline is the scheduled delivery instant.
	Deadline time.Time
}

// PulseDriver is the hardware seam for pulse delivery. Trigger must not
// block: the command is fire-and-forget, and the driver reports the
// hardware acknowledgement asynchronously via Engine.PulseAcked. A missing
// acknowledgement is detected by the engine's bounded timeout.
type PulseDriver interface {
	Trigger(p Pulse) error
}

// ErrDriverClosed indicates the driver was closed.
var ErrDriverClosed = errors.New("pulse driver closed")

// SimDriver is the bench implementation of PulseDriver. It records every
// pulse and acknowledges immediately unless told to drop acks, which lets
// tests and the simulator exercise the hardware-fault path.
type SimDriver struct {
	mu       sync.Mutex
	pulses   []Pulse
	dropAcks bool
	failNext error
	closed   bool

	// ack delivers acknowledgements back into the engine queue.
	// Set via SetAckSink before the first pulse.
	ack func(Chamber)
}

// NewSimDriver creates a simulated pulse driver.
func NewSimDriver() *SimDriver {
	return &SimDriver{}
}

// SetAckSink wires the acknowledgement callback, normally
// Engine.PulseAcked.
func (d *SimDriver) SetAckSink(fn func(Chamber)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ack = fn
}

// Trigger records the pulse and acknowledges it.
func (d *SimDriver) Trigger(p Pulse) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDriverClosed
	}
	if err := d.failNext; err != nil {
		d.failNext = nil
		d.mu.Unlock()
		return err
	}
	d.pulses = append(d.pulses, p)
	ack := d.ack
	drop := d.dropAcks
	d.mu.Unlock()

	if ack != nil && !drop {
		ack(p.Chamber)
	}
	return nil
}

// Pulses returns a copy of all recorded pulses.
func (d *SimDriver) Pulses() []Pulse {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Pulse, len(d.pulses))
	copy(out, d.pulses)
	return out
}

// SetDropAcks controls whether acknowledgements are suppressed.
func (d *SimDriver) SetDropAcks(drop bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropAcks = drop
}

// FailNext makes the next Trigger call return err.
func (d *SimDriver) FailNext(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = err
}

// Close marks the driver closed; subsequent triggers fail.
func (d *SimDriver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

var _ PulseDriver = (*SimDriver)(nil)
