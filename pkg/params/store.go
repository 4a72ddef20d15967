package params

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Store errors.
var (
	// ErrUnknownField indicates the field does not name a parameter.
	ErrUnknownField = errors.New("unknown parameter field")

	// ErrOutOfRange indicates the value is outside the field's declared
	// value set. The store is left unchanged.
	ErrOutOfRange = errors.New("parameter value out of range")

	// ErrConstraint indicates a cross-field constraint was violated
	// (lower rate limit above upper rate limit).
	ErrConstraint = errors.New("parameter constraint violated")

	// ErrInvalidMode indicates an unknown pacing mode.
	ErrInvalidMode = errors.New("invalid pacing mode")
)

// Defaults is the power-on safe profile, matching the device nominals.
func Defaults() map[Field]float64 {
	return map[Field]float64{
		FieldLowerRateLimit:         60,
		FieldUpperRateLimit:         120,
		FieldAtrialAmplitude:        3.0,
		FieldVentricularAmplitude:   3.5,
		FieldAtrialPulseWidth:       0.4,
		FieldVentricularPulseWidth:  0.4,
		FieldAtrialSensitivity:      2.5,
		FieldVentricularSensitivity: 2.5,
		FieldARP:                    250,
		FieldVRP:                    320,
		FieldHysteresisRate:         0,
		FieldRateSmoothingUp:        0,
		FieldRateSmoothingDown:      0,
	}
}

// DefaultMode is the power-on mode.
const DefaultMode = ModeVVI

// Snapshot is a consistent copy of the store taken under one lock
// acquisition. The pacing engine rebuilds its timers from a snapshot so a
// reset never observes a partially applied value set.
type Snapshot struct {
	// Mode is the active pacing mode.
	Mode Mode

	// Values holds every parameter.
	Values map[Field]float64

	// Revision increments on every applied write or mode switch.
	Revision uint64
}

// Interval returns the base escape interval derived from the lower rate
// limit: 60000/LRL milliseconds.
func (s Snapshot) Interval() time.Duration {
	return IntervalForRate(s.Values[FieldLowerRateLimit])
}

// HysteresisInterval returns the escape interval used after a sensed beat,
// or the base interval when hysteresis is off.
func (s Snapshot) HysteresisInterval() time.Duration {
	if r := s.Values[FieldHysteresisRate]; r > 0 {
		return IntervalForRate(r)
	}
	return s.Interval()
}

// RefractoryPeriod returns the refractory period for the given atrial flag.
func (s Snapshot) RefractoryPeriod(atrial bool) time.Duration {
	f := FieldVRP
	if atrial {
		f = FieldARP
	}
	return time.Duration(s.Values[f] * float64(time.Millisecond))
}

// IntervalForRate converts a rate in pulses/min to the pacing interval.
func IntervalForRate(rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(60000.0 / rate * float64(time.Millisecond))
}

// Change describes an applied store mutation, delivered to the OnChange
// callback.
type Change struct {
	// Field is the written field (zero value for mode switches).
	Field Field

	// Value is the applied value.
	Value float64

	// ModeChanged is true for mode switches.
	ModeChanged bool

	// Mode is the active mode after the change.
	Mode Mode

	// Revision is the store revision after the change.
	Revision uint64
}

// Store holds the active mode and parameter values. All writes validate
// against the declared safe bounds before applying; rejected writes leave
// the store untouched. Safe for concurrent use; in the deployed system only
// the telemetry gateway writes and only the pacing engine reads during reset.
type Store struct {
	mu       sync.RWMutex
	mode     Mode
	values   map[Field]float64
	revision uint64
	onChange func(Change)
}

// NewStore creates a store initialized to the power-on safe profile.
func NewStore() *Store {
	return &Store{
		mode:   DefaultMode,
		values: Defaults(),
	}
}

// OnChange sets a callback invoked after every applied write or mode
// switch. The callback runs outside the store lock.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Read returns the current value of a field.
func (s *Store) Read(f Field) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[f]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownField, uint8(f))
	}
	return v, nil
}

// Mode returns the active pacing mode.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Write validates and applies a single parameter value. Values outside the
// field's declared set, or violating a cross-field constraint, are rejected
// and the store is left byte-identical to before the call.
func (s *Store) Write(f Field, v float64) error {
	if err := validateValue(f, v); err != nil {
		return err
	}

	s.mu.Lock()

	// Cross-field constraint: the lower rate limit may never exceed the
	// upper rate limit.
	lrl, url := s.values[FieldLowerRateLimit], s.values[FieldUpperRateLimit]
	switch f {
	case FieldLowerRateLimit:
		lrl = v
	case FieldUpperRateLimit:
		url = v
	}
	if lrl > url {
		s.mu.Unlock()
		return fmt.Errorf("%w: lower_rate_limit %v > upper_rate_limit %v", ErrConstraint, lrl, url)
	}

	s.values[f] = v
	s.revision++
	change := Change{
		Field:    f,
		Value:    v,
		Mode:     s.mode,
		Revision: s.revision,
	}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(change)
	}
	return nil
}

// SetMode switches the active pacing mode.
func (s *Store) SetMode(m Mode) error {
	if !m.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, uint8(m))
	}

	s.mu.Lock()
	s.mode = m
	s.revision++
	change := Change{
		ModeChanged: true,
		Mode:        m,
		Revision:    s.revision,
	}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(change)
	}
	return nil
}

// Snapshot returns a consistent copy of all current values.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[Field]float64, len(s.values))
	for f, v := range s.values {
		values[f] = v
	}
	return Snapshot{
		Mode:     s.mode,
		Values:   values,
		Revision: s.revision,
	}
}
