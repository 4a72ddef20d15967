package log

import (
	"time"
)

// Event represents a device event captured by the pacing core.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision, monotonic source).
	Timestamp time.Time `cbor:"1,keyasint"`

	// DeviceID identifies the device that produced the event (UUID).
	DeviceID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (exactly one of these is set).
	Sense *SenseEvent `cbor:"4,keyasint,omitempty"` // Intrinsic beat sensed
	Pace  *PaceEvent  `cbor:"5,keyasint,omitempty"` // Pulse delivered
	Param *ParamEvent `cbor:"6,keyasint,omitempty"` // Parameter changed
	Mode  *ModeEvent  `cbor:"7,keyasint,omitempty"` // Mode switched
	Fault *FaultEvent `cbor:"8,keyasint,omitempty"` // Device fault
	State *StateEvent `cbor:"9,keyasint,omitempty"` // Engine lifecycle
}

// Category classifies the event type.
type Category uint8

const (
	// CategorySense indicates an intrinsic beat was sensed.
	CategorySense Category = 0
	// CategoryPace indicates a pacing pulse was delivered.
	CategoryPace Category = 1
	// CategoryParam indicates a parameter value changed.
	CategoryParam Category = 2
	// CategoryMode indicates the pacing mode changed.
	CategoryMode Category = 3
	// CategoryFault indicates a device fault.
	CategoryFault Category = 4
	// CategoryState indicates an engine lifecycle change.
	CategoryState Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySense:
		return "SENSE"
	case CategoryPace:
		return "PACE"
	case CategoryParam:
		return "PARAM"
	case CategoryMode:
		return "MODE"
	case CategoryFault:
		return "FAULT"
	case CategoryState:
		return "STATE"
	default:
		return "UNKNOWN"
	}
}

// Chamber identifies a cardiac chamber in event payloads.
// Mirrors pacing.Chamber without importing it (log is a leaf package).
type Chamber uint8

const (
	// ChamberAtrium is the right atrium.
	ChamberAtrium Chamber = 0
	// ChamberVentricle is the right ventricle.
	ChamberVentricle Chamber = 1
)

// String returns the chamber name.
func (c Chamber) String() string {
	switch c {
	case ChamberAtrium:
		return "ATRIUM"
	case ChamberVentricle:
		return "VENTRICLE"
	default:
		return "UNKNOWN"
	}
}

// SenseEvent captures an intrinsic beat reported by a sense channel.
type SenseEvent struct {
	// Chamber where the beat was sensed.
	Chamber Chamber `cbor:"1,keyasint"`

	// Inhibited is true when the sense suppressed a pending pace
	// (demand modes only).
	Inhibited bool `cbor:"2,keyasint,omitempty"`
}

// PaceEvent captures a delivered pacing pulse.
type PaceEvent struct {
	// Chamber that was paced.
	Chamber Chamber `cbor:"1,keyasint"`

	// Amplitude is the pulse amplitude in volts.
	Amplitude float64 `cbor:"2,keyasint"`

	// Width is the pulse width in milliseconds.
	Width float64 `cbor:"3,keyasint"`

	// Deadline is the scheduled delivery instant. Comparing Deadline with
	// the event Timestamp gives the scheduling jitter for this pulse.
	Deadline time.Time `cbor:"4,keyasint,omitempty"`
}

// ParamEvent captures a parameter store write.
type ParamEvent struct {
	// Field is the parameter name (params.Field string form).
	Field string `cbor:"1,keyasint"`

	// Value is the newly applied value.
	Value float64 `cbor:"2,keyasint"`
}

// ModeEvent captures a pacing mode switch.
type ModeEvent struct {
	// OldMode is the previous mode name (empty at power-on).
	OldMode string `cbor:"1,keyasint,omitempty"`

	// NewMode is the new mode name.
	NewMode string `cbor:"2,keyasint"`
}

// FaultEvent captures a recoverable device fault. Faults never halt pacing;
// they surface here so the DCM operator sees them.
type FaultEvent struct {
	// Code identifies the fault class.
	Code FaultCode `cbor:"1,keyasint"`

	// Chamber the fault relates to, if any.
	Chamber Chamber `cbor:"2,keyasint,omitempty"`

	// Message is a human-readable description.
	Message string `cbor:"3,keyasint,omitempty"`

	// Lateness is how far past its deadline a timer fired (TimerOverrun only).
	Lateness time.Duration `cbor:"4,keyasint,omitempty"`
}

// FaultCode identifies the fault class.
type FaultCode uint8

const (
	// FaultHardware indicates a pulse trigger was not acknowledged in time.
	FaultHardware FaultCode = 0
	// FaultTimerOverrun indicates a timer callback fired later than the
	// jitter tolerance allows.
	FaultTimerOverrun FaultCode = 1
)

// String returns the fault code name.
func (f FaultCode) String() string {
	switch f {
	case FaultHardware:
		return "HARDWARE_FAULT"
	case FaultTimerOverrun:
		return "TIMER_OVERRUN"
	default:
		return "UNKNOWN"
	}
}

// StateEvent captures engine lifecycle changes (start, reset, stop).
type StateEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}
