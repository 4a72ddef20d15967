package params

import (
	"fmt"
	"math"
	"strings"
)

// Field identifies a programmable parameter. Values are uint8 so fields
// travel unchanged in CBOR command frames.
type Field uint8

const (
	// FieldLowerRateLimit is the minimum paced rate in pulses/min.
	// It defines the base escape interval (60000/LRL ms).
	FieldLowerRateLimit Field = 1

	// FieldUpperRateLimit is the maximum tracked rate in pulses/min.
	FieldUpperRateLimit Field = 2

	// FieldAtrialAmplitude is the atrial pulse amplitude in volts (0 = Off).
	FieldAtrialAmplitude Field = 3

	// FieldVentricularAmplitude is the ventricular pulse amplitude in volts
	// (0 = Off).
	FieldVentricularAmplitude Field = 4

	// FieldAtrialPulseWidth is the atrial pulse width in milliseconds.
	FieldAtrialPulseWidth Field = 5

	// FieldVentricularPulseWidth is the ventricular pulse width in
	// milliseconds.
	FieldVentricularPulseWidth Field = 6

	// FieldAtrialSensitivity is the atrial sensing threshold in millivolts.
	FieldAtrialSensitivity Field = 7

	// FieldVentricularSensitivity is the ventricular sensing threshold in
	// millivolts.
	FieldVentricularSensitivity Field = 8

	// FieldARP is the atrial refractory period in milliseconds.
	FieldARP Field = 9

	// FieldVRP is the ventricular refractory period in milliseconds.
	FieldVRP Field = 10

	// FieldHysteresisRate is the hysteresis escape rate in pulses/min
	// (0 = Off). After a sensed beat in a demand mode the escape interval is
	// derived from this rate instead of the lower rate limit.
	FieldHysteresisRate Field = 11

	// FieldRateSmoothingUp bounds cycle-to-cycle interval shortening, in
	// percent (0 = Off).
	FieldRateSmoothingUp Field = 12

	// FieldRateSmoothingDown bounds cycle-to-cycle interval lengthening, in
	// percent (0 = Off).
	FieldRateSmoothingDown Field = 13
)

// fieldNames maps fields to their canonical names.
var fieldNames = map[Field]string{
	FieldLowerRateLimit:         "lower_rate_limit",
	FieldUpperRateLimit:         "upper_rate_limit",
	FieldAtrialAmplitude:        "atrial_amplitude",
	FieldVentricularAmplitude:   "ventricular_amplitude",
	FieldAtrialPulseWidth:       "atrial_pulse_width",
	FieldVentricularPulseWidth:  "ventricular_pulse_width",
	FieldAtrialSensitivity:      "atrial_sensitivity",
	FieldVentricularSensitivity: "ventricular_sensitivity",
	FieldARP:                    "arp",
	FieldVRP:                    "vrp",
	FieldHysteresisRate:         "hysteresis_rate",
	FieldRateSmoothingUp:        "rate_smoothing_up",
	FieldRateSmoothingDown:      "rate_smoothing_down",
}

// String returns the canonical field name.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", uint8(f))
}

// IsValid returns true if f names a known parameter.
func (f Field) IsValid() bool {
	_, ok := fieldNames[f]
	return ok
}

// AffectsTiming returns true when a write to this field changes the mode
// state machine's timers, requiring a full engine reset.
func (f Field) AffectsTiming() bool {
	switch f {
	case FieldLowerRateLimit, FieldUpperRateLimit, FieldARP, FieldVRP,
		FieldHysteresisRate, FieldRateSmoothingUp, FieldRateSmoothingDown:
		return true
	default:
		return false
	}
}

// ParseField parses a canonical field name.
func ParseField(s string) (Field, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range fieldNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", s)
}

// AllFields returns all known fields in ascending order.
func AllFields() []Field {
	return []Field{
		FieldLowerRateLimit,
		FieldUpperRateLimit,
		FieldAtrialAmplitude,
		FieldVentricularAmplitude,
		FieldAtrialPulseWidth,
		FieldVentricularPulseWidth,
		FieldAtrialSensitivity,
		FieldVentricularSensitivity,
		FieldARP,
		FieldVRP,
		FieldHysteresisRate,
		FieldRateSmoothingUp,
		FieldRateSmoothingDown,
	}
}

// stepEpsilon absorbs float rounding when checking programming steps.
const stepEpsilon = 1e-6

// onStep reports whether v lies on the stepped range [lo, hi].
func onStep(v, lo, hi, step float64) bool {
	if v < lo-stepEpsilon || v > hi+stepEpsilon {
		return false
	}
	n := math.Round((v - lo) / step)
	return math.Abs(v-(lo+n*step)) < stepEpsilon
}

// rateSmoothingValues are the programmable rate smoothing percentages.
var rateSmoothingValues = []float64{3, 6, 9, 12, 15, 18, 21, 25}

// validRate reports whether v is a programmable rate in pulses/min.
// The rate value set is piecewise: coarse 5 ppm steps at the extremes,
// 1 ppm steps in the common 50-90 ppm band.
func validRate(v float64) bool {
	return onStep(v, 30, 50, 5) || onStep(v, 50, 90, 1) || onStep(v, 90, 175, 5)
}

// validateValue checks a single value against the field's declared value
// set. Cross-field constraints are checked separately by the store.
func validateValue(f Field, v float64) error {
	ok := false
	switch f {
	case FieldLowerRateLimit:
		ok = validRate(v)
	case FieldUpperRateLimit:
		ok = onStep(v, 50, 175, 5)
	case FieldAtrialAmplitude:
		ok = v == 0 || onStep(v, 0.5, 3.2, 0.1)
	case FieldVentricularAmplitude:
		ok = v == 0 || onStep(v, 3.5, 7.0, 0.5)
	case FieldAtrialPulseWidth, FieldVentricularPulseWidth:
		ok = math.Abs(v-0.05) < stepEpsilon || onStep(v, 0.1, 1.9, 0.1)
	case FieldAtrialSensitivity, FieldVentricularSensitivity:
		ok = onStep(v, 0.25, 10.0, 0.25)
	case FieldARP, FieldVRP:
		ok = onStep(v, 150, 500, 10)
	case FieldHysteresisRate:
		ok = v == 0 || validRate(v)
	case FieldRateSmoothingUp, FieldRateSmoothingDown:
		if v == 0 {
			ok = true
		}
		for _, allowed := range rateSmoothingValues {
			if v == allowed {
				ok = true
			}
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownField, uint8(f))
	}

	if !ok {
		return fmt.Errorf("%w: %s=%v", ErrOutOfRange, f, v)
	}
	return nil
}
