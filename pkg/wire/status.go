package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the command was accepted and applied.
	StatusSuccess Status = 0

	// StatusUnknownOpcode indicates an unrecognized operation.
	StatusUnknownOpcode Status = 1

	// StatusUnknownParameter indicates the field doesn't name a parameter.
	StatusUnknownParameter Status = 2

	// StatusValueOutOfRange indicates the value is outside the parameter's
	// clinically safe value set. The store was not modified.
	StatusValueOutOfRange Status = 3

	// StatusConstraintViolation indicates a cross-parameter constraint was
	// violated (lower rate limit above upper rate limit).
	StatusConstraintViolation Status = 4

	// StatusInvalidMode indicates an unknown pacing mode.
	StatusInvalidMode Status = 5

	// StatusMalformed indicates the frame could not be decoded. No state
	// was mutated.
	StatusMalformed Status = 6

	// StatusInternal indicates an unexpected device-side failure.
	StatusInternal Status = 7
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnknownOpcode:
		return "UNKNOWN_OPCODE"
	case StatusUnknownParameter:
		return "UNKNOWN_PARAMETER"
	case StatusValueOutOfRange:
		return "VALUE_OUT_OF_RANGE"
	case StatusConstraintViolation:
		return "CONSTRAINT_VIOLATION"
	case StatusInvalidMode:
		return "INVALID_MODE"
	case StatusMalformed:
		return "MALFORMED"
	case StatusInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}
