package wire

// Opcode identifies the requested operation.
type Opcode uint8

const (
	// OpSetParameter writes one parameter value.
	OpSetParameter Opcode = 1

	// OpSetMode switches the pacing mode.
	OpSetMode Opcode = 2

	// OpRequestTelemetry asks for the current mode, parameter snapshot and
	// recent event log.
	OpRequestTelemetry Opcode = 3

	// OpSetClock sets the device clock.
	OpSetClock Opcode = 4

	// OpRequestDeviceInfo asks for device identity and firmware version.
	OpRequestDeviceInfo Opcode = 5
)

// String returns the opcode name.
func (o Opcode) String() string {
	switch o {
	case OpSetParameter:
		return "SET_PARAMETER"
	case OpSetMode:
		return "SET_MODE"
	case OpRequestTelemetry:
		return "REQUEST_TELEMETRY"
	case OpSetClock:
		return "SET_CLOCK"
	case OpRequestDeviceInfo:
		return "REQUEST_DEVICE_INFO"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for known opcodes.
func (o Opcode) IsValid() bool {
	return o >= OpSetParameter && o <= OpRequestDeviceInfo
}
