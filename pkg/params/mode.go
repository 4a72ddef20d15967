package params

import (
	"fmt"
	"strings"
)

// Mode is the active pacing mode. The first letter names the paced chamber
// (A=atrium, V=ventricle), the third letter the response to sensing
// (O=none/asynchronous, I=inhibited/demand).
type Mode uint8

const (
	// ModeNone indicates no mode is set. Never valid on a running device.
	ModeNone Mode = 0

	// ModeAOO paces the atrium at a fixed rate, ignoring sensed activity.
	ModeAOO Mode = 1

	// ModeVOO paces the ventricle at a fixed rate, ignoring sensed activity.
	ModeVOO Mode = 2

	// ModeAAI paces the atrium on demand: an intrinsic atrial beat inhibits
	// the pending pulse and restarts the escape interval.
	ModeAAI Mode = 3

	// ModeVVI paces the ventricle on demand.
	ModeVVI Mode = 4
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAOO:
		return "AOO"
	case ModeVOO:
		return "VOO"
	case ModeAAI:
		return "AAI"
	case ModeVVI:
		return "VVI"
	default:
		return "NONE"
	}
}

// IsValid returns true for the four supported modes.
func (m Mode) IsValid() bool {
	return m >= ModeAOO && m <= ModeVVI
}

// Atrial returns true when the mode paces the atrium.
func (m Mode) Atrial() bool {
	return m == ModeAOO || m == ModeAAI
}

// Inhibited returns true for demand modes, where a sensed intrinsic beat
// suppresses the pending pulse.
func (m Mode) Inhibited() bool {
	return m == ModeAAI || m == ModeVVI
}

// ParseMode parses a mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AOO":
		return ModeAOO, nil
	case "VOO":
		return ModeVOO, nil
	case "AAI":
		return ModeAAI, nil
	case "VVI":
		return ModeVVI, nil
	default:
		return ModeNone, fmt.Errorf("unknown mode %q", s)
	}
}
