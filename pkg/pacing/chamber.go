package pacing

import (
	"github.com/openpacer/pacer-go/pkg/log"
	"github.com/openpacer/pacer-go/pkg/params"
)

// Chamber identifies a cardiac chamber.
type Chamber uint8

const (
	// Atrium is the right atrium.
	Atrium Chamber = 0

	// Ventricle is the right ventricle.
	Ventricle Chamber = 1
)

// String returns the chamber name.
func (c Chamber) String() string {
	switch c {
	case Atrium:
		return "ATRIUM"
	case Ventricle:
		return "VENTRICLE"
	default:
		return "UNKNOWN"
	}
}

// Atrial returns true for the atrium.
func (c Chamber) Atrial() bool {
	return c == Atrium
}

// LogChamber converts to the log package's chamber code.
func (c Chamber) LogChamber() log.Chamber {
	if c == Atrium {
		return log.ChamberAtrium
	}
	return log.ChamberVentricle
}

// PacedChamber returns the chamber a mode acts on.
func PacedChamber(m params.Mode) Chamber {
	if m.Atrial() {
		return Atrium
	}
	return Ventricle
}
