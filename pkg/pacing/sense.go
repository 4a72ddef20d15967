package pacing

import (
	"time"
)

// ChannelState is the sense channel state.
type ChannelState uint8

const (
	// ChannelIdle means the channel reports intrinsic activity.
	ChannelIdle ChannelState = 0

	// ChannelRefractory means activity is discarded. The window blanks out
	// noise and pacing artifacts so they are not misread as intrinsic beats.
	ChannelRefractory ChannelState = 1
)

// String returns the state name.
func (s ChannelState) String() string {
	switch s {
	case ChannelIdle:
		return "IDLE"
	case ChannelRefractory:
		return "REFRACTORY"
	default:
		return "UNKNOWN"
	}
}

// SenseChannel debounces raw activity pulses into discrete intrinsic-beat
// reports, gated by a refractory window. Not safe for concurrent use; the
// engine loop is the only caller.
type SenseChannel struct {
	chamber Chamber
	period  time.Duration

	// refractoryStart is the instant the current refractory window opened.
	// Zero when the channel has never entered refractory.
	refractoryStart time.Time
	inRefractory    bool
}

// NewSenseChannel creates a sense channel for the given chamber.
func NewSenseChannel(chamber Chamber, refractoryPeriod time.Duration) *SenseChannel {
	return &SenseChannel{chamber: chamber, period: refractoryPeriod}
}

// Chamber returns the channel's chamber.
func (c *SenseChannel) Chamber() Chamber {
	return c.chamber
}

// State returns the channel state at the given instant. The refractory
// window expires lazily: no timer is needed, the deadline is derived from
// the window start and the configured period.
func (c *SenseChannel) State(now time.Time) ChannelState {
	if c.inRefractory && now.Before(c.refractoryStart.Add(c.period)) {
		return ChannelRefractory
	}
	return ChannelIdle
}

// RefractoryDeadline returns when the current refractory window expires.
// Only meaningful while the channel is refractory.
func (c *SenseChannel) RefractoryDeadline() time.Time {
	return c.refractoryStart.Add(c.period)
}

// Sense processes a raw activity pulse at time t. An activity pulse during
// the refractory window is discarded and false is returned. While idle the
// pulse is reported once as an intrinsic beat and the channel immediately
// enters refractory from t.
func (c *SenseChannel) Sense(t time.Time) bool {
	if c.State(t) == ChannelRefractory {
		return false
	}
	c.inRefractory = true
	c.refractoryStart = t
	return true
}

// StartRefractory opens a refractory window from the given instant. Called
// by the pace channel at pulse delivery so the device does not re-sense its
// own pulse as an intrinsic beat.
func (c *SenseChannel) StartRefractory(from time.Time) {
	c.inRefractory = true
	c.refractoryStart = from
}

// SetRefractoryPeriod reconfigures the refractory duration. If the channel
// is currently refractory, the new duration applies from the ORIGINAL
// window start, not from now: rapid reconfiguration can therefore never
// extend a window indefinitely.
func (c *SenseChannel) SetRefractoryPeriod(d time.Duration) {
	c.period = d
}

// RefractoryPeriod returns the configured refractory duration.
func (c *SenseChannel) RefractoryPeriod() time.Duration {
	return c.period
}
