package pacing

import (
	"fmt"
	"time"
)

// PaceChannel delivers pulses to one chamber. Delivery issues the hardware
// trigger and immediately places the chamber's sense channel into
// refractory from the delivery timestamp, modeling pacemaker-induced
// refractoriness.
type PaceChannel struct {
	chamber Chamber
	driver  PulseDriver
	sense   *SenseChannel
}

// NewPaceChannel creates a pace channel bound to the chamber's sense
// channel.
func NewPaceChannel(chamber Chamber, driver PulseDriver, sense *SenseChannel) *PaceChannel {
	return &PaceChannel{chamber: chamber, driver: driver, sense: sense}
}

// Chamber returns the channel's chamber.
func (p *PaceChannel) Chamber() Chamber {
	return p.chamber
}

// Deliver issues one pulse at the given delivery instant. The sense channel
// enters refractory from deliveredAt regardless of whether the trigger
// command succeeded: a pulse may have reached the myocardium even when the
// driver reports an error.
func (p *PaceChannel) Deliver(pulse Pulse, deliveredAt time.Time) error {
	err := p.driver.Trigger(pulse)
	p.sense.StartRefractory(deliveredAt)
	if err != nil {
		return fmt.Errorf("pulse trigger failed: %w", err)
	}
	return nil
}
