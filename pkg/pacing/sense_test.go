package pacing

import (
	"testing"
	"time"
)

func at(ms int) time.Time {
	return time.Unix(0, 0).UTC().Add(time.Duration(ms) * time.Millisecond)
}

func TestSenseChannelReportsAndEntersRefractory(t *testing.T) {
	c := NewSenseChannel(Ventricle, 320*time.Millisecond)

	if c.State(at(0)) != ChannelIdle {
		t.Fatal("new channel not idle")
	}
	if !c.Sense(at(100)) {
		t.Fatal("idle channel did not report the beat")
	}
	if c.State(at(100)) != ChannelRefractory {
		t.Error("channel not refractory after a reported beat")
	}
	if want := at(420); !c.RefractoryDeadline().Equal(want) {
		t.Errorf("refractory deadline = %v, want %v", c.RefractoryDeadline(), want)
	}
}

func TestSenseChannelDiscardsDuringRefractory(t *testing.T) {
	c := NewSenseChannel(Ventricle, 320*time.Millisecond)

	c.Sense(at(100))

	// Pulses inside the window are discarded and do not extend it.
	if c.Sense(at(200)) {
		t.Error("refractory channel reported a beat")
	}
	if c.Sense(at(419)) {
		t.Error("beat reported just inside the window")
	}
	if want := at(420); !c.RefractoryDeadline().Equal(want) {
		t.Errorf("discarded pulses moved the deadline to %v", c.RefractoryDeadline())
	}

	// The window expires lazily at start+period.
	if !c.Sense(at(420)) {
		t.Error("beat at the window boundary not reported")
	}
}

func TestSenseChannelStartRefractory(t *testing.T) {
	c := NewSenseChannel(Atrium, 250*time.Millisecond)

	// Pacing opens a refractory window so the device does not re-sense its
	// own pulse.
	c.StartRefractory(at(500))

	if c.Sense(at(600)) {
		t.Error("beat reported during pace-induced refractory")
	}
	if !c.Sense(at(750)) {
		t.Error("beat after the window not reported")
	}
}

func TestSenseChannelReconfigureKeepsWindowStart(t *testing.T) {
	c := NewSenseChannel(Ventricle, 320*time.Millisecond)
	c.Sense(at(100))

	// Shrinking the period mid-window applies from the original start: the
	// window now ends at 100+150=250, not at now+150.
	c.SetRefractoryPeriod(150 * time.Millisecond)
	if c.State(at(200)) != ChannelRefractory {
		t.Error("channel left refractory before the shortened window ended")
	}
	if !c.Sense(at(260)) {
		t.Error("beat after the shortened window not reported")
	}

	// Growing the period mid-window also anchors at the original start, so
	// repeated reconfiguration can never extend a window indefinitely.
	c2 := NewSenseChannel(Ventricle, 100*time.Millisecond)
	c2.Sense(at(0))
	c2.SetRefractoryPeriod(300 * time.Millisecond)
	if c2.Sense(at(200)) {
		t.Error("beat reported inside the lengthened window")
	}
	if !c2.Sense(at(300)) {
		t.Error("beat after the lengthened window not reported")
	}
}
