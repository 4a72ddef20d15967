package pacing

import (
	"errors"
	"testing"
)

func TestSimDriverRecordsAndAcks(t *testing.T) {
	d := NewSimDriver()

	var acked []Chamber
	d.SetAckSink(func(c Chamber) { acked = append(acked, c) })

	p := Pulse{Chamber: Ventricle, Amplitude: 3.5, Width: 0.4}
	if err := d.Trigger(p); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}

	pulses := d.Pulses()
	if len(pulses) != 1 || pulses[0] != p {
		t.Errorf("pulses = %+v, want [%+v]", pulses, p)
	}
	if len(acked) != 1 || acked[0] != Ventricle {
		t.Errorf("acks = %v, want [VENTRICLE]", acked)
	}
}

func TestSimDriverDropAcks(t *testing.T) {
	d := NewSimDriver()
	d.SetAckSink(func(Chamber) { t.Error("ack delivered while drops enabled") })
	d.SetDropAcks(true)

	if err := d.Trigger(Pulse{Chamber: Atrium}); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if len(d.Pulses()) != 1 {
		t.Error("dropped ack also dropped the pulse")
	}
}

func TestSimDriverFailNext(t *testing.T) {
	d := NewSimDriver()
	boom := errors.New("boom")
	d.FailNext(boom)

	if err := d.Trigger(Pulse{}); !errors.Is(err, boom) {
		t.Errorf("first trigger = %v, want injected error", err)
	}
	if err := d.Trigger(Pulse{}); err != nil {
		t.Errorf("second trigger = %v, want nil (failure is one-shot)", err)
	}
	if len(d.Pulses()) != 1 {
		t.Errorf("recorded %d pulses, want 1", len(d.Pulses()))
	}
}

func TestSimDriverClosed(t *testing.T) {
	d := NewSimDriver()
	d.Close()

	if err := d.Trigger(Pulse{}); !errors.Is(err, ErrDriverClosed) {
		t.Errorf("trigger after close = %v, want ErrDriverClosed", err)
	}
}
