package log

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestEventRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 30, 0, 123456789, time.UTC)

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "sense event",
			event: Event{
				Timestamp: now,
				DeviceID:  "dev-1",
				Category:  CategorySense,
				Sense:     &SenseEvent{Chamber: ChamberVentricle, Inhibited: true},
			},
		},
		{
			name: "pace event",
			event: Event{
				Timestamp: now,
				DeviceID:  "dev-1",
				Category:  CategoryPace,
				Pace:      &PaceEvent{Chamber: ChamberAtrium, Amplitude: 3.0, Width: 0.4, Deadline: now},
			},
		},
		{
			name: "param event",
			event: Event{
				Timestamp: now,
				Category:  CategoryParam,
				Param:     &ParamEvent{Field: "lower_rate_limit", Value: 70},
			},
		},
		{
			name: "mode event",
			event: Event{
				Timestamp: now,
				Category:  CategoryMode,
				Mode:      &ModeEvent{OldMode: "VOO", NewMode: "VVI"},
			},
		},
		{
			name: "fault event",
			event: Event{
				Timestamp: now,
				Category:  CategoryFault,
				Fault: &FaultEvent{
					Code:     FaultTimerOverrun,
					Chamber:  ChamberVentricle,
					Message:  "interval timer fired late",
					Lateness: 5 * time.Millisecond,
				},
			},
		},
		{
			name: "state event",
			event: Event{
				Timestamp: now,
				Category:  CategoryState,
				State:     &StateEvent{OldState: "RUNNING", NewState: "RUNNING", Reason: "timing reset"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}

			got, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			if !got.Timestamp.Equal(tt.event.Timestamp) {
				t.Errorf("timestamp = %v, want %v", got.Timestamp, tt.event.Timestamp)
			}
			if got.Category != tt.event.Category {
				t.Errorf("category = %v, want %v", got.Category, tt.event.Category)
			}
			if got.DeviceID != tt.event.DeviceID {
				t.Errorf("deviceID = %q, want %q", got.DeviceID, tt.event.DeviceID)
			}

			switch tt.event.Category {
			case CategorySense:
				if got.Sense == nil || *got.Sense != *tt.event.Sense {
					t.Errorf("sense = %+v, want %+v", got.Sense, tt.event.Sense)
				}
			case CategoryPace:
				if got.Pace == nil || got.Pace.Amplitude != tt.event.Pace.Amplitude ||
					!got.Pace.Deadline.Equal(tt.event.Pace.Deadline) {
					t.Errorf("pace = %+v, want %+v", got.Pace, tt.event.Pace)
				}
			case CategoryParam:
				if got.Param == nil || *got.Param != *tt.event.Param {
					t.Errorf("param = %+v, want %+v", got.Param, tt.event.Param)
				}
			case CategoryMode:
				if got.Mode == nil || *got.Mode != *tt.event.Mode {
					t.Errorf("mode = %+v, want %+v", got.Mode, tt.event.Mode)
				}
			case CategoryFault:
				if got.Fault == nil || *got.Fault != *tt.event.Fault {
					t.Errorf("fault = %+v, want %+v", got.Fault, tt.event.Fault)
				}
			case CategoryState:
				if got.State == nil || *got.State != *tt.event.State {
					t.Errorf("state = %+v, want %+v", got.State, tt.event.State)
				}
			}
		})
	}
}

func TestEventTimestampPrecision(t *testing.T) {
	// Nanosecond precision survives the wire; pulse jitter measurements
	// depend on it.
	ev := Event{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 678901234, time.UTC),
		Category:  CategoryPace,
		Pace:      &PaceEvent{Chamber: ChamberVentricle, Amplitude: 3.5, Width: 0.4},
	}

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatal(err)
	}

	if got.Timestamp.Nanosecond() != 678901234 {
		t.Errorf("nanoseconds = %d, want 678901234", got.Timestamp.Nanosecond())
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	buf := new(bytes.Buffer)
	enc := NewEncoder(buf)

	events := []Event{
		{Timestamp: time.Unix(1, 0).UTC(), Category: CategorySense, Sense: &SenseEvent{Chamber: ChamberAtrium}},
		{Timestamp: time.Unix(2, 0).UTC(), Category: CategoryPace, Pace: &PaceEvent{Chamber: ChamberAtrium, Amplitude: 3.0, Width: 0.4}},
		{Timestamp: time.Unix(3, 0).UTC(), Category: CategoryFault, Fault: &FaultEvent{Code: FaultHardware}},
	}
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	dec := NewDecoder(buf)
	for i := range events {
		var got Event
		if err := dec.Decode(&got); err != nil {
			t.Fatalf("Decode %d failed: %v", i, err)
		}
		if got.Category != events[i].Category {
			t.Errorf("event %d category = %v, want %v", i, got.Category, events[i].Category)
		}
	}

	var extra Event
	if err := dec.Decode(&extra); err != io.EOF {
		t.Errorf("expected EOF after all events, got %v", err)
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x01}); err == nil {
		t.Error("decoded garbage bytes")
	}
}
