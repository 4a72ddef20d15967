package log

import (
	"testing"
	"time"
)

func senseAt(sec int) Event {
	return Event{
		Timestamp: time.Unix(int64(sec), 0).UTC(),
		Category:  CategorySense,
		Sense:     &SenseEvent{Chamber: ChamberVentricle},
	}
}

func TestMemoryLoggerRecentOrder(t *testing.T) {
	m := NewMemoryLogger(10)

	for i := 0; i < 5; i++ {
		m.Log(senseAt(i))
	}

	if m.Len() != 5 {
		t.Fatalf("Len = %d, want 5", m.Len())
	}

	events := m.Recent(0)
	if len(events) != 5 {
		t.Fatalf("Recent(0) returned %d events, want 5", len(events))
	}
	for i, ev := range events {
		if want := time.Unix(int64(i), 0).UTC(); !ev.Timestamp.Equal(want) {
			t.Errorf("event %d timestamp = %v, want %v (oldest first)", i, ev.Timestamp, want)
		}
	}

	// Recent(n) returns the n newest, still oldest first.
	last2 := m.Recent(2)
	if len(last2) != 2 {
		t.Fatalf("Recent(2) returned %d events", len(last2))
	}
	if !last2[0].Timestamp.Equal(time.Unix(3, 0).UTC()) || !last2[1].Timestamp.Equal(time.Unix(4, 0).UTC()) {
		t.Errorf("Recent(2) = %v, %v", last2[0].Timestamp, last2[1].Timestamp)
	}
}

func TestMemoryLoggerEviction(t *testing.T) {
	m := NewMemoryLogger(3)

	for i := 0; i < 7; i++ {
		m.Log(senseAt(i))
	}

	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}

	events := m.Recent(0)
	for i, ev := range events {
		if want := time.Unix(int64(i+4), 0).UTC(); !ev.Timestamp.Equal(want) {
			t.Errorf("event %d timestamp = %v, want %v", i, ev.Timestamp, want)
		}
	}
}

func TestMemoryLoggerClear(t *testing.T) {
	m := NewMemoryLogger(4)
	m.Log(senseAt(1))
	m.Log(senseAt(2))

	m.Clear()
	if m.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", m.Len())
	}
	if events := m.Recent(0); len(events) != 0 {
		t.Errorf("Recent after Clear returned %d events", len(events))
	}

	// The ring is reusable after clearing.
	m.Log(senseAt(3))
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestMemoryLoggerDefaultCapacity(t *testing.T) {
	m := NewMemoryLogger(0)

	for i := 0; i < DefaultMemoryCapacity+10; i++ {
		m.Log(senseAt(i))
	}
	if m.Len() != DefaultMemoryCapacity {
		t.Errorf("Len = %d, want %d", m.Len(), DefaultMemoryCapacity)
	}
}
