package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLoggerWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	events := []Event{
		{Timestamp: time.Unix(1, 0).UTC(), Category: CategoryPace, Pace: &PaceEvent{Chamber: ChamberVentricle, Amplitude: 3.5, Width: 0.4}},
		{Timestamp: time.Unix(2, 0).UTC(), Category: CategoryFault, Fault: &FaultEvent{Code: FaultHardware, Message: "no ack"}},
	}
	for _, ev := range events {
		l.Log(ev)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := NewDecoder(f)
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
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	for i := 0; i < 2; i++ {
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatal(err)
		}
		l.Log(Event{Timestamp: time.Unix(int64(i), 0).UTC(), Category: CategorySense, Sense: &SenseEvent{Chamber: ChamberAtrium}})
		l.Close()
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := NewDecoder(f)
	count := 0
	for {
		var ev Event
		if err := dec.Decode(&ev); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		count++
	}
	if count != 2 {
		t.Errorf("read %d events across reopens, want 2", count)
	}
}

func TestFileLoggerCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	// Logging after close is silently ignored.
	l.Log(Event{Category: CategorySense, Sense: &SenseEvent{Chamber: ChamberAtrium}})
}

func TestMultiLoggerFanOut(t *testing.T) {
	a := NewMemoryLogger(4)
	b := NewMemoryLogger(4)

	m := NewMultiLogger(a, nil, b)
	m.Log(Event{Category: CategoryPace, Pace: &PaceEvent{Chamber: ChamberVentricle}})

	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("fan-out lens = %d, %d, want 1, 1", a.Len(), b.Len())
	}
}
