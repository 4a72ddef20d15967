package params

import "testing"

func TestModeProperties(t *testing.T) {
	tests := []struct {
		mode      Mode
		name      string
		atrial    bool
		inhibited bool
	}{
		{ModeAOO, "AOO", true, false},
		{ModeVOO, "VOO", false, false},
		{ModeAAI, "AAI", true, true},
		{ModeVVI, "VVI", false, true},
	}

	for _, tt := range tests {
		if tt.mode.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.mode.String(), tt.name)
		}
		if !tt.mode.IsValid() {
			t.Errorf("%s not valid", tt.name)
		}
		if tt.mode.Atrial() != tt.atrial {
			t.Errorf("%s.Atrial() = %v, want %v", tt.name, tt.mode.Atrial(), tt.atrial)
		}
		if tt.mode.Inhibited() != tt.inhibited {
			t.Errorf("%s.Inhibited() = %v, want %v", tt.name, tt.mode.Inhibited(), tt.inhibited)
		}
	}

	if ModeNone.IsValid() {
		t.Error("ModeNone reported valid")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeAOO, ModeVOO, ModeAAI, ModeVVI} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}

	// Case-insensitive with surrounding whitespace.
	if got, err := ParseMode(" vvi "); err != nil || got != ModeVVI {
		t.Errorf("ParseMode(\" vvi \") = %v, %v", got, err)
	}

	if _, err := ParseMode("DDD"); err == nil {
		t.Error("expected error for unsupported mode")
	}
}
