package timecode

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"12.500", 12.5},
		{"0.000", 0},
		{"01:02.250", 62.25},
		{"00:00:00.000", 0},
		{"00:02:09.660", 129.660},
		{"01:00:00.000", 3600},
		{"02:15:30.125", 8130.125},
		{"90.0", 90}, // bare seconds are unbounded
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tt.input, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseRejectsOutOfRange(t *testing.T) {
	bad := []string{
		"00:60:00.000", // minutes >= 60 in HH:MM:SS form
		"00:00:60.000", // seconds >= 60
		"01:61.000",    // seconds >= 60 in MM:SS form
		"",
		"abc",
		"1:2:3:4",
		"-5.000",
		"00:-1:00.000",
	}
	for _, input := range bad {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) expected error, got none", input)
		}
	}
}

func TestParseAllowsLargeMinutesInTwoPartForm(t *testing.T) {
	// MM:SS has no hour field, so minutes are unbounded there.
	got, err := Parse("90:30.000")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got != 90*60+30 {
		t.Errorf("Parse(90:30.000) = %v, want %v", got, 90*60+30)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 12.5, 62.25, 129.660, 3600, 8130.125} {
		formatted := Format(seconds)
		parsed, err := Parse(formatted)
		if err != nil {
			t.Fatalf("Parse(Format(%v)) returned error: %v", seconds, err)
		}
		if math.Abs(parsed-seconds) > 0.001 {
			t.Errorf("round trip %v -> %q -> %v", seconds, formatted, parsed)
		}
	}
}
