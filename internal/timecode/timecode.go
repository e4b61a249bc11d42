// Package timecode parses the timestamp strings produced by the video
// analysis boundary into seconds.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts "SS.mmm", "MM:SS.mmm" or "HH:MM:SS.mmm" into seconds.
// Seconds must be below 60 whenever a minutes field is present; minutes must
// be below 60 in the HH:MM:SS form.
func Parse(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	var hours, minutes float64
	var err error

	switch len(parts) {
	case 3:
		hours, err = parseField(s, parts[0])
		if err != nil {
			return 0, err
		}
		minutes, err = parseField(s, parts[1])
		if err != nil {
			return 0, err
		}
		if minutes >= 60 {
			return 0, fmt.Errorf("invalid timestamp %q: minutes out of range", s)
		}
	case 2:
		minutes, err = parseField(s, parts[0])
		if err != nil {
			return 0, err
		}
	}

	seconds, err := parseField(s, parts[len(parts)-1])
	if err != nil {
		return 0, err
	}
	if len(parts) > 1 && seconds >= 60 {
		return 0, fmt.Errorf("invalid timestamp %q: seconds out of range", s)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	return hours*3600 + minutes*60 + seconds, nil
}

// Format renders seconds as "HH:MM:SS.mmm" for event payloads and logs.
func Format(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

func parseField(full, field string) (float64, error) {
	if field == "" {
		return 0, fmt.Errorf("invalid timestamp %q", full)
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", full)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", full)
	}
	return v, nil
}
