package match

import "github.com/makereel/api/internal/model"

// DefaultDurationTolerance is the accepted relative drift between a clip's
// length and the voice-over target before time-stretching becomes audible.
const DefaultDurationTolerance = 0.10

// WithinDurationBand reports whether a clip's length is within tolerance of
// the target duration. Only meaningful for positive targets.
func WithinDurationBand(start, end, target, tolerance float64) bool {
	if target <= 0 {
		return false
	}
	length := end - start
	drift := length - target
	if drift < 0 {
		drift = -drift
	}
	return drift/target <= tolerance
}

// FilterByDuration drops candidates whose clip length deviates from the
// target beyond tolerance. Applied in voice-over mode only; rejected
// candidates are never surfaced to the caller.
func FilterByDuration(cands []model.SceneCandidate, target, tolerance float64) []model.SceneCandidate {
	kept := cands[:0:0]
	for _, c := range cands {
		if WithinDurationBand(c.StartTime, c.EndTime, target, tolerance) {
			kept = append(kept, c)
		}
	}
	return kept
}
