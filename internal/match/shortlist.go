package match

import (
	"fmt"

	"github.com/makereel/api/internal/model"
)

// DefaultClampTolerance is how far a clip may overrun its source video before
// the shortlist is rejected instead of silently capped. Overruns below the
// tolerance absorb minor model imprecision.
const DefaultClampTolerance = 0.5

// ValidateShortlist checks every proposed clip against the source video
// duration, in original order, 1-indexed by position. Overruns below
// clampTolerance cap the end time to the video duration in place; larger
// overruns fail fast. The returned error text is surfaced verbatim into the
// generation retry loop, so wording and positional indexing are part of the
// contract.
func ValidateShortlist(clips []model.ShortlistClip, videoDuration, clampTolerance float64) error {
	for i := range clips {
		pos := i + 1
		overrun := clips[i].EndTime - videoDuration
		if overrun >= clampTolerance {
			return fmt.Errorf("Shortlist rejected: clip end exceeds video duration at position %d (%.3f > %.3f).",
				pos, clips[i].EndTime, videoDuration)
		}
		if overrun > 0 {
			clips[i].EndTime = videoDuration
		}
		if clips[i].StartTime >= clips[i].EndTime {
			return fmt.Errorf("Shortlist rejected: invalid timing at position %d.", pos)
		}
	}
	return nil
}
