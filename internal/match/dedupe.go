package match

import (
	"fmt"

	"github.com/makereel/api/internal/model"
)

// DefaultOverlapThreshold is the interval IoU above which two same-video
// candidates are considered the same clip. High on purpose: only near-total
// containment/overlap collapses, partial overlaps survive.
const DefaultOverlapThreshold = 0.85

// Dedupe collapses near-duplicate candidates for one scene. Only candidates
// sharing a source video are compared; identical time ranges on different
// videos reference distinct assets and are never collapsed. When the temporal
// overlap ratio (intersection over union of the two intervals) exceeds the
// threshold, the later-submitted candidate is dropped and a warning naming
// the scene and the removed candidate's 1-based original position is emitted.
// Survivors keep their original relative order.
func Dedupe(sceneID string, cands []model.SceneCandidate, threshold float64) ([]model.SceneCandidate, []string) {
	kept := make([]model.SceneCandidate, 0, len(cands))
	keptPos := make([]int, 0, len(cands))
	var warnings []string

	for i, cand := range cands {
		duplicate := false
		for k, prior := range kept {
			if prior.SourceVideoID != cand.SourceVideoID {
				continue
			}
			if overlapRatio(prior.StartTime, prior.EndTime, cand.StartTime, cand.EndTime) > threshold {
				warnings = append(warnings, fmt.Sprintf(
					"scene %s: dropped duplicate candidate at position %d (overlaps candidate at position %d)",
					sceneID, i+1, keptPos[k]+1))
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, cand)
			keptPos = append(keptPos, i)
		}
	}
	return kept, warnings
}

// overlapRatio is IoU over 1-D intervals. Degenerate or disjoint intervals
// score zero.
func overlapRatio(aStart, aEnd, bStart, bEnd float64) float64 {
	interStart := aStart
	if bStart > interStart {
		interStart = bStart
	}
	interEnd := aEnd
	if bEnd < interEnd {
		interEnd = bEnd
	}
	if interEnd <= interStart {
		return 0
	}
	unionStart := aStart
	if bStart < unionStart {
		unionStart = bStart
	}
	unionEnd := aEnd
	if bEnd > unionEnd {
		unionEnd = bEnd
	}
	if unionEnd <= unionStart {
		return 0
	}
	return (interEnd - interStart) / (unionEnd - unionStart)
}
