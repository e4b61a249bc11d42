// Package match holds the scene-matching pipeline stages: job building,
// duration filtering, shortlist validation and candidate deduplication.
package match

import (
	"fmt"

	"github.com/makereel/api/internal/model"
)

// BuildJobs packages one job per (scene, video) pair. In voice-over mode the
// target duration is the scene's voice-over length; otherwise the videos are
// evaluated against the notes alone and the scene's voice-over, if any, is
// ignored.
func BuildJobs(scene model.StoryboardScene, videos []model.VideoRef, mode model.MatchMode, notes string) ([]model.MatchJob, error) {
	if scene.SceneID == "" {
		return nil, fmt.Errorf("scene id is required")
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no videos to evaluate for scene %s", scene.SceneID)
	}

	var target float64
	switch mode {
	case model.MatchModeVoiceOver:
		if scene.VoiceOver == nil {
			return nil, fmt.Errorf("scene %s has no voice-over to match against", scene.SceneID)
		}
		target = scene.VoiceOver.Duration
		if target <= 0 {
			return nil, fmt.Errorf("scene %s voice-over duration must be positive, got %v", scene.SceneID, target)
		}
	case model.MatchModeOriginalAudio:
		// Target still has to be positive for downstream bookkeeping; use the
		// voice-over length when present, otherwise a nominal scene length.
		if scene.VoiceOver != nil && scene.VoiceOver.Duration > 0 {
			target = scene.VoiceOver.Duration
		} else {
			target = defaultSceneDuration
		}
	default:
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}

	jobs := make([]model.MatchJob, 0, len(videos))
	for _, v := range videos {
		jobs = append(jobs, model.MatchJob{
			SceneID:        scene.SceneID,
			Scene:          scene,
			VideoID:        v.ID,
			VideoMeta:      v.Meta,
			Notes:          notes,
			Mode:           mode,
			TargetDuration: target,
		})
	}
	return jobs, nil
}

// defaultSceneDuration is the nominal clip length assumed when a scene has no
// voice-over to anchor the target.
const defaultSceneDuration = 10.0
