package service

import (
	"context"
	"fmt"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/store"
)

// StoryboardService owns scene ordering and content for a session. Every
// mutation takes the version returned by the previous load and fails with
// store.ErrVersionConflict if another writer got there first.
type StoryboardService struct {
	sessions    store.SessionStore
	storyboards store.StoryboardStore
	events      *EventService
}

func NewStoryboardService(sessions store.SessionStore, storyboards store.StoryboardStore, events *EventService) *StoryboardService {
	return &StoryboardService{
		sessions:    sessions,
		storyboards: storyboards,
		events:      events,
	}
}

// Load returns the session's scenes and the current storyboard version.
func (s *StoryboardService) Load(ctx context.Context, sessionID string) ([]model.StoryboardScene, int64, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, 0, err
	}
	return s.storyboards.Load(ctx, sessionID)
}

// Save replaces the storyboard with the updated scene list. Each update is
// merged against the stored scene with the same id: fields absent from the
// payload keep their stored values, so a save that only touches titles never
// clears a scene's voice-over or matched clip. Scene ids not present before
// start with voice-over and matched clip unset.
func (s *StoryboardService) Save(ctx context.Context, sessionID string, updates []model.SceneUpdate, expectedVersion int64) ([]model.StoryboardScene, int64, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, 0, err
	}

	current, _, err := s.storyboards.Load(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	existing := make(map[string]model.StoryboardScene, len(current))
	for _, sc := range current {
		existing[sc.SceneID] = sc
	}

	scenes := make([]model.StoryboardScene, 0, len(updates))
	for i, upd := range updates {
		base := existing[upd.SceneID] // zero value for brand-new scene ids
		base.SceneID = upd.SceneID
		scenes = append(scenes, mergeScene(base, upd, i))
	}

	version, err := s.storyboards.Save(ctx, sessionID, scenes, expectedVersion)
	if err != nil {
		return nil, 0, err
	}

	if _, err := s.events.Append(ctx, sessionID, model.EventStoryboardSaved, map[string]interface{}{
		"version":    version,
		"sceneCount": len(scenes),
	}); err != nil {
		return nil, 0, err
	}
	return scenes, version, nil
}

// UpdateScene applies a partial update to a single scene, leaving every other
// scene untouched. A brand-new scene id is appended to the storyboard.
func (s *StoryboardService) UpdateScene(ctx context.Context, sessionID, sceneID string, upd model.SceneUpdate, expectedVersion int64) ([]model.StoryboardScene, int64, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, 0, err
	}

	scenes, _, err := s.storyboards.Load(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}

	upd.SceneID = sceneID
	found := false
	for i := range scenes {
		if scenes[i].SceneID == sceneID {
			scenes[i] = mergeScene(scenes[i], upd, scenes[i].Order)
			found = true
			break
		}
	}
	if !found {
		scenes = append(scenes, mergeScene(model.StoryboardScene{SceneID: sceneID}, upd, len(scenes)))
	}

	version, err := s.storyboards.Save(ctx, sessionID, scenes, expectedVersion)
	if err != nil {
		return nil, 0, err
	}

	if _, err := s.events.Append(ctx, sessionID, model.EventStoryboardSaved, map[string]interface{}{
		"version": version,
		"sceneId": sceneID,
	}); err != nil {
		return nil, 0, err
	}
	return scenes, version, nil
}

// mergeScene overlays the fields present in the update onto the base scene.
// VoiceOver and MatchedScene are retained unless the update supplies them.
func mergeScene(base model.StoryboardScene, upd model.SceneUpdate, defaultOrder int) model.StoryboardScene {
	if upd.Title != nil {
		base.Title = *upd.Title
	}
	if upd.Purpose != nil {
		base.Purpose = *upd.Purpose
	}
	if upd.Script != nil {
		base.Script = *upd.Script
	}
	if upd.UseVoiceOver != nil {
		base.UseVoiceOver = *upd.UseVoiceOver
	}
	if upd.Order != nil {
		base.Order = *upd.Order
	} else if base.Order == 0 {
		base.Order = defaultOrder
	}
	if upd.VoiceOver != nil {
		base.VoiceOver = upd.VoiceOver
	}
	if upd.MatchedScene != nil {
		base.MatchedScene = upd.MatchedScene
	}
	return base
}

// findScene locates a scene by id or reports store.ErrSceneNotFound.
func findScene(scenes []model.StoryboardScene, sceneID string) (int, error) {
	for i := range scenes {
		if scenes[i].SceneID == sceneID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("scene %s: %w", sceneID, store.ErrSceneNotFound)
}
