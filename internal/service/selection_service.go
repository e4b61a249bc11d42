package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/store"
)

// ErrCandidateNotFound is returned when a selection references a candidate
// index outside the scene's pool.
var ErrCandidateNotFound = errors.New("candidate not found")

// SelectionService manages the candidate pool and the committed selection of
// each storyboard scene, with an append-only history of every selection
// mutation.
type SelectionService struct {
	storyboards store.StoryboardStore
	history     store.HistoryStore
	events      *EventService
}

func NewSelectionService(storyboards store.StoryboardStore, history store.HistoryStore, events *EventService) *SelectionService {
	return &SelectionService{
		storyboards: storyboards,
		history:     history,
		events:      events,
	}
}

// setCandidatesAttempts bounds the load/save retry loop used by the match
// worker, which has no client-supplied version to check against.
const setCandidatesAttempts = 3

// SetCandidates replaces the candidate pool for a scene after the match
// pipeline has filtered, validated and deduplicated it. Shortlisted flags and
// ranks are taken as provided by the caller.
func (s *SelectionService) SetCandidates(ctx context.Context, sessionID, sceneID string, candidates []model.SceneCandidate) error {
	var lastErr error
	for attempt := 0; attempt < setCandidatesAttempts; attempt++ {
		scenes, version, err := s.storyboards.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		idx, err := findScene(scenes, sceneID)
		if err != nil {
			return err
		}
		scenes[idx].Candidates = candidates

		if _, err := s.storyboards.Save(ctx, sessionID, scenes, version); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("failed to set candidates for scene %s: %w", sceneID, lastErr)
}

// SelectCandidate promotes one candidate to the scene's committed selection.
// The prior selection (possibly none) is captured in a new history entry.
// Nothing is mutated when the scene or candidate does not exist or the
// version check fails.
func (s *SelectionService) SelectCandidate(ctx context.Context, sessionID, sceneID string, candidateIndex int, expectedVersion int64) (*model.MatchedScene, int64, error) {
	scenes, _, err := s.storyboards.Load(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	idx, err := findScene(scenes, sceneID)
	if err != nil {
		return nil, 0, err
	}
	if candidateIndex < 0 || candidateIndex >= len(scenes[idx].Candidates) {
		return nil, 0, fmt.Errorf("scene %s candidate %d: %w", sceneID, candidateIndex, ErrCandidateNotFound)
	}

	prior := scenes[idx].MatchedScene
	cand := scenes[idx].Candidates[candidateIndex]
	matched := &model.MatchedScene{
		SourceVideoID:     cand.SourceVideoID,
		StartTime:         cand.StartTime,
		EndTime:           cand.EndTime,
		Description:       cand.Description,
		KeepOriginalAudio: cand.KeepOriginalAudio,
	}
	scenes[idx].MatchedScene = matched

	version, err := s.storyboards.Save(ctx, sessionID, scenes, expectedVersion)
	if err != nil {
		return nil, 0, err
	}

	if _, err := s.history.AppendHistory(ctx, sessionID, model.SelectionHistoryEntry{
		SceneID:   sceneID,
		Kind:      model.HistoryKindSelect,
		Previous:  prior,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, 0, err
	}

	if _, err := s.events.Append(ctx, sessionID, model.EventSceneSelected, map[string]interface{}{
		"sceneId":        sceneID,
		"candidateIndex": candidateIndex,
		"matchedScene":   matched,
	}); err != nil {
		return nil, 0, err
	}
	return matched, version, nil
}

// RestoreFromHistory re-applies the selection state captured by a historical
// entry as the current selection. The restore is itself recorded as a new
// entry with a back-reference; history is never truncated or rewritten.
func (s *SelectionService) RestoreFromHistory(ctx context.Context, sessionID, sceneID string, historyIndex int, expectedVersion int64) (*model.MatchedScene, int64, error) {
	entries, err := s.history.History(ctx, sessionID, sceneID)
	if err != nil {
		return nil, 0, err
	}
	if historyIndex < 0 || historyIndex >= len(entries) {
		return nil, 0, fmt.Errorf("scene %s history %d: %w", sceneID, historyIndex, store.ErrHistoryNotFound)
	}
	restored := entries[historyIndex].Previous

	scenes, _, err := s.storyboards.Load(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	idx, err := findScene(scenes, sceneID)
	if err != nil {
		return nil, 0, err
	}

	prior := scenes[idx].MatchedScene
	scenes[idx].MatchedScene = restored

	version, err := s.storyboards.Save(ctx, sessionID, scenes, expectedVersion)
	if err != nil {
		return nil, 0, err
	}

	restoredIdx := historyIndex
	if _, err := s.history.AppendHistory(ctx, sessionID, model.SelectionHistoryEntry{
		SceneID:       sceneID,
		Kind:          model.HistoryKindRestore,
		Previous:      prior,
		RestoredIndex: &restoredIdx,
		Timestamp:     time.Now().UTC(),
	}); err != nil {
		return nil, 0, err
	}

	if _, err := s.events.Append(ctx, sessionID, model.EventSelectionRestored, map[string]interface{}{
		"sceneId":      sceneID,
		"historyIndex": historyIndex,
	}); err != nil {
		return nil, 0, err
	}
	return restored, version, nil
}

// History returns the scene's selection history, oldest first.
func (s *SelectionService) History(ctx context.Context, sessionID, sceneID string) ([]model.SelectionHistoryEntry, error) {
	return s.history.History(ctx, sessionID, sceneID)
}
