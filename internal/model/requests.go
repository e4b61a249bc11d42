package model

import "time"

// CreateSessionRequest opens a new authoring session.
type CreateSessionRequest struct {
	CompanyID string `json:"companyId"`
}

// CreateSessionResponse returns the new session id.
type CreateSessionResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SceneUpdate is a partial scene payload. Nil pointer fields are absent from
// the update and must not overwrite stored values; VoiceOver and MatchedScene
// in particular are preserved unless explicitly supplied.
type SceneUpdate struct {
	SceneID      string        `json:"sceneId" validate:"required"`
	Title        *string       `json:"title,omitempty"`
	Purpose      *string       `json:"purpose,omitempty"`
	Script       *string       `json:"script,omitempty"`
	UseVoiceOver *bool         `json:"useVoiceOver,omitempty"`
	Order        *int          `json:"order,omitempty"`
	VoiceOver    *VoiceOver    `json:"voiceOver,omitempty"`
	MatchedScene *MatchedScene `json:"matchedScene,omitempty"`
}

// SaveStoryboardRequest replaces/merges the whole storyboard.
type SaveStoryboardRequest struct {
	Scenes          []SceneUpdate `json:"scenes" validate:"required,min=1,dive"`
	ExpectedVersion int64         `json:"expectedVersion"`
}

// StoryboardResponse carries the scenes plus the version to use for the next
// optimistic write.
type StoryboardResponse struct {
	SessionID string            `json:"sessionId"`
	Version   int64             `json:"version"`
	Scenes    []StoryboardScene `json:"scenes"`
}

// MatchStartRequest queues the match pipeline for one scene.
type MatchStartRequest struct {
	Mode  MatchMode `json:"mode" validate:"required,oneof=VOICE_OVER ORIGINAL_AUDIO"`
	Notes string    `json:"notes"`
}

// MatchStartResponse is returned when a match job is queued.
type MatchStartResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// MatchStatusResponse mirrors the stored job record.
type MatchStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// SelectCandidateRequest commits one candidate as the scene's matched clip.
type SelectCandidateRequest struct {
	CandidateIndex  int   `json:"candidateIndex" validate:"gte=0"`
	ExpectedVersion int64 `json:"expectedVersion"`
}

// RestoreSelectionRequest re-applies a historical selection.
type RestoreSelectionRequest struct {
	HistoryIndex    int   `json:"historyIndex" validate:"gte=0"`
	ExpectedVersion int64 `json:"expectedVersion"`
}

// EventsResponse is the one-shot ReadSince payload.
type EventsResponse struct {
	Events []Event `json:"events"`
	Cursor int64   `json:"cursor"`
}
