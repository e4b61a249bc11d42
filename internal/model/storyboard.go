package model

import "time"

// VoiceOver is the synthesized narration attached to a scene. Duration drives
// the target clip length in voice-over matching mode.
type VoiceOver struct {
	AudioURL string  `json:"audioUrl"`
	Duration float64 `json:"duration"`
	Voice    string  `json:"voice,omitempty"`
}

// MatchedScene is the committed clip selection for a storyboard scene. It is
// distinct from the candidate pool: at most one exists per scene at a time.
type MatchedScene struct {
	SourceVideoID     string  `json:"sourceVideoId"`
	StartTime         float64 `json:"startTime"`
	EndTime           float64 `json:"endTime"`
	Description       string  `json:"description,omitempty"`
	KeepOriginalAudio bool    `json:"keepOriginalAudio"`
}

// SceneCandidate is a proposed (video, time-range) pairing for a scene that has
// survived filtering, validation and dedup but has not been committed.
type SceneCandidate struct {
	SourceVideoID     string  `json:"sourceVideoId"`
	StartTime         float64 `json:"startTime"`
	EndTime           float64 `json:"endTime"`
	Description       string  `json:"description,omitempty"`
	Rationale         string  `json:"rationale,omitempty"`
	KeepOriginalAudio bool    `json:"keepOriginalAudio"`
	Shortlisted       bool    `json:"shortlisted"`
	LastRank          int     `json:"lastRank"`
}

// StoryboardScene is one unit of the authored storyboard. VoiceOver and
// MatchedScene are nullable and survive partial updates that omit them.
type StoryboardScene struct {
	SceneID      string           `json:"sceneId"`
	Title        string           `json:"title"`
	Purpose      string           `json:"purpose,omitempty"`
	Script       string           `json:"script,omitempty"`
	UseVoiceOver bool             `json:"useVoiceOver"`
	Order        int              `json:"order"`
	VoiceOver    *VoiceOver       `json:"voiceOver,omitempty"`
	MatchedScene *MatchedScene    `json:"matchedScene,omitempty"`
	Candidates   []SceneCandidate `json:"candidates,omitempty"`
}

// Selection history entry kinds.
const (
	HistoryKindSelect  = "select"
	HistoryKindRestore = "restore"
)

// SelectionHistoryEntry records one selection mutation. Entries are append-only;
// a restore adds a new entry with a back-reference instead of rewriting history.
type SelectionHistoryEntry struct {
	SceneID       string        `json:"sceneId"`
	Kind          string        `json:"kind"`
	Previous      *MatchedScene `json:"previous,omitempty"`
	RestoredIndex *int          `json:"restoredIndex,omitempty"`
	Seq           int           `json:"seq"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Session is the authoring context owning one storyboard and its event log.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CompanyID string    `json:"companyId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
