package model

import "time"

// Job represents a background matching job in the system
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Payload     []byte     `json:"-"` // Stored as JSON
	Result      []byte     `json:"-"` // Stored as JSON
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RetryCount  int        `json:"retryCount"`
}

// Job types
const (
	JobTypeMatch = "match"
)

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// MatchJobPayload contains the data for a queued scene-match job
type MatchJobPayload struct {
	SessionID string    `json:"sessionId"`
	SceneID   string    `json:"sceneId"`
	UserID    string    `json:"userId"`
	Mode      MatchMode `json:"mode"`
	Notes     string    `json:"notes,omitempty"`
}

// MatchJobResult is stored when a match job completes
type MatchJobResult struct {
	SceneID        string   `json:"sceneId"`
	CandidateCount int      `json:"candidateCount"`
	Warnings       []string `json:"warnings,omitempty"`
}
