// Package store defines the persistence boundaries of the matching core.
// Any backend satisfying these interfaces is acceptable; the service ships a
// Redis implementation and an in-memory one used for tests and local runs
// without Redis.
package store

import (
	"context"
	"errors"

	"github.com/makereel/api/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSceneNotFound   = errors.New("scene not found")
	ErrHistoryNotFound = errors.New("history entry not found")
	ErrVersionConflict = errors.New("storyboard version conflict")
	ErrJobNotFound     = errors.New("job not found")
)

// SessionStore persists session metadata.
type SessionStore interface {
	CreateSession(ctx context.Context, s model.Session) error
	GetSession(ctx context.Context, id string) (model.Session, error)
}

// StoryboardStore is the single writer of truth for scene order and content.
// Save takes the version returned by the previous Load/Save and fails with
// ErrVersionConflict when another writer got there first.
type StoryboardStore interface {
	Load(ctx context.Context, sessionID string) ([]model.StoryboardScene, int64, error)
	Save(ctx context.Context, sessionID string, scenes []model.StoryboardScene, expectedVersion int64) (int64, error)
}

// HistoryStore is the append-only selection history per scene. Entries are
// never mutated or truncated; a restore appends rather than rewrites.
type HistoryStore interface {
	AppendHistory(ctx context.Context, sessionID string, entry model.SelectionHistoryEntry) (int, error)
	History(ctx context.Context, sessionID, sceneID string) ([]model.SelectionHistoryEntry, error)
}

// EventStore is the append-only, cursor-addressed session event log.
// Append assigns the next monotonic gap-free sequence atomically and persists
// the event before returning. ReadSince returns events with sequence > cursor
// plus the cursor for the next call; a nil cursor establishes the current
// head without returning events. A cursor handed out once never re-delivers
// and never skips.
type EventStore interface {
	Append(ctx context.Context, sessionID string, evt model.Event) (int64, error)
	ReadSince(ctx context.Context, sessionID string, cursor *int64) ([]model.Event, int64, error)
}

// JobStore keeps background match job records.
type JobStore interface {
	SaveJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
}

// Stores bundles every persistence interface the services need.
type Stores struct {
	Sessions    SessionStore
	Storyboards StoryboardStore
	History     HistoryStore
	Events      EventStore
	Jobs        JobStore
}
