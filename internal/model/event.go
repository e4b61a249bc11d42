package model

import (
	"encoding/json"
	"time"
)

// Event types appended to a session log.
const (
	EventSessionCreated    = "session_created"
	EventStoryboardSaved   = "storyboard_saved"
	EventMatchStarted      = "match_started"
	EventMatchProgress     = "match_progress"
	EventCandidatesReady   = "candidates_ready"
	EventMatchFailed       = "match_failed"
	EventSceneSelected     = "scene_selected"
	EventSelectionRestored = "selection_restored"
)

// Event is one immutable entry in a session's append-only log. Sequence is
// assigned by the event store: monotonic, gap-free, never reused.
type Event struct {
	Sequence  int64           `json:"sequence"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Stream frame types emitted by the stream adapter in addition to passthrough
// domain events.
const (
	StreamTypeConnected = "connected"
	StreamTypeCursor    = "cursor"
)

// StreamControlFrame is the connected/cursor checkpoint frame. The cursor it
// carries lets a client resume exactly where it left off.
type StreamControlFrame struct {
	Type   string `json:"type"`
	Cursor int64  `json:"cursor"`
}
