package model

// MatchMode controls how candidate clips are evaluated against a scene.
type MatchMode string

const (
	// MatchModeVoiceOver matches clips against a fixed voice-over duration.
	MatchModeVoiceOver MatchMode = "VOICE_OVER"
	// MatchModeOriginalAudio keeps the source clip audio; no duration band applies.
	MatchModeOriginalAudio MatchMode = "ORIGINAL_AUDIO"
)

var ValidMatchModes = []MatchMode{MatchModeVoiceOver, MatchModeOriginalAudio}

// VideoMeta is what the video index knows about a library asset.
type VideoMeta struct {
	Duration float64 `json:"duration"`
	Filename string  `json:"filename"`
}

// VideoRef pairs a library video id with its metadata.
type VideoRef struct {
	ID   string    `json:"id"`
	Meta VideoMeta `json:"meta"`
}

// MatchJob is one unit of matching work: a single scene evaluated against a
// single library video. Consumed once, never persisted.
type MatchJob struct {
	SceneID        string          `json:"sceneId"`
	Scene          StoryboardScene `json:"scene"` // immutable snapshot
	VideoID        string          `json:"videoId"`
	VideoMeta      VideoMeta       `json:"videoMeta"`
	Notes          string          `json:"notes,omitempty"`
	Mode           MatchMode       `json:"mode"`
	TargetDuration float64         `json:"targetDuration"`
}

// RawCandidate is one entry from the external analysis call, validated at the
// boundary before any field is trusted. Confirmation flags pass through
// uninterpreted.
type RawCandidate struct {
	VideoID        string `json:"video_id" validate:"required"`
	StartTimestamp string `json:"start_timestamp" validate:"required"`
	EndTimestamp   string `json:"end_timestamp" validate:"required"`
	Description    string `json:"description"`
	Rationale      string `json:"rationale"`
	NoTalkingHeads bool   `json:"no_talking_heads"`
	NoSubtitles    bool   `json:"no_subtitles"`
}

// ShortlistClip is the working form of a candidate while it is being validated
// against its source video. Only the shortlist validator mutates it (end time
// may be capped downward).
type ShortlistClip struct {
	VideoID   string  `json:"videoId"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Reason    string  `json:"reason,omitempty"`
}
