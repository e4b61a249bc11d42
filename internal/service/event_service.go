package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/store"
	"github.com/makereel/api/internal/stream"
	"github.com/makereel/api/pkg/metrics"
)

// EventService appends session events and wakes connected stream readers.
type EventService struct {
	events store.EventStore
	hub    *stream.Hub
}

func NewEventService(events store.EventStore, hub *stream.Hub) *EventService {
	return &EventService{
		events: events,
		hub:    hub,
	}
}

// Append records an event on the session log and notifies stream subscribers.
// The payload is marshalled to JSON; the store assigns the sequence.
func (s *EventService) Append(ctx context.Context, sessionID, eventType string, payload interface{}) (int64, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal event payload: %w", err)
		}
		raw = data
	}

	seq, err := s.events.Append(ctx, sessionID, model.Event{
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append event: %w", err)
	}

	metrics.EventsAppended.WithLabelValues(eventType).Inc()
	s.hub.Notify(sessionID)
	return seq, nil
}

// ReadSince returns events past the cursor plus the cursor for the next call.
func (s *EventService) ReadSince(ctx context.Context, sessionID string, cursor *int64) ([]model.Event, int64, error) {
	return s.events.ReadSince(ctx, sessionID, cursor)
}
