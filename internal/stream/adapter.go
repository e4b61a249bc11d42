package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/store"
	"github.com/makereel/api/pkg/metrics"
)

// DefaultPollInterval is the fallback cadence when no append notification
// arrives. Event volume per session is low and clients tolerate sub-second
// latency, so this only matters when a notification is lost.
const DefaultPollInterval = 500 * time.Millisecond

// Adapter converts the event log tail into a resumable, cancellable stream.
// Any number of clients may stream the same session concurrently, each with
// its own cursor.
type Adapter struct {
	events       store.EventStore
	hub          *Hub
	pollInterval time.Duration
}

// NewAdapter creates a new stream adapter.
func NewAdapter(events store.EventStore, hub *Hub, pollInterval time.Duration) *Adapter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Adapter{
		events:       events,
		hub:          hub,
		pollInterval: pollInterval,
	}
}

// Run drives one client connection: connected frame, then events as they
// appear, each batch followed by a cursor checkpoint frame so a client that
// disconnects right after can resume without replay or gap. emit delivers one
// JSON frame to the client; an emit error means the client is gone and is the
// only cancellation signal besides ctx. Mutations already committed are never
// rolled back by a disconnect.
func (a *Adapter) Run(ctx context.Context, sessionID string, resume *int64, emit func([]byte) error) error {
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	// CONNECTING: resolve the starting cursor. An explicit resume cursor wins;
	// otherwise start at the current head.
	var cursor int64
	if resume != nil {
		cursor = *resume
	} else {
		_, head, err := a.events.ReadSince(ctx, sessionID, nil)
		if err != nil {
			return fmt.Errorf("failed to resolve stream head: %w", err)
		}
		cursor = head
	}

	if err := a.emitControl(emit, model.StreamTypeConnected, cursor); err != nil {
		return nil // client gone before the handshake finished
	}

	wake, unsubscribe := a.hub.Subscribe(sessionID)
	defer unsubscribe()

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	// STREAMING until the client disconnects or ctx is cancelled.
	for {
		events, next, err := a.events.ReadSince(ctx, sessionID, &cursor)
		if err != nil {
			return fmt.Errorf("failed to read events: %w", err)
		}
		if len(events) > 0 {
			for _, evt := range events {
				frame, err := json.Marshal(evt)
				if err != nil {
					return fmt.Errorf("failed to marshal event %d: %w", evt.Sequence, err)
				}
				if err := emit(frame); err != nil {
					return nil // CLOSED: client went away
				}
			}
			cursor = next
			if err := a.emitControl(emit, model.StreamTypeCursor, cursor); err != nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-wake:
		case <-ticker.C:
		}
	}
}

func (a *Adapter) emitControl(emit func([]byte) error, frameType string, cursor int64) error {
	frame, err := json.Marshal(model.StreamControlFrame{Type: frameType, Cursor: cursor})
	if err != nil {
		return err
	}
	return emit(frame)
}
