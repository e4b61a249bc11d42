package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/store"
)

// SessionService manages authoring sessions.
type SessionService struct {
	sessions store.SessionStore
	events   *EventService
}

func NewSessionService(sessions store.SessionStore, events *EventService) *SessionService {
	return &SessionService{
		sessions: sessions,
		events:   events,
	}
}

// Create opens a new session owned by the calling user.
func (s *SessionService) Create(ctx context.Context, userID, companyID string) (model.Session, error) {
	session := model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CompanyID: companyID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	if _, err := s.events.Append(ctx, session.ID, model.EventSessionCreated, map[string]string{
		"sessionId": session.ID,
		"userId":    userID,
	}); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// Get loads session metadata.
func (s *SessionService) Get(ctx context.Context, id string) (model.Session, error) {
	return s.sessions.GetSession(ctx, id)
}
