package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/service"
	"github.com/makereel/api/pkg/response"
)

type EventsHandler struct {
	sessions *service.SessionService
	events   *service.EventService
}

func NewEventsHandler(sessions *service.SessionService, events *service.EventService) *EventsHandler {
	return &EventsHandler{
		sessions: sessions,
		events:   events,
	}
}

// List handles GET /api/sessions/:sessionId/events?cursor=N
// Without a cursor it returns no events and the current head, which the
// client passes back on the next call.
func (h *EventsHandler) List(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if _, err := h.sessions.Get(c.Context(), sessionID); err != nil {
		return serviceError(c, err)
	}

	cursor, ok, err := parseCursor(c)
	if err != nil {
		return response.ValidationError(c, "Invalid cursor", nil)
	}

	var cursorArg *int64
	if ok {
		cursorArg = &cursor
	}
	events, next, err := h.events.ReadSince(c.Context(), sessionID, cursorArg)
	if err != nil {
		return serviceError(c, err)
	}
	if events == nil {
		events = []model.Event{}
	}

	return response.OK(c, model.EventsResponse{
		Events: events,
		Cursor: next,
	})
}

// parseCursor reads the optional cursor query parameter. The second return
// value reports whether a cursor was supplied at all.
func parseCursor(c *fiber.Ctx) (int64, bool, error) {
	raw := c.Query("cursor")
	if raw == "" {
		return 0, false, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cursor < 0 {
		return 0, false, fiber.ErrBadRequest
	}
	return cursor, true, nil
}
