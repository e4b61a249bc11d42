package handler

import (
	"bufio"
	"context"
	"fmt"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/makereel/api/internal/service"
	"github.com/makereel/api/internal/stream"
)

// StreamHandler serves the session event stream over SSE and WebSocket. Both
// transports carry the same frames from the stream adapter; SSE is the
// primary wire format, the WebSocket mirror exists for clients already
// holding a socket.
type StreamHandler struct {
	sessions *service.SessionService
	adapter  *stream.Adapter
}

func NewStreamHandler(sessions *service.SessionService, adapter *stream.Adapter) *StreamHandler {
	return &StreamHandler{
		sessions: sessions,
		adapter:  adapter,
	}
}

// Stream handles GET /api/sessions/:sessionId/stream?cursor=N
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if _, err := h.sessions.Get(c.Context(), sessionID); err != nil {
		return serviceError(c, err)
	}

	cursor, ok, err := parseCursor(c)
	if err != nil {
		return fiber.ErrBadRequest
	}
	var resume *int64
	if ok {
		resume = &cursor
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	// Keep intermediaries from buffering the stream.
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		err := h.adapter.Run(ctx, sessionID, resume, func(frame []byte) error {
			if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
				return err
			}
			// A failed flush is the disconnect signal for SSE clients.
			return w.Flush()
		})
		if err != nil {
			log.Printf("Stream for session %s ended: %v", sessionID, err)
		}
	}))
	return nil
}

// HandleWebSocket drives one WebSocket client with the same adapter frames.
func (h *StreamHandler) HandleWebSocket(conn *websocket.Conn, sessionID string, resume *int64) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reader loop only exists to detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err := h.adapter.Run(ctx, sessionID, resume, func(frame []byte) error {
		return conn.WriteMessage(websocket.TextMessage, frame)
	})
	if err != nil {
		log.Printf("WebSocket stream for session %s ended: %v", sessionID, err)
	}
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
}
