package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
	"github.com/arturoeanton/ghost-commit/internal/service"
)

// StatusHandler exposes resurrection sessions.
type StatusHandler struct {
	sessions      *service.SessionService
	streamTimeout time.Duration
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(sessions *service.SessionService) *StatusHandler {
	return &StatusHandler{sessions: sessions, streamTimeout: 5 * time.Minute}
}

// Register sets up status routes.
func (h *StatusHandler) Register(router fiber.Router) {
	router.Get("/status", h.Get)
	router.Post("/status", h.Update)
	router.Get("/status/stream", h.Stream)
}

// Get returns a session by ?sessionId=.
func (h *StatusHandler) Get(c fiber.Ctx) error {
	id := c.Query("sessionId")
	if id == "" {
		return bad(c, "Session ID is required")
	}

	sess, err := h.sessions.Get(c.Context(), id)
	if err != nil {
		return fail(c, err, "Failed to load session")
	}
	return c.JSON(fiber.Map{"success": true, "session": sess})
}

// Update records a step or status change, creating the session if needed.
func (h *StatusHandler) Update(c fiber.Ctx) error {
	var body service.StatusUpdate
	if err := c.Bind().JSON(&body); err != nil {
		return bad(c, "invalid request body")
	}
	if body.SessionID == "" {
		return bad(c, "Session ID is required")
	}

	sess, err := h.sessions.Update(c.Context(), body)
	if err != nil {
		return fail(c, err, "Failed to update status")
	}
	return c.JSON(fiber.Map{"success": true, "session": sess})
}

// Stream sends session snapshots as Server-Sent Events until every step has
// finished, the client goes away or the stream times out.
func (h *StatusHandler) Stream(c fiber.Ctx) error {
	id := c.Query("sessionId")
	if id == "" {
		return bad(c, "Session ID is required")
	}

	// Subscribe before reading so no update falls between the two.
	ctx, cancel := context.WithTimeout(context.Background(), h.streamTimeout)
	updates, err := h.sessions.Watch(ctx, id)
	if err != nil {
		cancel()
		return fail(c, err, "Failed to watch session")
	}
	current, err := h.sessions.Get(c.Context(), id)
	if err != nil && !errors.Is(err, port.ErrSessionNotFound) {
		cancel()
		return fail(c, err, "Failed to load session")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if current != nil {
			if !writeSessionEvent(w, current) || sessionFinished(current) {
				return
			}
		}
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if !writeSessionEvent(w, &update) || sessionFinished(&update) {
					return
				}
			case <-ctx.Done():
				slog.Warn("SSE timeout", "session_id", id)
				return
			}
		}
	})
}

// writeSessionEvent reports false once the client is gone.
func writeSessionEvent(w *bufio.Writer, s *domain.Session) bool {
	data, err := json.Marshal(s)
	if err != nil {
		slog.Error("encode session event", "session_id", s.ID, "error", err)
		return false
	}
	event := "progress"
	if sessionFinished(s) {
		event = "complete"
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return w.Flush() == nil
}

// sessionFinished reports whether every step reached a terminal status.
func sessionFinished(s *domain.Session) bool {
	if len(s.Steps) == 0 || !s.Status.IsTerminal() {
		return false
	}
	for _, st := range s.Steps {
		if !st.Status.IsTerminal() {
			return false
		}
	}
	return true
}
