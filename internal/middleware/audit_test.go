package middleware

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/ghost-commit/internal/domain"
)

type recordingWriter struct {
	mu      sync.Mutex
	entries []domain.AuditLog
	done    chan struct{}
}

func (w *recordingWriter) WriteAudit(_ context.Context, e domain.AuditLog) error {
	w.mu.Lock()
	w.entries = append(w.entries, e)
	w.mu.Unlock()
	w.done <- struct{}{}
	return nil
}

func TestAuditMiddleware(t *testing.T) {
	w := &recordingWriter{done: make(chan struct{}, 1)}
	app := fiber.New()
	app.Use(AuditMiddleware(w))
	app.Post("/api/resurrect", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusAccepted).SendString("ok")
	})

	req := httptest.NewRequest("POST", "/api/resurrect", nil)
	req.Header.Set("User-Agent", "audit-test")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("audit entry not written")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.entries, 1)
	e := w.entries[0]
	assert.Equal(t, domain.AuditActionResurrect, e.Action)
	assert.Equal(t, "/api/resurrect", e.ResourceID)
	assert.Equal(t, "audit-test", e.UserAgent)
	assert.Contains(t, e.Details, `"status":202`)
	assert.Contains(t, e.Details, `"method":"POST"`)
}

func TestActionForPath(t *testing.T) {
	tests := map[string]string{
		"/api/analyze":       domain.AuditActionAnalyze,
		"/api/quick-analyze": domain.AuditActionAnalyze,
		"/api/resurrect/":    domain.AuditActionResurrect,
		"/api/status":        domain.AuditActionHTTPRequest,
	}
	for path, want := range tests {
		assert.Equal(t, want, ActionForPath(path), path)
	}
}
