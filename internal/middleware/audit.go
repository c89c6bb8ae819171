package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/ghost-commit/internal/domain"
)

// AuditWriter defines how audit records are persisted.
type AuditWriter interface {
	WriteAudit(ctx context.Context, entry domain.AuditLog) error
}

const auditWriteTimeout = 5 * time.Second

// AuditMiddleware records every API request.
func AuditMiddleware(writer AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		method := c.Method()
		path := c.Path()
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		err := c.Next()

		statusCode := c.Response().StatusCode()
		details := map[string]any{
			"method":      method,
			"path":        path,
			"status":      statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		detailsJSON, _ := json.Marshal(details)

		entry := domain.AuditLog{
			Action:     ActionForPath(path),
			Resource:   "api",
			ResourceID: path,
			Details:    string(detailsJSON),
			IP:         ip,
			UserAgent:  userAgent,
		}

		// All values are captured above, safe to use in the goroutine.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()
			if writeErr := writer.WriteAudit(ctx, entry); writeErr != nil {
				slog.Error("failed to write audit log", "error", writeErr)
			}
		}()

		return err
	}
}

// ActionForPath names the audit action for a request path.
func ActionForPath(path string) string {
	switch strings.TrimSuffix(path, "/") {
	case "/api/analyze", "/api/quick-analyze":
		return domain.AuditActionAnalyze
	case "/api/resurrect":
		return domain.AuditActionResurrect
	}
	return domain.AuditActionHTTPRequest
}
