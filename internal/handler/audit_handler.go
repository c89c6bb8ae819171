package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditHandler exposes the audit trail of analyze, resurrect, open-pr and
// MCP activity.
type AuditHandler struct {
	store port.AuditStore
}

func NewAuditHandler(store port.AuditStore) *AuditHandler {
	return &AuditHandler{store: store}
}

func (h *AuditHandler) Register(router fiber.Router) {
	audit := router.Group("/audit")
	audit.Get("/logs", h.ListLogs)
	audit.Get("/actions", h.ListActions)
}

// ListLogs returns recent audit records, newest first, optionally narrowed to
// one action, with a per-action count of the returned page.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return bad(c, "limit must be a positive integer")
		}
		limit = min(n, maxAuditLimit)
	}

	action := c.Query("action")
	if action != "" && !domain.IsAuditAction(action) {
		return bad(c, "Unknown audit action: "+action)
	}

	logs, err := h.store.ListAuditLogs(c.Context(), limit, action)
	if err != nil {
		return fail(c, err, "Failed to list audit logs")
	}

	byAction := make(map[string]int)
	for _, l := range logs {
		byAction[l.Action]++
	}

	return c.JSON(fiber.Map{
		"logs":     logs,
		"count":    len(logs),
		"byAction": byAction,
	})
}

// ListActions returns the action names accepted by ListLogs.
func (h *AuditHandler) ListActions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"actions": domain.AuditActions()})
}
