package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/ghost-commit/internal/port"
	"github.com/arturoeanton/ghost-commit/internal/service"
)

// ReportsHandler lists persisted analysis reports.
type ReportsHandler struct {
	analysis *service.AnalysisService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(analysis *service.AnalysisService) *ReportsHandler {
	return &ReportsHandler{analysis: analysis}
}

// Register sets up report routes.
func (h *ReportsHandler) Register(router fiber.Router) {
	router.Get("/reports", h.List)
}

// List returns reports, newest first, optionally filtered by ?repo=owner/name.
func (h *ReportsHandler) List(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	repo := c.Query("repo")

	reports, err := h.analysis.ListReports(c.Context(), repo, limit)
	if errors.Is(err, port.ErrNotConfigured) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "Report storage not configured",
			"details": "Set DATABASE_URL to persist analysis reports",
		})
	}
	if err != nil {
		return fail(c, err, "Failed to list reports")
	}

	return c.JSON(fiber.Map{"reports": reports, "count": len(reports)})
}
