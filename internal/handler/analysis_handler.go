package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/ghost-commit/internal/port"
	"github.com/arturoeanton/ghost-commit/internal/service"
)

// AnalysisHandler handles repository analysis endpoints.
type AnalysisHandler struct {
	analysis *service.AnalysisService
	insight  *service.InsightService
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analysis *service.AnalysisService, insight *service.InsightService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, insight: insight}
}

// Register sets up analysis routes.
func (h *AnalysisHandler) Register(router fiber.Router) {
	router.Post("/analyze", h.Analyze)
	router.Post("/quick-analyze", h.QuickAnalyze)
}

type repoRequest struct {
	RepoURL string `json:"repoUrl"`
}

// Analyze classifies a repository and returns the full analysis.
func (h *AnalysisHandler) Analyze(c fiber.Ctx) error {
	var body repoRequest
	if err := c.Bind().JSON(&body); err != nil {
		return bad(c, "invalid request body")
	}
	if strings.TrimSpace(body.RepoURL) == "" {
		return bad(c, "Repository URL is required")
	}

	a, err := h.analysis.Analyze(c.Context(), body.RepoURL)
	if err != nil {
		return fail(c, err, "Failed to analyze repository")
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"repository":      a.Repository,
		"analysis":        a.Analysis,
		"recommendations": a.Recommendations,
	})
}

// QuickAnalyze returns a lightweight analysis with optional AI insights.
// Without GitHub credentials it answers 200 with a demo marker.
func (h *AnalysisHandler) QuickAnalyze(c fiber.Ctx) error {
	var body repoRequest
	if err := c.Bind().JSON(&body); err != nil {
		return bad(c, "invalid request body")
	}
	if strings.TrimSpace(body.RepoURL) == "" {
		return bad(c, "Repository URL is required")
	}

	qa, err := h.insight.QuickAnalyze(c.Context(), body.RepoURL)
	if errors.Is(err, port.ErrNotConfigured) {
		return c.JSON(fiber.Map{
			"success": false,
			"error":   "GitHub token not configured",
			"demo":    true,
			"message": "Add GITHUB_TOKEN to your environment to enable real analysis",
		})
	}
	if err != nil {
		if statusFor(err) == fiber.StatusBadRequest {
			return fail(c, err, "")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to analyze repository",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"repository":      qa.Repository,
		"analysis":        qa.Analysis,
		"recommendations": qa.Recommendations,
	})
}
