package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/ghost-commit/internal/port"
	"github.com/arturoeanton/ghost-commit/internal/service"
)

// ResurrectHandler runs resurrections.
type ResurrectHandler struct {
	resurrection *service.ResurrectionService
}

// NewResurrectHandler creates a new resurrect handler.
func NewResurrectHandler(resurrection *service.ResurrectionService) *ResurrectHandler {
	return &ResurrectHandler{resurrection: resurrection}
}

// Register sets up resurrection routes.
func (h *ResurrectHandler) Register(router fiber.Router) {
	router.Post("/resurrect", h.Resurrect)
}

// Resurrect runs all five stages inside the request.
func (h *ResurrectHandler) Resurrect(c fiber.Ctx) error {
	var req service.ResurrectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return bad(c, "invalid request body")
	}
	if strings.TrimSpace(req.RepoURL) == "" {
		return bad(c, "Repository URL is required")
	}

	res, err := h.resurrection.Resurrect(c.Context(), req)
	switch {
	case errors.Is(err, port.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "GitHub token not configured",
			"details": "Please add GITHUB_TOKEN to your environment. Get one at: https://github.com/settings/tokens",
		})
	case err != nil && res != nil:
		// A stage failed; the partial run is still useful to the caller.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     "Failed to resurrect repository",
			"details":   err.Error(),
			"sessionId": res.SessionID,
			"steps":     res.Steps,
		})
	case err != nil:
		return fail(c, err, "Failed to resurrect repository")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"sessionId":  res.SessionID,
		"scenario":   res.Scenario,
		"planSource": res.PlanSource,
		"steps":      res.Steps,
		"result":     res.Result,
	})
}
