package handler

import "github.com/gofiber/fiber/v3"

// HealthHandler reports liveness and which optional backends are enabled.
type HealthHandler struct {
	info fiber.Map
}

// NewHealthHandler creates a health handler. info is merged into every response.
func NewHealthHandler(info fiber.Map) *HealthHandler {
	return &HealthHandler{info: info}
}

// Register sets up the health route.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	body := fiber.Map{"status": "ok"}
	for k, v := range h.info {
		body[k] = v
	}
	return c.JSON(body)
}
