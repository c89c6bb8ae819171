package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/ghost-commit/internal/port"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, port.ErrInvalidInput),
		errors.Is(err, port.ErrInvalidURL),
		errors.Is(err, port.ErrInvalidTransition):
		return fiber.StatusBadRequest
	case errors.Is(err, port.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, port.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// fail writes {"error", "details"?}. Client errors carry their own message;
// anything else is reported as message with the cause in details.
func fail(c fiber.Ctx, err error, message string) error {
	code := statusFor(err)
	switch code {
	case fiber.StatusBadRequest:
		if errors.Is(err, port.ErrInvalidURL) {
			return c.Status(code).JSON(fiber.Map{"error": "Invalid GitHub URL"})
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	case fiber.StatusNotFound:
		return c.Status(code).JSON(fiber.Map{"error": "Session not found"})
	}

	slog.Error(message, "path", c.Path(), "error", err)
	return c.Status(code).JSON(fiber.Map{"error": message, "details": err.Error()})
}

// bad writes a 400 with a fixed message.
func bad(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}
