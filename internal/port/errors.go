package port

import (
	"errors"

	"github.com/arturoeanton/ghost-commit/internal/domain"
)

// Sentinel errors used across ports.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidURL        = errors.New("invalid GitHub URL")
	ErrNotConfigured     = errors.New("not configured")
	ErrUpstream          = errors.New("upstream service error")
	ErrNotFound          = errors.New("not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = domain.ErrInvalidTransition
)
