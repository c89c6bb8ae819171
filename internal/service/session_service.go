package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

// StatusUpdate is an external report about a resurrection step. Status and
// Details apply to Step when one is given; Status also becomes the session status.
type StatusUpdate struct {
	SessionID string             `json:"sessionId"`
	Step      *domain.StepUpdate `json:"step,omitempty"`
	Status    domain.StepStatus  `json:"status,omitempty"`
	Details   string             `json:"details,omitempty"`
}

// SessionService reads and updates resurrection sessions.
type SessionService struct {
	store port.SessionStore
	now   func() time.Time
}

// NewSessionService creates a session service.
func NewSessionService(store port.SessionStore) *SessionService {
	return &SessionService{store: store, now: time.Now}
}

// Get returns the session or ErrSessionNotFound.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: session ID is required", port.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// Update applies u, creating the session when it does not exist yet.
func (s *SessionService) Update(ctx context.Context, u StatusUpdate) (*domain.Session, error) {
	if strings.TrimSpace(u.SessionID) == "" {
		return nil, fmt.Errorf("%w: session ID is required", port.ErrInvalidInput)
	}
	if u.Status != "" && !u.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", port.ErrInvalidInput, u.Status)
	}
	if u.Step != nil && u.Step.ID == "" {
		return nil, fmt.Errorf("%w: step id is required", port.ErrInvalidInput)
	}

	now := s.now()
	return s.store.Update(ctx, u.SessionID, func(sess *domain.Session) error {
		if u.Step != nil {
			step := *u.Step
			if u.Status != "" {
				step.Status = u.Status
			}
			if u.Details != "" {
				step.Details = u.Details
			}
			if err := sess.ApplyStep(step, now); err != nil {
				return err
			}
		}
		if u.Status != "" {
			sess.Status = u.Status
		}
		sess.UpdatedAt = now
		return nil
	})
}

// Watch streams session snapshots until ctx is done.
func (s *SessionService) Watch(ctx context.Context, id string) (<-chan domain.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: session ID is required", port.ErrInvalidInput)
	}
	return s.store.Watch(ctx, id)
}
