package domain

import (
	"fmt"
	"slices"
	"time"
)

// StepStatus is the lifecycle state of a resurrection step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// IsValid reports whether s is a known status.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepRunning, StepCompleted, StepFailed:
		return true
	}
	return false
}

// IsTerminal reports whether s is completed or failed.
func (s StepStatus) IsTerminal() bool {
	return s == StepCompleted || s == StepFailed
}

func (s StepStatus) rank() int {
	switch s {
	case StepRunning:
		return 1
	case StepCompleted, StepFailed:
		return 2
	}
	return 0
}

// CanTransition reports whether a step may move from one status to another.
// Statuses only move forward and terminal statuses are final. Re-sending the
// current status is allowed so details can be amended.
func CanTransition(from, to StepStatus) bool {
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	return to.rank() > from.rank()
}

// ResurrectionStep is one stage of a resurrection run.
type ResurrectionStep struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    StepStatus `json:"status"`
	Details   string     `json:"details,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt,omitzero"`
}

// StepUpdate carries a change to a single step. Empty fields leave the
// stored value untouched.
type StepUpdate struct {
	ID      string     `json:"id"`
	Title   string     `json:"title,omitempty"`
	Status  StepStatus `json:"status,omitempty"`
	Details string     `json:"details,omitempty"`
}

// Session is the externally visible record of a resurrection run.
type Session struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Status    StepStatus         `json:"status"`
	Steps     []ResurrectionStep `json:"steps"`
}

// NewSession returns an empty running session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StepRunning,
		Steps:     []ResurrectionStep{},
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.Steps = slices.Clone(s.Steps)
	if c.Steps == nil {
		c.Steps = []ResurrectionStep{}
	}
	return &c
}

// Step returns the step with the given id.
func (s *Session) Step(id string) (ResurrectionStep, bool) {
	for _, st := range s.Steps {
		if st.ID == id {
			return st, true
		}
	}
	return ResurrectionStep{}, false
}

// ApplyStep merges u into the matching step, appending a new pending step
// when none exists. It returns ErrInvalidTransition when the status change
// would move a step backwards.
func (s *Session) ApplyStep(u StepUpdate, now time.Time) error {
	if u.ID == "" {
		return fmt.Errorf("%w: step id is required", ErrInvalidStep)
	}
	if u.Status != "" && !u.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStep, u.Status)
	}

	idx := slices.IndexFunc(s.Steps, func(st ResurrectionStep) bool { return st.ID == u.ID })
	if idx < 0 {
		s.Steps = append(s.Steps, ResurrectionStep{ID: u.ID, Status: StepPending})
		idx = len(s.Steps) - 1
	}

	st := &s.Steps[idx]
	if u.Status != "" {
		if !CanTransition(st.Status, u.Status) {
			return fmt.Errorf("%w: step %s cannot move from %s to %s", ErrInvalidTransition, st.ID, st.Status, u.Status)
		}
		st.Status = u.Status
	}
	if u.Title != "" {
		st.Title = u.Title
	}
	if u.Details != "" {
		st.Details = u.Details
	}
	st.UpdatedAt = now
	s.UpdatedAt = now
	return nil
}
