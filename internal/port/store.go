package port

import (
	"context"

	"github.com/arturoeanton/ghost-commit/internal/domain"
)

// SessionStore keeps resurrection sessions. Implementations must be safe for
// concurrent use; concurrent updates to the same session are applied one at
// a time and the last write wins.
type SessionStore interface {
	// Get returns a copy of the session or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Update loads the session, creating an empty one when id is unknown,
	// applies mutate and stores the result. Nothing is stored when mutate
	// returns an error.
	Update(ctx context.Context, id string, mutate func(*domain.Session) error) (*domain.Session, error)

	// Watch streams a snapshot after every stored change until ctx is done.
	Watch(ctx context.Context, id string) (<-chan domain.Session, error)
}

// ReportStore persists analysis reports.
type ReportStore interface {
	SaveReport(ctx context.Context, r *domain.AnalysisReport) error
	ListReports(ctx context.Context, repository string, limit int) ([]domain.AnalysisReport, error)
}

// AuditStore reads back audit records.
type AuditStore interface {
	ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error)
}
