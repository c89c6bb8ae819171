package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/domain"
)

// PostgresStore persists analysis reports and the audit log.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewPostgresStoreFromDB(db), nil
}

// NewPostgresStoreFromDB wraps an open *sql.DB.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS analysis_reports (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	repository  TEXT NOT NULL,
	scenario    TEXT NOT NULL,
	issue_count INTEGER NOT NULL DEFAULT 0,
	is_dead     BOOLEAN,
	payload     JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS analysis_reports_repository_idx ON analysis_reports (repository, created_at DESC);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	action      TEXT NOT NULL,
	resource    TEXT NOT NULL,
	resource_id TEXT NOT NULL DEFAULT '',
	details     JSONB NOT NULL DEFAULT '{}'::jsonb,
	ip          TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_logs_created_idx ON audit_logs (created_at DESC);
`

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// --- Analysis Reports ---

// SaveReport inserts a report and fills in its ID and CreatedAt.
func (s *PostgresStore) SaveReport(ctx context.Context, r *domain.AnalysisReport) error {
	payload := r.Payload
	if payload == "" || !json.Valid([]byte(payload)) {
		payload = "{}"
	}

	query := `INSERT INTO analysis_reports (repository, scenario, issue_count, is_dead, payload)
	          VALUES ($1, $2, $3, $4, $5::jsonb)
	          RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query,
		r.Repository, string(r.Scenario), r.IssueCount, nullBool(r.IsDead), payload,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// ListReports returns reports newest first, optionally filtered by repository.
func (s *PostgresStore) ListReports(ctx context.Context, repository string, limit int) ([]domain.AnalysisReport, error) {
	query := `SELECT id, repository, scenario, issue_count, is_dead, payload::text, created_at
	          FROM analysis_reports`
	args := []any{}
	argIdx := 1

	if repository != "" {
		query += fmt.Sprintf(" WHERE repository = $%d", argIdx)
		args = append(args, repository)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []domain.AnalysisReport{}
	for rows.Next() {
		var (
			r        domain.AnalysisReport
			scenario string
			isDead   sql.NullBool
		)
		if err := rows.Scan(&r.ID, &r.Repository, &scenario, &r.IssueCount, &isDead, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Scenario = domain.Scenario(scenario)
		if isDead.Valid {
			dead := isDead.Bool
			r.IsDead = &dead
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// --- Audit Logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(ctx context.Context, entry domain.AuditLog) error {
	details := entry.Details
	if details == "" || !json.Valid([]byte(details)) {
		details = "{}"
	}
	query := `INSERT INTO audit_logs (action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4::jsonb, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		entry.Action, entry.Resource, entry.ResourceID, details, entry.IP, entry.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns recent audit logs with optional filters.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT id, action, resource, resource_id, details::text, ip, user_agent, created_at
	          FROM audit_logs`
	args := []any{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.AuditLog{}
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
