package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

// withTimeout bounds a single upstream call. A zero timeout only inherits
// the parent deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// fetchManifest reads and parses package.json. Any failure degrades to nil.
func fetchManifest(ctx context.Context, scm port.SourceControl, ref domain.RepositoryRef, timeout time.Duration) *domain.Manifest {
	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	data, err := scm.GetFile(callCtx, ref, "package.json")
	if errors.Is(err, port.ErrNotFound) {
		slog.Debug("no package.json", "repo", ref.FullName())
		return nil
	}
	if err != nil {
		slog.Warn("package.json fetch failed", "repo", ref.FullName(), "error", err)
		return nil
	}

	m, err := domain.ParseManifest(data)
	if err != nil {
		slog.Warn("package.json unreadable", "repo", ref.FullName(), "error", err)
		return nil
	}
	return m
}

// fetchRoot lists the repository root. Any failure degrades to an empty listing.
func fetchRoot(ctx context.Context, scm port.SourceControl, ref domain.RepositoryRef, timeout time.Duration) []domain.FileEntry {
	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	files, err := scm.ListRoot(callCtx, ref)
	if err != nil {
		slog.Warn("root listing failed", "repo", ref.FullName(), "error", err)
		return []domain.FileEntry{}
	}
	if files == nil {
		return []domain.FileEntry{}
	}
	return files
}

// fetchLastActivity returns the newest commit date, or fallback when no
// commit can be read.
func fetchLastActivity(ctx context.Context, scm port.SourceControl, ref domain.RepositoryRef, fallback *time.Time, timeout time.Duration) *time.Time {
	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	commits, err := scm.ListCommits(callCtx, ref, 1)
	if err != nil {
		slog.Warn("commit listing failed", "repo", ref.FullName(), "error", err)
	}
	if len(commits) > 0 && !commits[0].Date.IsZero() {
		last := commits[0].Date
		return &last
	}
	return fallback
}
