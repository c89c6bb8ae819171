package port

import (
	"context"

	"github.com/arturoeanton/ghost-commit/internal/domain"
)

// SourceControl reads repository data from the hosting service.
// Missing resources are reported with ErrNotFound.
type SourceControl interface {
	GetRepository(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoInfo, error)

	// GetFile returns the decoded content of a file at the default branch.
	GetFile(ctx context.Context, ref domain.RepositoryRef, path string) ([]byte, error)

	// ListRoot lists the top-level entries of the default branch.
	ListRoot(ctx context.Context, ref domain.RepositoryRef) ([]domain.FileEntry, error)

	// ListCommits returns up to limit commits, newest first.
	ListCommits(ctx context.Context, ref domain.RepositoryRef, limit int) ([]domain.CommitInfo, error)
}

// PullRequestCreator opens pull requests and returns their URL.
type PullRequestCreator interface {
	CreatePullRequest(ctx context.Context, ref domain.RepositoryRef, pr domain.PullRequest) (string, error)
}
