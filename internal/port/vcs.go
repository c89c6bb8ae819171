package port

import "context"

// VCSProvider abstracts the local version control operations needed to
// prepare a resurrection branch.
type VCSProvider interface {
	// Clone clones a repository from url into dest directory.
	Clone(ctx context.Context, url string, dest string) error

	// CreateBranch creates and checks out a new branch.
	CreateBranch(ctx context.Context, repoPath, branch string) error

	// CommitAll stages every change and commits it with message.
	CommitAll(ctx context.Context, repoPath, message string) error

	// Push pushes branch to origin and sets it as upstream.
	Push(ctx context.Context, repoPath, branch string) error
}
