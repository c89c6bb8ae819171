package domain

import "time"

// RepositoryRef identifies a GitHub repository.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns "owner/name".
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// RepoInfo is the repository metadata reported by the hosting service.
type RepoInfo struct {
	FullName      string     `json:"full_name"`
	Description   string     `json:"description"`
	Stars         int        `json:"stars"`
	Language      string     `json:"language"`
	DefaultBranch string     `json:"default_branch"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// FileEntry is a single entry of a repository root listing.
type FileEntry struct {
	Name string `json:"name"`
	Type string `json:"type"` // file, dir, symlink, submodule
	Path string `json:"path"`
}

// CommitInfo holds metadata about a single commit.
type CommitInfo struct {
	SHA     string    `json:"sha"`
	Author  string    `json:"author"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// PullRequest describes a pull request to open against a repository.
type PullRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}
