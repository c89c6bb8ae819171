package github

import (
	"context"
	"fmt"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

const demoManifest = `{
  "name": "legacy-react-dashboard",
  "version": "0.9.3",
  "dependencies": {
    "react": "^16.14.0",
    "react-dom": "^16.14.0",
    "react-router-dom": "^5.3.4",
    "redux": "^4.0.5",
    "axios": "^0.21.1"
  },
  "devDependencies": {
    "webpack": "^4.46.0",
    "babel-loader": "^8.2.2",
    "eslint": "^7.32.0"
  }
}`

// DemoSource serves a canned, long-abandoned React 16 project for every
// repository reference. It is used when DEMO_MODE is on so the UI can be
// shown without GitHub credentials.
type DemoSource struct {
	lastCommit time.Time
}

// NewDemoSource creates a demo source.
func NewDemoSource() *DemoSource {
	return &DemoSource{lastCommit: time.Date(2021, 3, 14, 9, 26, 0, 0, time.UTC)}
}

// GetRepository returns canned metadata named after ref.
func (d *DemoSource) GetRepository(_ context.Context, ref domain.RepositoryRef) (*domain.RepoInfo, error) {
	updated := d.lastCommit
	return &domain.RepoInfo{
		FullName:      ref.FullName(),
		Description:   "A React 16 dashboard nobody has touched in years",
		Stars:         42,
		Language:      "JavaScript",
		DefaultBranch: "master",
		UpdatedAt:     &updated,
	}, nil
}

// GetFile serves package.json; every other path is missing.
func (d *DemoSource) GetFile(_ context.Context, ref domain.RepositoryRef, path string) ([]byte, error) {
	if path != "package.json" {
		return nil, fmt.Errorf("get %s from %s: %w", path, ref.FullName(), port.ErrNotFound)
	}
	return []byte(demoManifest), nil
}

// ListRoot returns a typical create-react-app layout.
func (d *DemoSource) ListRoot(_ context.Context, _ domain.RepositoryRef) ([]domain.FileEntry, error) {
	return []domain.FileEntry{
		{Name: ".babelrc", Type: "file", Path: ".babelrc"},
		{Name: "README.md", Type: "file", Path: "README.md"},
		{Name: "package.json", Type: "file", Path: "package.json"},
		{Name: "public", Type: "dir", Path: "public"},
		{Name: "src", Type: "dir", Path: "src"},
		{Name: "webpack.config.js", Type: "file", Path: "webpack.config.js"},
	}, nil
}

// ListCommits returns a single old commit.
func (d *DemoSource) ListCommits(_ context.Context, _ domain.RepositoryRef, _ int) ([]domain.CommitInfo, error) {
	return []domain.CommitInfo{{
		SHA:     "3f2c9a1e8b7d6c5f4e3d2c1b0a9f8e7d6c5b4a39",
		Author:  "former-maintainer",
		Message: "bump version",
		Date:    d.lastCommit,
	}}, nil
}
