// Package porttest provides in-memory fakes of the port interfaces for tests.
package porttest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

// Source is a configurable port.SourceControl. Nil fields produce
// port.ErrNotFound, Err fields take precedence over data.
type Source struct {
	Repo       *domain.RepoInfo
	RepoErr    error
	Files      map[string][]byte
	FileErr    error
	Root       []domain.FileEntry
	RootErr    error
	Commits    []domain.CommitInfo
	CommitsErr error

	mu    sync.Mutex
	Calls []string
}

func (s *Source) record(call string) {
	s.mu.Lock()
	s.Calls = append(s.Calls, call)
	s.mu.Unlock()
}

func (s *Source) GetRepository(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoInfo, error) {
	s.record("GetRepository")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.RepoErr != nil {
		return nil, s.RepoErr
	}
	if s.Repo == nil {
		return &domain.RepoInfo{FullName: ref.FullName(), DefaultBranch: "main"}, nil
	}
	info := *s.Repo
	return &info, nil
}

func (s *Source) GetFile(ctx context.Context, ref domain.RepositoryRef, path string) ([]byte, error) {
	s.record("GetFile:" + path)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.FileErr != nil {
		return nil, s.FileErr
	}
	data, ok := s.Files[path]
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", path, ref.FullName(), port.ErrNotFound)
	}
	return data, nil
}

func (s *Source) ListRoot(ctx context.Context, _ domain.RepositoryRef) ([]domain.FileEntry, error) {
	s.record("ListRoot")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.RootErr != nil {
		return nil, s.RootErr
	}
	return s.Root, nil
}

func (s *Source) ListCommits(ctx context.Context, _ domain.RepositoryRef, limit int) ([]domain.CommitInfo, error) {
	s.record("ListCommits")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.CommitsErr != nil {
		return nil, s.CommitsErr
	}
	if limit > 0 && len(s.Commits) > limit {
		return s.Commits[:limit], nil
	}
	return s.Commits, nil
}

// Generator is a scripted port.TextGenerator.
type Generator struct {
	Response string
	Err      error

	mu      sync.Mutex
	Prompts []string
}

func (g *Generator) ModelName() string { return "fake-model" }

func (g *Generator) Chat(ctx context.Context, _, userPrompt string, _ port.ChatOptions) (string, error) {
	g.mu.Lock()
	g.Prompts = append(g.Prompts, userPrompt)
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.Response, g.Err
}

// Reports is an in-memory port.ReportStore.
type Reports struct {
	mu    sync.Mutex
	Saved []domain.AnalysisReport
	Err   error
}

func (r *Reports) SaveReport(_ context.Context, rep *domain.AnalysisReport) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rep.ID = fmt.Sprintf("report-%d", len(r.Saved)+1)
	r.Saved = append(r.Saved, *rep)
	return nil
}

func (r *Reports) ListReports(_ context.Context, repository string, limit int) ([]domain.AnalysisReport, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.AnalysisReport{}
	for i := len(r.Saved) - 1; i >= 0; i-- {
		if repository == "" || r.Saved[i].Repository == repository {
			out = append(out, r.Saved[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// VCS records git operations. Clone writes Files into dest so callers can
// operate on a real working tree.
type VCS struct {
	Files     map[string]string
	CloneErr  error
	PushErr   error
	CommitErr error

	mu      sync.Mutex
	Ops     []string
	Cloned  string
	Commits []string
}

func (v *VCS) op(s string) {
	v.mu.Lock()
	v.Ops = append(v.Ops, s)
	v.mu.Unlock()
}

func (v *VCS) Clone(_ context.Context, url, dest string) error {
	v.op("clone")
	v.mu.Lock()
	v.Cloned = url
	v.mu.Unlock()
	if v.CloneErr != nil {
		return v.CloneErr
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for name, content := range v.Files {
		if err := os.WriteFile(filepath.Join(dest, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (v *VCS) CreateBranch(_ context.Context, _, branch string) error {
	v.op("branch:" + branch)
	return nil
}

func (v *VCS) CommitAll(_ context.Context, _, message string) error {
	v.op("commit")
	v.mu.Lock()
	v.Commits = append(v.Commits, message)
	v.mu.Unlock()
	return v.CommitErr
}

func (v *VCS) Push(_ context.Context, _, branch string) error {
	v.op("push:" + branch)
	return v.PushErr
}

// PRs is a port.PullRequestCreator that remembers what it was asked to open.
type PRs struct {
	URL string
	Err error

	mu     sync.Mutex
	Opened []domain.PullRequest
}

func (p *PRs) CreatePullRequest(_ context.Context, _ domain.RepositoryRef, pr domain.PullRequest) (string, error) {
	p.mu.Lock()
	p.Opened = append(p.Opened, pr)
	p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	return p.URL, nil
}

// Audit is an in-memory port.AuditStore that records the last query.
type Audit struct {
	Logs []domain.AuditLog
	Err  error

	Limit  int
	Action string
}

func (a *Audit) ListAuditLogs(_ context.Context, limit int, action string) ([]domain.AuditLog, error) {
	a.Limit, a.Action = limit, action
	if a.Err != nil {
		return nil, a.Err
	}
	out := []domain.AuditLog{}
	for _, l := range a.Logs {
		if action == "" || l.Action == action {
			out = append(out, l)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
