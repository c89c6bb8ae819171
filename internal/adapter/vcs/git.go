package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitProvider implements port.VCSProvider using the git CLI.
type GitProvider struct {
	authorName  string
	authorEmail string
}

// NewGitProvider creates a new Git VCS provider that commits as the given author.
func NewGitProvider(authorName, authorEmail string) *GitProvider {
	return &GitProvider{authorName: authorName, authorEmail: authorEmail}
}

// Clone makes a shallow clone of url into dest.
func (g *GitProvider) Clone(ctx context.Context, url string, dest string) error {
	if _, err := g.run(ctx, "", "clone", "--depth", "1", url, dest); err != nil {
		return fmt.Errorf("git clone %s: %w", redactURL(url), err)
	}
	return nil
}

// CreateBranch creates and checks out branch.
func (g *GitProvider) CreateBranch(ctx context.Context, repoPath, branch string) error {
	if _, err := g.run(ctx, repoPath, "checkout", "-b", branch); err != nil {
		return fmt.Errorf("git checkout -b %s: %w", branch, err)
	}
	return nil
}

// CommitAll stages every change and commits it.
func (g *GitProvider) CommitAll(ctx context.Context, repoPath, message string) error {
	if _, err := g.run(ctx, repoPath, "add", "-A"); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	args := []string{
		"-c", "user.name=" + g.authorName,
		"-c", "user.email=" + g.authorEmail,
		"commit", "-m", message,
	}
	if _, err := g.run(ctx, repoPath, args...); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

// Push pushes branch to origin and sets upstream tracking.
func (g *GitProvider) Push(ctx context.Context, repoPath, branch string) error {
	if _, err := g.run(ctx, repoPath, "push", "--set-upstream", "origin", branch); err != nil {
		return fmt.Errorf("git push %s: %w", branch, err)
	}
	return nil
}

// run executes git with args, in dir when set. Combined output is attached to
// the error with credentials stripped.
func (g *GitProvider) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, redactURL(strings.TrimSpace(out.String())))
	}
	return out.String(), nil
}

// redactURL hides the userinfo part of any https URL in s.
func redactURL(s string) string {
	const scheme = "https://"
	var b strings.Builder
	for {
		i := strings.Index(s, scheme)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i+len(scheme)])
		rest := s[i+len(scheme):]
		end := strings.IndexAny(rest, "/ \n")
		if end < 0 {
			end = len(rest)
		}
		if at := strings.LastIndex(rest[:end], "@"); at >= 0 {
			b.WriteString("***@")
			rest = rest[at+1:]
		}
		s = rest
	}
}
