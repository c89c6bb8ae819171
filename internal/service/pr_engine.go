package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

const (
	stackAuthPackage = "@stackframe/stack"
	stackAuthVersion = "^2.5.0"
	changesFile      = "GHOST_COMMIT_CHANGES.md"
	prTitle          = "Ghost Commit: Repository Resurrection"
)

const stackConfigSource = `import { StackServerApp } from "@stackframe/stack";

export const stackServerApp = new StackServerApp({
  tokenStore: "nextjs-cookie",
  urls: {
    home: "/",
    signIn: "/signin",
    signUp: "/signup",
    afterSignIn: "/dashboard",
    afterSignUp: "/dashboard",
    afterSignOut: "/",
  },
});
`

const signInPage = `"use client";

import { useStackApp } from "@stackframe/stack";
import { useRouter } from "next/navigation";

export default function SignInPage() {
  const app = useStackApp();
  const router = useRouter();

  const handleSignIn = async (e: React.FormEvent<HTMLFormElement>) => {
    e.preventDefault();
    const form = new FormData(e.currentTarget);
    await app.signInWithCredential({
      email: form.get("email") as string,
      password: form.get("password") as string,
    });
    router.push("/dashboard");
  };

  return (
    <form onSubmit={handleSignIn}>
      <input name="email" type="email" placeholder="Email" required />
      <input name="password" type="password" placeholder="Password" required />
      <button type="submit">Sign In</button>
      <button type="button" onClick={() => app.signInWithOAuth("google")}>
        Sign in with Google
      </button>
    </form>
  );
}
`

const changesNotes = `# Ghost Commit Resurrection

## Changes

- Added the @stackframe/stack dependency
- Added stack.ts with the Stack Auth server app configuration
- Added a sign-in page at app/signin/page.tsx

## Setup

1. Run ` + "`npm install`" + `
2. Add Stack Auth credentials to .env.local:

       NEXT_PUBLIC_STACK_PROJECT_ID=your_project_id
       NEXT_PUBLIC_STACK_PUBLISHABLE_CLIENT_KEY=your_key

3. Run ` + "`npm run dev`" + `
`

const commitMessage = `Add Stack Auth integration (Ghost Commit)

- Add @stackframe/stack dependency
- Add stack.ts configuration
- Add sign-in page
- Document setup in GHOST_COMMIT_CHANGES.md
`

const prBody = `This PR adds Stack Auth to the project.

- ` + "`@stackframe/stack`" + ` dependency
- ` + "`stack.ts`" + ` server app configuration

See ` + "`GHOST_COMMIT_CHANGES.md`" + ` for setup instructions.
`

// PRResult describes an opened pull request.
type PRResult struct {
	URL    string `json:"prUrl"`
	Branch string `json:"branch"`
	Base   string `json:"base"`
}

// PREngineOptions configures the PR engine.
type PREngineOptions struct {
	Token      string
	WorkDir    string
	NPMInstall bool
	CloneBase  string // defaults to https://github.com
}

// PREngine clones a repository, applies the auth integration on a new branch,
// pushes it and opens a pull request.
type PREngine struct {
	vcs   port.VCSProvider
	scm   port.SourceControl
	prs   port.PullRequestCreator
	opts  PREngineOptions
	npm   func(ctx context.Context, dir string) error
	clock func() time.Time
}

// NewPREngine creates a PR engine.
func NewPREngine(vcs port.VCSProvider, scm port.SourceControl, prs port.PullRequestCreator, opts PREngineOptions) *PREngine {
	if opts.CloneBase == "" {
		opts.CloneBase = "https://github.com"
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &PREngine{vcs: vcs, scm: scm, prs: prs, opts: opts, npm: npmInstall, clock: time.Now}
}

// Run opens a resurrection pull request against the default branch. The
// working copy is removed on every path.
func (e *PREngine) Run(ctx context.Context, ref domain.RepositoryRef) (*PRResult, error) {
	if e.opts.Token == "" {
		return nil, fmt.Errorf("%w: GITHUB_TOKEN", port.ErrNotConfigured)
	}

	if err := os.MkdirAll(e.opts.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	tmp, err := os.MkdirTemp(e.opts.WorkDir, fmt.Sprintf("%s-%d-", ref.Name, e.clock().UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			slog.Warn("cleanup failed", "dir", tmp, "error", err)
		}
	}()
	dir := filepath.Join(tmp, ref.Name)

	slog.Info("pr engine started", "repo", ref.FullName(), "dir", dir)

	if err := e.vcs.Clone(ctx, e.cloneURL(ref), dir); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	if err := e.vcs.CreateBranch(ctx, dir, ResurrectionBranch); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}
	if err := applyStackAuth(dir); err != nil {
		return nil, fmt.Errorf("apply changes: %w", err)
	}
	if e.opts.NPMInstall {
		if err := e.npm(ctx, dir); err != nil {
			slog.Warn("npm install failed, continuing", "repo", ref.FullName(), "error", err)
		}
	}
	if err := e.vcs.CommitAll(ctx, dir, commitMessage); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if err := e.vcs.Push(ctx, dir, ResurrectionBranch); err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}

	base := "main"
	if info, err := e.scm.GetRepository(ctx, ref); err != nil {
		slog.Warn("default branch lookup failed, using main", "repo", ref.FullName(), "error", err)
	} else if info.DefaultBranch != "" {
		base = info.DefaultBranch
	}

	url, err := e.prs.CreatePullRequest(ctx, ref, domain.PullRequest{
		Title: prTitle,
		Body:  prBody,
		Head:  ResurrectionBranch,
		Base:  base,
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", err)
	}

	slog.Info("pull request opened", "repo", ref.FullName(), "url", url)
	return &PRResult{URL: url, Branch: ResurrectionBranch, Base: base}, nil
}

func (e *PREngine) cloneURL(ref domain.RepositoryRef) string {
	return fmt.Sprintf("%s/%s/%s.git", withToken(e.opts.CloneBase, e.opts.Token), ref.Owner, ref.Name)
}

// withToken embeds the token as userinfo of an http(s) base URL.
func withToken(base, token string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if rest, ok := strings.CutPrefix(base, scheme); ok {
			return scheme + "x-access-token:" + token + "@" + rest
		}
	}
	return base
}

// applyStackAuth adds the Stack Auth dependency and its config files. A
// missing package.json is left alone.
func applyStackAuth(dir string) error {
	manifestPath := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(manifestPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("no package.json, skipping dependency", "dir", dir)
	case err != nil:
		return fmt.Errorf("read package.json: %w", err)
	default:
		updated, err := addDependency(data, stackAuthPackage, stackAuthVersion)
		if err != nil {
			return err
		}
		if err := os.WriteFile(manifestPath, updated, 0o644); err != nil {
			return fmt.Errorf("write package.json: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "stack.ts"), []byte(stackConfigSource), 0o644); err != nil {
		return fmt.Errorf("write stack.ts: %w", err)
	}
	signInDir := filepath.Join(dir, "app", "signin")
	if err := os.MkdirAll(signInDir, 0o755); err != nil {
		return fmt.Errorf("create sign-in dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(signInDir, "page.tsx"), []byte(signInPage), 0o644); err != nil {
		return fmt.Errorf("write sign-in page: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, changesFile), []byte(changesNotes), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", changesFile, err)
	}
	return nil
}

// addDependency sets dependencies[name] = version, keeping every other field.
func addDependency(manifest []byte, name, version string) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(manifest, &doc); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	deps, _ := doc["dependencies"].(map[string]any)
	if deps == nil {
		deps = map[string]any{}
	}
	deps[name] = version
	doc["dependencies"] = deps

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode package.json: %w", err)
	}
	return append(out, '\n'), nil
}

func npmInstall(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, "npm", "install")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("npm install: %w: %s", err, lastLine(out))
	}
	return nil
}

func lastLine(out []byte) string {
	s := strings.TrimRight(string(out), "\r\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
