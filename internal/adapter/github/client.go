package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

const defaultBaseURL = "https://api.github.com"

// Options configures a Client.
type Options struct {
	BaseURL   string        // defaults to https://api.github.com
	Token     string        // empty = unauthenticated, rate limited
	CacheSize int           // LRU entries for GET responses; 0 disables caching
	CacheTTL  time.Duration // how long a cached GET response is served
	Timeout   time.Duration // per-request HTTP timeout
}

// Client implements port.SourceControl and port.PullRequestCreator against
// the GitHub REST API. Successful GET responses are kept in a small LRU so
// an analyze followed by a resurrect does not hit the API twice.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      *lru.Cache[string, cachedResponse]
	ttl        time.Duration
	now        func() time.Time
}

type cachedResponse struct {
	body    []byte
	fetched time.Time
}

// NewClient creates a GitHub API client.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		httpClient: &http.Client{Timeout: timeout},
		ttl:        opts.CacheTTL,
		now:        time.Now,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, cachedResponse](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create github cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// HasToken reports whether requests are authenticated.
func (c *Client) HasToken() bool {
	return c.token != ""
}

type repoResponse struct {
	FullName      string    `json:"full_name"`
	Description   *string   `json:"description"`
	Stars         int       `json:"stargazers_count"`
	Language      *string   `json:"language"`
	DefaultBranch string    `json:"default_branch"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoInfo, error) {
	var r repoResponse
	if err := c.get(ctx, repoPath(ref, ""), &r); err != nil {
		return nil, fmt.Errorf("get repository %s: %w", ref.FullName(), err)
	}

	info := &domain.RepoInfo{
		FullName:      r.FullName,
		Stars:         r.Stars,
		DefaultBranch: r.DefaultBranch,
	}
	if r.Description != nil {
		info.Description = *r.Description
	}
	if r.Language != nil {
		info.Language = *r.Language
	}
	if !r.UpdatedAt.IsZero() {
		updated := r.UpdatedAt
		info.UpdatedAt = &updated
	}
	return info, nil
}

type contentResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFile fetches and decodes a file from the default branch.
func (c *Client) GetFile(ctx context.Context, ref domain.RepositoryRef, path string) ([]byte, error) {
	var r contentResponse
	if err := c.get(ctx, repoPath(ref, "/contents/"+path), &r); err != nil {
		return nil, fmt.Errorf("get %s from %s: %w", path, ref.FullName(), err)
	}
	if r.Type != "file" {
		return nil, fmt.Errorf("get %s from %s: %w: not a file", path, ref.FullName(), port.ErrNotFound)
	}
	if r.Encoding != "base64" {
		return []byte(r.Content), nil
	}

	// GitHub wraps base64 content at 60 columns.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(r.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return decoded, nil
}

// ListRoot lists the top-level entries of the default branch.
func (c *Client) ListRoot(ctx context.Context, ref domain.RepositoryRef) ([]domain.FileEntry, error) {
	var items []contentResponse
	if err := c.get(ctx, repoPath(ref, "/contents/"), &items); err != nil {
		return nil, fmt.Errorf("list contents of %s: %w", ref.FullName(), err)
	}

	entries := make([]domain.FileEntry, len(items))
	for i, it := range items {
		entries[i] = domain.FileEntry{Name: it.Name, Type: it.Type, Path: it.Path}
	}
	return entries, nil
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// ListCommits returns up to limit commits from the default branch, newest first.
func (c *Client) ListCommits(ctx context.Context, ref domain.RepositoryRef, limit int) ([]domain.CommitInfo, error) {
	if limit <= 0 {
		limit = 1
	}
	var items []commitResponse
	path := repoPath(ref, fmt.Sprintf("/commits?per_page=%d", limit))
	if err := c.get(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("list commits of %s: %w", ref.FullName(), err)
	}

	commits := make([]domain.CommitInfo, len(items))
	for i, it := range items {
		commits[i] = domain.CommitInfo{
			SHA:     it.SHA,
			Author:  it.Commit.Author.Name,
			Message: it.Commit.Message,
			Date:    it.Commit.Author.Date,
		}
	}
	return commits, nil
}

// CreatePullRequest opens a pull request and returns its HTML URL.
func (c *Client) CreatePullRequest(ctx context.Context, ref domain.RepositoryRef, pr domain.PullRequest) (string, error) {
	if !c.HasToken() {
		return "", fmt.Errorf("create pull request: %w: GITHUB_TOKEN", port.ErrNotConfigured)
	}

	payload, err := json.Marshal(pr)
	if err != nil {
		return "", fmt.Errorf("marshal pull request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, repoPath(ref, "/pulls"), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create pull request on %s: %w", ref.FullName(), err)
	}

	var resp struct {
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode pull request: %w", err)
	}
	return resp.HTMLURL, nil
}

func repoPath(ref domain.RepositoryRef, suffix string) string {
	return "/repos/" + url.PathEscape(ref.Owner) + "/" + url.PathEscape(ref.Name) + suffix
}

// get performs a cached GET and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, path string, v any) error {
	body, ok := c.cached(path)
	if !ok {
		var err error
		body, err = c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if c.cache != nil {
			c.cache.Add(path, cachedResponse{body: body, fetched: c.now()})
		}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode response: %v", port.ErrUpstream, err)
	}
	return nil
}

func (c *Client) cached(path string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	entry, ok := c.cache.Get(path)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.fetched) > c.ttl {
		c.cache.Remove(path)
		return nil, false
	}
	return entry.body, true
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", port.ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", port.ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, port.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: GitHub API error (%d): %s", port.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "ghost-commit")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
