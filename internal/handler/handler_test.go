package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/ghost-commit/internal/adapter/store"
	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port/porttest"
	"github.com/arturoeanton/ghost-commit/internal/service"
	"github.com/arturoeanton/ghost-commit/pkg/config"
)

type testEnv struct {
	app      *fiber.App
	src      *porttest.Source
	sessions *store.MemorySessionStore
	reports  *porttest.Reports
}

func newTestEnv(t *testing.T, credentialed bool) *testEnv {
	t.Helper()
	updated := time.Now().Add(-400 * 24 * time.Hour)
	env := &testEnv{
		src: &porttest.Source{
			Repo: &domain.RepoInfo{FullName: "acme/old-app", DefaultBranch: "main", UpdatedAt: &updated},
			Files: map[string][]byte{
				"package.json": []byte(`{"name":"old-app","dependencies":{"react":"^16.0.0"}}`),
			},
			Root: []domain.FileEntry{},
		},
		sessions: store.NewMemorySessionStore(0),
		reports:  &porttest.Reports{},
	}
	h := config.DefaultHeuristics()

	analysis := service.NewAnalysisService(env.src, env.reports, h, time.Second)
	insight := service.NewInsightService(env.src, nil, h, credentialed, time.Second)
	planner := service.NewPlanGenerator(nil, time.Second)
	resurrection := service.NewResurrectionService(env.src, planner, env.sessions, credentialed, time.Second)
	sessions := service.NewSessionService(env.sessions)

	env.app = fiber.New()
	api := env.app.Group("/api")
	NewAnalysisHandler(analysis, insight).Register(api)
	NewResurrectHandler(resurrection).Register(api)
	NewStatusHandler(sessions).Register(api)
	NewReportsHandler(analysis).Register(api)
	NewHealthHandler(fiber.Map{"llm": false}).Register(api)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestAnalyze_OutdatedReact(t *testing.T) {
	env := newTestEnv(t, true)

	code, body := env.do(t, "POST", "/api/analyze", `{"repoUrl":"https://github.com/acme/old-app"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	repo := body["repository"].(map[string]any)
	assert.Nil(t, repo["isDead"])
	assert.Equal(t, "acme/old-app", repo["fullName"])

	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, "outdated-react", analysis["scenario"])

	var types []string
	for _, raw := range analysis["issues"].([]any) {
		issue := raw.(map[string]any)
		types = append(types, issue["type"].(string))
		if issue["type"] == "outdated-dependencies" {
			assert.Contains(t, issue["items"], "React (outdated)")
		}
	}
	assert.Contains(t, types, "outdated-dependencies")
	assert.Contains(t, types, "no-tests")
	assert.Contains(t, types, "no-docker")
	assert.Contains(t, types, "no-ci")

	pkg := analysis["packageJson"].(map[string]any)
	assert.Equal(t, []any{"react"}, pkg["dependencies"])
}

func TestAnalyze_BadRequests(t *testing.T) {
	env := newTestEnv(t, true)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing url", `{}`, "Repository URL is required"},
		{"invalid url", `{"repoUrl":"https://example.com/x"}`, "Invalid GitHub URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := env.do(t, "POST", "/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.src.RepoErr = io.ErrUnexpectedEOF

	code, body := env.do(t, "POST", "/api/analyze", `{"repoUrl":"https://github.com/acme/old-app"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to analyze repository", body["error"])
	assert.Contains(t, body["details"], "unexpected EOF")
}

func TestQuickAnalyze_DemoWithoutToken(t *testing.T) {
	env := newTestEnv(t, false)

	code, body := env.do(t, "POST", "/api/quick-analyze", `{"repoUrl":"https://github.com/acme/old-app"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["demo"])
	assert.Equal(t, "GitHub token not configured", body["error"])
}

func TestQuickAnalyze(t *testing.T) {
	env := newTestEnv(t, true)

	code, body := env.do(t, "POST", "/api/quick-analyze", `{"repoUrl":"https://github.com/acme/old-app"}`)
	require.Equal(t, http.StatusOK, code)
	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, "React", analysis["framework"])
	assert.Equal(t, true, analysis["hasPackageJson"])
	assert.Nil(t, analysis["aiInsights"])
	recs := body["recommendations"].(map[string]any)
	assert.Equal(t, "high", recs["priority"])
}

func TestResurrect(t *testing.T) {
	env := newTestEnv(t, true)

	code, body := env.do(t, "POST", "/api/resurrect", `{"repoUrl":"https://github.com/acme/old-app","scenario":"no-auth"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	steps := body["steps"].([]any)
	require.Len(t, steps, 5)
	ids := make([]string, len(steps))
	for i, s := range steps {
		step := s.(map[string]any)
		ids[i] = step["id"].(string)
		assert.Equal(t, "completed", step["status"])
	}
	assert.Equal(t, []string{"analyze", "plan", "transform", "auth", "deploy"}, ids)

	result := body["result"].(map[string]any)
	assert.Len(t, result["transformations"], 5)
	assert.Equal(t, "https://old-app-resurrected.vercel.app", result["deploymentUrl"])

	sessionID := body["sessionId"].(string)
	code, status := env.do(t, "GET", "/api/status?sessionId="+sessionID, "")
	require.Equal(t, http.StatusOK, code)
	session := status["session"].(map[string]any)
	assert.Equal(t, "completed", session["status"])
	assert.Len(t, session["steps"], 5)
}

func TestResurrect_Errors(t *testing.T) {
	env := newTestEnv(t, false)

	code, body := env.do(t, "POST", "/api/resurrect", `{"repoUrl":"https://github.com/acme/old-app"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "GitHub token not configured", body["error"])
	assert.Contains(t, body["details"], "GITHUB_TOKEN")

	env = newTestEnv(t, true)
	code, body = env.do(t, "POST", "/api/resurrect", `{"repoUrl":"ftp://nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid GitHub URL", body["error"])
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, true)

	code, body := env.do(t, "GET", "/api/status", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Session ID is required", body["error"])

	code, body = env.do(t, "GET", "/api/status?sessionId=nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Session not found", body["error"])

	code, body = env.do(t, "POST", "/api/status", `{"sessionId":"s1","step":{"id":"analyze","title":"Analyzing"},"status":"running","details":"working"}`)
	require.Equal(t, http.StatusOK, code)
	session := body["session"].(map[string]any)
	assert.Equal(t, "running", session["status"])
	step := session["steps"].([]any)[0].(map[string]any)
	assert.Equal(t, "working", step["details"])

	code, _ = env.do(t, "POST", "/api/status", `{"sessionId":"s1","step":{"id":"analyze"},"status":"completed"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = env.do(t, "POST", "/api/status", `{"sessionId":"s1","step":{"id":"analyze"},"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "cannot move")

	code, body = env.do(t, "POST", "/api/status", `{"status":"running"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Session ID is required", body["error"])
}

func TestStatusStream_FinishedSession(t *testing.T) {
	env := newTestEnv(t, true)
	_, err := env.sessions.Update(context.Background(), "done", func(s *domain.Session) error {
		if err := s.ApplyStep(domain.StepUpdate{ID: "analyze", Status: domain.StepCompleted}, time.Now()); err != nil {
			return err
		}
		s.Status = domain.StepCompleted
		return nil
	})
	require.NoError(t, err)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/status/stream?sessionId=done", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	assert.Equal(t, "event: complete", sc.Text())
	require.True(t, sc.Scan())
	assert.True(t, strings.HasPrefix(sc.Text(), `data: {"id":"done"`))
}

func TestReportsAndHealth(t *testing.T) {
	env := newTestEnv(t, true)
	_, _ = env.do(t, "POST", "/api/analyze", `{"repoUrl":"https://github.com/acme/old-app"}`)

	code, body := env.do(t, "GET", "/api/reports?repo=acme/old-app", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = env.do(t, "GET", "/api/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["llm"])
}

func TestAuditLogs(t *testing.T) {
	audit := &porttest.Audit{Logs: []domain.AuditLog{
		{ID: "1", Action: domain.AuditActionResurrect, ResourceID: "/api/resurrect"},
		{ID: "2", Action: domain.AuditActionAnalyze, ResourceID: "/api/analyze"},
		{ID: "3", Action: domain.AuditActionAnalyze, ResourceID: "/api/quick-analyze"},
	}}
	env := &testEnv{app: fiber.New()}
	NewAuditHandler(audit).Register(env.app.Group("/api"))

	code, body := env.do(t, "GET", "/api/audit/logs", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, map[string]any{"analyze": float64(2), "resurrect": float64(1)}, body["byAction"])
	assert.Equal(t, 50, audit.Limit)

	code, body = env.do(t, "GET", "/api/audit/logs?action=analyze&limit=9000", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, "analyze", audit.Action)
	assert.Equal(t, 500, audit.Limit)

	code, body = env.do(t, "GET", "/api/audit/logs?action=login", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Unknown audit action: login", body["error"])

	code, _ = env.do(t, "GET", "/api/audit/logs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, "GET", "/api/audit/actions", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body["actions"], "open_pr")
}
