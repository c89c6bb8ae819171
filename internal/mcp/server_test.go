package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/ghost-commit/internal/adapter/store"
	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port/porttest"
	"github.com/arturoeanton/ghost-commit/internal/service"
	"github.com/arturoeanton/ghost-commit/pkg/config"
)

type auditSink struct{ entries []domain.AuditLog }

func (a *auditSink) WriteAudit(_ context.Context, e domain.AuditLog) error {
	a.entries = append(a.entries, e)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *auditSink) {
	t.Helper()
	src := &porttest.Source{Files: map[string][]byte{
		"package.json": []byte(`{"dependencies":{"next":"^12.3.0"}}`),
	}}
	sessions := store.NewMemorySessionStore(0)
	h := config.DefaultHeuristics()
	sink := &auditSink{}

	srv := NewServer(
		service.NewAnalysisService(src, nil, h, time.Second),
		service.NewResurrectionService(src, service.NewPlanGenerator(nil, time.Second), sessions, true, time.Second),
		service.NewSessionService(sessions),
		sink,
		"0",
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, sink
}

func call(t *testing.T, url, method string, params any) JSONRPCResponse {
	t.Helper()
	body, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	resp, err := http.Post(url+"/mcp", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// toolText extracts the text block of a tools/call result.
func toolText(t *testing.T, resp JSONRPCResponse) string {
	t.Helper()
	require.Nil(t, resp.Error)
	content := resp.Result.(map[string]any)["content"].([]any)
	require.Len(t, content, 1)
	return content[0].(map[string]any)["text"].(string)
}

func TestServer_ToolsList(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := call(t, ts.URL, "tools/list", nil)
	require.Nil(t, resp.Error)
	var names []string
	for _, tool := range resp.Result.(map[string]any)["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"analyze_repository", "resurrect_repository", "get_session"}, names)
}

func TestServer_AnalyzeAndResurrect(t *testing.T) {
	ts, sink := newTestServer(t)

	text := toolText(t, call(t, ts.URL, "tools/call", map[string]any{
		"name":      "analyze_repository",
		"arguments": map[string]any{"repo_url": "https://github.com/acme/site"},
	}))
	var a domain.Analysis
	require.NoError(t, json.Unmarshal([]byte(text), &a))
	assert.Equal(t, domain.ScenarioNextMigration, a.Analysis.Scenario)

	text = toolText(t, call(t, ts.URL, "tools/call", map[string]any{
		"name":      "resurrect_repository",
		"arguments": map[string]any{"repo_url": "https://github.com/acme/site", "scenario": "nextjs-migration"},
	}))
	var res service.ResurrectionResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.NotEmpty(t, res.SessionID)

	text = toolText(t, call(t, ts.URL, "tools/call", map[string]any{
		"name":      "get_session",
		"arguments": map[string]any{"session_id": res.SessionID},
	}))
	var sess domain.Session
	require.NoError(t, json.Unmarshal([]byte(text), &sess))
	assert.Len(t, sess.Steps, 5)

	require.Len(t, sink.entries, 3)
	assert.Equal(t, domain.AuditActionMCPCall, sink.entries[0].Action)
	assert.Equal(t, "analyze_repository", sink.entries[0].ResourceID)
}

func TestServer_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := call(t, ts.URL, "tools/call", map[string]any{"name": "drop_tables"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32603, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unknown tool")

	resp = call(t, ts.URL, "tools/call", map[string]any{
		"name":      "get_session",
		"arguments": map[string]any{"session_id": "missing"},
	})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "session not found")

	resp = call(t, ts.URL, "resources/list", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}
