package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/service"
)

// AuditWriter persists tool calls. It may be nil.
type AuditWriter interface {
	WriteAudit(ctx context.Context, entry domain.AuditLog) error
}

// Server implements the Model Context Protocol (MCP) server.
// It exposes repository analysis and resurrection as tools for AI agents.
type Server struct {
	analysis     *service.AnalysisService
	resurrection *service.ResurrectionService
	sessions     *service.SessionService
	audit        AuditWriter
	port         string
}

// NewServer creates a new MCP server.
func NewServer(analysis *service.AnalysisService, resurrection *service.ResurrectionService, sessions *service.SessionService, audit AuditWriter, port string) *Server {
	return &Server{
		analysis:     analysis,
		resurrection: resurrection,
		sessions:     sessions,
		audit:        audit,
		port:         port,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler returns the HTTP handler serving /mcp and /mcp/sse.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)
	return mux
}

// Start serves MCP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("MCP server starting", "port", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result any
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "ghost-commit",
				"version": "1.0.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	<-r.Context().Done()
}

func (s *Server) listTools() map[string]any {
	tools := []Tool{
		{
			Name:        "analyze_repository",
			Description: "Classify a GitHub repository: scenario, issues and staleness",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"repo_url": {"type": "string", "description": "GitHub repository URL"}
				},
				"required": ["repo_url"]
			}`),
		},
		{
			Name:        "resurrect_repository",
			Description: "Run the simulated five-stage resurrection and return its steps",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"repo_url": {"type": "string", "description": "GitHub repository URL"},
					"scenario": {"type": "string", "description": "outdated-react, nextjs-migration, add-typescript, no-auth or default"}
				},
				"required": ["repo_url"]
			}`),
		},
		{
			Name:        "get_session",
			Description: "Fetch the progress record of a resurrection session",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"session_id": {"type": "string", "description": "Session ID returned by resurrect_repository"}
				},
				"required": ["session_id"]
			}`),
		},
	}
	return map[string]any{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	var args struct {
		RepoURL   string `json:"repo_url"`
		Scenario  string `json:"scenario"`
		SessionID string `json:"session_id"`
	}
	if len(req.Arguments) > 0 {
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	s.record(ctx, req.Name, args.RepoURL+args.SessionID)

	var (
		out any
		err error
	)
	switch req.Name {
	case "analyze_repository":
		out, err = s.analysis.Analyze(ctx, args.RepoURL)
	case "resurrect_repository":
		out, err = s.resurrection.Resurrect(ctx, service.ResurrectRequest{RepoURL: args.RepoURL, Scenario: args.Scenario})
	case "get_session":
		out, err = s.sessions.Get(ctx, args.SessionID)
	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
	if err != nil {
		return nil, err
	}
	return textContent(out)
}

// textContent wraps a value as a single JSON text block.
func textContent(v any) (any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(data)},
		},
	}, nil
}

func (s *Server) record(ctx context.Context, tool, target string) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditLog{
		Action:     domain.AuditActionMCPCall,
		Resource:   "mcp",
		ResourceID: tool,
		Details:    fmt.Sprintf(`{"target":%q}`, target),
	}
	if err := s.audit.WriteAudit(context.WithoutCancel(ctx), entry); err != nil {
		slog.Error("failed to write audit log", "tool", tool, "error", err)
	}
}

func writeResult(w http.ResponseWriter, id any, result any) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
