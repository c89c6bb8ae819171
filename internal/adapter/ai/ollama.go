package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/arturoeanton/ghost-commit/internal/port"
)

// OllamaEndpointConfig holds the configuration for an Ollama chat endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://ollama.com
	Model   string // e.g. qwen3
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// OllamaProvider implements port.TextGenerator using the Ollama REST API.
type OllamaProvider struct {
	chat       OllamaEndpointConfig
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama-backed text generator.
func NewOllamaProvider(chat OllamaEndpointConfig) *OllamaProvider {
	return &OllamaProvider{
		chat:       chat,
		httpClient: &http.Client{},
	}
}

// ModelName returns the chat model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.chat.Model
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

// Chat sends a system and user prompt and returns the complete response.
func (o *OllamaProvider) Chat(ctx context.Context, systemPrompt, userPrompt string, opts port.ChatOptions) (string, error) {
	payload := ollamaChatRequest{
		Model: o.chat.Model,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if opts.JSON {
		payload.Format = "json"
	}
	if opts.Temperature > 0 || opts.MaxTokens > 0 {
		payload.Options = map[string]any{}
		if opts.Temperature > 0 {
			payload.Options["temperature"] = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			payload.Options["num_predict"] = opts.MaxTokens
		}
	}

	body, err := o.post(ctx, "/api/chat", payload)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama chat decode: %w", err)
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("ollama chat: %w: empty response", port.ErrUpstream)
	}

	return resp.Message.Content, nil
}

// post is a helper for POST requests to the Ollama endpoint (with optional bearer token).
func (o *OllamaProvider) post(ctx context.Context, path string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.chat.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.chat.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.chat.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama API error (%d): %s", port.ErrUpstream, resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
