package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/arturoeanton/ghost-commit/internal/port"
)

// GeminiProvider implements port.TextGenerator using the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed text generator.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w: GEMINI_API_KEY", port.ErrNotConfigured)
	}
	return newGeminiProvider(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newGeminiProvider(ctx context.Context, cfg *genai.ClientConfig, model string) (*GeminiProvider, error) {
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiProvider{client: cli, model: model}, nil
}

// ModelName returns the Gemini model identifier.
func (g *GeminiProvider) ModelName() string {
	return g.model
}

// Chat sends a system and user prompt and returns the concatenated text parts
// of the first candidate.
func (g *GeminiProvider) Chat(ctx context.Context, systemPrompt, userPrompt string, opts port.ChatOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if opts.Temperature > 0 {
		temp := opts.Temperature
		cfg.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: userPrompt}}}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %v", port.ErrUpstream, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini generate: %w: empty response", port.ErrUpstream)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini generate: %w: empty response", port.ErrUpstream)
	}
	return sb.String(), nil
}
