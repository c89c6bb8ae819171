package port

import "context"

// ChatOptions tunes a single completion request.
type ChatOptions struct {
	JSON        bool    // ask the model for a JSON object
	Temperature float32 // zero leaves the provider default
	MaxTokens   int     // zero leaves the provider default
}

// TextGenerator abstracts the LLM backend used to draft plans and summaries.
// Implementations can target Ollama, Gemini, or any compatible API.
type TextGenerator interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Chat sends a system and user prompt and returns the complete response.
	Chat(ctx context.Context, systemPrompt, userPrompt string, opts ChatOptions) (string, error)
}
