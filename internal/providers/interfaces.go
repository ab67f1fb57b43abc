package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// GenerateRequest carries everything a chat backend needs for one completion:
// the persona instructions, the grounded candidate block, prior turns and the
// current user message, plus sampling bounds.
type GenerateRequest struct {
	Operation   string    `json:"operation"`
	System      string    `json:"system"`
	Context     string    `json:"context"`
	History     []Message `json:"history"`
	Prompt      string    `json:"prompt"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type EmbedRequest struct {
	Operation string   `json:"operation"`
	Inputs    []string `json:"inputs"`
	Dimension int      `json:"dimension"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}

type EmbeddingProvider interface {
	Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error)
}
