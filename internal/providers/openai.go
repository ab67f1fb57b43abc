package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAIProvider speaks the OpenAI REST surface. The base URL is configurable
// so the same provider also serves any OpenAI-compatible endpoint, such as
// Mistral's chat API.
type OpenAIProvider struct {
	keyName    string
	apiKey     string
	baseURL    string
	chatModel  string
	embedModel string
	client     *http.Client
}

func NewOpenAIProvider(keyName string) *OpenAIProvider {
	baseURL := strings.TrimRight(envOr("LIRIA_OPENAI_BASE_URL", "https://api.openai.com/v1"), "/")
	return &OpenAIProvider{
		keyName:    keyName,
		apiKey:     resolveOpenAIKey(keyName),
		baseURL:    baseURL,
		chatModel:  envOr("LIRIA_OPENAI_MODEL", "gpt-4o-mini"),
		embedModel: envOr("LIRIA_OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *OpenAIProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "openai", Model: o.embedModel, Key: o.keyName}
	if o.apiKey == "" {
		return nil, info, fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	payload, _ := json.Marshal(map[string]any{"model": o.embedModel, "input": req.Inputs})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/embeddings", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, info, fmt.Errorf("openai embedding request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, info, fmt.Errorf("openai embedding error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, info, fmt.Errorf("decode embedding response: %w", err)
	}
	out := make([][]float32, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		out = append(out, d.Embedding)
	}
	return out, info, nil
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "openai", Model: o.chatModel, Key: o.keyName}
	if o.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	messages := make([]map[string]string, 0, len(req.History)+3)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	if req.Context != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.Context})
	}
	for _, m := range req.History {
		role := m.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, map[string]string{"role": role, "content": m.Content})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":    o.chatModel,
		"messages": messages,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	payload, _ := json.Marshal(body)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("openai generate request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, info, fmt.Errorf("openai generate error %d: %s", resp.StatusCode, string(respBody))
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("decode generate response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("openai returned empty choices")
	}
	return GenerateResponse{Text: strings.TrimSpace(parsed.Choices[0].Message.Content)}, info, nil
}

func resolveOpenAIKey(alias string) string {
	if alias != "" {
		if k := os.Getenv("LIRIA_OPENAI_KEY_" + strings.ToUpper(alias)); k != "" {
			return k
		}
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("LLM_API_KEY")
}

func envOr(k, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return fallback
}
