package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// geminiFallbackModels is the ordered chain tried after the configured model.
// Gemma variants come first since their quota pools differ from Gemini's.
var geminiFallbackModels = []string{
	"gemma-3-27b-it",
	"gemma-3-12b-it",
	"gemini-2.5-flash",
	"gemini-flash-latest",
	"gemini-2.5-pro",
	"gemini-pro-latest",
}

// GeminiProvider talks to the Google Generative Language API.
type GeminiProvider struct {
	keyName    string
	apiKey     string
	baseURL    string
	model      string
	embedModel string
	client     *http.Client
}

func NewGeminiProvider(keyName string) *GeminiProvider {
	return &GeminiProvider{
		keyName:    keyName,
		apiKey:     resolveGeminiKey(keyName),
		baseURL:    strings.TrimRight(envOr("LIRIA_GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/"),
		model:      envOr("LIRIA_GEMINI_MODEL", "gemma-3-27b-it"),
		embedModel: envOr("LIRIA_GEMINI_EMBED_MODEL", "embedding-001"),
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GeminiProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.embedModel, Key: g.keyName}
	if g.apiKey == "" {
		return nil, info, fmt.Errorf("gemini key missing for alias %q", g.keyName)
	}
	// The embedContent endpoint takes one content per call, so a batch is a
	// sequential loop over the inputs.
	endpoint := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, g.embedModel, url.QueryEscape(g.apiKey))
	out := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		payload, _ := json.Marshal(map[string]any{
			"content": map[string]any{"parts": []map[string]string{{"text": input}}},
		})
		httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		httpReq.Header.Set("Content-Type", "application/json")
		resp, err := g.client.Do(httpReq)
		if err != nil {
			return nil, info, fmt.Errorf("gemini embedding request failed: %w", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, info, fmt.Errorf("gemini embedding error %d: %s", resp.StatusCode, string(body))
		}
		var parsed struct {
			Embedding struct {
				Values []float32 `json:"values"`
				Value  []float32 `json:"value"`
			} `json:"embedding"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, info, fmt.Errorf("decode gemini embedding: %w", err)
		}
		vec := parsed.Embedding.Values
		if len(vec) == 0 {
			vec = parsed.Embedding.Value
		}
		if len(vec) == 0 {
			return nil, info, fmt.Errorf("gemini returned no embedding values")
		}
		out = append(out, vec)
	}
	return out, info, nil
}

// Generate tries the configured model first, then the fallback chain. Models
// that report quota exhaustion go into an exclusion set, together with their
// closest sibling, so the chain does not burn attempts on the same pool.
func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyName}
	if g.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("gemini key missing for alias %q", g.keyName)
	}

	prompt := flattenPrompt(req)
	modelsToTry := make([]string, 0, 1+len(geminiFallbackModels))
	if g.model != "" {
		modelsToTry = append(modelsToTry, g.model)
	}
	modelsToTry = append(modelsToTry, geminiFallbackModels...)

	exhausted := map[string]bool{}
	var lastErr error
	for _, model := range modelsToTry {
		if exhausted[model] {
			continue
		}
		text, err := g.generateOnce(ctx, model, prompt, req.Temperature, req.MaxTokens)
		if err == nil && strings.TrimSpace(text) != "" {
			info.Model = model
			return GenerateResponse{Text: strings.TrimSpace(text)}, info, nil
		}
		if err == nil {
			err = fmt.Errorf("gemini model %s returned empty response", model)
		}
		lastErr = err
		if ClassifyError(err) == ErrorQuota {
			exhausted[model] = true
			// Pro variants share a quota pool.
			if strings.Contains(model, "2.5-pro") {
				exhausted["gemini-pro-latest"] = true
			} else if strings.Contains(model, "pro-latest") {
				exhausted["gemini-2.5-pro"] = true
			}
		}
		if ctx.Err() != nil {
			return GenerateResponse{}, info, ctx.Err()
		}
	}
	return GenerateResponse{}, info, fmt.Errorf("all gemini models failed: %w", lastErr)
}

func (g *GeminiProvider) generateOnce(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, url.QueryEscape(g.apiKey))
	genCfg := map[string]any{}
	if temperature > 0 {
		genCfg["temperature"] = temperature
	}
	if maxTokens > 0 {
		genCfg["maxOutputTokens"] = maxTokens
	}
	payload, _ := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": genCfg,
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("gemini generate error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Candidates []struct {
			FinishReason string `json:"finishReason"`
			Content      struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	cand := parsed.Candidates[0]
	if cand.FinishReason == "SAFETY" {
		return "", fmt.Errorf("gemini model %s blocked by safety filter", model)
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// flattenPrompt folds the structured request into the single text prompt the
// generateContent endpoint takes: persona, candidate block, replayed turns,
// then the current query.
func flattenPrompt(req GenerateRequest) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	if req.Context != "" {
		b.WriteString(req.Context)
		b.WriteString("\n\n")
	}
	if len(req.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range req.History {
			if m.Role == "assistant" {
				b.WriteString("Advisor: ")
			} else {
				b.WriteString("Reader: ")
			}
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("User query: ")
	b.WriteString(req.Prompt)
	return b.String()
}

func resolveGeminiKey(alias string) string {
	if alias != "" {
		if k := os.Getenv("LIRIA_GEMINI_KEY_" + strings.ToUpper(alias)); k != "" {
			return k
		}
	}
	return os.Getenv("GEMINI_API_KEY")
}
