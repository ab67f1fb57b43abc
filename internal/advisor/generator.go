package advisor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"liria/internal/metrics"
	"liria/internal/models"
	"liria/internal/providers"
	"liria/internal/util"
)

// FallbackReply is served when every generation attempt errors. The
// conversational surface never hard-fails.
const FallbackReply = "I'm having trouble generating a response right now. Could you rephrase your request or try again in a moment?"

// LLMChain yields generation providers in the order they should be tried.
// *providers.Manager satisfies it.
type LLMChain interface {
	PreferredLLMOrder() []int
	LLMProviderByIndex(i int) (providers.LLMProvider, providers.ProviderRef)
}

// Generator produces replies grounded in a supplied candidate set and
// regenerates, up to a bounded number of attempts, when a reply appears to
// reference none of them.
type Generator struct {
	providers   LLMChain
	temperature float64
	maxTokens   int
	retryLimit  int
}

func NewGenerator(pm LLMChain, temperature float64, maxTokens, retryLimit int) *Generator {
	if retryLimit <= 0 {
		retryLimit = 3
	}
	return &Generator{
		providers:   pm,
		temperature: temperature,
		maxTokens:   maxTokens,
		retryLimit:  retryLimit,
	}
}

// Generate builds the grounded prompt and runs the bounded
// generate-and-verify loop. Retries are stateless: each attempt uses the
// same prompt, never the previous attempt's failure reason. After the last
// attempt the best available reply is served as-is (fail open). The error
// is non-nil only when every attempt failed outright; the returned reply is
// then the fixed apology, so callers may still serve it.
func (g *Generator) Generate(ctx context.Context, query string, candidates []models.Book, history []models.ConversationTurn) (string, error) {
	req := providers.GenerateRequest{
		Operation:   "chat_reply",
		System:      systemPrompt,
		Context:     CandidateBlock(candidates),
		History:     toMessages(history),
		Prompt:      query,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}

	lastReply := ""
	var lastErr error
	for attempt := 1; attempt <= g.retryLimit; attempt++ {
		text, err := g.generateOnce(ctx, req)
		if err != nil {
			lastErr = err
			metrics.GenerationAttempts.WithLabelValues("error").Inc()
			log.Printf("[advisor] attempt %d/%d failed: %v", attempt, g.retryLimit, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		reply := util.StripEmphasis(text)
		lastReply = reply
		if len(candidates) == 0 || Verify(reply, candidates) {
			metrics.GenerationAttempts.WithLabelValues("grounded").Inc()
			return reply, nil
		}
		metrics.GenerationAttempts.WithLabelValues("ungrounded").Inc()
		log.Printf("[advisor] attempt %d/%d mentioned no candidate, regenerating: %s", attempt, g.retryLimit, util.Snippet(reply, 120))
	}

	if lastReply == "" {
		metrics.GenerationFallbacks.Inc()
		if lastErr == nil {
			lastErr = fmt.Errorf("no reply generated")
		}
		return FallbackReply, lastErr
	}
	return lastReply, nil
}

// generateOnce walks the provider chain in preferred order until one returns
// a non-empty completion.
func (g *Generator) generateOnce(ctx context.Context, req providers.GenerateRequest) (string, error) {
	var lastErr error
	for _, idx := range g.providers.PreferredLLMOrder() {
		p, ref := g.providers.LLMProviderByIndex(idx)
		resp, _, err := p.Generate(ctx, req)
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp.Text, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("provider %s returned empty reply", ref.Name)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no generation providers configured")
	}
	return "", lastErr
}

// Verify is the pure grounding predicate: a reply passes when it names at
// least one candidate title or author, or reads as a clarifying question.
// Substring containment over natural language is heuristic on purpose; it
// bounds retries rather than proving non-hallucination.
func Verify(reply string, candidates []models.Book) bool {
	low := strings.ToLower(reply)
	for _, b := range candidates {
		title := strings.ToLower(strings.TrimSpace(b.Title))
		if title != "" && strings.Contains(low, title) {
			return true
		}
		author := strings.ToLower(strings.TrimSpace(b.Author))
		if author != "" && author != "unknown author" && strings.Contains(low, author) {
			return true
		}
	}
	return LooksLikeQuestion(reply)
}

// LooksLikeQuestion reports whether a reply is plausibly asking the reader
// something instead of recommending.
func LooksLikeQuestion(reply string) bool {
	if strings.Contains(reply, "?") {
		return true
	}
	low := strings.ToLower(reply)
	for _, marker := range []string{"what ", "which ", "could you", "would you", "do you", "tell me"} {
		if strings.Contains(low, marker) {
			return true
		}
	}
	return false
}

func toMessages(history []models.ConversationTurn) []providers.Message {
	if len(history) == 0 {
		return nil
	}
	out := make([]providers.Message, 0, len(history))
	for _, t := range history {
		role := "user"
		if t.Role == "assistant" {
			role = "assistant"
		}
		out = append(out, providers.Message{Role: role, Content: t.Content})
	}
	return out
}
