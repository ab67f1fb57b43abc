package providers

import (
	"testing"

	"liria/internal/config"
)

func TestManagerPrefersRealProvidersOverMock(t *testing.T) {
	m, err := NewManager(config.Config{
		LLMProviders:   "mock|gemini:primary",
		EmbedProviders: "mock|openai",
		EmbedDim:       8,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	llmOrder := m.PreferredLLMOrder()
	if len(llmOrder) != 2 || llmOrder[0] != 1 || llmOrder[1] != 0 {
		t.Fatalf("expected gemini before mock, got %v", llmOrder)
	}
	_, ref := m.LLMProviderByIndex(llmOrder[0])
	if ref.Name != "gemini" || ref.KeyAlias != "primary" {
		t.Fatalf("unexpected first provider: %+v", ref)
	}
	embedOrder := m.PreferredEmbedOrder()
	if len(embedOrder) != 2 || embedOrder[0] != 1 {
		t.Fatalf("expected openai before mock, got %v", embedOrder)
	}
}

func TestManagerEmptyListsFallBackToMock(t *testing.T) {
	m, err := NewManager(config.Config{EmbedDim: 8})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if m.LLMCount() != 1 || m.EmbedCount() != 1 {
		t.Fatalf("expected single mock provider each, got %d/%d", m.LLMCount(), m.EmbedCount())
	}
	_, ref := m.LLMProviderByIndex(0)
	if ref.Name != "mock" {
		t.Fatalf("expected mock fallback, got %s", ref.Name)
	}
}

func TestManagerRejectsUnknownProvider(t *testing.T) {
	if _, err := NewManager(config.Config{LLMProviders: "watson"}); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
}

func TestProviderIndexOutOfRangeClamps(t *testing.T) {
	m, err := NewManager(config.Config{LLMProviders: "mock", EmbedProviders: "mock", EmbedDim: 8})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	p, _ := m.LLMProviderByIndex(99)
	if p == nil {
		t.Fatalf("expected clamped provider")
	}
	e, _ := m.EmbedProviderByIndex(-1)
	if e == nil {
		t.Fatalf("expected clamped provider")
	}
}
