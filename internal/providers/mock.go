package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 1536
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

// Generate answers deterministically: with candidates in the context block it
// names the first one, without candidates it asks a clarifying question.
func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	first := firstListedCandidate(req.Context)
	if first == "" {
		return GenerateResponse{Text: "What kind of stories have you enjoyed lately, and are you in the mood for something light or demanding?"}, info, nil
	}
	text := fmt.Sprintf("You might start with %s. It matches what you described. Would you prefer something shorter or more ambitious next?", first)
	return GenerateResponse{Text: text}, info, nil
}

// firstListedCandidate pulls the "<title> by <author>" part of the first
// numbered line of a candidate block, if any.
func firstListedCandidate(contextBlock string) string {
	for _, line := range strings.Split(contextBlock, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "1. ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "1. "))
		}
	}
	return ""
}

// deterministicVector derives a unit vector from the input text alone, so the
// same text always embeds identically across runs and processes.
func deterministicVector(input string, dim int) []float32 {
	if input == "" {
		input = "empty"
	}
	vec := make([]float32, dim)
	digest := sha256.Sum256([]byte(input))
	for i := 0; i < dim; i++ {
		if i%8 == 0 && i > 0 {
			digest = sha256.Sum256(digest[:])
		}
		u := binary.BigEndian.Uint32(digest[(i%8)*4 : (i%8)*4+4])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return unitNorm(vec)
}

func unitNorm(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
