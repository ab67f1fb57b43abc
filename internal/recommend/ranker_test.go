package recommend

import (
	"context"
	"fmt"
	"testing"

	"liria/internal/models"
	"liria/internal/providers"

	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	v := []float32{0.3, -0.7, 0.2, 0.9}
	require.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)

	zero := []float32{0, 0, 0, 0}
	require.Equal(t, 0.0, CosineSimilarity(v, zero))
	require.Equal(t, 0.0, CosineSimilarity(zero, zero))
	require.Equal(t, 0.0, CosineSimilarity(v, []float32{1, 2}), "dimension mismatch")

	require.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

// scriptedEmbedder answers with canned vectors: one for the single-input
// query call, a full set for the batch call.
type scriptedEmbedder struct {
	queryVec []float32
	bookVecs [][]float32
	err      error
}

func (s *scriptedEmbedder) Embed(ctx context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	if s.err != nil {
		return nil, providers.ProviderInfo{Name: "scripted"}, s.err
	}
	if len(req.Inputs) == 1 {
		return [][]float32{s.queryVec}, providers.ProviderInfo{Name: "scripted"}, nil
	}
	return s.bookVecs, providers.ProviderInfo{Name: "scripted"}, nil
}

type singleEmbedChain struct {
	p providers.EmbeddingProvider
}

func (c *singleEmbedChain) PreferredEmbedOrder() []int { return []int{0} }

func (c *singleEmbedChain) EmbedProviderByIndex(int) (providers.EmbeddingProvider, providers.ProviderRef) {
	return c.p, providers.ProviderRef{Raw: "scripted", Name: "scripted"}
}

func rankBooks(n int) []models.Book {
	out := make([]models.Book, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Book{
			ID:          fmt.Sprintf("test:%d", i),
			Title:       fmt.Sprintf("Book %d", i),
			Author:      "An Author",
			Description: fmt.Sprintf("description %d", i),
		})
	}
	return out
}

func TestRankSortsBySimilarityDescending(t *testing.T) {
	embedder := &scriptedEmbedder{
		queryVec: []float32{1, 0},
		bookVecs: [][]float32{
			{0, 1},          // orthogonal: 0
			{1, 0},          // identical: 1
			{0.7071, 0.7071}, // ~0.7071
		},
	}
	r := NewRanker(&singleEmbedChain{p: embedder}, 2)

	out := r.Rank(context.Background(), "query", rankBooks(3))
	require.Equal(t, "test:1", out[0].ID)
	require.Equal(t, "test:2", out[1].ID)
	require.Equal(t, "test:0", out[2].ID)
	for _, b := range out {
		require.NotNil(t, b.SimilarityScore)
	}
	require.InDelta(t, 1.0, *out[0].SimilarityScore, 1e-6)
}

func TestRankIsStableOnTies(t *testing.T) {
	same := []float32{1, 0}
	embedder := &scriptedEmbedder{
		queryVec: []float32{1, 0},
		bookVecs: [][]float32{same, same, same, same},
	}
	r := NewRanker(&singleEmbedChain{p: embedder}, 2)

	out := r.Rank(context.Background(), "query", rankBooks(4))
	for i, b := range out {
		require.Equal(t, fmt.Sprintf("test:%d", i), b.ID, "equal scores preserve input order")
	}
}

func TestRankDegradesOnEmbeddingFailure(t *testing.T) {
	embedder := &scriptedEmbedder{err: fmt.Errorf("quota exceeded")}
	r := NewRanker(&singleEmbedChain{p: embedder}, 2)

	in := rankBooks(3)
	out := r.Rank(context.Background(), "query", in)
	require.Equal(t, in, out, "input order and content unchanged")
	for _, b := range out {
		require.Nil(t, b.SimilarityScore, "no score attached when ranking degrades")
	}
}

func TestRankEmptyInput(t *testing.T) {
	r := NewRanker(&singleEmbedChain{p: &scriptedEmbedder{}}, 2)
	require.Empty(t, r.Rank(context.Background(), "query", nil))
}

func TestRankMissingBookVectorScoresZero(t *testing.T) {
	embedder := &scriptedEmbedder{
		queryVec: []float32{1, 0},
		bookVecs: [][]float32{{1, 0}}, // fewer vectors than books
	}
	r := NewRanker(&singleEmbedChain{p: embedder}, 2)

	out := r.Rank(context.Background(), "query", rankBooks(2))
	require.Equal(t, "test:0", out[0].ID)
	require.NotNil(t, out[1].SimilarityScore)
	require.Equal(t, 0.0, *out[1].SimilarityScore)
}
