package recommend

import (
	"context"
	"log"
	"math"
	"sort"

	"liria/internal/metrics"
	"liria/internal/models"
	"liria/internal/providers"
)

// EmbedChain yields embedding providers in the order they should be tried.
// *providers.Manager satisfies it.
type EmbedChain interface {
	PreferredEmbedOrder() []int
	EmbedProviderByIndex(i int) (providers.EmbeddingProvider, providers.ProviderRef)
}

// Ranker re-orders candidate books by semantic similarity between the query
// and each description. Ranking is an enhancement: any embedding failure
// degrades to the input order with no scores attached.
type Ranker struct {
	providers EmbedChain
	dim       int
}

func NewRanker(pm EmbedChain, dim int) *Ranker {
	return &Ranker{providers: pm, dim: dim}
}

func (r *Ranker) Rank(ctx context.Context, query string, books []models.Book) []models.Book {
	if len(books) == 0 {
		return books
	}

	queryVec, ok := r.embed(ctx, "rank_query_embed", []string{query})
	if !ok || len(queryVec) == 0 {
		metrics.RankingDegraded.Inc()
		return books
	}

	descriptions := make([]string, 0, len(books))
	for _, b := range books {
		descriptions = append(descriptions, b.Description)
	}
	bookVecs, ok := r.embed(ctx, "rank_book_embed", descriptions)
	if !ok {
		metrics.RankingDegraded.Inc()
		return books
	}

	ranked := make([]models.Book, len(books))
	copy(ranked, books)
	for i := range ranked {
		score := 0.0
		if i < len(bookVecs) {
			score = CosineSimilarity(queryVec[0], bookVecs[i])
		}
		s := score
		ranked[i].SimilarityScore = &s
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].SimilarityScore > *ranked[j].SimilarityScore
	})
	return ranked
}

// embed tries every embedding provider in preferred order and reports
// failure instead of returning an error: callers degrade, they do not fail.
func (r *Ranker) embed(ctx context.Context, operation string, inputs []string) ([][]float32, bool) {
	var lastErr error
	for _, idx := range r.providers.PreferredEmbedOrder() {
		p, ref := r.providers.EmbedProviderByIndex(idx)
		vecs, _, err := p.Embed(ctx, providers.EmbedRequest{
			Operation: operation,
			Inputs:    inputs,
			Dimension: r.dim,
		})
		if err == nil && len(vecs) > 0 {
			return vecs, true
		}
		lastErr = err
		log.Printf("[recommend] embed provider %s failed: %v", ref.Name, err)
		if ctx.Err() != nil {
			return nil, false
		}
	}
	if lastErr != nil {
		log.Printf("[recommend] all embedding providers failed, serving unranked: %v", lastErr)
	}
	return nil, false
}

// CosineSimilarity returns dot(a,b) / (||a||*||b||), or 0 when either vector
// has zero norm or the dimensions disagree.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}
