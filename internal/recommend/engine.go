package recommend

import (
	"context"

	"liria/internal/advisor"
	"liria/internal/catalog"
	"liria/internal/models"
)

// Engine ties the pipeline stages together: catalog fan-out, curation,
// structural filtering, semantic ranking and grounded generation. It holds
// no state across requests; every call fetches fresh.
type Engine struct {
	catalog   *catalog.Client
	ranker    *Ranker
	advisor   *advisor.Generator
	minFields int
}

func NewEngine(c *catalog.Client, r *Ranker, g *advisor.Generator, minFields int) *Engine {
	if minFields <= 0 {
		minFields = 3
	}
	return &Engine{catalog: c, ranker: r, advisor: g, minFields: minFields}
}

// Search is plain keyword search: fetch, curate, cap. No ranking, no
// generation.
func (e *Engine) Search(ctx context.Context, query string, limit int) []models.Book {
	books := e.catalog.FetchMerged(ctx, query, 2*limit)
	if len(books) > limit {
		books = books[:limit]
	}
	return books
}

// Recommend fetches a wider candidate pool and re-orders it by semantic
// similarity to the query before capping.
func (e *Engine) Recommend(ctx context.Context, query string, limit int) []models.Book {
	books := e.catalog.FetchMerged(ctx, query, 3*limit)
	if len(books) == 0 {
		return nil
	}
	if len(books) > 3*limit {
		books = books[:3*limit]
	}
	books = e.ranker.Rank(ctx, query, books)
	if len(books) > limit {
		books = books[:limit]
	}
	return books
}

// Chat retrieves grounding candidates for the message, keeps only the
// structurally credible ones, and has the advisor answer using exactly that
// set. The returned books are the candidates the generator actually saw.
func (e *Engine) Chat(ctx context.Context, message string, history []models.ConversationTurn, limit int) (string, []models.Book) {
	books := e.catalog.FetchMerged(ctx, message, 2*limit)
	candidates := catalog.FilterStrict(books, e.minFields, chatCandidateCap(limit))
	reply, err := e.advisor.Generate(ctx, message, candidates, history)
	if err != nil {
		// Every attempt errored: serve the apology with no book list rather
		// than books the reply cannot have mentioned.
		return reply, nil
	}
	return reply, candidates
}

// chatCandidateCap bounds the grounding set to 5..8 books: enough to choose
// from, small enough to keep the prompt and the hallucination surface in
// check.
func chatCandidateCap(limit int) int {
	if limit < 5 {
		return 5
	}
	if limit > 8 {
		return 8
	}
	return limit
}
