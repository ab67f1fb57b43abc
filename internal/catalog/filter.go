package catalog

import (
	"sort"
	"strings"

	"liria/internal/models"
)

// FilterStrict keeps only structurally credible books: those where at least
// minFields of {isbn, publisher, categories, published date, preview link}
// are present. Survivors are ordered best-documented first, with description
// length breaking ties, and capped at maxResults. An empty result means "no
// groundable candidates", not an error.
func FilterStrict(books []models.Book, minFields, maxResults int) []models.Book {
	if minFields <= 0 {
		minFields = 3
	}
	if maxResults <= 0 {
		maxResults = 8
	}

	type scored struct {
		book  models.Book
		score int
	}
	kept := make([]scored, 0, len(books))
	for _, b := range books {
		s := StructuralScore(b)
		if s >= minFields {
			kept = append(kept, scored{book: b, score: s})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return len(kept[i].book.Description) > len(kept[j].book.Description)
	})

	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	out := make([]models.Book, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.book)
	}
	return out
}

// StructuralScore counts the identifying metadata fields present on a book,
// from 0 to 5. It serves as a credibility proxy: a book nobody can identify
// should not be recommended by name.
func StructuralScore(b models.Book) int {
	score := 0
	if strings.TrimSpace(b.ISBN) != "" {
		score++
	}
	if strings.TrimSpace(b.Publisher) != "" {
		score++
	}
	if len(b.Categories) > 0 {
		score++
	}
	if strings.TrimSpace(b.PublishedDate) != "" {
		score++
	}
	if strings.TrimSpace(b.PreviewLink) != "" {
		score++
	}
	return score
}
