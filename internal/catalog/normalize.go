package catalog

import (
	"sort"
	"strings"

	"liria/internal/models"
)

// collectionKeywords mark anthology/omnibus style titles that should rank
// behind standalone works.
var collectionKeywords = []string{
	"megapack", "collection", "anthology", "box set", "boxset",
	"best of", "best-of", "compilation", "omnibus", "complete",
	"series collection", "boxed set", "boxed collection",
}

// Curate filters out records that cannot be recommended, orders individual
// works ahead of collections, and deduplicates on title+author. The whole
// pass is stable: identical input always yields identical output.
func Curate(books []models.Book) []models.Book {
	viable := make([]models.Book, 0, len(books))
	for _, b := range books {
		if len(strings.TrimSpace(b.Title)) < 2 {
			continue
		}
		hasDescription := len(strings.TrimSpace(b.Description)) >= 10
		hasTopics := len(b.Categories) > 0
		if !hasDescription && !hasTopics {
			continue
		}
		viable = append(viable, b)
	}

	// Individual works first, collections last, fetch order preserved
	// within each group.
	sort.SliceStable(viable, func(i, j int) bool {
		return !IsCollectionTitle(viable[i].Title) && IsCollectionTitle(viable[j].Title)
	})

	return Deduplicate(viable)
}

// IsCollectionTitle reports whether a title looks like an anthology, box set
// or similar compilation.
func IsCollectionTitle(title string) bool {
	low := strings.ToLower(title)
	for _, kw := range collectionKeywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}

// Deduplicate keeps the first occurrence per lowercased title|author key.
// Run after the collection sort, this lets a standalone work win over a
// later collection and an earlier source win over a later duplicate.
func Deduplicate(books []models.Book) []models.Book {
	seen := make(map[string]bool, len(books))
	unique := make([]models.Book, 0, len(books))
	for _, b := range books {
		key := dedupKey(b)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, b)
	}
	return unique
}

func dedupKey(b models.Book) string {
	return strings.ToLower(strings.TrimSpace(b.Title)) + "|" + strings.ToLower(strings.TrimSpace(b.Author))
}
