package catalog

import (
	"context"
	"log"
	"strings"
	"sync"

	"liria/internal/metrics"
	"liria/internal/models"
)

// Adapter is implemented by each external book catalog. Fetch must never
// return an error across this boundary: network failures, timeouts and
// malformed payloads all collapse to an empty slice so one broken source
// cannot take down a request.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, query string, maxResults int) []models.Book
}

// Client fans a query out to every adapter concurrently and merges the
// results into one curated, deduplicated list.
type Client struct {
	adapters []Adapter
}

func NewClient(adapters ...Adapter) *Client {
	return &Client{adapters: adapters}
}

// FetchMerged runs all adapters in parallel, joins their output in adapter
// order, then filters, orders and deduplicates it. The result is
// deterministic for identical adapter outputs.
func (c *Client) FetchMerged(ctx context.Context, query string, perSource int) []models.Book {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	slots := make([][]models.Book, len(c.adapters))
	var wg sync.WaitGroup
	for i, a := range c.adapters {
		wg.Add(1)
		go func(i int, a Adapter) {
			defer wg.Done()
			books := a.Fetch(ctx, query, perSource)
			outcome := "ok"
			if len(books) == 0 {
				outcome = "empty"
			}
			metrics.CatalogFetches.WithLabelValues(a.Name(), outcome).Inc()
			slots[i] = books
		}(i, a)
	}
	wg.Wait()

	merged := make([]models.Book, 0, perSource*len(c.adapters))
	for i, books := range slots {
		if len(books) == 0 {
			log.Printf("[catalog] source %s contributed nothing for %q", c.adapters[i].Name(), query)
		}
		merged = append(merged, books...)
	}
	return Curate(merged)
}

// fallbackDescription keeps every record describable: a missing description
// becomes a short topical blurb from the categories, or failing that a
// "<title> by <author>" stub.
func fallbackDescription(title, author, description string, categories []string) string {
	description = strings.TrimSpace(description)
	if len(description) >= 20 {
		return description
	}
	if len(categories) > 0 {
		topics := categories
		if len(topics) > 6 {
			topics = topics[:6]
		}
		return "Topics: " + strings.Join(topics, ", ")
	}
	if len(description) >= 5 {
		return description
	}
	return title + " by " + author
}

// trimCategories drops empty entries and caps the list per source.
func trimCategories(raw []string, cap int) []string {
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, c)
		if len(out) == cap {
			break
		}
	}
	return out
}
