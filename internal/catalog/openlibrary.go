package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"liria/internal/models"
)

// openLibraryMax is the documented limit ceiling of the search endpoint.
const openLibraryMax = 100

type OpenLibrary struct {
	BaseURL string
	Client  *http.Client
}

func NewOpenLibrary(baseURL string, timeout time.Duration) *OpenLibrary {
	return &OpenLibrary{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (o *OpenLibrary) Name() string { return "openlibrary" }

type openLibraryDoc struct {
	Key           string          `json:"key"`
	Title         string          `json:"title"`
	AuthorName    []string        `json:"author_name"`
	FirstSentence json.RawMessage `json:"first_sentence"`
	Subject       []string        `json:"subject"`
	CoverI        int64           `json:"cover_i"`
	ISBN          []string        `json:"isbn"`
}

func (o *OpenLibrary) Fetch(ctx context.Context, query string, maxResults int) []models.Book {
	if maxResults <= 0 || maxResults > openLibraryMax {
		maxResults = openLibraryMax
	}
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return nil
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(maxResults))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		log.Printf("[catalog] openlibrary fetch failed: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("[catalog] openlibrary status %d", resp.StatusCode)
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	var parsed struct {
		Docs []openLibraryDoc `json:"docs"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Printf("[catalog] openlibrary decode failed: %v", err)
		return nil
	}
	books := make([]models.Book, 0, len(parsed.Docs))
	for _, doc := range parsed.Docs {
		books = append(books, normalizeOpenLibraryDoc(doc))
	}
	return books
}

// normalizeOpenLibraryDoc maps one search doc into the canonical record.
// OpenLibrary rarely carries real descriptions, so the first sentence, the
// subject tags and finally a title-by-author stub stand in for one.
func normalizeOpenLibraryDoc(doc openLibraryDoc) models.Book {
	title := strings.TrimSpace(doc.Title)

	author := "Unknown Author"
	if len(doc.AuthorName) > 0 {
		names := doc.AuthorName
		if len(names) > 3 {
			names = names[:3]
		}
		author = strings.Join(names, ", ")
	}

	categories := trimCategories(doc.Subject, 5)
	description := fallbackDescription(title, author, firstSentenceText(doc.FirstSentence), categories)

	thumbnail := ""
	if doc.CoverI > 0 {
		thumbnail = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI)
	}

	id := strings.TrimSpace(doc.Key)
	id = strings.ReplaceAll(id, "/works/", "")
	id = strings.ReplaceAll(id, "/books/", "")
	if id == "" && len(doc.ISBN) > 0 {
		id = doc.ISBN[0]
	}

	return models.Book{
		ID:          "openlibrary:" + id,
		Title:       title,
		Author:      author,
		Description: description,
		Categories:  categories,
		Thumbnail:   thumbnail,
		Source:      models.SourceOpenLibrary,
	}
}

// firstSentenceText tolerates both shapes the API serves: a plain string or
// a list of strings, of which the first two are joined.
func firstSentenceText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		if len(list) > 2 {
			list = list[:2]
		}
		return strings.Join(list, " ")
	}
	return ""
}
