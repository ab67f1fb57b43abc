package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"liria/internal/models"
)

// googleBooksMax is the documented maxResults ceiling of the volumes endpoint.
const googleBooksMax = 40

type GoogleBooks struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewGoogleBooks(baseURL, apiKey string, timeout time.Duration) *GoogleBooks {
	return &GoogleBooks{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (g *GoogleBooks) Name() string { return "googlebooks" }

type googleVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Authors             []string `json:"authors"`
		Description         string   `json:"description"`
		Categories          []string `json:"categories"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		PreviewLink         string   `json:"previewLink"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		ImageLinks struct {
			Thumbnail      string `json:"thumbnail"`
			SmallThumbnail string `json:"smallThumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

func (g *GoogleBooks) Fetch(ctx context.Context, query string, maxResults int) []models.Book {
	if maxResults <= 0 || maxResults > googleBooksMax {
		maxResults = googleBooksMax
	}
	u, err := url.Parse(g.BaseURL)
	if err != nil {
		return nil
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("fields", "items(id,volumeInfo(title,authors,description,categories,imageLinks,industryIdentifiers,publisher,publishedDate,previewLink))")
	if g.APIKey != "" {
		q.Set("key", g.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		log.Printf("[catalog] googlebooks fetch failed: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("[catalog] googlebooks status %d", resp.StatusCode)
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	var parsed struct {
		Items []googleVolume `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Printf("[catalog] googlebooks decode failed: %v", err)
		return nil
	}
	books := make([]models.Book, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		books = append(books, normalizeGoogleVolume(item))
	}
	return books
}

// normalizeGoogleVolume maps one volumes result into the canonical record.
func normalizeGoogleVolume(item googleVolume) models.Book {
	vi := item.VolumeInfo

	title := strings.TrimSpace(vi.Title)
	author := "Unknown Author"
	if len(vi.Authors) > 0 {
		author = strings.Join(vi.Authors, ", ")
	}

	categories := trimCategories(vi.Categories, 5)

	// Prefer ISBN-13, fall back to ISBN-10.
	isbn := ""
	for _, ident := range vi.IndustryIdentifiers {
		if ident.Type == "ISBN_13" {
			isbn = strings.TrimSpace(ident.Identifier)
			break
		}
		if ident.Type == "ISBN_10" && isbn == "" {
			isbn = strings.TrimSpace(ident.Identifier)
		}
	}

	thumbnail := vi.ImageLinks.Thumbnail
	if thumbnail == "" {
		thumbnail = vi.ImageLinks.SmallThumbnail
	}

	// Descriptions stay verbatim; only a missing one is synthesized.
	description := strings.TrimSpace(vi.Description)
	if description == "" {
		description = fallbackDescription(title, author, "", categories)
	}

	return models.Book{
		ID:            "google:" + item.ID,
		Title:         title,
		Author:        author,
		Description:   description,
		Categories:    categories,
		Thumbnail:     thumbnail,
		Source:        models.SourceGoogleBooks,
		ISBN:          isbn,
		Publisher:     strings.TrimSpace(vi.Publisher),
		PublishedDate: strings.TrimSpace(vi.PublishedDate),
		PreviewLink:   strings.TrimSpace(vi.PreviewLink),
	}
}
