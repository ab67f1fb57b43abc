package models

import "time"

// Book source names as they appear in API responses.
const (
	SourceGoogleBooks = "Google Books"
	SourceOpenLibrary = "OpenLibrary"
)

// Book is the canonical record every catalog result is mapped into.
// It is created once by a catalog adapter and never mutated afterwards,
// except for SimilarityScore which the ranker attaches.
type Book struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Description     string   `json:"description"`
	Categories      []string `json:"categories"`
	Thumbnail       string   `json:"thumbnail,omitempty"`
	Source          string   `json:"source"`
	SimilarityScore *float64 `json:"similarity_score,omitempty"`

	// Structural fields, used only by the strict filter.
	ISBN          string `json:"isbn,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	PreviewLink   string `json:"preview_link,omitempty"`
}

// ConversationTurn is one prior message of a chat, oldest first.
type ConversationTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// LibraryEntry is a book a user chose to keep, in their library or wishlist.
type LibraryEntry struct {
	EntryID     string    `json:"entry_id"`
	UserID      string    `json:"user_id"`
	BookID      string    `json:"book_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
