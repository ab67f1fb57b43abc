package storage

import (
	"context"
	"fmt"
	"strings"

	"liria/internal/models"

	"github.com/google/uuid"
)

// ShelfRepo persists books a user chose to keep. The same shape backs both
// the library and the wishlist; only the table differs.
type ShelfRepo struct {
	db    *DB
	table string
}

func NewLibraryRepo(db *DB) *ShelfRepo {
	return &ShelfRepo{db: db, table: "library_entries"}
}

func NewWishlistRepo(db *DB) *ShelfRepo {
	return &ShelfRepo{db: db, table: "wishlist_entries"}
}

// Add stores a book for the user. Saving the same title+author again
// (case-insensitive) is a no-op and reports false.
func (r *ShelfRepo) Add(ctx context.Context, userID string, book models.Book) (models.LibraryEntry, bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+r.table+` WHERE user_id = $1 AND LOWER(TRIM(title)) = $2 AND LOWER(TRIM(author)) = $3)`,
		userID,
		strings.ToLower(strings.TrimSpace(book.Title)),
		strings.ToLower(strings.TrimSpace(book.Author)),
	).Scan(&exists)
	if err != nil {
		return models.LibraryEntry{}, false, fmt.Errorf("check %s duplicate: %w", r.table, err)
	}
	if exists {
		return models.LibraryEntry{}, false, nil
	}

	entry := models.LibraryEntry{
		EntryID:     uuid.NewString(),
		UserID:      userID,
		BookID:      book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Categories:  book.Categories,
		Thumbnail:   book.Thumbnail,
		Source:      book.Source,
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO `+r.table+` (entry_id, user_id, book_id, title, author, description, categories, thumbnail, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.EntryID, entry.UserID, entry.BookID, entry.Title, entry.Author, entry.Description, entry.Categories, entry.Thumbnail, entry.Source)
	if err != nil {
		return models.LibraryEntry{}, false, fmt.Errorf("insert %s: %w", r.table, err)
	}
	return entry, true, nil
}

func (r *ShelfRepo) List(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT entry_id::text, user_id, book_id, title, author, description, categories, thumbnail, source, created_at
		 FROM `+r.table+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()

	out := make([]models.LibraryEntry, 0)
	for rows.Next() {
		var e models.LibraryEntry
		if err := rows.Scan(&e.EntryID, &e.UserID, &e.BookID, &e.Title, &e.Author, &e.Description, &e.Categories, &e.Thumbnail, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", r.table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.table, err)
	}
	return out, nil
}

// Remove deletes a user's entry and reports whether a row existed.
func (r *ShelfRepo) Remove(ctx context.Context, userID, entryID string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM `+r.table+` WHERE user_id = $1 AND entry_id = $2`, userID, entryID)
	if err != nil {
		return false, fmt.Errorf("delete %s entry: %w", r.table, err)
	}
	return tag.RowsAffected() > 0, nil
}
