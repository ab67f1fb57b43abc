package storage

import (
	"context"
	"fmt"

	"liria/internal/models"
)

type ConversationRepo struct {
	db *DB
}

func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Create(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO conversations (conversation_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		conversationID, userID)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// AppendTurns adds turns after the current last index, preserving order.
func (r *ConversationRepo) AppendTurns(ctx context.Context, conversationID string, turns []models.ConversationTurn) error {
	var next int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(turn_index) + 1, 0) FROM conversation_turns WHERE conversation_id = $1`,
		conversationID).Scan(&next)
	if err != nil {
		return fmt.Errorf("next turn index: %w", err)
	}
	for i, t := range turns {
		if _, err := r.db.Pool.Exec(ctx,
			`INSERT INTO conversation_turns (conversation_id, turn_index, role, content) VALUES ($1, $2, $3, $4)`,
			conversationID, next+i, t.Role, t.Content); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}
	return nil
}

// ListTurns returns a conversation's turns oldest first.
func (r *ConversationRepo) ListTurns(ctx context.Context, conversationID string) ([]models.ConversationTurn, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT role, content FROM conversation_turns WHERE conversation_id = $1 ORDER BY turn_index ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	out := make([]models.ConversationTurn, 0)
	for rows.Next() {
		var t models.ConversationTurn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}
