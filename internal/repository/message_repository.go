package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-booking-api/internal/models"
)

// MessageRepository stores trainer broadcasts.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message; messages are never updated afterwards.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.MessageID == "" {
		message.MessageID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (message_id, session_id, sender_id, message_text, created_at)
        VALUES (:message_id, :session_id, :sender_id, :message_text, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListBySession returns a session's messages oldest first.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	const query = `SELECT message_id, session_id, sender_id, message_text, created_at FROM messages
        WHERE session_id = $1 ORDER BY created_at, message_id`
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, sessionID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
