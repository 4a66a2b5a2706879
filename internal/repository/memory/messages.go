package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/class-booking-api/internal/models"
)

// MessageStore is an append-only per-session message log.
type MessageStore struct {
	mu        sync.RWMutex
	bySession map[string][]models.Message
}

// NewMessageStore constructs an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{bySession: make(map[string][]models.Message)}
}

// Create appends a message. The timestamp is taken under the lock so append order
// and createdAt order agree.
func (s *MessageStore) Create(ctx context.Context, message *models.Message) error {
	if message.MessageID == "" {
		message.MessageID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.bySession[message.SessionID]
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
		if n := len(log); n > 0 && message.CreatedAt.Before(log[n-1].CreatedAt) {
			message.CreatedAt = log[n-1].CreatedAt
		}
	}
	s.bySession[message.SessionID] = append(log, *message)
	return nil
}

// ListBySession returns messages in append order.
func (s *MessageStore) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message{}, s.bySession[sessionID]...), nil
}
