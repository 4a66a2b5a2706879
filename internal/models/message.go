package models

import "time"

// Message is an immutable trainer broadcast scoped to one session.
type Message struct {
	MessageID   string    `db:"message_id" json:"messageId"`
	SessionID   string    `db:"session_id" json:"sessionId"`
	SenderID    string    `db:"sender_id" json:"senderId"`
	MessageText string    `db:"message_text" json:"messageText"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
