// Package events publishes domain events to NATS off the request path.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types. The wire subject is "<prefix>.<type>".
const (
	TypeSessionCreated      = "session.created"
	TypeSessionCancelled    = "session.cancelled"
	TypeEnrollmentCreated   = "enrollment.created"
	TypeEnrollmentCancelled = "enrollment.cancelled"
	TypeMessageSent         = "message.sent"
	TypeProfileUpdated      = "profile.updated"
	TypeProfileDeleted      = "profile.deleted"
)

// Event is the JSON envelope sent on the bus.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers a single event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards events; used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// SessionPayload accompanies session lifecycle events.
type SessionPayload struct {
	SessionID string    `json:"sessionId"`
	ClassID   string    `json:"classId"`
	TrainerID string    `json:"trainerId"`
	StartTime time.Time `json:"startTime"`
	Capacity  int       `json:"capacity"`
}

// EnrollmentPayload accompanies enrollment events.
type EnrollmentPayload struct {
	StudentID string `json:"studentId"`
	SessionID string `json:"sessionId"`
}

// MessagePayload accompanies message.sent.
type MessagePayload struct {
	MessageID string `json:"messageId"`
	SessionID string `json:"sessionId"`
	SenderID  string `json:"senderId"`
}

// ProfilePayload accompanies profile events.
type ProfilePayload struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Status string `json:"status"`
}
