package dto

import "time"

// SendMessageRequest is the body of POST /classes/:id/messages.
type SendMessageRequest struct {
	MessageText string `json:"messageText" validate:"required,max=2000"`
}

// SendMessageResponse echoes the stored message identity.
type SendMessageResponse struct {
	MessageID string    `json:"messageId"`
	CreatedAt time.Time `json:"createdAt"`
}
