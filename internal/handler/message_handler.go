package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/response"
)

type messageService interface {
	SendMessage(ctx context.Context, sessionID, senderID string, req dto.SendMessageRequest) (*models.Message, error)
	ListMessages(ctx context.Context, sessionID, requesterID string) ([]models.Message, error)
}

// MessageHandler exposes session broadcasts.
type MessageHandler struct {
	service messageService
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(service messageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Send godoc
// @Summary Broadcast a message to a session
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param payload body dto.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope{data=dto.SendMessageResponse}
// @Failure 403 {object} response.Envelope
// @Router /classes/{id}/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	senderID, ok := requireSubject(c)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	message, err := h.service.SendMessage(c.Request.Context(), c.Param("id"), senderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SendMessageResponse{MessageID: message.MessageID, CreatedAt: message.CreatedAt})
}

// List godoc
// @Summary List a session's messages, oldest first
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope{data=[]models.Message}
// @Failure 403 {object} response.Envelope
// @Router /classes/{id}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	requesterID, ok := requireSubject(c)
	if !ok {
		return
	}
	messages, err := h.service.ListMessages(c.Request.Context(), c.Param("id"), requesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	response.OK(c, messages)
}
