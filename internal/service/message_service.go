package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/events"
)

type messageStore interface {
	Create(ctx context.Context, message *models.Message) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Message, error)
}

type sessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*models.ClassSession, error)
}

type enrollmentFinder interface {
	Find(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error)
}

// MessageService appends and lists trainer broadcasts for a session.
type MessageService struct {
	store       messageStore
	sessions    sessionReader
	enrollments enrollmentFinder
	events      eventDispatcher
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMessageService constructs the messaging service.
func NewMessageService(
	store messageStore,
	sessions sessionReader,
	enrollments enrollmentFinder,
	dispatcher eventDispatcher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{
		store:       store,
		sessions:    sessions,
		enrollments: enrollments,
		events:      dispatcher,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// SendMessage appends a message from the session's trainer. Cancelled sessions still accept messages.
func (s *MessageService) SendMessage(ctx context.Context, sessionID, senderID string, req dto.SendMessageRequest) (*models.Message, error) {
	req.MessageText = strings.TrimSpace(req.MessageText)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID != senderID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the session's trainer can send messages")
	}

	message := &models.Message{
		SessionID:   sessionID,
		SenderID:    senderID,
		MessageText: req.MessageText,
	}
	if err := s.store.Create(ctx, message); err != nil {
		return nil, appErrors.Internal(err, "failed to store message")
	}

	s.metrics.RecordMessageSent()
	if s.events != nil {
		s.events.Dispatch(events.New(events.TypeMessageSent, events.MessagePayload{
			MessageID: message.MessageID,
			SessionID: sessionID,
			SenderID:  senderID,
		}))
	}
	return message, nil
}

// ListMessages returns the session's messages oldest first. Readers are the trainer
// and students holding an ACTIVE enrollment.
func (s *MessageService) ListMessages(ctx context.Context, sessionID, requesterID string) ([]models.Message, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID != requesterID {
		enrollment, err := s.enrollments.Find(ctx, requesterID, sessionID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Internal(err, "failed to verify enrollment")
		}
		if enrollment == nil || !enrollment.IsActive() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "messages are visible to the trainer and enrolled students")
		}
	}
	messages, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list messages")
	}
	return messages, nil
}
