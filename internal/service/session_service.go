package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/geo"
	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/events"
	"github.com/noah-isme/class-booking-api/pkg/logger"
)

const defaultCapacityRetries = 32

type sessionStore interface {
	CreateBatch(ctx context.Context, sessions []models.ClassSession) error
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error)
	ListActiveByZip(ctx context.Context, zip string) ([]models.ClassSession, error)
	UpdateCount(ctx context.Context, update models.CountUpdate) (bool, error)
	MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error)
}

type locationResolver interface {
	Resolve(ctx context.Context, zip string) (geo.Point, error)
}

type eventDispatcher interface {
	Dispatch(event events.Event)
}

// SessionServiceConfig holds the session lifecycle policy.
type SessionServiceConfig struct {
	MaxRetries   int
	StrictCancel bool
}

// SessionService owns class sessions, their registration counters and cancellation state.
type SessionService struct {
	store     sessionStore
	locations locationResolver
	cache     *CacheService
	events    eventDispatcher
	metrics   *MetricsService
	cfg       SessionServiceConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService builds a SessionService with sane defaults.
func NewSessionService(
	store sessionStore,
	locations locationResolver,
	cache *CacheService,
	dispatcher eventDispatcher,
	metrics *MetricsService,
	cfg SessionServiceConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultCapacityRetries
	}
	return &SessionService{
		store:     store,
		locations: locations,
		cache:     cache,
		events:    dispatcher,
		metrics:   metrics,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSessions validates the class payload and persists every requested session
// under a fresh classId. Nothing is stored unless every session is valid.
func (s *SessionService) CreateSessions(ctx context.Context, trainerID string, req dto.CreateClassRequest) ([]models.ClassSession, error) {
	if trainerID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	specs := req.Specs()
	if len(specs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one session is required")
	}
	for i, spec := range specs {
		if spec.StartDateTime.IsZero() || spec.EndDateTime.IsZero() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %d: start and end times are required", i+1))
		}
		if !spec.EndDateTime.After(spec.StartDateTime) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %d: end time must be after start time", i+1))
		}
		if spec.Capacity <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %d: capacity must be positive", i+1))
		}
	}
	if req.PricePerClass.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pricePerClass must not be negative")
	}

	zip := geo.NormalizeZip(req.Zip)
	if zip == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "zip must be a 5-digit postal code")
	}
	point, err := s.locations.Resolve(ctx, zip)
	if err != nil {
		return nil, err
	}

	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	classID := uuid.NewString()
	tags := normalizeTags(req.Tags)
	sessions := make([]models.ClassSession, 0, len(specs))
	for _, spec := range specs {
		sessions = append(sessions, models.ClassSession{
			SessionID:     uuid.NewString(),
			ClassID:       classID,
			TrainerID:     trainerID,
			TrainerName:   strings.TrimSpace(req.TrainerName),
			ClassName:     strings.TrimSpace(req.ClassName),
			Overview:      strings.TrimSpace(req.Overview),
			AddressLine1:  strings.TrimSpace(req.AddressLine1),
			AddressLine2:  strings.TrimSpace(req.AddressLine2),
			City:          strings.TrimSpace(req.City),
			State:         strings.TrimSpace(req.State),
			Zip:           zip,
			Latitude:      point.Latitude,
			Longitude:     point.Longitude,
			Timezone:      timezone,
			StartTime:     spec.StartDateTime.UTC(),
			EndTime:       spec.EndDateTime.UTC(),
			Capacity:      spec.Capacity,
			Status:        models.SessionStatusActive,
			PricePerClass: req.PricePerClass,
			Currency:      currency,
			ProductID:     req.ProductID,
			PriceID:       req.PriceID,
			Tags:          tags,
		})
	}

	if err := s.store.CreateBatch(ctx, sessions); err != nil {
		return nil, appErrors.Internal(err, "failed to create class sessions")
	}

	s.metrics.RecordSessionsCreated(len(sessions))
	s.cache.InvalidateSearch(ctx)
	for _, session := range sessions {
		s.dispatch(events.TypeSessionCreated, sessionPayload(&session))
	}
	logger.For(ctx, s.logger).Info("class created",
		zap.String("class_id", classID),
		zap.String("trainer_id", trainerID),
		zap.Int("sessions", len(sessions)),
	)
	return sessions, nil
}

// GetSession returns a session in any status.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.ClassSession, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSessionNotFound, fmt.Sprintf("session %s not found", sessionID))
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	return session, nil
}

// IncrementRegistration claims one seat. The count is written with a compare-and-swap on
// its previous value and retried when another writer got there first.
func (s *SessionService) IncrementRegistration(ctx context.Context, sessionID string) error {
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		session, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if !session.IsActive() {
			return appErrors.ErrSessionCancelled
		}
		if session.IsFull() {
			return appErrors.ErrSessionFull
		}
		start := time.Now()
		ok, err := s.store.UpdateCount(ctx, models.CountUpdate{
			SessionID:     sessionID,
			Expected:      session.CountRegistered,
			Next:          session.CountRegistered + 1,
			RequireActive: true,
		})
		s.metrics.ObserveStore("increment_registration", time.Since(start))
		if err != nil {
			return appErrors.Internal(err, "failed to update registration count")
		}
		if ok {
			return nil
		}
		s.metrics.RecordCapacityRetry()
		s.logger.Debug("registration count contention", zap.String("session_id", sessionID), zap.Int("attempt", attempt+1))
	}
	s.logger.Warn("registration count retries exhausted", zap.String("session_id", sessionID), zap.Int("retries", s.cfg.MaxRetries))
	return appErrors.Wrap(appErrors.ErrContention, appErrors.ErrCapacityContention.Code, appErrors.ErrCapacityContention.Status, appErrors.ErrCapacityContention.Message)
}

// DecrementRegistration releases one seat, never going below zero. It applies to
// cancelled sessions too so unenrolling stays possible after cancellation.
func (s *SessionService) DecrementRegistration(ctx context.Context, sessionID string) error {
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		session, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.CountRegistered <= 0 {
			s.logger.Warn("registration count already zero", zap.String("session_id", sessionID))
			return nil
		}
		start := time.Now()
		ok, err := s.store.UpdateCount(ctx, models.CountUpdate{
			SessionID: sessionID,
			Expected:  session.CountRegistered,
			Next:      session.CountRegistered - 1,
		})
		s.metrics.ObserveStore("decrement_registration", time.Since(start))
		if err != nil {
			return appErrors.Internal(err, "failed to update registration count")
		}
		if ok {
			return nil
		}
		s.metrics.RecordCapacityRetry()
		s.logger.Debug("registration count contention", zap.String("session_id", sessionID), zap.Int("attempt", attempt+1))
	}
	s.logger.Warn("registration count retries exhausted", zap.String("session_id", sessionID), zap.Int("retries", s.cfg.MaxRetries))
	return appErrors.Wrap(appErrors.ErrContention, appErrors.ErrCapacityContention.Code, appErrors.ErrCapacityContention.Status, appErrors.ErrCapacityContention.Message)
}

// CancelSession flips an owned session to CANCELLED. Enrollments and the registration
// count are left untouched. Repeating the call is a no-op unless strict mode is on.
func (s *SessionService) CancelSession(ctx context.Context, sessionID, requesterID string) (*models.ClassSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning trainer can cancel this session")
	}
	if !session.IsActive() {
		return s.alreadyCancelled(session)
	}

	now := s.now()
	ok, err := s.store.MarkCancelled(ctx, sessionID, now)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to cancel session")
	}
	if !ok {
		current, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return s.alreadyCancelled(current)
	}

	s.cache.InvalidateSearch(ctx)
	s.dispatch(events.TypeSessionCancelled, sessionPayload(session))
	logger.For(ctx, s.logger).Info("session cancelled", zap.String("session_id", sessionID), zap.String("trainer_id", requesterID))

	session.Status = models.SessionStatusCancelled
	session.CancelledAt = &now
	session.UpdatedAt = now
	return session, nil
}

// ListByTrainer returns every session a trainer owns with current counts.
func (s *SessionService) ListByTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error) {
	if strings.TrimSpace(trainerID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "trainerId is required")
	}
	sessions, err := s.store.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list trainer sessions")
	}
	return sessions, nil
}

// ListByZip returns active sessions held at a postal code.
func (s *SessionService) ListByZip(ctx context.Context, zip string) ([]models.ClassSession, error) {
	normalized := geo.NormalizeZip(zip)
	if normalized == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "zip must be a 5-digit postal code")
	}
	sessions, err := s.store.ListActiveByZip(ctx, normalized)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list sessions by zip")
	}
	return sessions, nil
}

func (s *SessionService) alreadyCancelled(session *models.ClassSession) (*models.ClassSession, error) {
	if s.cfg.StrictCancel {
		return nil, appErrors.ErrAlreadyCancelled
	}
	return session, nil
}

func (s *SessionService) dispatch(eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Dispatch(events.New(eventType, payload))
}

func sessionPayload(session *models.ClassSession) events.SessionPayload {
	return events.SessionPayload{
		SessionID: session.SessionID,
		ClassID:   session.ClassID,
		TrainerID: session.TrainerID,
		StartTime: session.StartTime,
		Capacity:  session.Capacity,
	}
}

// normalizeTags trims tags and drops case-insensitive duplicates, keeping first spelling.
func normalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, trimmed)
	}
	return tags
}
