package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/events"
	"github.com/noah-isme/class-booking-api/pkg/logger"
)

type enrollmentStore interface {
	Find(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.StudentClass, error)
	Insert(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	Reactivate(ctx context.Context, studentID, sessionID string, at time.Time) (bool, error)
	Restore(ctx context.Context, studentID, sessionID string) (bool, error)
	MarkCancelled(ctx context.Context, studentID, sessionID string, at time.Time) (bool, error)
}

type registrationCounter interface {
	GetSession(ctx context.Context, sessionID string) (*models.ClassSession, error)
	IncrementRegistration(ctx context.Context, sessionID string) error
	DecrementRegistration(ctx context.Context, sessionID string) error
	ListByTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error)
}

// EnrollmentServiceConfig holds ledger policy.
type EnrollmentServiceConfig struct {
	AllowReenroll bool
}

// EnrollmentService is the ledger of student seats. Every recorded enrollment is paired
// with exactly one successful registration increment.
type EnrollmentService struct {
	store    enrollmentStore
	sessions registrationCounter
	events   eventDispatcher
	metrics  *MetricsService
	cfg      EnrollmentServiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewEnrollmentService constructs the enrollment ledger.
func NewEnrollmentService(
	store enrollmentStore,
	sessions registrationCounter,
	dispatcher eventDispatcher,
	metrics *MetricsService,
	cfg EnrollmentServiceConfig,
	logger *zap.Logger,
) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		store:    store,
		sessions: sessions,
		events:   dispatcher,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Enroll claims a seat for the student. The checks before the increment are fast-fail
// only; the conditional count update decides whether a seat is actually available.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error) {
	if studentID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		s.metrics.RecordEnrollment(OutcomeCancelled)
		return nil, appErrors.ErrSessionCancelled
	}
	if session.IsFull() {
		s.metrics.RecordEnrollment(OutcomeFull)
		return nil, appErrors.ErrSessionFull
	}

	existing, err := s.store.Find(ctx, studentID, sessionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	if existing != nil {
		if existing.IsActive() {
			s.metrics.RecordEnrollment(OutcomeDuplicate)
			return nil, appErrors.ErrAlreadyEnrolled
		}
		if !s.cfg.AllowReenroll {
			s.metrics.RecordEnrollment(OutcomeReenrollBlocked)
			return nil, appErrors.ErrReenrollNotAllowed
		}
	}

	if err := s.checkConflicts(ctx, studentID, session); err != nil {
		return nil, err
	}

	if err := s.sessions.IncrementRegistration(ctx, sessionID); err != nil {
		switch {
		case errors.Is(err, appErrors.ErrSessionFull):
			s.metrics.RecordEnrollment(OutcomeFull)
		case errors.Is(err, appErrors.ErrSessionCancelled):
			s.metrics.RecordEnrollment(OutcomeCancelled)
		case errors.Is(err, appErrors.ErrCapacityContention):
			s.metrics.RecordEnrollment(OutcomeContention)
		}
		return nil, err
	}

	enrollment, err := s.record(ctx, studentID, sessionID, existing)
	if err != nil {
		s.compensateIncrement(ctx, studentID, sessionID, err)
		return nil, err
	}

	s.metrics.RecordEnrollment(OutcomeEnrolled)
	s.dispatch(events.TypeEnrollmentCreated, studentID, sessionID)
	logger.For(ctx, s.logger).Info("student enrolled", zap.String("student_id", studentID), zap.String("session_id", sessionID))
	return enrollment, nil
}

// Unenroll cancels the student's active enrollment and releases its seat. If the seat
// cannot be released the enrollment is restored, so the pair never diverges.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, sessionID string) error {
	if studentID == "" {
		return appErrors.ErrUnauthorized
	}
	ok, err := s.store.MarkCancelled(ctx, studentID, sessionID, s.now())
	if err != nil {
		return appErrors.Internal(err, "failed to cancel enrollment")
	}
	if !ok {
		return appErrors.ErrNotEnrolled
	}

	if err := s.sessions.DecrementRegistration(ctx, sessionID); err != nil {
		restored, restoreErr := s.store.Restore(context.WithoutCancel(ctx), studentID, sessionID)
		if restoreErr != nil || !restored {
			s.logger.Error("failed to restore enrollment after seat release failure",
				zap.String("student_id", studentID),
				zap.String("session_id", sessionID),
				zap.Error(err),
				zap.NamedError("restore_error", restoreErr),
			)
		}
		return err
	}

	s.metrics.RecordEnrollment(OutcomeUnenrolled)
	s.dispatch(events.TypeEnrollmentCancelled, studentID, sessionID)
	logger.For(ctx, s.logger).Info("student unenrolled", zap.String("student_id", studentID), zap.String("session_id", sessionID))
	return nil
}

// ListActiveForStudent returns the student's ACTIVE enrollments joined with their sessions.
func (s *EnrollmentService) ListActiveForStudent(ctx context.Context, studentID string) ([]models.StudentClass, error) {
	if studentID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	classes, err := s.store.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return classes, nil
}

// ListForTrainer returns every session the trainer owns, any status, with counts.
func (s *EnrollmentService) ListForTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error) {
	return s.sessions.ListByTrainer(ctx, trainerID)
}

// checkConflicts scans the student's active enrollments for a half-open overlap.
func (s *EnrollmentService) checkConflicts(ctx context.Context, studentID string, candidate *models.ClassSession) error {
	active, err := s.store.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return appErrors.Internal(err, "failed to load active enrollments")
	}
	for i := range active {
		other := &active[i].Class
		if other.SessionID == candidate.SessionID {
			continue
		}
		if candidate.Overlaps(other) {
			s.metrics.RecordEnrollment(OutcomeConflict)
			logger.For(ctx, s.logger).Debug("enrollment rejected: time conflict",
				zap.String("student_id", studentID),
				zap.String("session_id", candidate.SessionID),
				zap.String("conflicting_session_id", other.SessionID),
			)
			return appErrors.Clone(appErrors.ErrTimeConflict,
				fmt.Sprintf("session overlaps %q (%s to %s)", other.ClassName, other.StartTime.Format(time.RFC3339), other.EndTime.Format(time.RFC3339)))
		}
	}
	return nil
}

// record writes the enrollment row for a seat that has already been claimed.
func (s *EnrollmentService) record(ctx context.Context, studentID, sessionID string, existing *models.Enrollment) (*models.Enrollment, error) {
	now := s.now()
	if existing == nil {
		enrollment := &models.Enrollment{
			StudentID:  studentID,
			SessionID:  sessionID,
			Status:     models.EnrollmentStatusActive,
			EnrolledAt: now,
		}
		inserted, err := s.store.Insert(ctx, enrollment)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to record enrollment")
		}
		if !inserted {
			return nil, appErrors.ErrAlreadyEnrolled
		}
		return enrollment, nil
	}

	reactivated, err := s.store.Reactivate(ctx, studentID, sessionID, now)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to reactivate enrollment")
	}
	if !reactivated {
		return nil, appErrors.ErrAlreadyEnrolled
	}
	return &models.Enrollment{
		StudentID:  studentID,
		SessionID:  sessionID,
		Status:     models.EnrollmentStatusActive,
		EnrolledAt: now,
	}, nil
}

// compensateIncrement releases a seat whose enrollment row could not be written.
func (s *EnrollmentService) compensateIncrement(ctx context.Context, studentID, sessionID string, cause error) {
	s.metrics.RecordEnrollment(OutcomeCompensated)
	if err := s.sessions.DecrementRegistration(context.WithoutCancel(ctx), sessionID); err != nil {
		s.logger.Error("failed to release seat after enrollment write failure",
			zap.String("student_id", studentID),
			zap.String("session_id", sessionID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("enrollment write failed, seat released",
		zap.String("student_id", studentID),
		zap.String("session_id", sessionID),
		zap.Error(cause),
	)
}

func (s *EnrollmentService) dispatch(eventType, studentID, sessionID string) {
	if s.events == nil {
		return
	}
	s.events.Dispatch(events.New(eventType, events.EnrollmentPayload{StudentID: studentID, SessionID: sessionID}))
}
