package memory

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/class-booking-api/internal/models"
)

var errDuplicateKey = errors.New("memory: duplicate key")

type enrollmentKey struct {
	studentID string
	sessionID string
}

// EnrollmentStore keeps enrollment rows keyed by (student, session).
type EnrollmentStore struct {
	mu       sync.RWMutex
	rows     map[enrollmentKey]models.Enrollment
	sessions *SessionStore
}

// NewEnrollmentStore constructs a store that joins against sessions for student listings.
func NewEnrollmentStore(sessions *SessionStore) *EnrollmentStore {
	return &EnrollmentStore{rows: make(map[enrollmentKey]models.Enrollment), sessions: sessions}
}

// Find returns the row for a pair or sql.ErrNoRows.
func (s *EnrollmentStore) Find(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[enrollmentKey{studentID, sessionID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneEnrollment(row), nil
}

// ListActiveByStudent pairs each active enrollment with its session.
func (s *EnrollmentStore) ListActiveByStudent(ctx context.Context, studentID string) ([]models.StudentClass, error) {
	s.mu.RLock()
	var active []models.Enrollment
	for key, row := range s.rows {
		if key.studentID == studentID && row.IsActive() {
			active = append(active, *cloneEnrollment(row))
		}
	}
	s.mu.RUnlock()

	result := make([]models.StudentClass, 0, len(active))
	for _, enrollment := range active {
		session, err := s.sessions.FindByID(ctx, enrollment.SessionID)
		if err != nil {
			continue
		}
		result = append(result, models.StudentClass{Class: *session, Enrollment: enrollment})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Class.StartTime.Equal(result[j].Class.StartTime) {
			return result[i].Class.SessionID < result[j].Class.SessionID
		}
		return result[i].Class.StartTime.Before(result[j].Class.StartTime)
	})
	return result, nil
}

// ListActiveBySession returns a session's active roster ordered by enrollment time.
func (s *EnrollmentStore) ListActiveBySession(ctx context.Context, sessionID string) ([]models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Enrollment, 0)
	for key, row := range s.rows {
		if key.sessionID == sessionID && row.IsActive() {
			result = append(result, *cloneEnrollment(row))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].EnrolledAt.Equal(result[j].EnrolledAt) {
			return result[i].StudentID < result[j].StudentID
		}
		return result[i].EnrolledAt.Before(result[j].EnrolledAt)
	})
	return result, nil
}

// Insert adds a row; it reports false when the pair already has one.
func (s *EnrollmentStore) Insert(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	key := enrollmentKey{enrollment.StudentID, enrollment.SessionID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[key]; exists {
		return false, nil
	}
	s.rows[key] = *cloneEnrollment(*enrollment)
	return true, nil
}

// Reactivate turns a CANCELLED row ACTIVE with a fresh enrolledAt.
func (s *EnrollmentStore) Reactivate(ctx context.Context, studentID, sessionID string, at time.Time) (bool, error) {
	return s.transition(studentID, sessionID, models.EnrollmentStatusCancelled, func(row *models.Enrollment) {
		row.Status = models.EnrollmentStatusActive
		row.EnrolledAt = at
		row.CancelledAt = nil
	}), nil
}

// Restore turns a CANCELLED row ACTIVE keeping its original enrolledAt.
func (s *EnrollmentStore) Restore(ctx context.Context, studentID, sessionID string) (bool, error) {
	return s.transition(studentID, sessionID, models.EnrollmentStatusCancelled, func(row *models.Enrollment) {
		row.Status = models.EnrollmentStatusActive
		row.CancelledAt = nil
	}), nil
}

// MarkCancelled turns an ACTIVE row CANCELLED.
func (s *EnrollmentStore) MarkCancelled(ctx context.Context, studentID, sessionID string, at time.Time) (bool, error) {
	return s.transition(studentID, sessionID, models.EnrollmentStatusActive, func(row *models.Enrollment) {
		row.Status = models.EnrollmentStatusCancelled
		cancelledAt := at
		row.CancelledAt = &cancelledAt
	}), nil
}

func (s *EnrollmentStore) transition(studentID, sessionID string, from models.EnrollmentStatus, apply func(*models.Enrollment)) bool {
	key := enrollmentKey{studentID, sessionID}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key]
	if !ok || row.Status != from {
		return false
	}
	apply(&row)
	s.rows[key] = row
	return true
}

func cloneEnrollment(src models.Enrollment) *models.Enrollment {
	dst := src
	if src.CancelledAt != nil {
		at := *src.CancelledAt
		dst.CancelledAt = &at
	}
	return &dst
}
