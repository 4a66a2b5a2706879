// Package memory provides process-local stores with the same contracts as the
// SQL repositories. It backs the "memory" storage driver and the concurrency tests.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/class-booking-api/internal/geo"
	"github.com/noah-isme/class-booking-api/internal/models"
)

// SessionStore keeps each session behind an atomic pointer so count updates are
// compare-and-swap operations on an immutable snapshot.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*atomic.Pointer[models.ClassSession]
	order    []string
}

// NewSessionStore constructs an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*atomic.Pointer[models.ClassSession])}
}

// CreateBatch inserts all sessions or none when any id already exists.
func (s *SessionStore) CreateBatch(ctx context.Context, sessions []models.ClassSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].SessionID == "" {
			sessions[i].SessionID = uuid.NewString()
		}
		if _, exists := s.sessions[sessions[i].SessionID]; exists {
			return errDuplicateKey
		}
	}
	for i := range sessions {
		if sessions[i].Status == "" {
			sessions[i].Status = models.SessionStatusActive
		}
		sessions[i].CreatedAt = now
		sessions[i].UpdatedAt = now
		snapshot := cloneSession(sessions[i])
		ptr := &atomic.Pointer[models.ClassSession]{}
		ptr.Store(&snapshot)
		s.sessions[snapshot.SessionID] = ptr
		s.order = append(s.order, snapshot.SessionID)
	}
	return nil
}

// FindByID returns a copy of the session or sql.ErrNoRows.
func (s *SessionStore) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	ptr := s.lookup(id)
	if ptr == nil {
		return nil, sql.ErrNoRows
	}
	copied := cloneSession(*ptr.Load())
	return &copied, nil
}

// ListByTrainer returns a trainer's sessions, newest start first.
func (s *SessionStore) ListByTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error) {
	result := s.filter(func(session *models.ClassSession) bool { return session.TrainerID == trainerID })
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].SessionID < result[j].SessionID
		}
		return result[i].StartTime.After(result[j].StartTime)
	})
	return result, nil
}

// ListActiveByZip returns active sessions at a postal code.
func (s *SessionStore) ListActiveByZip(ctx context.Context, zip string) ([]models.ClassSession, error) {
	result := s.filter(func(session *models.ClassSession) bool { return session.IsActive() && session.Zip == zip })
	sortByStart(result)
	return result, nil
}

// ListActiveWithinBounds returns active sessions inside the box.
func (s *SessionStore) ListActiveWithinBounds(ctx context.Context, box geo.BoundingBox) ([]models.ClassSession, error) {
	result := s.filter(func(session *models.ClassSession) bool {
		return session.IsActive() && box.Contains(geo.Point{Latitude: session.Latitude, Longitude: session.Longitude})
	})
	sortByStart(result)
	return result, nil
}

// UpdateCount swaps in a new snapshot only if the current one still carries the expected count.
func (s *SessionStore) UpdateCount(ctx context.Context, update models.CountUpdate) (bool, error) {
	ptr := s.lookup(update.SessionID)
	if ptr == nil {
		return false, nil
	}
	current := ptr.Load()
	if current.CountRegistered != update.Expected {
		return false, nil
	}
	if update.RequireActive && !current.IsActive() {
		return false, nil
	}
	next := cloneSession(*current)
	next.CountRegistered = update.Next
	next.UpdatedAt = time.Now().UTC()
	return ptr.CompareAndSwap(current, &next), nil
}

// MarkCancelled flips an active session to CANCELLED, retrying past concurrent count updates.
func (s *SessionStore) MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error) {
	ptr := s.lookup(id)
	if ptr == nil {
		return false, nil
	}
	for {
		current := ptr.Load()
		if !current.IsActive() {
			return false, nil
		}
		next := cloneSession(*current)
		next.Status = models.SessionStatusCancelled
		cancelledAt := at
		next.CancelledAt = &cancelledAt
		next.UpdatedAt = at
		if ptr.CompareAndSwap(current, &next) {
			return true, nil
		}
	}
}

func (s *SessionStore) lookup(id string) *atomic.Pointer[models.ClassSession] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *SessionStore) filter(keep func(*models.ClassSession) bool) []models.ClassSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.ClassSession, 0)
	for _, id := range s.order {
		snapshot := s.sessions[id].Load()
		if keep(snapshot) {
			result = append(result, cloneSession(*snapshot))
		}
	}
	return result
}

func sortByStart(sessions []models.ClassSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].StartTime.Equal(sessions[j].StartTime) {
			return sessions[i].SessionID < sessions[j].SessionID
		}
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}

func cloneSession(src models.ClassSession) models.ClassSession {
	dst := src
	if src.Tags != nil {
		dst.Tags = append([]string(nil), src.Tags...)
	}
	if src.CancelledAt != nil {
		at := *src.CancelledAt
		dst.CancelledAt = &at
	}
	return dst
}
