package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/class-booking-api/internal/models"
)

// ProfileStore keeps profiles by user id.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

// NewProfileStore constructs an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]models.Profile)}
}

// Find returns a copy of the profile in any status, or sql.ErrNoRows.
func (s *ProfileStore) Find(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := cloneProfile(profile)
	return &out, nil
}

// Upsert replaces the profile. An existing profile keeps its CreatedAt.
func (s *ProfileStore) Upsert(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if profile.Images == nil {
		profile.Images = models.ProfileImages{}
	}
	if profile.Certifications == nil {
		profile.Certifications = pq.StringArray{}
	}
	s.profiles[profile.UserID] = cloneProfile(*profile)
	return nil
}

// RemoveImage drops one image from an active profile. It returns sql.ErrNoRows when
// there is no active profile and a nil image when imageID is not on it.
func (s *ProfileStore) RemoveImage(ctx context.Context, userID, imageID string) (*models.ProfileImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok || !profile.IsActive() {
		return nil, sql.ErrNoRows
	}
	profile = cloneProfile(profile)
	removed, ok := profile.RemoveImage(imageID)
	if !ok {
		return nil, nil
	}
	profile.UpdatedAt = time.Now().UTC()
	s.profiles[userID] = profile
	return &removed, nil
}

// SetStatus changes the profile status, or returns sql.ErrNoRows.
func (s *ProfileStore) SetStatus(ctx context.Context, userID string, status models.ProfileStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return sql.ErrNoRows
	}
	profile.Status = status
	profile.UpdatedAt = time.Now().UTC()
	s.profiles[userID] = profile
	return nil
}

func cloneProfile(src models.Profile) models.Profile {
	dst := src
	if src.Images != nil {
		dst.Images = make(models.ProfileImages, len(src.Images))
		copy(dst.Images, src.Images)
	}
	if src.Certifications != nil {
		dst.Certifications = make(pq.StringArray, len(src.Certifications))
		copy(dst.Certifications, src.Certifications)
	}
	return dst
}
