package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/class-booking-api/internal/models"
)

const profileColumns = `user_id, role, status, first_name, last_name, display_name, bio, phone, specialty,
        address1, address2, city, state, zip, gender, images, id_image_key, certifications,
        price_per_class, price_per_week, price_per_month, created_at, updated_at`

// ProfileRepository stores user profiles keyed by identity-provider subject.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Find returns the profile for userID in any status, or sql.ErrNoRows.
func (r *ProfileRepository) Find(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert writes the whole profile. An existing row keeps its created_at.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if profile.Images == nil {
		profile.Images = models.ProfileImages{}
	}
	if profile.Certifications == nil {
		profile.Certifications = pq.StringArray{}
	}
	const query = `INSERT INTO profiles (` + profileColumns + `)
        VALUES (:user_id, :role, :status, :first_name, :last_name, :display_name, :bio, :phone, :specialty,
        :address1, :address2, :city, :state, :zip, :gender, :images, :id_image_key, :certifications,
        :price_per_class, :price_per_week, :price_per_month, :created_at, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET
          role = EXCLUDED.role, status = EXCLUDED.status, first_name = EXCLUDED.first_name,
          last_name = EXCLUDED.last_name, display_name = EXCLUDED.display_name, bio = EXCLUDED.bio,
          phone = EXCLUDED.phone, specialty = EXCLUDED.specialty, address1 = EXCLUDED.address1,
          address2 = EXCLUDED.address2, city = EXCLUDED.city, state = EXCLUDED.state, zip = EXCLUDED.zip,
          gender = EXCLUDED.gender, images = EXCLUDED.images, id_image_key = EXCLUDED.id_image_key,
          certifications = EXCLUDED.certifications, price_per_class = EXCLUDED.price_per_class,
          price_per_week = EXCLUDED.price_per_week, price_per_month = EXCLUDED.price_per_month,
          updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// RemoveImage drops one image from an active profile under a row lock. It returns
// sql.ErrNoRows when there is no active profile and a nil image when imageID is not on it.
func (r *ProfileRepository) RemoveImage(ctx context.Context, userID, imageID string) (*models.ProfileImage, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin remove image tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var images models.ProfileImages
	const lock = `SELECT images FROM profiles WHERE user_id = $1 AND status = $2 FOR UPDATE`
	if err := tx.GetContext(ctx, &images, lock, userID, models.ProfileStatusActive); err != nil {
		return nil, err
	}
	profile := models.Profile{Images: images}
	removed, ok := profile.RemoveImage(imageID)
	if !ok {
		return nil, nil
	}
	const update = `UPDATE profiles SET images = $2, updated_at = $3 WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, update, userID, profile.Images, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("update profile images: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit remove image tx: %w", err)
	}
	return &removed, nil
}

// SetStatus changes the profile status, or returns sql.ErrNoRows when no profile exists.
func (r *ProfileRepository) SetStatus(ctx context.Context, userID string, status models.ProfileStatus) error {
	const query = `UPDATE profiles SET status = $2, updated_at = $3 WHERE user_id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("profile status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
