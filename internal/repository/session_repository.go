package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-booking-api/internal/geo"
	"github.com/noah-isme/class-booking-api/internal/models"
)

const sessionColumns = `session_id, class_id, trainer_id, trainer_name, class_name, overview,
        address_line1, address_line2, city, state, zip, latitude, longitude, timezone,
        start_time, end_time, capacity, count_registered, status, price_per_class, currency,
        product_id, price_id, tags, created_at, updated_at, cancelled_at`

// SessionRepository persists class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateBatch inserts all sessions of a class in one transaction; either every row lands or none does.
func (r *SessionRepository) CreateBatch(ctx context.Context, sessions []models.ClassSession) error {
	if len(sessions) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create sessions tx: %w", err)
	}
	const query = `INSERT INTO class_sessions (session_id, class_id, trainer_id, trainer_name, class_name, overview,
        address_line1, address_line2, city, state, zip, latitude, longitude, timezone,
        start_time, end_time, capacity, count_registered, status, price_per_class, currency,
        product_id, price_id, tags, created_at, updated_at)
        VALUES (:session_id, :class_id, :trainer_id, :trainer_name, :class_name, :overview,
        :address_line1, :address_line2, :city, :state, :zip, :latitude, :longitude, :timezone,
        :start_time, :end_time, :capacity, :count_registered, :status, :price_per_class, :currency,
        :product_id, :price_id, :tags, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].SessionID == "" {
			sessions[i].SessionID = uuid.NewString()
		}
		if sessions[i].Status == "" {
			sessions[i].Status = models.SessionStatusActive
		}
		sessions[i].CreatedAt = now
		sessions[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, sessions[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert session: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create sessions tx: %w", err)
	}
	return nil
}

// FindByID returns a session or sql.ErrNoRows.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM class_sessions WHERE session_id = $1`
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByTrainer returns every session owned by a trainer, newest start first.
func (r *SessionRepository) ListByTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM class_sessions WHERE trainer_id = $1 ORDER BY start_time DESC, session_id`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, trainerID); err != nil {
		return nil, fmt.Errorf("list trainer sessions: %w", err)
	}
	return sessions, nil
}

// ListActiveByZip returns active sessions held at a postal code.
func (r *SessionRepository) ListActiveByZip(ctx context.Context, zip string) ([]models.ClassSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM class_sessions WHERE zip = $1 AND status = $2 ORDER BY start_time, session_id`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, zip, models.SessionStatusActive); err != nil {
		return nil, fmt.Errorf("list sessions by zip: %w", err)
	}
	return sessions, nil
}

// ListActiveWithinBounds returns active sessions whose coordinates fall inside the box.
func (r *SessionRepository) ListActiveWithinBounds(ctx context.Context, box geo.BoundingBox) ([]models.ClassSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM class_sessions
        WHERE status = $1 AND latitude BETWEEN $2 AND $3 AND longitude BETWEEN $4 AND $5
        ORDER BY start_time, session_id`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, models.SessionStatusActive, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon); err != nil {
		return nil, fmt.Errorf("list sessions within bounds: %w", err)
	}
	return sessions, nil
}

// UpdateCount performs a compare-and-swap on count_registered.
// It reports false when another writer changed the row first.
func (r *SessionRepository) UpdateCount(ctx context.Context, update models.CountUpdate) (bool, error) {
	query := `UPDATE class_sessions SET count_registered = $3, updated_at = $4
        WHERE session_id = $1 AND count_registered = $2`
	args := []interface{}{update.SessionID, update.Expected, update.Next, time.Now().UTC()}
	if update.RequireActive {
		query += ` AND status = $5`
		args = append(args, models.SessionStatusActive)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update session count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update session count rows: %w", err)
	}
	return affected == 1, nil
}

// MarkCancelled flips an active session to CANCELLED. It reports false when the session was not active.
func (r *SessionRepository) MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE class_sessions SET status = $2, cancelled_at = $3, updated_at = $3
        WHERE session_id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.SessionStatusCancelled, at, models.SessionStatusActive)
	if err != nil {
		return false, fmt.Errorf("cancel session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel session rows: %w", err)
	}
	return affected == 1, nil
}
