package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-booking-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

type studentClassRow struct {
	models.ClassSession
	EnrollmentStatus      models.EnrollmentStatus `db:"enrollment_status"`
	EnrolledAt            time.Time               `db:"enrolled_at"`
	EnrollmentCancelledAt *time.Time              `db:"enrollment_cancelled_at"`
	StudentID             string                  `db:"student_id"`
}

// Find returns the enrollment for a (student, session) pair or sql.ErrNoRows.
func (r *EnrollmentRepository) Find(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error) {
	const query = `SELECT student_id, session_id, status, enrolled_at, cancelled_at FROM enrollments WHERE student_id = $1 AND session_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, sessionID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveByStudent joins a student's active enrollments with their sessions.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.StudentClass, error) {
	const query = `SELECT s.session_id, s.class_id, s.trainer_id, s.trainer_name, s.class_name, s.overview,
        s.address_line1, s.address_line2, s.city, s.state, s.zip, s.latitude, s.longitude, s.timezone,
        s.start_time, s.end_time, s.capacity, s.count_registered, s.status, s.price_per_class, s.currency,
        s.product_id, s.price_id, s.tags, s.created_at, s.updated_at, s.cancelled_at,
        e.student_id, e.status AS enrollment_status, e.enrolled_at, e.cancelled_at AS enrollment_cancelled_at
        FROM enrollments e
        JOIN class_sessions s ON s.session_id = e.session_id
        WHERE e.student_id = $1 AND e.status = $2
        ORDER BY s.start_time, s.session_id`
	var rows []studentClassRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	result := make([]models.StudentClass, 0, len(rows))
	for _, row := range rows {
		result = append(result, models.StudentClass{
			Class: row.ClassSession,
			Enrollment: models.Enrollment{
				StudentID:   row.StudentID,
				SessionID:   row.SessionID,
				Status:      row.EnrollmentStatus,
				EnrolledAt:  row.EnrolledAt,
				CancelledAt: row.EnrollmentCancelledAt,
			},
		})
	}
	return result, nil
}

// ListActiveBySession returns the active roster of a session ordered by enrollment time.
func (r *EnrollmentRepository) ListActiveBySession(ctx context.Context, sessionID string) ([]models.Enrollment, error) {
	const query = `SELECT student_id, session_id, status, enrolled_at, cancelled_at FROM enrollments
        WHERE session_id = $1 AND status = $2 ORDER BY enrolled_at, student_id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, sessionID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list session enrollments: %w", err)
	}
	return enrollments, nil
}

// Insert records a new enrollment. It reports false when a row for the pair already exists.
func (r *EnrollmentRepository) Insert(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO enrollments (student_id, session_id, status, enrolled_at, cancelled_at)
        VALUES (:student_id, :session_id, :status, :enrolled_at, :cancelled_at)
        ON CONFLICT (student_id, session_id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, enrollment)
	if err != nil {
		return false, fmt.Errorf("insert enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert enrollment rows: %w", err)
	}
	return affected == 1, nil
}

// Reactivate turns a CANCELLED enrollment back to ACTIVE with a fresh enrolled_at.
func (r *EnrollmentRepository) Reactivate(ctx context.Context, studentID, sessionID string, at time.Time) (bool, error) {
	const query = `UPDATE enrollments SET status = $3, enrolled_at = $4, cancelled_at = NULL
        WHERE student_id = $1 AND session_id = $2 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, studentID, sessionID, models.EnrollmentStatusActive, at, models.EnrollmentStatusCancelled)
	if err != nil {
		return false, fmt.Errorf("reactivate enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reactivate enrollment rows: %w", err)
	}
	return affected == 1, nil
}

// Restore reverts a CANCELLED enrollment to ACTIVE keeping its original enrolled_at.
func (r *EnrollmentRepository) Restore(ctx context.Context, studentID, sessionID string) (bool, error) {
	const query = `UPDATE enrollments SET status = $3, cancelled_at = NULL
        WHERE student_id = $1 AND session_id = $2 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, studentID, sessionID, models.EnrollmentStatusActive, models.EnrollmentStatusCancelled)
	if err != nil {
		return false, fmt.Errorf("restore enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("restore enrollment rows: %w", err)
	}
	return affected == 1, nil
}

// MarkCancelled flips an ACTIVE enrollment to CANCELLED. It reports false when nothing was active.
func (r *EnrollmentRepository) MarkCancelled(ctx context.Context, studentID, sessionID string, at time.Time) (bool, error) {
	const query = `UPDATE enrollments SET status = $3, cancelled_at = $4
        WHERE student_id = $1 AND session_id = $2 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, studentID, sessionID, models.EnrollmentStatusCancelled, at, models.EnrollmentStatusActive)
	if err != nil {
		return false, fmt.Errorf("cancel enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel enrollment rows: %w", err)
	}
	return affected == 1, nil
}
