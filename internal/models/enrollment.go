package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment is a student's claim on one seat in one session, keyed by (student, session).
type Enrollment struct {
	StudentID   string           `db:"student_id" json:"studentId"`
	SessionID   string           `db:"session_id" json:"sessionId"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt  time.Time        `db:"enrolled_at" json:"enrolledAt"`
	CancelledAt *time.Time       `db:"cancelled_at" json:"cancelledAt,omitempty"`
}

// IsActive reports whether the enrollment currently holds a seat.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}

// StudentClass joins an enrollment with the session backing it.
type StudentClass struct {
	Class      ClassSession `json:"class"`
	Enrollment Enrollment   `json:"enrollment"`
}
