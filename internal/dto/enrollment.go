package dto

import (
	"time"

	"github.com/noah-isme/class-booking-api/internal/models"
)

// EnrollmentResponse acknowledges an enroll or unenroll call.
type EnrollmentResponse struct {
	SessionID  string                  `json:"sessionId"`
	Status     models.EnrollmentStatus `json:"status"`
	EnrolledAt *time.Time              `json:"enrolledAt,omitempty"`
}

// MyClassesResponse lists the caller's active enrollments.
type MyClassesResponse struct {
	Count   int                   `json:"count"`
	Classes []models.StudentClass `json:"classes"`
}

// TrainerClassesResponse lists sessions owned by a trainer or held at a zip.
type TrainerClassesResponse struct {
	Count   int                   `json:"count"`
	Classes []models.ClassSession `json:"classes"`
}
