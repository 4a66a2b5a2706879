package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/models"
	"github.com/noah-isme/class-booking-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error)
	Unenroll(ctx context.Context, studentID, sessionID string) error
	ListActiveForStudent(ctx context.Context, studentID string) ([]models.StudentClass, error)
	ListForTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error)
}

// EnrollmentHandler exposes enroll and unenroll for the calling student.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Enroll godoc
// @Summary Enroll the caller in a session
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 201 {object} response.Envelope{data=dto.EnrollmentResponse}
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /classes/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	studentID, ok := requireSubject(c)
	if !ok {
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.EnrollmentResponse{
		SessionID:  enrollment.SessionID,
		Status:     enrollment.Status,
		EnrolledAt: &enrollment.EnrolledAt,
	})
}

// Unenroll godoc
// @Summary Cancel the caller's enrollment in a session
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope{data=dto.EnrollmentResponse}
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/enroll [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	studentID, ok := requireSubject(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")
	if err := h.service.Unenroll(c.Request.Context(), studentID, sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.EnrollmentResponse{SessionID: sessionID, Status: models.EnrollmentStatusCancelled})
}
