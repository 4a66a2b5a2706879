package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/models"
	"github.com/noah-isme/class-booking-api/pkg/response"
)

// StudentHandler serves the caller's own schedule views.
type StudentHandler struct {
	enrollments enrollmentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(enrollments enrollmentService) *StudentHandler {
	return &StudentHandler{enrollments: enrollments}
}

// MyClasses godoc
// @Summary List the caller's active enrollments
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=dto.MyClassesResponse}
// @Router /students/me/classes [get]
func (h *StudentHandler) MyClasses(c *gin.Context) {
	studentID, ok := requireSubject(c)
	if !ok {
		return
	}
	classes, err := h.enrollments.ListActiveForStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if classes == nil {
		classes = []models.StudentClass{}
	}
	response.OK(c, dto.MyClassesResponse{Count: len(classes), Classes: classes})
}

// MyTrainerClasses godoc
// @Summary List sessions the caller teaches, any status
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=dto.TrainerClassesResponse}
// @Router /trainers/me/classes [get]
func (h *StudentHandler) MyTrainerClasses(c *gin.Context) {
	trainerID, ok := requireSubject(c)
	if !ok {
		return
	}
	sessions, err := h.enrollments.ListForTrainer(c.Request.Context(), trainerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	response.OK(c, dto.TrainerClassesResponse{Count: len(sessions), Classes: sessions})
}
