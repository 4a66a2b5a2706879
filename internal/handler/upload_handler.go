package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/internal/dto"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/response"
)

type uploadService interface {
	PresignProfileImages(ctx context.Context, subject string, req dto.PresignRequest) (*dto.PresignResponse, error)
}

// UploadHandler issues pre-signed profile image upload URLs.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(service uploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Presign godoc
// @Summary Get pre-signed upload URLs for profile images
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PresignRequest true "Upload request"
// @Success 200 {object} response.Envelope{data=dto.PresignResponse}
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /profile/presigned-url [post]
func (h *UploadHandler) Presign(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	var req dto.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.service.PresignProfileImages(c.Request.Context(), subject, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
