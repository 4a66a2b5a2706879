package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/internal/dto"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/response"
)

type profileService interface {
	GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	UpsertProfile(ctx context.Context, userID string, req dto.UpsertProfileRequest) (*dto.ProfileResponse, error)
	RemoveImage(ctx context.Context, userID, imageID string) (*dto.ProfileResponse, error)
	DeleteProfile(ctx context.Context, userID string) (*dto.DeleteProfileResponse, error)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service profileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get godoc
// @Summary Get the caller's profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=dto.ProfileResponse}
// @Failure 404 {object} response.Envelope
// @Router /profile/me [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}
	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Put godoc
// @Summary Create or replace the caller's profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpsertProfileRequest true "Profile"
// @Success 200 {object} response.Envelope{data=dto.ProfileResponse}
// @Failure 400 {object} response.Envelope
// @Router /profile/me [put]
func (h *ProfileHandler) Put(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}
	var req dto.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	profile, err := h.service.UpsertProfile(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Delete godoc
// @Summary Deactivate the caller's profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=dto.DeleteProfileResponse}
// @Failure 404 {object} response.Envelope
// @Router /profile/me [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}
	result, err := h.service.DeleteProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteImage godoc
// @Summary Remove one image from the caller's profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Param imageId path string true "Image ID"
// @Success 200 {object} response.Envelope{data=dto.ProfileResponse}
// @Failure 404 {object} response.Envelope
// @Router /profile/images/{imageId} [delete]
func (h *ProfileHandler) DeleteImage(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}
	profile, err := h.service.RemoveImage(c.Request.Context(), userID, c.Param("imageId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}
