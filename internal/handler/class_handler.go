package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/response"
)

type sessionService interface {
	CreateSessions(ctx context.Context, trainerID string, req dto.CreateClassRequest) ([]models.ClassSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.ClassSession, error)
	CancelSession(ctx context.Context, sessionID, requesterID string) (*models.ClassSession, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error)
	ListByZip(ctx context.Context, zip string) ([]models.ClassSession, error)
}

type discoveryService interface {
	Search(ctx context.Context, q dto.SearchQuery) (*dto.SearchResponse, bool, error)
}

type rosterService interface {
	Export(ctx context.Context, sessionID, requesterID, format string) (*dto.RosterDocument, error)
}

// ClassHandler exposes class session endpoints.
type ClassHandler struct {
	sessions  sessionService
	discovery discoveryService
	rosters   rosterService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(sessions sessionService, discovery discoveryService, rosters rosterService) *ClassHandler {
	return &ClassHandler{sessions: sessions, discovery: discovery, rosters: rosters}
}

// Create godoc
// @Summary Create a class with one or more sessions
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope{data=dto.CreateClassResponse}
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	trainerID, ok := requireSubject(c)
	if !ok {
		return
	}
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	sessions, err := h.sessions.CreateSessions(c.Request.Context(), trainerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.CreateClassResponse{
		ClassID:   sessions[0].ClassID,
		SessionID: sessions[0].SessionID,
		Sessions:  make([]dto.CreatedSession, 0, len(sessions)),
	}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, dto.CreatedSession{
			SessionID: session.SessionID,
			StartTime: session.StartTime,
			EndTime:   session.EndTime,
			Capacity:  session.Capacity,
		})
	}
	response.Created(c, resp)
}

// List godoc
// @Summary List sessions by zip or trainer
// @Tags Classes
// @Produce json
// @Param zip query string false "Postal code (active sessions only)"
// @Param trainerId query string false "Trainer ID (all statuses)"
// @Success 200 {object} response.Envelope{data=dto.TrainerClassesResponse}
// @Failure 400 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	var query dto.ClassListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}

	var (
		sessions []models.ClassSession
		err      error
	)
	switch {
	case strings.TrimSpace(query.TrainerID) != "":
		sessions, err = h.sessions.ListByTrainer(c.Request.Context(), strings.TrimSpace(query.TrainerID))
	case strings.TrimSpace(query.Zip) != "":
		sessions, err = h.sessions.ListByZip(c.Request.Context(), query.Zip)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "zip or trainerId is required"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	response.OK(c, dto.TrainerClassesResponse{Count: len(sessions), Classes: sessions})
}

// Search godoc
// @Summary Search sessions near a postal code
// @Tags Classes
// @Produce json
// @Param zipCode query string true "Postal code at the centre of the search"
// @Param radiusMiles query number false "Radius in miles (default 25)"
// @Param query query string false "Case-insensitive match on class name or tag"
// @Param date query string false "Local calendar day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope{data=dto.SearchResponse}
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /classes/search [get]
func (h *ClassHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	result, cacheHit, err := h.discovery.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result, withCacheMeta(c, cacheHit))
}

// Get godoc
// @Summary Get a session
// @Tags Classes
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope{data=models.ClassSession}
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope{data=dto.CancelSessionResponse}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Cancel(c *gin.Context) {
	trainerID, ok := requireSubject(c)
	if !ok {
		return
	}
	session, err := h.sessions.CancelSession(c.Request.Context(), c.Param("id"), trainerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CancelSessionResponse{SessionID: session.SessionID, Status: string(session.Status)})
}

// Roster godoc
// @Summary Download the active roster of a session
// @Tags Classes
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /classes/{id}/roster [get]
func (h *ClassHandler) Roster(c *gin.Context) {
	trainerID, ok := requireSubject(c)
	if !ok {
		return
	}
	var query dto.RosterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	doc, err := h.rosters.Export(c.Request.Context(), c.Param("id"), trainerID, strings.ToLower(query.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}
