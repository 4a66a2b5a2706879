package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/export"
)

type rosterReader interface {
	ListActiveBySession(ctx context.Context, sessionID string) ([]models.Enrollment, error)
}

// RosterService renders the active roster of a session for its trainer.
type RosterService struct {
	sessions    sessionReader
	enrollments rosterReader
}

// NewRosterService constructs the roster exporter.
func NewRosterService(sessions sessionReader, enrollments rosterReader) *RosterService {
	return &RosterService{sessions: sessions, enrollments: enrollments}
}

// Export renders the roster as csv (default) or pdf.
func (s *RosterService) Export(ctx context.Context, sessionID, requesterID, format string) (*dto.RosterDocument, error) {
	if format == "" {
		format = "csv"
	}
	renderer, ok := export.ForFormat(format)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning trainer can export the roster")
	}
	enrollments, err := s.enrollments.ListActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load roster")
	}

	loc := session.Location()
	data := export.Dataset{
		Title: session.ClassName,
		Meta: []string{
			fmt.Sprintf("%s - %s (%s)", session.StartTime.In(loc).Format("Mon 02 Jan 2006 15:04"), session.EndTime.In(loc).Format("15:04"), loc.String()),
			fmt.Sprintf("%s, %s, %s %s", session.AddressLine1, session.City, session.State, session.Zip),
			fmt.Sprintf("Status: %s  Registered: %d/%d", session.Status, session.CountRegistered, session.Capacity),
		},
		Headers: []string{"#", "Student ID", "Enrolled At"},
	}
	for i, enrollment := range enrollments {
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(i + 1),
			enrollment.StudentID,
			enrollment.EnrolledAt.UTC().Format(time.RFC3339),
		})
	}

	body, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render roster")
	}
	return &dto.RosterDocument{
		Filename:    fmt.Sprintf("roster-%s.%s", session.SessionID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
