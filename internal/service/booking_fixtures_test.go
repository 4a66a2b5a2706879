package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-booking-api/internal/geo"
	"github.com/noah-isme/class-booking-api/internal/models"
	"github.com/noah-isme/class-booking-api/internal/repository/memory"
	"github.com/noah-isme/class-booking-api/pkg/events"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingDispatcher) Dispatch(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingDispatcher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

type bookingFixture struct {
	sessionStore    *memory.SessionStore
	enrollmentStore *memory.EnrollmentStore
	messageStore    *memory.MessageStore
	locations       *geo.Index
	dispatcher      *recordingDispatcher
	sessions        *SessionService
	enrollments     *EnrollmentService
}

func newBookingFixture(t *testing.T, sessionCfg SessionServiceConfig, enrollmentCfg EnrollmentServiceConfig) *bookingFixture {
	t.Helper()
	sessionStore := memory.NewSessionStore()
	enrollmentStore := memory.NewEnrollmentStore(sessionStore)
	locations := geo.NewIndex(geo.NewStaticSource(geo.SeedZipCodes))
	dispatcher := &recordingDispatcher{}
	sessions := NewSessionService(sessionStore, locations, nil, dispatcher, nil, sessionCfg, nil, nil)
	return &bookingFixture{
		sessionStore:    sessionStore,
		enrollmentStore: enrollmentStore,
		messageStore:    memory.NewMessageStore(),
		locations:       locations,
		dispatcher:      dispatcher,
		sessions:        sessions,
		enrollments:     NewEnrollmentService(enrollmentStore, sessions, dispatcher, nil, enrollmentCfg, nil),
	}
}

// seed stores a session directly, bypassing validation.
func (f *bookingFixture) seed(t *testing.T, session models.ClassSession) models.ClassSession {
	t.Helper()
	if session.Status == "" {
		session.Status = models.SessionStatusActive
	}
	if session.TrainerID == "" {
		session.TrainerID = "trainer-1"
	}
	if session.ClassID == "" {
		session.ClassID = "class-" + session.SessionID
	}
	if session.ClassName == "" {
		session.ClassName = "Session " + session.SessionID
	}
	if session.Capacity == 0 {
		session.Capacity = 10
	}
	if session.Timezone == "" {
		session.Timezone = "UTC"
	}
	if session.Currency == "" {
		session.Currency = "USD"
	}
	if session.PricePerClass.IsZero() {
		session.PricePerClass = decimal.RequireFromString("15.00")
	}
	require.NoError(t, f.sessionStore.CreateBatch(context.Background(), []models.ClassSession{session}))
	return session
}

func (f *bookingFixture) count(t *testing.T, sessionID string) int {
	t.Helper()
	session, err := f.sessionStore.FindByID(context.Background(), sessionID)
	require.NoError(t, err)
	return session.CountRegistered
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}
