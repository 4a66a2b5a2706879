package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/events"
)

func TestEnrollmentServiceLastSeatGoesToOneStudent(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: true})
	f.seed(t, models.ClassSession{SessionID: "s1", Capacity: 1,
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, student := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, student string) {
			defer wg.Done()
			_, results[i] = f.enrollments.Enroll(context.Background(), student, "s1")
		}(i, student)
	}
	wg.Wait()

	var succeeded, full int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, appErrors.ErrSessionFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, full)
	assert.Equal(t, 1, f.count(t, "s1"))

	roster, err := f.enrollmentStore.ListActiveBySession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func TestEnrollmentServiceManyStudentsFillCapacityExactly(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: true})
	f.seed(t, models.ClassSession{SessionID: "s1", Capacity: 5,
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.enrollments.Enroll(context.Background(), "student-"+string(rune('a'+i)), "s1"); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, f.count(t, "s1"))
}

func TestEnrollmentServiceTimeConflicts(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: true})
	ctx := context.Background()
	f.seed(t, models.ClassSession{SessionID: "morning",
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})
	f.seed(t, models.ClassSession{SessionID: "overlapping",
		StartTime: at(t, "2030-01-01T10:30:00Z"), EndTime: at(t, "2030-01-01T11:30:00Z")})
	f.seed(t, models.ClassSession{SessionID: "adjacent",
		StartTime: at(t, "2030-01-01T11:00:00Z"), EndTime: at(t, "2030-01-01T12:00:00Z")})

	_, err := f.enrollments.Enroll(ctx, "alice", "morning")
	require.NoError(t, err)

	_, err = f.enrollments.Enroll(ctx, "alice", "overlapping")
	assert.True(t, errors.Is(err, appErrors.ErrTimeConflict))
	assert.Equal(t, 0, f.count(t, "overlapping"))

	_, err = f.enrollments.Enroll(ctx, "alice", "adjacent")
	require.NoError(t, err)

	_, err = f.enrollments.Enroll(ctx, "bob", "overlapping")
	require.NoError(t, err)
}

func TestEnrollmentServiceConflictAfterUnenrollClears(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: true})
	ctx := context.Background()
	f.seed(t, models.ClassSession{SessionID: "a",
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})
	f.seed(t, models.ClassSession{SessionID: "b",
		StartTime: at(t, "2030-01-01T10:15:00Z"), EndTime: at(t, "2030-01-01T10:45:00Z")})

	_, err := f.enrollments.Enroll(ctx, "alice", "a")
	require.NoError(t, err)
	require.NoError(t, f.enrollments.Unenroll(ctx, "alice", "a"))

	_, err = f.enrollments.Enroll(ctx, "alice", "b")
	require.NoError(t, err)
}

func TestEnrollmentServiceDuplicateAndReenroll(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: true})
	ctx := context.Background()
	f.seed(t, models.ClassSession{SessionID: "s1",
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})

	_, err := f.enrollments.Enroll(ctx, "alice", "s1")
	require.NoError(t, err)
	_, err = f.enrollments.Enroll(ctx, "alice", "s1")
	assert.True(t, errors.Is(err, appErrors.ErrAlreadyEnrolled))
	assert.Equal(t, 1, f.count(t, "s1"))

	require.NoError(t, f.enrollments.Unenroll(ctx, "alice", "s1"))
	assert.Equal(t, 0, f.count(t, "s1"))

	enrollment, err := f.enrollments.Enroll(ctx, "alice", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, 1, f.count(t, "s1"))

	assert.Equal(t, []string{
		events.TypeEnrollmentCreated,
		events.TypeEnrollmentCancelled,
		events.TypeEnrollmentCreated,
	}, f.dispatcher.types())
}

func TestEnrollmentServiceReenrollDisabled(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: false})
	ctx := context.Background()
	f.seed(t, models.ClassSession{SessionID: "s1",
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})

	_, err := f.enrollments.Enroll(ctx, "alice", "s1")
	require.NoError(t, err)
	require.NoError(t, f.enrollments.Unenroll(ctx, "alice", "s1"))

	_, err = f.enrollments.Enroll(ctx, "alice", "s1")
	assert.True(t, errors.Is(err, appErrors.ErrReenrollNotAllowed))
	assert.Equal(t, 0, f.count(t, "s1"))
}

func TestEnrollmentServiceCancelledSession(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: true})
	ctx := context.Background()
	f.seed(t, models.ClassSession{SessionID: "s1",
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})

	_, err := f.enrollments.Enroll(ctx, "alice", "s1")
	require.NoError(t, err)
	_, err = f.sessions.CancelSession(ctx, "s1", "trainer-1")
	require.NoError(t, err)

	_, err = f.enrollments.Enroll(ctx, "bob", "s1")
	assert.True(t, errors.Is(err, appErrors.ErrSessionCancelled))

	classes, err := f.enrollments.ListActiveForStudent(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, models.SessionStatusCancelled, classes[0].Class.Status)

	require.NoError(t, f.enrollments.Unenroll(ctx, "alice", "s1"))
	assert.Equal(t, 0, f.count(t, "s1"))
}

func TestEnrollmentServiceUnenrollWithoutEnrollment(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{})
	f.seed(t, models.ClassSession{SessionID: "s1"})

	err := f.enrollments.Unenroll(context.Background(), "alice", "s1")
	assert.True(t, errors.Is(err, appErrors.ErrNotEnrolled))
	assert.True(t, errors.Is(f.enrollments.Unenroll(context.Background(), "", "s1"), appErrors.ErrUnauthorized))
}

type failingInsertStore struct {
	enrollmentStore
}

func (failingInsertStore) Insert(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	return false, errors.New("disk full")
}

func TestEnrollmentServiceCompensatesFailedWrite(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: true})
	f.seed(t, models.ClassSession{SessionID: "s1",
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})
	svc := NewEnrollmentService(failingInsertStore{f.enrollmentStore}, f.sessions, nil, nil, EnrollmentServiceConfig{}, nil)

	_, err := svc.Enroll(context.Background(), "alice", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, f.count(t, "s1"))
}

type failingDecrementCounter struct {
	registrationCounter
}

func (failingDecrementCounter) DecrementRegistration(ctx context.Context, sessionID string) error {
	return appErrors.Internal(errors.New("connection reset"), "failed to update registration count")
}

func TestEnrollmentServiceRestoresWhenSeatReleaseFails(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{AllowReenroll: true})
	ctx := context.Background()
	f.seed(t, models.ClassSession{SessionID: "s1",
		StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})
	original, err := f.enrollments.Enroll(ctx, "alice", "s1")
	require.NoError(t, err)

	svc := NewEnrollmentService(f.enrollmentStore, failingDecrementCounter{f.sessions}, nil, nil, EnrollmentServiceConfig{}, nil)
	err = svc.Unenroll(ctx, "alice", "s1")
	require.Error(t, err)

	enrollment, err := f.enrollmentStore.Find(ctx, "alice", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.True(t, enrollment.EnrolledAt.Equal(original.EnrolledAt))
	assert.Equal(t, 1, f.count(t, "s1"))
}

func TestEnrollmentServiceListForTrainer(t *testing.T) {
	f := newBookingFixture(t, SessionServiceConfig{}, EnrollmentServiceConfig{})
	f.seed(t, models.ClassSession{SessionID: "s1", StartTime: at(t, "2030-01-01T10:00:00Z"), EndTime: at(t, "2030-01-01T11:00:00Z")})
	f.seed(t, models.ClassSession{SessionID: "s2", Status: models.SessionStatusCancelled,
		StartTime: at(t, "2030-01-02T10:00:00Z"), EndTime: at(t, "2030-01-02T11:00:00Z")})
	f.seed(t, models.ClassSession{SessionID: "s3", TrainerID: "trainer-2"})

	sessions, err := f.enrollments.ListForTrainer(context.Background(), "trainer-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
