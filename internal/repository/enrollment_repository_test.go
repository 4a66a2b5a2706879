package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-booking-api/internal/models"
)

func TestEnrollmentRepositoryListActiveByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	enrolledAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	columns := append(append([]string{}, sessionRowColumns...), "student_id", "enrollment_status", "enrolled_at", "enrollment_cancelled_at")
	start := time.Date(2026, 11, 5, 15, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(columns).AddRow("sess-1", "class-1", "trainer-1", "Pat", "Yoga", "", "1 Main St", "", "Melissa", "TX", "75454",
		33.2859, -96.5730, "America/Chicago", start, start.Add(time.Hour), 10, 1, "ACTIVE", "25.00", "USD",
		"", "", "{}", start, start, nil, "stu-1", "ACTIVE", enrolledAt, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.student_id = $1 AND e.status = $2")).
		WithArgs("stu-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	classes, err := repo.ListActiveByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "sess-1", classes[0].Class.SessionID)
	assert.Equal(t, "sess-1", classes[0].Enrollment.SessionID)
	assert.Equal(t, "stu-1", classes[0].Enrollment.StudentID)
	assert.Equal(t, enrolledAt, classes[0].Enrollment.EnrolledAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryInsertConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, session_id) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Insert(context.Background(), &models.Enrollment{StudentID: "stu-1", SessionID: "sess-1", EnrolledAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryTransitions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE enrollments SET status = \\$3, cancelled_at = \\$4").
		WithArgs("stu-1", "sess-1", models.EnrollmentStatusCancelled, at, models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE enrollments SET status = \\$3, enrolled_at = \\$4, cancelled_at = NULL").
		WithArgs("stu-1", "sess-1", models.EnrollmentStatusActive, at, models.EnrollmentStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE enrollments SET status = \\$3, cancelled_at = NULL").
		WithArgs("stu-1", "sess-1", models.EnrollmentStatusActive, models.EnrollmentStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkCancelled(context.Background(), "stu-1", "sess-1", at)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Reactivate(context.Background(), "stu-1", "sess-1", at)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Restore(context.Background(), "stu-1", "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
