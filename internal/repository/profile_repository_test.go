package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-booking-api/internal/models"
)

var profileRowColumns = []string{"user_id", "role", "status", "first_name", "last_name", "display_name", "bio", "phone",
	"specialty", "address1", "address2", "city", "state", "zip", "gender", "images", "id_image_key", "certifications",
	"price_per_class", "price_per_week", "price_per_month", "created_at", "updated_at"}

func TestProfileRepositoryFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM profiles WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(profileRowColumns).AddRow("user-1", "trainer", "active", "John", "Doe", "John Doe",
			"Certified trainer", "+1234567890", "Weight Training", "123 Main Street", "Apt 4B", "New York", "NY", "10001",
			"Male", []byte(`[{"imageId":"img-1","key":"profile-images/user-1/img-1.jpg"}]`), "profile-images/user-1/id.jpg",
			"{NASM,CPR}", "50.00", nil, nil, created, created))

	profile, err := repo.Find(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileRoleTrainer, profile.Role)
	require.Len(t, profile.Images, 1)
	assert.Equal(t, "img-1", profile.Images[0].ImageID)
	assert.Equal(t, []string{"NASM", "CPR"}, []string(profile.Certifications))
	assert.True(t, profile.PricePerClass.Valid)
	assert.Equal(t, "50", profile.PricePerClass.Decimal.String())
	assert.False(t, profile.PricePerWeek.Valid)

	mock.ExpectQuery("FROM profiles WHERE user_id = \\$1").WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	_, err = repo.Find(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryUpsertKeepsCreatedAtOnConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("INSERT INTO profiles .* ON CONFLICT \\(user_id\\) DO UPDATE SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	profile := &models.Profile{UserID: "user-1", Role: models.ProfileRoleStudent, Status: models.ProfileStatusActive}
	require.NoError(t, repo.Upsert(context.Background(), profile))
	assert.False(t, profile.CreatedAt.IsZero())
	assert.NotNil(t, profile.Images)
	assert.NotNil(t, profile.Certifications)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryRemoveImage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)
	images := []byte(`[{"imageId":"a","key":"profile-images/user-1/a.jpg"},{"imageId":"b","key":"profile-images/user-1/b.jpg"}]`)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT images FROM profiles WHERE user_id = \\$1 AND status = \\$2 FOR UPDATE").
		WithArgs("user-1", "active").
		WillReturnRows(sqlmock.NewRows([]string{"images"}).AddRow(images))
	mock.ExpectExec("UPDATE profiles SET images = \\$2, updated_at = \\$3 WHERE user_id = \\$1").
		WithArgs("user-1", []byte(`[{"imageId":"b","key":"profile-images/user-1/b.jpg"}]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.RemoveImage(context.Background(), "user-1", "a")
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "profile-images/user-1/a.jpg", removed.Key)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT images FROM profiles").
		WithArgs("user-1", "active").
		WillReturnRows(sqlmock.NewRows([]string{"images"}).AddRow(images))
	mock.ExpectRollback()

	missing, err := repo.RemoveImage(context.Background(), "user-1", "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositorySetStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("UPDATE profiles SET status = \\$2").
		WithArgs("user-1", "inactive", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetStatus(context.Background(), "user-1", models.ProfileStatusInactive))

	mock.ExpectExec("UPDATE profiles SET status = \\$2").
		WithArgs("ghost", "inactive", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetStatus(context.Background(), "ghost", models.ProfileStatusInactive), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
