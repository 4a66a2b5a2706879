package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/models"
	"github.com/noah-isme/class-booking-api/internal/repository/memory"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/events"
)

const (
	imageA = "0b6a4a0e-8d0f-4c43-9a57-2f3c1c7e1a01"
	imageB = "0b6a4a0e-8d0f-4c43-9a57-2f3c1c7e1a02"
	imageC = "0b6a4a0e-8d0f-4c43-9a57-2f3c1c7e1a03"
	idImg  = "0b6a4a0e-8d0f-4c43-9a57-2f3c1c7e1a04"
)

type recordingRemover struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (r *recordingRemover) DeleteObject(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return r.err
}

func imageRef(user, id string) dto.ImageRef {
	return dto.ImageRef{ImageID: id, Key: "profile-images/" + user + "/" + id + ".jpg"}
}

func trainerProfileRequest(user string) dto.UpsertProfileRequest {
	perClass := decimal.RequireFromString("50")
	perMonth := decimal.RequireFromString("1000.005")
	id := imageRef(user, idImg)
	return dto.UpsertProfileRequest{
		Role:           "trainer",
		FirstName:      "John",
		LastName:       "Doe",
		DisplayName:    "John Doe - Fitness Trainer",
		Bio:            "Certified personal trainer with 5 years experience",
		Phone:          "+1234567890",
		Specialty:      "Weight Training",
		Address1:       "123 Main Street",
		Address2:       "Apt 4B",
		City:           "New York",
		State:          "NY",
		Zip:            "10001",
		Gender:         "Male",
		Images:         []dto.ImageRef{imageRef(user, imageA), imageRef(user, imageB), imageRef(user, imageC)},
		IDImage:        &id,
		Certifications: []string{"NASM", "CPR", "First Aid"},
		Pricing:        &dto.Pricing{PerClass: &perClass, PerMonth: &perMonth},
	}
}

func newProfileFixture() (*ProfileService, *memory.ProfileStore, *recordingRemover, *recordingDispatcher) {
	store := memory.NewProfileStore()
	remover := &recordingRemover{}
	dispatcher := &recordingDispatcher{}
	return NewProfileService(store, remover, dispatcher, ProfileServiceConfig{}, nil, nil), store, remover, dispatcher
}

func TestProfileServiceLifecycle(t *testing.T) {
	svc, store, remover, dispatcher := newProfileFixture()
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, "user-1")
	assert.True(t, errors.Is(err, appErrors.ErrProfileNotFound))

	saved, err := svc.UpsertProfile(ctx, "user-1", trainerProfileRequest("user-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ProfileRoleTrainer, saved.Role)
	assert.Equal(t, models.ProfileStatusActive, saved.Status)
	assert.Len(t, saved.Images, 3)
	assert.Equal(t, "profile-images/user-1/"+idImg+".jpg", saved.IDImageKey)
	require.NotNil(t, saved.Pricing)
	assert.Equal(t, "50", saved.Pricing.PerClass.String())
	assert.Nil(t, saved.Pricing.PerWeek)
	assert.Equal(t, "1000.01", saved.Pricing.PerMonth.String())

	got, err := svc.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"NASM", "CPR", "First Aid"}, got.Certifications)

	updated, err := svc.RemoveImage(ctx, "user-1", imageA)
	require.NoError(t, err)
	require.Len(t, updated.Images, 2)
	assert.Equal(t, imageB, updated.Images[0].ImageID)
	assert.Equal(t, []string{"profile-images/user-1/" + imageA + ".jpg"}, remover.keys)

	_, err = svc.RemoveImage(ctx, "user-1", imageA)
	assert.True(t, errors.Is(err, appErrors.ErrImageNotFound))

	deleted, err := svc.DeleteProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusInactive, deleted.Status)

	stored, err := store.Find(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusInactive, stored.Status)
	assert.Len(t, stored.Images, 2, "soft delete keeps the row intact")

	_, err = svc.GetProfile(ctx, "user-1")
	assert.True(t, errors.Is(err, appErrors.ErrProfileNotFound))
	_, err = svc.RemoveImage(ctx, "user-1", imageB)
	assert.True(t, errors.Is(err, appErrors.ErrProfileNotFound))

	again, err := svc.DeleteProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusInactive, again.Status)

	assert.Equal(t, []string{events.TypeProfileUpdated, events.TypeProfileUpdated, events.TypeProfileDeleted}, dispatcher.types())
}

func TestProfileServiceUpsertReplacesAndCleansUpDroppedImages(t *testing.T) {
	svc, _, remover, _ := newProfileFixture()
	ctx := context.Background()

	first, err := svc.UpsertProfile(ctx, "user-1", trainerProfileRequest("user-1"))
	require.NoError(t, err)

	req := trainerProfileRequest("user-1")
	req.Role = "student"
	req.Images = []dto.ImageRef{imageRef("user-1", imageB)}
	req.IDImage = nil
	req.Pricing = nil
	second, err := svc.UpsertProfile(ctx, "user-1", req)
	require.NoError(t, err)

	assert.Equal(t, models.ProfileRoleStudent, second.Role)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Empty(t, second.IDImageKey)
	assert.Nil(t, second.Pricing)
	assert.ElementsMatch(t, []string{
		"profile-images/user-1/" + imageA + ".jpg",
		"profile-images/user-1/" + imageC + ".jpg",
		"profile-images/user-1/" + idImg + ".jpg",
	}, remover.keys)
}

func TestProfileServiceUpsertReactivatesDeletedProfile(t *testing.T) {
	svc, _, _, _ := newProfileFixture()
	ctx := context.Background()

	_, err := svc.UpsertProfile(ctx, "user-1", trainerProfileRequest("user-1"))
	require.NoError(t, err)
	_, err = svc.DeleteProfile(ctx, "user-1")
	require.NoError(t, err)

	_, err = svc.UpsertProfile(ctx, "user-1", trainerProfileRequest("user-1"))
	require.NoError(t, err)
	got, err := svc.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStatusActive, got.Status)
}

func TestProfileServiceRejectsInvalidProfiles(t *testing.T) {
	svc, _, _, _ := newProfileFixture()
	ctx := context.Background()
	negative := decimal.RequireFromString("-1")

	cases := map[string]func(*dto.UpsertProfileRequest){
		"unknown role":      func(r *dto.UpsertProfileRequest) { r.Role = "admin" },
		"missing name":      func(r *dto.UpsertProfileRequest) { r.FirstName = "" },
		"bad phone":         func(r *dto.UpsertProfileRequest) { r.Phone = "call me" },
		"foreign image key": func(r *dto.UpsertProfileRequest) { r.Images[0] = imageRef("user-2", imageA) },
		"nested image key": func(r *dto.UpsertProfileRequest) {
			r.Images[0].Key = "profile-images/user-1/x/" + imageA + ".jpg"
		},
		"mismatched image id": func(r *dto.UpsertProfileRequest) { r.Images[0].ImageID = imageB },
		"duplicate image":     func(r *dto.UpsertProfileRequest) { r.Images[1] = r.Images[0] },
		"foreign id image": func(r *dto.UpsertProfileRequest) {
			id := imageRef("user-2", idImg)
			r.IDImage = &id
		},
		"negative price": func(r *dto.UpsertProfileRequest) { r.Pricing.PerWeek = &negative },
		"too many images": func(r *dto.UpsertProfileRequest) {
			r.Images = nil
			for i := 0; i < 7; i++ {
				r.Images = append(r.Images, imageRef("user-1", "0b6a4a0e-8d0f-4c43-9a57-2f3c1c7e1b0"+string(rune('0'+i))))
			}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := trainerProfileRequest("user-1")
			mutate(&req)
			_, err := svc.UpsertProfile(ctx, "user-1", req)
			assert.True(t, errors.Is(err, appErrors.ErrValidation), "got %v", err)
		})
	}

	_, err := svc.UpsertProfile(ctx, "", trainerProfileRequest(""))
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestProfileServiceStorageFailureDoesNotFailImageRemoval(t *testing.T) {
	svc, _, remover, _ := newProfileFixture()
	remover.err = errors.New("access denied")
	ctx := context.Background()

	_, err := svc.UpsertProfile(ctx, "user-1", trainerProfileRequest("user-1"))
	require.NoError(t, err)

	updated, err := svc.RemoveImage(ctx, "user-1", imageC)
	require.NoError(t, err)
	assert.Len(t, updated.Images, 2)
	assert.Len(t, remover.keys, 1)
}

func TestProfileServiceDeleteMissingProfile(t *testing.T) {
	svc := NewProfileService(memory.NewProfileStore(), nil, nil, ProfileServiceConfig{}, nil, nil)
	_, err := svc.DeleteProfile(context.Background(), "ghost")
	assert.True(t, errors.Is(err, appErrors.ErrProfileNotFound))
}
