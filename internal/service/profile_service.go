package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/events"
	"github.com/noah-isme/class-booking-api/pkg/logger"
)

type profileStore interface {
	Find(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	RemoveImage(ctx context.Context, userID, imageID string) (*models.ProfileImage, error)
	SetStatus(ctx context.Context, userID string, status models.ProfileStatus) error
}

type objectRemover interface {
	DeleteObject(ctx context.Context, key string) error
}

// ProfileServiceConfig bounds profile content.
type ProfileServiceConfig struct {
	MaxImages int
}

// ProfileService manages the caller's own profile. Image keys must come from the
// caller's upload prefix, so a profile can only reference objects its owner uploaded.
type ProfileService struct {
	store     profileStore
	objects   objectRemover
	events    eventDispatcher
	cfg       ProfileServiceConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs the service. A nil remover leaves dropped images in storage.
func NewProfileService(
	store profileStore,
	objects objectRemover,
	dispatcher eventDispatcher,
	cfg ProfileServiceConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 6
	}
	return &ProfileService{
		store:     store,
		objects:   objects,
		events:    dispatcher,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
	}
}

// GetProfile returns the caller's active profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	profile, err := s.activeProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(profile), nil
}

// UpsertProfile creates or replaces the caller's profile and reactivates a deleted one.
func (s *ProfileService) UpsertProfile(ctx context.Context, userID string, req dto.UpsertProfileRequest) (*dto.ProfileResponse, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if len(req.Images) > s.cfg.MaxImages {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("images must not exceed %d", s.cfg.MaxImages))
	}

	images := make(models.ProfileImages, 0, len(req.Images))
	seen := make(map[string]struct{}, len(req.Images))
	for _, ref := range req.Images {
		if err := checkImageRef(userID, ref); err != nil {
			return nil, err
		}
		if _, dup := seen[ref.ImageID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image %s is listed twice", ref.ImageID))
		}
		seen[ref.ImageID] = struct{}{}
		images = append(images, models.ProfileImage{ImageID: ref.ImageID, Key: ref.Key})
	}
	idImageKey := ""
	if req.IDImage != nil {
		if err := checkImageRef(userID, *req.IDImage); err != nil {
			return nil, err
		}
		idImageKey = req.IDImage.Key
	}

	profile := &models.Profile{
		UserID:         userID,
		Role:           models.ProfileRole(req.Role),
		Status:         models.ProfileStatusActive,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		DisplayName:    strings.TrimSpace(req.DisplayName),
		Bio:            req.Bio,
		Phone:          req.Phone,
		Specialty:      req.Specialty,
		Address1:       req.Address1,
		Address2:       req.Address2,
		City:           req.City,
		State:          req.State,
		Zip:            req.Zip,
		Gender:         req.Gender,
		Images:         images,
		IDImageKey:     idImageKey,
		Certifications: pq.StringArray(append([]string{}, req.Certifications...)),
	}
	if req.Pricing != nil {
		var err error
		if profile.PricePerClass, err = priceField("perClass", req.Pricing.PerClass); err != nil {
			return nil, err
		}
		if profile.PricePerWeek, err = priceField("perWeek", req.Pricing.PerWeek); err != nil {
			return nil, err
		}
		if profile.PricePerMonth, err = priceField("perMonth", req.Pricing.PerMonth); err != nil {
			return nil, err
		}
	}

	previous, err := s.store.Find(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load profile")
	}
	if previous != nil {
		profile.CreatedAt = previous.CreatedAt
	}
	if err := s.store.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Internal(err, "failed to save profile")
	}

	if previous != nil {
		s.removeObjects(ctx, droppedKeys(previous, profile))
	}
	s.dispatch(events.TypeProfileUpdated, profile)
	logger.For(ctx, s.logger).Info("profile saved",
		zap.String("user_id", userID),
		zap.String("role", string(profile.Role)),
		zap.Int("images", len(profile.Images)),
	)
	return toProfileResponse(profile), nil
}

// RemoveImage drops one image from the caller's profile and deletes the stored object.
// A storage failure is logged; the profile no longer references the image either way.
func (s *ProfileService) RemoveImage(ctx context.Context, userID, imageID string) (*dto.ProfileResponse, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	removed, err := s.store.RemoveImage(ctx, userID, imageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrProfileNotFound
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to remove image")
	}
	if removed == nil {
		return nil, appErrors.Clone(appErrors.ErrImageNotFound, fmt.Sprintf("image %s is not on the profile", imageID))
	}
	s.removeObjects(ctx, []string{removed.Key})

	profile, err := s.activeProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.dispatch(events.TypeProfileUpdated, profile)
	return toProfileResponse(profile), nil
}

// DeleteProfile soft-deletes the caller's profile. Deleting an inactive profile is a no-op.
func (s *ProfileService) DeleteProfile(ctx context.Context, userID string) (*dto.DeleteProfileResponse, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	profile, err := s.store.Find(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrProfileNotFound
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load profile")
	}
	if profile.IsActive() {
		if err := s.store.SetStatus(ctx, userID, models.ProfileStatusInactive); err != nil {
			return nil, appErrors.Internal(err, "failed to delete profile")
		}
		profile.Status = models.ProfileStatusInactive
		s.dispatch(events.TypeProfileDeleted, profile)
		logger.For(ctx, s.logger).Info("profile deactivated", zap.String("user_id", userID))
	}
	return &dto.DeleteProfileResponse{UserID: userID, Status: models.ProfileStatusInactive}, nil
}

func (s *ProfileService) activeProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.store.Find(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrProfileNotFound
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load profile")
	}
	if !profile.IsActive() {
		return nil, appErrors.ErrProfileNotFound
	}
	return profile, nil
}

func (s *ProfileService) removeObjects(ctx context.Context, keys []string) {
	if s.objects == nil {
		return
	}
	for _, key := range keys {
		if err := s.objects.DeleteObject(ctx, key); err != nil {
			logger.For(ctx, s.logger).Warn("failed to delete profile image", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *ProfileService) dispatch(eventType string, profile *models.Profile) {
	if s.events == nil {
		return
	}
	s.events.Dispatch(events.New(eventType, events.ProfilePayload{
		UserID: profile.UserID,
		Role:   string(profile.Role),
		Status: string(profile.Status),
	}))
}

// checkImageRef accepts only keys issued to userID by the upload endpoint:
// profile-images/<userID>/<imageID>.<ext>.
func checkImageRef(userID string, ref dto.ImageRef) error {
	prefix := profileImagePrefix(userID)
	if !strings.HasPrefix(ref.Key, prefix) || strings.Contains(ref.Key[len(prefix):], "/") {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image key %q is not one of your uploads", ref.Key))
	}
	base := path.Base(ref.Key)
	if strings.TrimSuffix(base, path.Ext(base)) != ref.ImageID {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image key %q does not match imageId %s", ref.Key, ref.ImageID))
	}
	return nil
}

func profileImagePrefix(userID string) string {
	return "profile-images/" + userID + "/"
}

func priceField(name string, value *decimal.Decimal) (decimal.NullDecimal, error) {
	if value == nil {
		return decimal.NullDecimal{}, nil
	}
	if value.IsNegative() {
		return decimal.NullDecimal{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("pricing.%s must not be negative", name))
	}
	return decimal.NewNullDecimal(value.Round(2)), nil
}

// droppedKeys lists objects the old profile referenced that the new one does not.
func droppedKeys(previous, current *models.Profile) []string {
	kept := make(map[string]struct{}, len(current.Images)+1)
	for _, image := range current.Images {
		kept[image.Key] = struct{}{}
	}
	if current.IDImageKey != "" {
		kept[current.IDImageKey] = struct{}{}
	}
	var dropped []string
	for _, image := range previous.Images {
		if _, ok := kept[image.Key]; !ok {
			dropped = append(dropped, image.Key)
		}
	}
	if previous.IDImageKey != "" {
		if _, ok := kept[previous.IDImageKey]; !ok {
			dropped = append(dropped, previous.IDImageKey)
		}
	}
	return dropped
}

func toProfileResponse(profile *models.Profile) *dto.ProfileResponse {
	images := make([]models.ProfileImage, len(profile.Images))
	copy(images, profile.Images)
	certifications := make([]string, len(profile.Certifications))
	copy(certifications, profile.Certifications)
	resp := &dto.ProfileResponse{
		UserID:         profile.UserID,
		Role:           profile.Role,
		Status:         profile.Status,
		FirstName:      profile.FirstName,
		LastName:       profile.LastName,
		DisplayName:    profile.DisplayName,
		Bio:            profile.Bio,
		Phone:          profile.Phone,
		Specialty:      profile.Specialty,
		Address1:       profile.Address1,
		Address2:       profile.Address2,
		City:           profile.City,
		State:          profile.State,
		Zip:            profile.Zip,
		Gender:         profile.Gender,
		Images:         images,
		IDImageKey:     profile.IDImageKey,
		Certifications: certifications,
		CreatedAt:      profile.CreatedAt,
		UpdatedAt:      profile.UpdatedAt,
	}
	if profile.PricePerClass.Valid || profile.PricePerWeek.Valid || profile.PricePerMonth.Valid {
		resp.Pricing = &dto.Pricing{
			PerClass: nullDecimalPtr(profile.PricePerClass),
			PerWeek:  nullDecimalPtr(profile.PricePerWeek),
			PerMonth: nullDecimalPtr(profile.PricePerMonth),
		}
	}
	return resp
}

func nullDecimalPtr(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	d := value.Decimal
	return &d
}
