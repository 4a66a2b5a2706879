package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/class-booking-api/internal/dto"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
}

type uploadPresigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// UploadServiceConfig bounds presigned uploads.
type UploadServiceConfig struct {
	URLTTL    time.Duration
	MaxImages int
}

// UploadService hands out pre-signed object storage URLs for profile images.
type UploadService struct {
	presigner uploadPresigner
	cfg       UploadServiceConfig
	validator *validator.Validate
	now       func() time.Time
}

// NewUploadService constructs the service. A nil presigner disables uploads.
func NewUploadService(presigner uploadPresigner, cfg UploadServiceConfig, validate *validator.Validate) *UploadService {
	if validate == nil {
		validate = validator.New()
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 6
	}
	return &UploadService{presigner: presigner, cfg: cfg, validator: validate, now: time.Now}
}

// PresignProfileImages returns one upload target per requested image under the subject's prefix.
func (s *UploadService) PresignProfileImages(ctx context.Context, subject string, req dto.PresignRequest) (*dto.PresignResponse, error) {
	if s.presigner == nil {
		return nil, appErrors.ErrUploadsDisabled
	}
	if subject == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload request")
	}
	if req.ImageCount > s.cfg.MaxImages {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("imageCount must not exceed %d", s.cfg.MaxImages))
	}
	ext := imageExtensions[req.ContentType]

	uploads := make([]dto.PresignedUpload, 0, req.ImageCount)
	for i := 0; i < req.ImageCount; i++ {
		imageID := uuid.NewString()
		key := fmt.Sprintf("profile-images/%s/%s.%s", subject, imageID, ext)
		uploadURL, err := s.presigner.PresignPut(ctx, key, req.ContentType, s.cfg.URLTTL)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to presign upload")
		}
		uploads = append(uploads, dto.PresignedUpload{ImageID: imageID, Key: key, UploadURL: uploadURL})
	}
	return &dto.PresignResponse{
		PresignedURLs: uploads,
		ExpiresAt:     s.now().UTC().Add(s.cfg.URLTTL),
	}, nil
}
