package dto

import "time"

// PresignRequest asks for upload URLs for profile images.
type PresignRequest struct {
	ImageCount  int    `json:"imageCount" validate:"required,gt=0"`
	ContentType string `json:"contentType" validate:"required,oneof=image/jpeg image/png image/webp image/heic"`
}

// PresignedUpload is one signed PUT target.
type PresignedUpload struct {
	ImageID   string `json:"imageId"`
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

// PresignResponse lists the signed targets and their expiry.
type PresignResponse struct {
	PresignedURLs []PresignedUpload `json:"presignedUrls"`
	ExpiresAt     time.Time         `json:"expiresAt"`
}
