package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/class-booking-api/internal/models"
)

// ImageRef points at an object uploaded through a presigned URL.
type ImageRef struct {
	ImageID string `json:"imageId" validate:"required,uuid"`
	Key     string `json:"key" validate:"required,max=512"`
}

// Pricing lists a trainer's advertised rates. Unset rates are omitted.
type Pricing struct {
	PerClass *decimal.Decimal `json:"perClass,omitempty"`
	PerWeek  *decimal.Decimal `json:"perWeek,omitempty"`
	PerMonth *decimal.Decimal `json:"perMonth,omitempty"`
}

// UpsertProfileRequest is the body of PUT /profile/me. The request replaces the stored profile.
type UpsertProfileRequest struct {
	Role           string     `json:"role" validate:"required,oneof=trainer student"`
	FirstName      string     `json:"firstName" validate:"required,max=100"`
	LastName       string     `json:"lastName" validate:"required,max=100"`
	DisplayName    string     `json:"displayName" validate:"max=200"`
	Bio            string     `json:"bio" validate:"max=2000"`
	Phone          string     `json:"phone" validate:"omitempty,e164"`
	Specialty      string     `json:"specialty" validate:"max=200"`
	Address1       string     `json:"address1" validate:"max=200"`
	Address2       string     `json:"address2" validate:"max=200"`
	City           string     `json:"city" validate:"max=100"`
	State          string     `json:"state" validate:"max=50"`
	Zip            string     `json:"zip" validate:"omitempty,max=10"`
	Gender         string     `json:"gender" validate:"max=50"`
	Images         []ImageRef `json:"images" validate:"omitempty,dive"`
	IDImage        *ImageRef  `json:"idImage" validate:"omitempty"`
	Certifications []string   `json:"certifications" validate:"max=20,dive,required,max=100"`
	Pricing        *Pricing   `json:"pricing"`
}

// ProfileResponse is the owner's view of a profile.
type ProfileResponse struct {
	UserID         string                `json:"userId"`
	Role           models.ProfileRole    `json:"role"`
	Status         models.ProfileStatus  `json:"status"`
	FirstName      string                `json:"firstName"`
	LastName       string                `json:"lastName"`
	DisplayName    string                `json:"displayName"`
	Bio            string                `json:"bio"`
	Phone          string                `json:"phone"`
	Specialty      string                `json:"specialty"`
	Address1       string                `json:"address1"`
	Address2       string                `json:"address2"`
	City           string                `json:"city"`
	State          string                `json:"state"`
	Zip            string                `json:"zip"`
	Gender         string                `json:"gender"`
	Images         []models.ProfileImage `json:"images"`
	IDImageKey     string                `json:"idImageKey,omitempty"`
	Certifications []string              `json:"certifications"`
	Pricing        *Pricing              `json:"pricing,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// DeleteProfileResponse confirms a soft delete.
type DeleteProfileResponse struct {
	UserID string               `json:"userId"`
	Status models.ProfileStatus `json:"status"`
}
