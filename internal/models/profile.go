package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProfileRole distinguishes trainers from students.
type ProfileRole string

// Supported roles.
const (
	ProfileRoleTrainer ProfileRole = "trainer"
	ProfileRoleStudent ProfileRole = "student"
)

// ProfileStatus is active until the owner deletes the profile.
type ProfileStatus string

// Profile statuses. Deletion is soft: the row stays with status inactive.
const (
	ProfileStatusActive   ProfileStatus = "active"
	ProfileStatusInactive ProfileStatus = "inactive"
)

// ProfileImage references an uploaded object by its storage key.
type ProfileImage struct {
	ImageID string `json:"imageId"`
	Key     string `json:"key"`
}

// ProfileImages is stored as a JSONB array.
type ProfileImages []ProfileImage

// Value implements driver.Valuer.
func (p ProfileImages) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *ProfileImages) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = ProfileImages{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan profile images: unsupported type %T", src)
	}
	return json.Unmarshal(raw, p)
}

// Profile is a user's public profile keyed by their identity-provider subject.
type Profile struct {
	UserID         string              `db:"user_id" json:"userId"`
	Role           ProfileRole         `db:"role" json:"role"`
	Status         ProfileStatus       `db:"status" json:"status"`
	FirstName      string              `db:"first_name" json:"firstName"`
	LastName       string              `db:"last_name" json:"lastName"`
	DisplayName    string              `db:"display_name" json:"displayName"`
	Bio            string              `db:"bio" json:"bio"`
	Phone          string              `db:"phone" json:"phone"`
	Specialty      string              `db:"specialty" json:"specialty"`
	Address1       string              `db:"address1" json:"address1"`
	Address2       string              `db:"address2" json:"address2"`
	City           string              `db:"city" json:"city"`
	State          string              `db:"state" json:"state"`
	Zip            string              `db:"zip" json:"zip"`
	Gender         string              `db:"gender" json:"gender"`
	Images         ProfileImages       `db:"images" json:"images"`
	IDImageKey     string              `db:"id_image_key" json:"idImageKey,omitempty"`
	Certifications pq.StringArray      `db:"certifications" json:"certifications"`
	PricePerClass  decimal.NullDecimal `db:"price_per_class" json:"-"`
	PricePerWeek   decimal.NullDecimal `db:"price_per_week" json:"-"`
	PricePerMonth  decimal.NullDecimal `db:"price_per_month" json:"-"`
	CreatedAt      time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the profile is visible to its owner.
func (p *Profile) IsActive() bool {
	return p.Status == ProfileStatusActive
}

// RemoveImage drops the image with imageID and returns it.
func (p *Profile) RemoveImage(imageID string) (ProfileImage, bool) {
	for i, image := range p.Images {
		if image.ImageID == imageID {
			rest := make(ProfileImages, 0, len(p.Images)-1)
			rest = append(rest, p.Images[:i]...)
			p.Images = append(rest, p.Images[i+1:]...)
			return image, true
		}
	}
	return ProfileImage{}, false
}
