package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionSpec is one occurrence requested in a class creation call.
type SessionSpec struct {
	StartDateTime time.Time `json:"startDateTime" validate:"required"`
	EndDateTime   time.Time `json:"endDateTime" validate:"required"`
	Capacity      int       `json:"capacity" validate:"required,gt=0,lte=10000"`
}

// CreateClassRequest carries the shared class fields plus either sessions[] or the
// single-session shorthand (startTime, endTime, capacity).
type CreateClassRequest struct {
	ClassName     string          `json:"className" validate:"required,max=200"`
	Overview      string          `json:"overview" validate:"max=5000"`
	AddressLine1  string          `json:"classLocationAddress1" validate:"required,max=200"`
	AddressLine2  string          `json:"classLocationAddress2" validate:"max=200"`
	City          string          `json:"city" validate:"required,max=100"`
	State         string          `json:"state" validate:"required,max=50"`
	Zip           string          `json:"zip" validate:"required"`
	PricePerClass decimal.Decimal `json:"pricePerClass"`
	Currency      string          `json:"currency" validate:"omitempty,len=3,alpha"`
	ProductID     string          `json:"productId" validate:"max=200"`
	PriceID       string          `json:"priceId" validate:"max=200"`
	Tags          []string        `json:"classTags" validate:"max=20,dive,required,max=50"`
	Timezone      string          `json:"timezone" validate:"omitempty,timezone"`
	TrainerName   string          `json:"trainerName" validate:"max=200"`

	Sessions []SessionSpec `json:"sessions" validate:"omitempty,max=100,dive"`

	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Capacity  int        `json:"capacity"`
}

// Specs returns the requested sessions, folding the shorthand form into a single spec.
func (r CreateClassRequest) Specs() []SessionSpec {
	if len(r.Sessions) > 0 {
		return r.Sessions
	}
	if r.StartTime == nil && r.EndTime == nil && r.Capacity == 0 {
		return nil
	}
	spec := SessionSpec{Capacity: r.Capacity}
	if r.StartTime != nil {
		spec.StartDateTime = *r.StartTime
	}
	if r.EndTime != nil {
		spec.EndDateTime = *r.EndTime
	}
	return []SessionSpec{spec}
}

// CreatedSession summarises one persisted session.
type CreatedSession struct {
	SessionID string    `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Capacity  int       `json:"capacity"`
}

// CreateClassResponse is returned after a class and its sessions are stored.
type CreateClassResponse struct {
	ClassID   string           `json:"classId"`
	SessionID string           `json:"sessionId"`
	Sessions  []CreatedSession `json:"sessions"`
}

// ClassListQuery selects the listing mode of GET /classes.
type ClassListQuery struct {
	Zip       string `form:"zip"`
	TrainerID string `form:"trainerId"`
}

// CancelSessionResponse acknowledges a cancellation.
type CancelSessionResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}
