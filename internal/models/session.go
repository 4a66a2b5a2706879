package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SessionStatus represents the lifecycle of a class session.
type SessionStatus string

// Possible session statuses. ACTIVE -> CANCELLED is one-way.
const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// ClassSession is one scheduled occurrence of a class with its own window and capacity.
type ClassSession struct {
	SessionID       string          `db:"session_id" json:"sessionId"`
	ClassID         string          `db:"class_id" json:"classId"`
	TrainerID       string          `db:"trainer_id" json:"trainerId"`
	TrainerName     string          `db:"trainer_name" json:"trainerName"`
	ClassName       string          `db:"class_name" json:"className"`
	Overview        string          `db:"overview" json:"overview"`
	AddressLine1    string          `db:"address_line1" json:"classLocationAddress1"`
	AddressLine2    string          `db:"address_line2" json:"classLocationAddress2"`
	City            string          `db:"city" json:"city"`
	State           string          `db:"state" json:"state"`
	Zip             string          `db:"zip" json:"zip"`
	Latitude        float64         `db:"latitude" json:"latitude"`
	Longitude       float64         `db:"longitude" json:"longitude"`
	Timezone        string          `db:"timezone" json:"timezone"`
	StartTime       time.Time       `db:"start_time" json:"startTime"`
	EndTime         time.Time       `db:"end_time" json:"endTime"`
	Capacity        int             `db:"capacity" json:"capacity"`
	CountRegistered int             `db:"count_registered" json:"countRegistered"`
	Status          SessionStatus   `db:"status" json:"status"`
	PricePerClass   decimal.Decimal `db:"price_per_class" json:"pricePerClass"`
	Currency        string          `db:"currency" json:"currency"`
	ProductID       string          `db:"product_id" json:"productId,omitempty"`
	PriceID         string          `db:"price_id" json:"priceId,omitempty"`
	Tags            pq.StringArray  `db:"tags" json:"classTags"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
	CancelledAt     *time.Time      `db:"cancelled_at" json:"cancelledAt,omitempty"`
}

// IsActive reports whether the session still accepts enrollments.
func (s *ClassSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// IsFull reports whether every seat is taken.
func (s *ClassSession) IsFull() bool {
	return s.CountRegistered >= s.Capacity
}

// Overlaps applies half-open interval semantics: touching endpoints do not overlap.
func (s *ClassSession) Overlaps(other *ClassSession) bool {
	return s.StartTime.Before(other.EndTime) && other.StartTime.Before(s.EndTime)
}

// Location returns the session's time zone, falling back to UTC.
func (s *ClassSession) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalDate is the calendar day of StartTime in the session's own time zone.
func (s *ClassSession) LocalDate() string {
	return s.StartTime.In(s.Location()).Format("2006-01-02")
}

// CountUpdate is a conditional write of a session's registration count.
// The update applies only while the stored count still equals Expected.
type CountUpdate struct {
	SessionID     string
	Expected      int
	Next          int
	RequireActive bool
}
