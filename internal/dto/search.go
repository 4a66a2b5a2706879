package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SearchQuery is the bound query string of GET /classes/search.
type SearchQuery struct {
	Query       string   `form:"query" validate:"max=200"`
	ZipCode     string   `form:"zipCode" validate:"required"`
	RadiusMiles *float64 `form:"radiusMiles" validate:"omitempty,gt=0"`
	Date        string   `form:"date" validate:"omitempty,datetime=2006-01-02"`
}

// SearchLocation is the resolved centre of a search.
type SearchLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchResult is one matching session annotated with its distance.
type SearchResult struct {
	SessionID       string          `json:"sessionId"`
	ClassID         string          `json:"classId"`
	DistanceMiles   float64         `json:"distanceMiles"`
	ClassName       string          `json:"className"`
	ClassTitle      string          `json:"classTitle"`
	TrainerID       string          `json:"trainerId"`
	TrainerName     string          `json:"trainerName"`
	Tags            []string        `json:"tags"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	Zip             string          `json:"zip"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	StartDateTime   time.Time       `json:"startDateTime"`
	EndDateTime     time.Time       `json:"endDateTime"`
	Capacity        int             `json:"capacity"`
	CountRegistered int             `json:"countRegistered"`
}

// SearchResponse wraps search results with the resolved query parameters.
type SearchResponse struct {
	Results        []SearchResult `json:"results"`
	TotalFound     int            `json:"totalFound"`
	SearchLocation SearchLocation `json:"searchLocation"`
	RadiusMiles    float64        `json:"radiusMiles"`
	DateFilter     string         `json:"dateFilter,omitempty"`
}
