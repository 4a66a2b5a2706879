package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-booking-api/internal/dto"
	"github.com/noah-isme/class-booking-api/internal/geo"
	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
)

type sessionLocator interface {
	ListActiveWithinBounds(ctx context.Context, box geo.BoundingBox) ([]models.ClassSession, error)
}

// DiscoveryConfig bounds search radii and caching.
type DiscoveryConfig struct {
	DefaultRadius float64
	// MaxRadius caps radiusMiles when positive; zero leaves the radius unbounded.
	MaxRadius float64
	CacheTTL  time.Duration
}

// DiscoveryService answers location, text and date filtered searches over active sessions.
type DiscoveryService struct {
	sessions  sessionLocator
	locations locationResolver
	cache     *CacheService
	cfg       DiscoveryConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDiscoveryService constructs the search service.
func NewDiscoveryService(
	sessions sessionLocator,
	locations locationResolver,
	cache *CacheService,
	cfg DiscoveryConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *DiscoveryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultRadius <= 0 {
		cfg.DefaultRadius = 25
	}
	if cfg.MaxRadius < 0 {
		cfg.MaxRadius = 0
	}
	return &DiscoveryService{
		sessions:  sessions,
		locations: locations,
		cache:     cache,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
	}
}

// Search resolves the zip, keeps ACTIVE sessions within the radius (inclusive) that match
// the query and date, and orders them by distance then start time. The boolean reports a cache hit.
func (s *DiscoveryService) Search(ctx context.Context, q dto.SearchQuery) (*dto.SearchResponse, bool, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search parameters")
	}
	radius := s.cfg.DefaultRadius
	if q.RadiusMiles != nil {
		radius = *q.RadiusMiles
	}
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "radiusMiles must be a positive number")
	}
	if s.cfg.MaxRadius > 0 && radius > s.cfg.MaxRadius {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("radiusMiles must not exceed %g", s.cfg.MaxRadius))
	}
	zip := geo.NormalizeZip(q.ZipCode)
	if zip == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "zipCode must be a 5-digit postal code")
	}
	query := strings.ToLower(strings.TrimSpace(q.Query))
	date := strings.TrimSpace(q.Date)

	center, err := s.locations.Resolve(ctx, zip)
	if err != nil {
		return nil, false, err
	}

	key, cacheable := s.cache.SearchKey(ctx, searchCacheKey(zip, radius, date, query))
	var cached dto.SearchResponse
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	candidates, err := s.sessions.ListActiveWithinBounds(ctx, geo.Bounds(center, radius))
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to search sessions")
	}

	type match struct {
		session  *models.ClassSession
		distance float64
	}
	matches := make([]match, 0, len(candidates))
	for i := range candidates {
		session := &candidates[i]
		if !session.IsActive() {
			continue
		}
		distance := geo.Distance(center.Latitude, center.Longitude, session.Latitude, session.Longitude)
		if distance > radius {
			continue
		}
		if query != "" && !matchesQuery(session, query) {
			continue
		}
		if date != "" && session.LocalDate() != date {
			continue
		}
		matches = append(matches, match{session: session, distance: distance})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		if !matches[i].session.StartTime.Equal(matches[j].session.StartTime) {
			return matches[i].session.StartTime.Before(matches[j].session.StartTime)
		}
		return matches[i].session.SessionID < matches[j].session.SessionID
	})

	results := make([]dto.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, toSearchResult(m.session, m.distance))
	}
	resp := &dto.SearchResponse{
		Results:        results,
		TotalFound:     len(results),
		SearchLocation: dto.SearchLocation{Latitude: center.Latitude, Longitude: center.Longitude},
		RadiusMiles:    radius,
		DateFilter:     date,
	}

	if cacheable {
		s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	}
	s.logger.Debug("search executed",
		zap.String("zip", zip),
		zap.Float64("radius_miles", radius),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)
	return resp, false, nil
}

// matchesQuery is a case-insensitive substring match on the class name or any tag.
func matchesQuery(session *models.ClassSession, query string) bool {
	if strings.Contains(strings.ToLower(session.ClassName), query) {
		return true
	}
	for _, tag := range session.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func toSearchResult(session *models.ClassSession, distance float64) dto.SearchResult {
	address := session.AddressLine1
	if session.AddressLine2 != "" {
		address += ", " + session.AddressLine2
	}
	tags := make([]string, len(session.Tags))
	copy(tags, session.Tags)
	return dto.SearchResult{
		SessionID:       session.SessionID,
		ClassID:         session.ClassID,
		DistanceMiles:   math.Round(distance*100) / 100,
		ClassName:       session.ClassName,
		ClassTitle:      session.ClassName,
		TrainerID:       session.TrainerID,
		TrainerName:     session.TrainerName,
		Tags:            tags,
		Address:         address,
		City:            session.City,
		State:           session.State,
		Zip:             session.Zip,
		Price:           session.PricePerClass,
		Currency:        session.Currency,
		StartDateTime:   session.StartTime,
		EndDateTime:     session.EndTime,
		Capacity:        session.Capacity,
		CountRegistered: session.CountRegistered,
	}
}

func searchCacheKey(zip string, radius float64, date, query string) string {
	return fmt.Sprintf("%s:%g:%s:%s", zip, radius, date, url.QueryEscape(query))
}
