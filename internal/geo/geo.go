// Package geo resolves postal codes to coordinates and measures great-circle distances.
package geo

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
)

// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
const EarthRadiusMiles = 3958.7613

// boundsPadDegrees widens every box edge (about 10cm) so a point exactly on the
// radius is not lost to rounding in the prefilter.
const boundsPadDegrees = 1e-6

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BoundingBox is a coarse rectangular prefilter around a point.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether p lies within the box (inclusive).
func (b BoundingBox) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

// ZipSource looks up a single postal code; a missing code yields sql.ErrNoRows.
type ZipSource interface {
	FindZip(ctx context.Context, zip string) (*models.ZipCode, error)
}

// Index resolves postal codes through a ZipSource, memoising hits.
type Index struct {
	source ZipSource
	cache  sync.Map
}

// NewIndex constructs an Index over the given source.
func NewIndex(source ZipSource) *Index {
	return &Index{source: source}
}

// NormalizeZip trims whitespace and ZIP+4 suffixes; it returns "" for malformed input.
func NormalizeZip(raw string) string {
	zip := strings.TrimSpace(raw)
	if i := strings.IndexByte(zip, '-'); i == 5 {
		zip = zip[:5]
	}
	if !zipPattern.MatchString(zip) {
		return ""
	}
	return zip
}

// Resolve maps a postal code to coordinates.
func (i *Index) Resolve(ctx context.Context, zip string) (Point, error) {
	normalized := NormalizeZip(zip)
	if normalized == "" {
		return Point{}, appErrors.Clone(appErrors.ErrLocationUnresolved, "postal code "+strings.TrimSpace(zip)+" is not recognised")
	}
	if cached, ok := i.cache.Load(normalized); ok {
		return cached.(Point), nil
	}
	entry, err := i.source.FindZip(ctx, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Point{}, appErrors.Clone(appErrors.ErrLocationUnresolved, "postal code "+normalized+" is not recognised")
		}
		return Point{}, appErrors.Internal(err, "failed to resolve postal code")
	}
	p := Point{Latitude: entry.Latitude, Longitude: entry.Longitude}
	i.cache.Store(normalized, p)
	return p, nil
}

// Distance returns the haversine distance between two points in miles.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := radians(lat1)
	rLat2 := radians(lat2)
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(a))
}

// DistanceBetween is Distance over Points.
func DistanceBetween(a, b Point) float64 {
	return Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Bounds returns a box guaranteed to contain every point within radiusMiles of center.
// Near the poles or across the antimeridian it widens to the full longitude range.
func Bounds(center Point, radiusMiles float64) BoundingBox {
	angular := radiusMiles / EarthRadiusMiles
	dLat := degrees(angular) + boundsPadDegrees
	box := BoundingBox{
		MinLat: math.Max(-90, center.Latitude-dLat),
		MaxLat: math.Min(90, center.Latitude+dLat),
		MinLon: -180,
		MaxLon: 180,
	}
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		return box
	}
	sinRatio := math.Sin(angular) / math.Cos(radians(center.Latitude))
	if sinRatio >= 1 {
		return box
	}
	dLon := degrees(math.Asin(sinRatio)) + boundsPadDegrees
	minLon := center.Longitude - dLon
	maxLon := center.Longitude + dLon
	if minLon < -180 || maxLon > 180 {
		return box
	}
	box.MinLon = minLon
	box.MaxLon = maxLon
	return box
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
