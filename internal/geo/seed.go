package geo

import (
	"context"
	"database/sql"

	"github.com/noah-isme/class-booking-api/internal/models"
)

// SeedZipCodes is the reference data shipped with the service. Migrations load it
// into the zip_codes table; the in-memory driver serves it directly.
var SeedZipCodes = []models.ZipCode{
	{Zip: "75454", City: "Melissa", State: "TX", Latitude: 33.2859, Longitude: -96.5730},
	{Zip: "75070", City: "McKinney", State: "TX", Latitude: 33.1972, Longitude: -96.6398},
	{Zip: "75002", City: "Allen", State: "TX", Latitude: 33.0998, Longitude: -96.6706},
	{Zip: "75013", City: "Allen", State: "TX", Latitude: 33.1146, Longitude: -96.6939},
	{Zip: "75409", City: "Anna", State: "TX", Latitude: 33.3488, Longitude: -96.5486},
	{Zip: "75201", City: "Dallas", State: "TX", Latitude: 32.7876, Longitude: -96.7994},
	{Zip: "78701", City: "Austin", State: "TX", Latitude: 30.2713, Longitude: -97.7426},
	{Zip: "10001", City: "New York", State: "NY", Latitude: 40.7506, Longitude: -73.9972},
	{Zip: "10011", City: "New York", State: "NY", Latitude: 40.7418, Longitude: -74.0002},
	{Zip: "11201", City: "Brooklyn", State: "NY", Latitude: 40.6939, Longitude: -73.9896},
	{Zip: "94129", City: "San Francisco", State: "CA", Latitude: 37.7989, Longitude: -122.4662},
	{Zip: "94103", City: "San Francisco", State: "CA", Latitude: 37.7725, Longitude: -122.4147},
	{Zip: "90210", City: "Beverly Hills", State: "CA", Latitude: 34.0901, Longitude: -118.4065},
	{Zip: "60601", City: "Chicago", State: "IL", Latitude: 41.8858, Longitude: -87.6181},
	{Zip: "98101", City: "Seattle", State: "WA", Latitude: 47.6114, Longitude: -122.3305},
	{Zip: "02108", City: "Boston", State: "MA", Latitude: 42.3576, Longitude: -71.0636},
	{Zip: "33101", City: "Miami", State: "FL", Latitude: 25.7791, Longitude: -80.1978},
}

// StaticSource serves zip lookups from an in-process table.
type StaticSource struct {
	entries map[string]models.ZipCode
}

// NewStaticSource builds a source over the given entries.
func NewStaticSource(entries []models.ZipCode) *StaticSource {
	m := make(map[string]models.ZipCode, len(entries))
	for _, e := range entries {
		m[e.Zip] = e
	}
	return &StaticSource{entries: m}
}

// FindZip implements ZipSource.
func (s *StaticSource) FindZip(ctx context.Context, zip string) (*models.ZipCode, error) {
	entry, ok := s.entries[zip]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &entry, nil
}
