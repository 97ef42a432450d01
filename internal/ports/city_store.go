package ports

import (
	"context"
	"trip-planner-service/internal/domain"
)

// Radius query against the city catalog.
type NearbyQuery struct {
	Center        domain.Coordinates
	RadiusKm      float64
	MinPopulation int64
	ExcludedNames map[string]struct{}
	// Limit caps the result; results are ordered by population descending.
	Limit int
}

// Port: spatial and population indexed storage for catalog cities.
type CityStore interface {
	// Number of cities currently stored.
	Count(ctx context.Context) (int64, error)
	// Insert one batch of cities.
	InsertCities(ctx context.Context, cities []domain.CityRecord) error
	// Build the spatial and population indexes. Safe to call repeatedly.
	EnsureIndexes(ctx context.Context) error
	// Remove every stored city.
	Truncate(ctx context.Context) error
	// Cities within RadiusKm of Center, at least MinPopulation, not excluded,
	// sorted by population descending and capped at Limit.
	FindNearby(ctx context.Context, q NearbyQuery) ([]domain.CityRecord, error)
}
