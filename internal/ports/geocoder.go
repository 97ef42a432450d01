package ports

import (
	"context"
	"trip-planner-service/internal/domain"
)

// Contract for resolving a human city name to coordinates.
type Geocoder interface {
	// Return the location for the name, or an error wrapping domain.ErrNotFound.
	Resolve(ctx context.Context, cityName string) (domain.Location, error)
}

// Optional persistent cache in front of a Geocoder.
// Keys are expected to be normalized by the caller.
type GeocodeCache interface {
	Get(ctx context.Context, key string) (domain.Location, bool, error)
	Put(ctx context.Context, key string, loc domain.Location) error
}
