package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/geometry"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"
)

// SearchParams tunes the two-stage candidate ranking.
type SearchParams struct {
	// Population floor for a city to be considered.
	MinPopulation int64
	// Search radius around the ideal point.
	RadiusKm float64
	// Size of the population-ranked shortlist that is re-ranked by distance.
	Limit int
}

func DefaultSearchParams() SearchParams {
	return SearchParams{
		MinPopulation: 50_000,
		RadiusKm:      1000,
		Limit:         10,
	}
}

func (p SearchParams) validate() error {
	if p.MinPopulation < 0 {
		return fmt.Errorf("%w: min population %d must not be negative", domain.ErrInvalidInput, p.MinPopulation)
	}
	if !(p.RadiusKm > 0) {
		return fmt.Errorf("%w: radius %v km must be positive", domain.ErrInvalidInput, p.RadiusKm)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("%w: candidate limit %d must be positive", domain.ErrInvalidInput, p.Limit)
	}
	return nil
}

// Catalog is the process-wide handle over a loaded city store.
// The store is read-only once loaded, so a Catalog is safe for concurrent use.
type Catalog struct {
	store ports.CityStore
}

func NewCatalog(store ports.CityStore) *Catalog {
	return &Catalog{store: store}
}

// Store exposes the underlying store for lifecycle management.
func (c *Catalog) Store() ports.CityStore { return c.store }

// Candidate is a catalog city ranked by its distance to an ideal point.
type Candidate struct {
	City       domain.CityRecord
	DistanceKm float64
}

// FindCandidates returns cities near idealPoint for use as a stop.
//
// The store first narrows the search to the Limit most populous eligible
// cities within the radius; that shortlist is then ordered by great-circle
// distance to idealPoint, so the head is the closest well-known city.
// An empty result means no stop is available and is not an error.
func (c *Catalog) FindCandidates(
	ctx context.Context,
	idealPoint domain.Coordinates,
	excludedNames map[string]struct{},
	params SearchParams,
) (_ []Candidate, err error) {
	defer obs.Time(ctx, "catalog.FindCandidates")(&err)

	if err := idealPoint.Validate(); err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	cities, err := c.store.FindNearby(ctx, ports.NearbyQuery{
		Center:        idealPoint,
		RadiusKm:      params.RadiusKm,
		MinPopulation: params.MinPopulation,
		ExcludedNames: excludedNames,
		Limit:         params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find candidates near (%.4f, %.4f): %w", idealPoint.Lat, idealPoint.Lon, err)
	}

	candidates := make([]Candidate, 0, len(cities))
	for _, city := range cities {
		// Stores filter too; this keeps the contract for stores that filter loosely.
		if _, excluded := excludedNames[city.Name]; excluded {
			continue
		}
		candidates = append(candidates, Candidate{
			City:       city,
			DistanceKm: geometry.DistanceKm(idealPoint, city.GeoPoint()),
		})
	}

	// Tie-breakers keep the ordering deterministic across stores.
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		if c := cmp.Compare(b.City.Population, a.City.Population); c != 0 {
			return c
		}
		return cmp.Compare(a.City.Name, b.City.Name)
	})

	return candidates, nil
}
