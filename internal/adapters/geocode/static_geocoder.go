package geocode

import (
	"context"
	"fmt"
	"trip-planner-service/internal/domain"
)

// StaticGeocoder resolves names from a fixed table. Used by tests and the CLI.
type StaticGeocoder struct {
	m map[string]domain.Location
}

func NewStaticGeocoder(locations ...domain.Location) *StaticGeocoder {
	m := make(map[string]domain.Location, len(locations))
	for _, l := range locations {
		m[Normalize(l.Name)] = l
	}
	return &StaticGeocoder{m: m}
}

func (g *StaticGeocoder) Resolve(ctx context.Context, cityName string) (domain.Location, error) {
	loc, ok := g.m[Normalize(cityName)]
	if !ok {
		return domain.Location{}, fmt.Errorf("resolve %q: %w", cityName, domain.ErrNotFound)
	}
	return loc, nil
}
