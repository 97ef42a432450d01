package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/geometry"
	"trip-planner-service/internal/platform/logging"
)

// StopSelector picks real cities spaced along the great circle between two endpoints.
type StopSelector struct {
	Catalog *Catalog
	Params  SearchParams
}

func NewStopSelector(catalog *Catalog, params SearchParams) *StopSelector {
	return &StopSelector{Catalog: catalog, Params: params}
}

// GenerateStops selects up to numberOfStops intermediate cities between start and end.
//
// Segment i (1-based) targets the point at fraction i/(numberOfStops+1) of the
// great-circle arc. Segments are resolved strictly in order because each search
// excludes every city already chosen. A segment without an eligible city is
// omitted, so the result may be shorter than requested. The stops are returned
// sorted by distance from start.
func (s *StopSelector) GenerateStops(
	ctx context.Context,
	start domain.Location,
	end domain.Location,
	numberOfStops int,
) ([]domain.RouteStop, error) {
	if s.Catalog == nil {
		return nil, errors.New("generate stops: catalog is nil")
	}
	if numberOfStops < 0 {
		return nil, fmt.Errorf("generate stops: %w: number of stops %d must not be negative", domain.ErrInvalidInput, numberOfStops)
	}
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("generate stops: start %q: %w", start.Name, err)
	}
	if err := end.Validate(); err != nil {
		return nil, fmt.Errorf("generate stops: end %q: %w", end.Name, err)
	}

	stops := make([]domain.RouteStop, 0, numberOfStops)
	if numberOfStops == 0 {
		return stops, nil
	}

	logger := logging.FromContext(ctx)

	excluded := map[string]struct{}{
		start.Name: {},
		end.Name:   {},
	}

	for i := 1; i <= numberOfStops; i++ {
		fraction := float64(i) / float64(numberOfStops+1)

		ideal, err := geometry.Interpolate(start, end, fraction)
		if err != nil {
			return nil, fmt.Errorf("generate stops: segment %d: %w", i, err)
		}

		candidates, err := s.Catalog.FindCandidates(ctx, ideal, excluded, s.Params)
		if err != nil {
			return nil, fmt.Errorf("generate stops: segment %d: %w", i, err)
		}

		if len(candidates) == 0 {
			logger.Info("no stop candidate for segment",
				slog.Int("segment", i),
				slog.Float64("ideal_lat", ideal.Lat),
				slog.Float64("ideal_lon", ideal.Lon))
			continue
		}

		selected := candidates[0].City.Location()
		fromStart := geometry.DistanceKm(start.Coordinates(), selected.Coordinates())

		stops = append(stops, domain.RouteStop{
			Location:             selected,
			DistanceFromStartKm:  fromStart,
			CumulativeDistanceKm: fromStart,
			SegmentPercentage:    fraction * 100,
		})
		excluded[selected.Name] = struct{}{}
	}

	// Real cities can land out of order relative to their ideal points.
	slices.SortStableFunc(stops, func(a, b domain.RouteStop) int {
		return cmp.Compare(a.DistanceFromStartKm, b.DistanceFromStartKm)
	})

	return stops, nil
}
