package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/ports"

	"golang.org/x/sync/errgroup"
)

type PlanTripRequest struct {
	Start         string
	End           string
	NumberOfStops int
}

// TripPlanner resolves endpoints, generates stops and persists the route.
type TripPlanner struct {
	Geocoder ports.Geocoder
	Selector *StopSelector
	Routes   ports.RouteRepository
	// Timeout bounds the whole request; stop search time grows linearly with the stop count.
	Timeout time.Duration
}

func (p *TripPlanner) PlanTrip(ctx context.Context, req PlanTripRequest) (domain.Route, error) {
	startName := strings.TrimSpace(req.Start)
	endName := strings.TrimSpace(req.End)
	if startName == "" || endName == "" {
		return domain.Route{}, fmt.Errorf("plan trip: %w: start and end are required", domain.ErrInvalidInput)
	}
	if req.NumberOfStops < 0 {
		return domain.Route{}, fmt.Errorf("plan trip: %w: number of stops must not be negative", domain.ErrInvalidInput)
	}
	if p.Geocoder == nil || p.Selector == nil || p.Routes == nil {
		return domain.Route{}, errors.New("plan trip: planner is not fully configured")
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	// Both endpoints are independent lookups.
	var start, end domain.Location
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loc, err := p.Geocoder.Resolve(gctx, startName)
		if err != nil {
			return fmt.Errorf("resolve start %q: %w", startName, err)
		}
		start = loc
		return nil
	})
	g.Go(func() error {
		loc, err := p.Geocoder.Resolve(gctx, endName)
		if err != nil {
			return fmt.Errorf("resolve end %q: %w", endName, err)
		}
		end = loc
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Route{}, fmt.Errorf("plan trip: %w", err)
	}

	stops, err := p.Selector.GenerateStops(ctx, start, end, req.NumberOfStops)
	if err != nil {
		return domain.Route{}, fmt.Errorf("plan trip: %w", err)
	}

	route, err := p.Routes.SaveRoute(ctx, domain.Route{Start: start, End: end, Stops: stops})
	if err != nil {
		return domain.Route{}, fmt.Errorf("plan trip: save route: %w", err)
	}

	logging.LogOperation(logging.FromContext(ctx), "trip_planned",
		slog.String("route_id", route.ID),
		slog.String("start", start.Name),
		slog.String("end", end.Name),
		slog.Int("requested_stops", req.NumberOfStops),
		slog.Int("stops", len(route.Stops)))

	return route, nil
}
