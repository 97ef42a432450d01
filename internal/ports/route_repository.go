package ports

import (
	"context"
	"trip-planner-service/internal/domain"
)

// Port: a boundary for persisting generated routes.
type RouteRepository interface {
	// Store the route and return it with ID and CreatedAt populated.
	SaveRoute(ctx context.Context, route domain.Route) (domain.Route, error)
	// Retrieve a stored route, or an error wrapping domain.ErrNotFound.
	GetRoute(ctx context.Context, id string) (domain.Route, error)
}
