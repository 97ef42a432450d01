package repositories

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
	"trip-planner-service/internal/domain"

	"github.com/google/uuid"
)

// In-memory implementation of the RouteRepository port.
type MemoryRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]domain.Route
	Now    func() time.Time
}

func NewMemoryRouteRepository() *MemoryRouteRepository {
	return &MemoryRouteRepository{routes: make(map[string]domain.Route), Now: time.Now}
}

func (m *MemoryRouteRepository) SaveRoute(ctx context.Context, route domain.Route) (domain.Route, error) {
	if err := route.Validate(); err != nil {
		return domain.Route{}, fmt.Errorf("save route: %w", err)
	}

	route.ID = uuid.NewString()
	route.CreatedAt = m.Now().UTC()

	// The stored copy never shares a backing array with the caller.
	stored := route
	stored.Stops = slices.Clone(route.Stops)
	route.Stops = slices.Clone(route.Stops)

	m.mu.Lock()
	m.routes[route.ID] = stored
	m.mu.Unlock()

	return route, nil
}

func (m *MemoryRouteRepository) GetRoute(ctx context.Context, id string) (domain.Route, error) {
	m.mu.RLock()
	route, ok := m.routes[id]
	m.mu.RUnlock()

	if !ok {
		return domain.Route{}, fmt.Errorf("get route %q: %w", id, domain.ErrNotFound)
	}

	route.Stops = slices.Clone(route.Stops)
	return route, nil
}
