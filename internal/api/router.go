package api

import (
	"log/slog"
	"net/http"
	"trip-planner-service/internal/api/handlers"
	"trip-planner-service/internal/services"

	"github.com/julienschmidt/httprouter"
)

// Dependencies consumed by the HTTP layer.
type Deps struct {
	Planner      handlers.TripPlanner
	Routes       handlers.RouteReader
	Finder       handlers.CandidateFinder
	// Defaults for /cities/nearby query parameters.
	SearchParams services.SearchParams
	Logger       *slog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	router := httprouter.New()

	routeHandler := &handlers.RouteHandler{Planner: deps.Planner, Routes: deps.Routes}
	cityHandler := &handlers.CityHandler{Finder: deps.Finder, Params: deps.SearchParams}

	router.HandlerFunc(http.MethodGet, "/health", handlers.Health)
	router.HandlerFunc(http.MethodPost, "/routes", routeHandler.Create)
	router.HandlerFunc(http.MethodGet, "/routes/:id", routeHandler.Get)
	router.HandlerFunc(http.MethodGet, "/cities/nearby", cityHandler.Nearby)

	router.NotFound = http.HandlerFunc(handlers.NotFound)
	router.MethodNotAllowed = http.HandlerFunc(handlers.MethodNotAllowed)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return requestIDMiddleware(loggingMiddleware(router, logger), logger)
}
