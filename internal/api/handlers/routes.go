package handlers

import (
	"context"
	"net/http"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/services"

	"github.com/julienschmidt/httprouter"
)

// MaxStops caps number_of_stops per request; each stop costs one catalog search.
const MaxStops = 25

type TripPlanner interface {
	PlanTrip(ctx context.Context, req services.PlanTripRequest) (domain.Route, error)
}

type RouteReader interface {
	GetRoute(ctx context.Context, id string) (domain.Route, error)
}

// RouteHandler creates and reads planned routes.
type RouteHandler struct {
	Planner TripPlanner
	Routes  RouteReader
}

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Start == "" || req.End == "" {
		writeError(w, r, http.StatusBadRequest, "start and end are required")
		return
	}
	if req.NumberOfStops < 0 || req.NumberOfStops > MaxStops {
		writeError(w, r, http.StatusBadRequest, "number_of_stops must be between 0 and 25")
		return
	}

	route, err := h.Planner.PlanTrip(r.Context(), services.PlanTripRequest{
		Start:         req.Start,
		End:           req.End,
		NumberOfStops: req.NumberOfStops,
	})
	if err != nil {
		writeDomainError(w, r, "plan trip", err)
		return
	}

	w.Header().Set("Location", "/routes/"+route.ID)
	writeJSON(w, r, http.StatusCreated, dto.NewRouteResponse(route))
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")

	route, err := h.Routes.GetRoute(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "get route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}
