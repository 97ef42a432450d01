package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/services"
)

type CandidateFinder interface {
	FindCandidates(
		ctx context.Context,
		idealPoint domain.Coordinates,
		excludedNames map[string]struct{},
		params services.SearchParams,
	) ([]services.Candidate, error)
}

// CityHandler exposes the candidate search over the catalog.
type CityHandler struct {
	Finder CandidateFinder
	// Defaults applied to omitted query parameters.
	Params services.SearchParams
}

func (h *CityHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := requiredFloat(q.Get("lat"), "lat")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := requiredFloat(q.Get("lon"), "lon")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	params := h.Params
	if params == (services.SearchParams{}) {
		params = services.DefaultSearchParams()
	}
	if v := q.Get("radius_km"); v != "" {
		if params.RadiusKm, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, r, http.StatusBadRequest, "radius_km must be a number")
			return
		}
	}
	if v := q.Get("min_population"); v != "" {
		if params.MinPopulation, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeError(w, r, http.StatusBadRequest, "min_population must be an integer")
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if params.Limit, err = strconv.Atoi(v); err != nil || params.Limit > 100 {
			writeError(w, r, http.StatusBadRequest, "limit must be an integer up to 100")
			return
		}
	}

	candidates, err := h.Finder.FindCandidates(r.Context(), domain.Coordinates{Lat: lat, Lon: lon}, nil, params)
	if err != nil {
		writeDomainError(w, r, "find candidates", err)
		return
	}

	res := dto.NearbyResponse{Cities: make([]dto.CandidateResponse, 0, len(candidates))}
	for _, c := range candidates {
		res.Cities = append(res.Cities, dto.CandidateResponse{
			GeonameID:   c.City.GeonameID,
			Name:        c.City.Name,
			CountryCode: c.City.CountryCode,
			Latitude:    c.City.Latitude,
			Longitude:   c.City.Longitude,
			Population:  c.City.Population,
			DistanceKm:  c.DistanceKm,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func requiredFloat(v, name string) (float64, error) {
	if v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}
