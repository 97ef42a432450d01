package dto

import (
	"time"
	"trip-planner-service/internal/domain"
)

type CreateRouteRequest struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	NumberOfStops int    `json:"number_of_stops"`
}

type LocationResponse struct {
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Population int64   `json:"population,omitempty"`
}

type RouteStopResponse struct {
	Location             LocationResponse `json:"location"`
	DistanceFromStartKm  float64          `json:"distance_from_start_km"`
	CumulativeDistanceKm float64          `json:"cumulative_distance_km"`
	SegmentPercentage    float64          `json:"segment_percentage"`
}

type RouteResponse struct {
	ID        string              `json:"id"`
	Start     LocationResponse    `json:"start"`
	End       LocationResponse    `json:"end"`
	Stops     []RouteStopResponse `json:"stops"`
	CreatedAt time.Time           `json:"created_at"`
}

func newLocationResponse(l domain.Location) LocationResponse {
	return LocationResponse{Name: l.Name, Latitude: l.Latitude, Longitude: l.Longitude, Population: l.Population}
}

func NewRouteResponse(r domain.Route) RouteResponse {
	stops := make([]RouteStopResponse, 0, len(r.Stops))
	for _, s := range r.Stops {
		stops = append(stops, RouteStopResponse{
			Location:             newLocationResponse(s.Location),
			DistanceFromStartKm:  s.DistanceFromStartKm,
			CumulativeDistanceKm: s.CumulativeDistanceKm,
			SegmentPercentage:    s.SegmentPercentage,
		})
	}

	return RouteResponse{
		ID:        r.ID,
		Start:     newLocationResponse(r.Start),
		End:       newLocationResponse(r.End),
		Stops:     stops,
		CreatedAt: r.CreatedAt,
	}
}
