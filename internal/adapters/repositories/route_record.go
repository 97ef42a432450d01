package repositories

import (
	"trip-planner-service/internal/domain"
)

// Persisted shape of a location inside a route row.
type locationRecord struct {
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Population int64   `json:"population"`
}

type stopRecord struct {
	Location             locationRecord `json:"location"`
	DistanceFromStartKm  float64        `json:"distance_from_start_km"`
	CumulativeDistanceKm float64        `json:"cumulative_distance_km"`
	SegmentPercentage    float64        `json:"segment_percentage"`
}

func toLocationRecord(l domain.Location) locationRecord {
	return locationRecord{Name: l.Name, Latitude: l.Latitude, Longitude: l.Longitude, Population: l.Population}
}

func (r locationRecord) location() domain.Location {
	return domain.Location{Name: r.Name, Latitude: r.Latitude, Longitude: r.Longitude, Population: r.Population}
}

func toStopRecords(stops []domain.RouteStop) []stopRecord {
	out := make([]stopRecord, 0, len(stops))
	for _, s := range stops {
		out = append(out, stopRecord{
			Location:             toLocationRecord(s.Location),
			DistanceFromStartKm:  s.DistanceFromStartKm,
			CumulativeDistanceKm: s.CumulativeDistanceKm,
			SegmentPercentage:    s.SegmentPercentage,
		})
	}
	return out
}

func fromStopRecords(records []stopRecord) []domain.RouteStop {
	out := make([]domain.RouteStop, 0, len(records))
	for _, r := range records {
		out = append(out, domain.RouteStop{
			Location:             r.Location.location(),
			DistanceFromStartKm:  r.DistanceFromStartKm,
			CumulativeDistanceKm: r.CumulativeDistanceKm,
			SegmentPercentage:    r.SegmentPercentage,
		})
	}
	return out
}
