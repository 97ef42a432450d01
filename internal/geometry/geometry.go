// Package geometry holds great-circle math on a spherical Earth.
package geometry

import (
	"fmt"
	"math"
	"trip-planner-service/internal/domain"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for every distance in the service.
const EarthRadiusKm = 6371.0

// degenerateArc is the angular distance (radians) under which two points are treated as equal.
const degenerateArc = 1e-12

// HaversineDistanceKm returns the great-circle distance between two locations.
func HaversineDistanceKm(a, b domain.Location) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("haversine distance: from %q: %w", a.Name, err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("haversine distance: to %q: %w", b.Name, err)
	}
	return DistanceKm(a.Coordinates(), b.Coordinates()), nil
}

// DistanceKm is HaversineDistanceKm for coordinates already known to be valid.
func DistanceKm(a, b domain.Coordinates) float64 {
	return float64(arc(a, b)) * EarthRadiusKm
}

// AngleForKm converts a surface distance to the central angle it subtends.
func AngleForKm(km float64) s1.Angle {
	return s1.Angle(km/EarthRadiusKm) * s1.Radian
}

// arc is the haversine central angle between a and b.
// Every term is computed so that swapping the arguments yields the same bits.
func arc(a, b domain.Coordinates) s1.Angle {
	lat1 := (s1.Angle(a.Lat) * s1.Degree).Radians()
	lat2 := (s1.Angle(b.Lat) * s1.Degree).Radians()
	lng1 := (s1.Angle(a.Lon) * s1.Degree).Radians()
	lng2 := (s1.Angle(b.Lon) * s1.Degree).Radians()

	sinDLat := math.Sin(0.5 * (lat2 - lat1))
	sinDLng := math.Sin(0.5 * (lng2 - lng1))
	cosProduct := math.Cos(lat1) * math.Cos(lat2)

	h := sinDLat*sinDLat + cosProduct*(sinDLng*sinDLng)
	return s1.Angle(2 * math.Asin(math.Sqrt(math.Min(1, h))))
}

func LatLng(c domain.Coordinates) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lon)
}

// Interpolate returns the point at the given fraction of the great-circle arc from start to end.
func Interpolate(start, end domain.Location, fraction float64) (domain.Coordinates, error) {
	if err := start.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("interpolate: start %q: %w", start.Name, err)
	}
	if err := end.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("interpolate: end %q: %w", end.Name, err)
	}
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return domain.Coordinates{}, fmt.Errorf("interpolate: %w: fraction %v must be within [0,1]", domain.ErrInvalidInput, fraction)
	}

	switch fraction {
	case 0:
		return start.Coordinates(), nil
	case 1:
		return end.Coordinates(), nil
	}

	d := float64(arc(start.Coordinates(), end.Coordinates()))
	if d < degenerateArc {
		return start.Coordinates(), nil
	}

	sinD := math.Sin(d)
	if math.Abs(sinD) < degenerateArc {
		// Antipodal endpoints lie on infinitely many great circles.
		return domain.Coordinates{}, fmt.Errorf("interpolate: %w: %q and %q are antipodal", domain.ErrInvalidInput, start.Name, end.Name)
	}

	wa := math.Sin((1-fraction)*d) / sinD
	wb := math.Sin(fraction*d) / sinD

	a := s2.PointFromLatLng(LatLng(start.Coordinates()))
	b := s2.PointFromLatLng(LatLng(end.Coordinates()))
	p := s2.Point{Vector: a.Vector.Mul(wa).Add(b.Vector.Mul(wb))}

	ll := s2.LatLngFromPoint(p)
	return domain.Coordinates{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}, nil
}
