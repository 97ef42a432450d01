package domain

import (
	"fmt"
	"time"
)

// Represents a single stop on a generated route.
// DistanceFromStartKm is the great-circle distance from the route start;
// CumulativeDistanceKm carries the same value. SegmentPercentage is the
// position (0-100) of the ideal point the stop was chosen for.
type RouteStop struct {
	Location             Location
	DistanceFromStartKm  float64
	CumulativeDistanceKm float64
	SegmentPercentage    float64
}

// Represents a planned trip between two cities.
// Stops are ordered ascending by DistanceFromStartKm and never repeat
// a name, neither among themselves nor with Start or End.
type Route struct {
	ID        string
	Start     Location
	End       Location
	Stops     []RouteStop
	CreatedAt time.Time
}

// Validate checks the route invariants: unique names and stop ordering.
func (r Route) Validate() error {
	if r.Start.Name == "" || r.End.Name == "" {
		return fmt.Errorf("%w: route start and end must be named", ErrInvalidInput)
	}

	seen := map[string]struct{}{
		r.Start.Name: {},
		r.End.Name:   {},
	}
	for i, s := range r.Stops {
		if _, ok := seen[s.Location.Name]; ok {
			return fmt.Errorf("%w: stop %d duplicates name %q", ErrInvalidInput, i, s.Location.Name)
		}
		seen[s.Location.Name] = struct{}{}

		if i > 0 && s.DistanceFromStartKm < r.Stops[i-1].DistanceFromStartKm {
			return fmt.Errorf("%w: stop %d is out of distance order", ErrInvalidInput, i)
		}
	}

	return nil
}
