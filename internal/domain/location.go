package domain

// Represents any point of interest on a route: the start, the end, or a stop.
// Population is zero for endpoints resolved by the geocoder.
type Location struct {
	Name       string
	Latitude   float64
	Longitude  float64
	Population int64
}

func (l Location) Coordinates() Coordinates {
	return Coordinates{Lon: l.Longitude, Lat: l.Latitude}
}

// Validate checks that the location carries usable coordinates.
func (l Location) Validate() error {
	return l.Coordinates().Validate()
}
