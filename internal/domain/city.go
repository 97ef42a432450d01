package domain

// CityRecord is a single entry of the city catalog, one per line of the
// GeoNames cities extract. Records are never mutated after ingestion.
type CityRecord struct {
	GeonameID      int64
	Name           string
	ASCIIName      string
	AlternateNames []string
	Latitude       float64
	Longitude      float64
	FeatureClass   string
	FeatureCode    string
	CountryCode    string
	Admin1Code     string
	Admin2Code     string
	Admin3Code     string
	Admin4Code     string
	Population     int64
	Elevation      int64
	Timezone       string
	ModifiedAt     string
}

// Location projects the record onto the route-facing Location shape.
func (c CityRecord) Location() Location {
	return Location{
		Name:       c.Name,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Population: c.Population,
	}
}

// GeoPoint is the (longitude, latitude) pair used for spatial indexing.
func (c CityRecord) GeoPoint() Coordinates {
	return Coordinates{Lon: c.Longitude, Lat: c.Latitude}
}
