package dto

type CandidateResponse struct {
	GeonameID   int64   `json:"geoname_id"`
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Population  int64   `json:"population"`
	DistanceKm  float64 `json:"distance_km"`
}

type NearbyResponse struct {
	Cities []CandidateResponse `json:"cities"`
}
