package services

import (
	"context"
	"math"
	"testing"
	"trip-planner-service/internal/adapters/catalog"
	"trip-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateNames(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.City.Name)
	}
	return out
}

// Ideal point one third of the way from Vancouver to Toronto.
var prairiePoint = domain.Coordinates{Lat: 49.3188, Lon: -107.6506}

func TestDefaultSearchParams(t *testing.T) {
	p := DefaultSearchParams()
	assert.Equal(t, int64(50000), p.MinPopulation)
	assert.Equal(t, 1000.0, p.RadiusKm)
	assert.Equal(t, 10, p.Limit)
}

func TestFindCandidates_SortedByDistance(t *testing.T) {
	c := memoryCatalog(t, prairieCatalog())

	got, err := c.FindCandidates(context.Background(), prairiePoint, nil, DefaultSearchParams())
	require.NoError(t, err)

	// Moose Jaw is the closest city but below the population floor.
	assert.Equal(t, []string{"Regina", "Saskatoon", "Calgary", "Winnipeg"}, candidateNames(got))
	assert.InDelta(t, 251, got[0].DistanceKm, 5)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
	}
}

func TestFindCandidates_LimitAppliesBeforeDistanceRanking(t *testing.T) {
	c := memoryCatalog(t, prairieCatalog())

	params := DefaultSearchParams()
	params.Limit = 2

	got, err := c.FindCandidates(context.Background(), prairiePoint, nil, params)
	require.NoError(t, err)

	// The two most populous cities in range win the shortlist even though
	// Regina and Saskatoon are closer.
	assert.Equal(t, []string{"Calgary", "Winnipeg"}, candidateNames(got))
}

func TestFindCandidates_ExcludedNames(t *testing.T) {
	c := memoryCatalog(t, prairieCatalog())

	excluded := map[string]struct{}{"Regina": {}, "Saskatoon": {}}
	got, err := c.FindCandidates(context.Background(), prairiePoint, excluded, DefaultSearchParams())
	require.NoError(t, err)

	assert.Equal(t, []string{"Calgary", "Winnipeg"}, candidateNames(got))
}

func TestFindCandidates_EmptyIsNotAnError(t *testing.T) {
	c := memoryCatalog(t, prairieCatalog())

	// Middle of the Atlantic.
	got, err := c.FindCandidates(context.Background(), domain.Coordinates{Lat: 35, Lon: -40}, nil, DefaultSearchParams())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindCandidates_TiesBrokenByPopulationThenName(t *testing.T) {
	cities := []domain.CityRecord{
		{GeonameID: 1, Name: "Beta", Latitude: 10, Longitude: 10, Population: 60000},
		{GeonameID: 2, Name: "Alpha", Latitude: 10, Longitude: 10, Population: 60000},
		{GeonameID: 3, Name: "Gamma", Latitude: 10, Longitude: 10, Population: 90000},
	}
	c := memoryCatalog(t, cities)

	got, err := c.FindCandidates(context.Background(), domain.Coordinates{Lat: 10.5, Lon: 10}, nil, DefaultSearchParams())
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, candidateNames(got))
}

func TestFindCandidates_InvalidInput(t *testing.T) {
	c := memoryCatalog(t, prairieCatalog())
	ctx := context.Background()

	_, err := c.FindCandidates(ctx, domain.Coordinates{Lat: math.NaN(), Lon: 0}, nil, DefaultSearchParams())
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)

	bad := []SearchParams{
		{MinPopulation: -1, RadiusKm: 10, Limit: 1},
		{MinPopulation: 0, RadiusKm: 0, Limit: 1},
		{MinPopulation: 0, RadiusKm: math.NaN(), Limit: 1},
		{MinPopulation: 0, RadiusKm: 10, Limit: 0},
	}
	for _, p := range bad {
		_, err := c.FindCandidates(ctx, prairiePoint, nil, p)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", p)
	}
}

func TestFindCandidates_StoreErrorPropagates(t *testing.T) {
	c := NewCatalog(failingStore{catalog.NewMemoryCityStore()})

	_, err := c.FindCandidates(context.Background(), prairiePoint, nil, DefaultSearchParams())
	assert.ErrorIs(t, err, errStoreDown)
}
