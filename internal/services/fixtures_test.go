package services

import (
	"context"
	"errors"
	"testing"
	"trip-planner-service/internal/adapters/catalog"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/ports"

	"github.com/stretchr/testify/require"
)

const sampleCatalogPath = "../adapters/geonames/testdata/cities_sample.txt"

var (
	vancouver = domain.Location{Name: "Vancouver", Latitude: 49.2609, Longitude: -123.1140, Population: 600000}
	toronto   = domain.Location{Name: "Toronto", Latitude: 43.6535, Longitude: -79.3839, Population: 2600000}
)

func prairieCatalog() []domain.CityRecord {
	return []domain.CityRecord{
		{GeonameID: 1, Name: "Regina", Latitude: 50.4501, Longitude: -104.6178, Population: 215106},
		{GeonameID: 2, Name: "Saskatoon", Latitude: 52.1332, Longitude: -106.6700, Population: 266141},
		{GeonameID: 3, Name: "Moose Jaw", Latitude: 50.3934, Longitude: -105.5519, Population: 33890},
		{GeonameID: 4, Name: "Calgary", Latitude: 51.0447, Longitude: -114.0719, Population: 1306784},
		{GeonameID: 5, Name: "Minneapolis", Latitude: 44.9778, Longitude: -93.2650, Population: 425336},
		{GeonameID: 6, Name: "Winnipeg", Latitude: 49.8951, Longitude: -97.1384, Population: 749607},
		{GeonameID: 7, Name: "Vancouver", Latitude: 49.2609, Longitude: -123.1140, Population: 600000},
		{GeonameID: 8, Name: "Toronto", Latitude: 43.6535, Longitude: -79.3839, Population: 2600000},
	}
}

func memoryCatalog(t *testing.T, cities []domain.CityRecord) *Catalog {
	t.Helper()
	s := catalog.NewMemoryCityStore()
	require.NoError(t, s.InsertCities(context.Background(), cities))
	require.NoError(t, s.EnsureIndexes(context.Background()))
	return NewCatalog(s)
}

func stopNames(stops []domain.RouteStop) []string {
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.Location.Name)
	}
	return out
}

// countingStore records calls made through the CityStore port.
type countingStore struct {
	*catalog.MemoryCityStore
	inserts    int
	batchSizes []int
	finds      int
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryCityStore: catalog.NewMemoryCityStore()}
}

func (c *countingStore) InsertCities(ctx context.Context, cities []domain.CityRecord) error {
	c.inserts++
	c.batchSizes = append(c.batchSizes, len(cities))
	return c.MemoryCityStore.InsertCities(ctx, cities)
}

func (c *countingStore) FindNearby(ctx context.Context, q ports.NearbyQuery) ([]domain.CityRecord, error) {
	c.finds++
	return c.MemoryCityStore.FindNearby(ctx, q)
}

var errStoreDown = errors.New("store unavailable")

// failingStore fails every query.
type failingStore struct {
	*catalog.MemoryCityStore
}

func (failingStore) FindNearby(context.Context, ports.NearbyQuery) ([]domain.CityRecord, error) {
	return nil, errStoreDown
}

func (failingStore) Count(context.Context) (int64, error) {
	return 0, errStoreDown
}
