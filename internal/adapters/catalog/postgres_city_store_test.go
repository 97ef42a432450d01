package catalog

import (
	"context"
	"os"
	"testing"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/db"
	"trip-planner-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBox(t *testing.T) {
	t.Run("regular box", func(t *testing.T) {
		minLat, maxLat, minLon, maxLon, ok := boundingBox(domain.Coordinates{Lat: 49.3, Lon: -107.6}, 111.19)
		require.True(t, ok)
		assert.InDelta(t, 48.3, minLat, 1e-3)
		assert.InDelta(t, 50.3, maxLat, 1e-3)
		assert.Less(t, minLon, -107.6-1.5)
		assert.Greater(t, maxLon, -107.6+1.5)
	})

	t.Run("crossing the antimeridian drops longitude bounds", func(t *testing.T) {
		_, _, minLon, maxLon, ok := boundingBox(domain.Coordinates{Lat: 0, Lon: 179.5}, 500)
		assert.False(t, ok)
		assert.Equal(t, -180.0, minLon)
		assert.Equal(t, 180.0, maxLon)
	})

	t.Run("reaching a pole drops longitude bounds", func(t *testing.T) {
		_, maxLat, _, _, ok := boundingBox(domain.Coordinates{Lat: 85, Lon: 0}, 1000)
		assert.False(t, ok)
		assert.Equal(t, 90.0, maxLat)
	})
}

func TestDistanceSQLIsClamped(t *testing.T) {
	assert.Contains(t, distanceKmSQL, "asin(LEAST(1.0, sqrt(")
}

// Integration test against a live Postgres; set TEST_DATABASE_URL to run it.
func TestPostgresCityStoreIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, url)
	require.NoError(t, err)
	defer conn.Close()

	s := NewPostgresCityStore(conn)
	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, s.Truncate(ctx))
	defer func() { _ = s.Truncate(context.Background()) }()

	cities := prairieCities()
	cities[0].AlternateNames = []string{"Pile o' Bones", "YQR"}
	require.NoError(t, s.InsertCities(ctx, cities))
	require.NoError(t, s.EnsureIndexes(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	got, err := s.FindNearby(ctx, ports.NearbyQuery{
		Center:        domain.Coordinates{Lat: 49.3188, Lon: -107.6506},
		RadiusKm:      1000,
		MinPopulation: 50_000,
		ExcludedNames: map[string]struct{}{"Calgary": {}},
		Limit:         10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Winnipeg", "Saskatoon", "Regina"}, names(got))
	assert.Equal(t, []string{"Pile o' Bones", "YQR"}, got[2].AlternateNames)

	// The antipode of Regina: every row sits near the far end of the sphere.
	got, err = s.FindNearby(ctx, ports.NearbyQuery{
		Center:        domain.Coordinates{Lat: -50.4501, Lon: 75.3822},
		RadiusKm:      20_016,
		MinPopulation: 50_000,
		Limit:         10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Calgary", "Winnipeg", "Minneapolis", "Saskatoon", "Regina"}, names(got))
}
