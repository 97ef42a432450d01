package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "CATALOG_BACKEND", "CATALOG_BATCH_SIZE", "STOP_MIN_POPULATION",
		"STOP_SEARCH_RADIUS_KM", "STOP_CANDIDATE_LIMIT", "ROUTE_TIMEOUT", "GEOCODE_CACHE_TTL",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.CatalogBackend)
	assert.Equal(t, 1000, cfg.CatalogBatchSize)
	assert.Equal(t, int64(50_000), cfg.MinPopulation)
	assert.Equal(t, 1000.0, cfg.SearchRadiusKm)
	assert.Equal(t, 10, cfg.CandidateLimit)
	assert.Equal(t, 30*time.Second, cfg.RouteTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/trips")
	t.Setenv("STOP_MIN_POPULATION", "100000")
	t.Setenv("STOP_SEARCH_RADIUS_KM", "750.5")
	t.Setenv("ROUTE_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.CatalogBackend)
	assert.Equal(t, int64(100_000), cfg.MinPopulation)
	assert.Equal(t, 750.5, cfg.SearchRadiusKm)
	assert.Equal(t, 5*time.Second, cfg.RouteTimeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non numeric population", map[string]string{"STOP_MIN_POPULATION": "many"}},
		{"zero radius", map[string]string{"STOP_SEARCH_RADIUS_KM": "0"}},
		{"unknown backend", map[string]string{"CATALOG_BACKEND": "sqlite"}},
		{"postgres without url", map[string]string{"CATALOG_BACKEND": "postgres", "DATABASE_URL": ""}},
		{"mongo without uri", map[string]string{"CATALOG_BACKEND": "mongo", "MONGO_URI": ""}},
		{"bad timeout", map[string]string{"ROUTE_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
