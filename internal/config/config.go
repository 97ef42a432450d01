package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Catalog backends accepted by CATALOG_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds every environment-driven setting of the service.
type Config struct {
	Port     string
	LogLevel string

	CatalogBackend   string
	CitiesPath       string
	CatalogBatchSize int

	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	ORSAPIKey       string
	GeocodeCacheTTL time.Duration

	MinPopulation  int64
	SearchRadiusKm float64
	CandidateLimit int
	RouteTimeout   time.Duration
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func GetInt64(key string, fallback int64) (int64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a number: %w", key, v, err)
	}
	return f, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a duration: %w", key, v, err)
	}
	return d, nil
}

// Load reads the configuration from the environment.
// Callers load .env files beforehand.
func Load() (Config, error) {
	cfg := Config{
		Port:           Get("PORT", "8080"),
		LogLevel:       Get("LOG_LEVEL", "info"),
		CatalogBackend: strings.ToLower(Get("CATALOG_BACKEND", BackendMemory)),
		CitiesPath:     Get("CITIES_PATH", "data/cities15000.txt"),
		DatabaseURL:    Get("DATABASE_URL", ""),
		MongoURI:       Get("MONGO_URI", ""),
		MongoDatabase:  Get("MONGO_DATABASE", "trips"),
		RedisURL:       Get("REDIS_URL", ""),
		ORSAPIKey:      Get("ORS_API_KEY", ""),
	}

	var err error
	if cfg.CatalogBatchSize, err = GetInt("CATALOG_BATCH_SIZE", 1000); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeCacheTTL, err = GetDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.MinPopulation, err = GetInt64("STOP_MIN_POPULATION", 50_000); err != nil {
		return Config{}, err
	}
	if cfg.SearchRadiusKm, err = GetFloat("STOP_SEARCH_RADIUS_KM", 1000); err != nil {
		return Config{}, err
	}
	if cfg.CandidateLimit, err = GetInt("STOP_CANDIDATE_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.RouteTimeout, err = GetDuration("ROUTE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.CatalogBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for catalog backend %q", c.CatalogBackend)
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI is required for catalog backend %q", c.CatalogBackend)
		}
	default:
		return fmt.Errorf("config: unknown CATALOG_BACKEND %q", c.CatalogBackend)
	}

	if c.CatalogBatchSize <= 0 {
		return fmt.Errorf("config: CATALOG_BATCH_SIZE must be positive, got %d", c.CatalogBatchSize)
	}
	if c.MinPopulation < 0 {
		return fmt.Errorf("config: STOP_MIN_POPULATION must not be negative, got %d", c.MinPopulation)
	}
	if c.SearchRadiusKm <= 0 {
		return fmt.Errorf("config: STOP_SEARCH_RADIUS_KM must be positive, got %v", c.SearchRadiusKm)
	}
	if c.CandidateLimit <= 0 {
		return fmt.Errorf("config: STOP_CANDIDATE_LIMIT must be positive, got %d", c.CandidateLimit)
	}
	if c.RouteTimeout <= 0 {
		return fmt.Errorf("config: ROUTE_TIMEOUT must be positive, got %s", c.RouteTimeout)
	}
	return nil
}
