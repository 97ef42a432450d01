// Package app wires configured adapters behind their ports.
// Binaries call into it so the server and the CLI share one composition.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"trip-planner-service/internal/adapters/cache"
	"trip-planner-service/internal/adapters/catalog"
	"trip-planner-service/internal/adapters/geocode"
	"trip-planner-service/internal/adapters/repositories"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/platform/db"
	"trip-planner-service/internal/platform/mongodb"
	"trip-planner-service/internal/ports"
	"trip-planner-service/internal/services"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Connections holds the external clients the configuration asks for.
// Unconfigured clients stay nil.
type Connections struct {
	DB    *sql.DB
	Mongo *mongo.Client
	Redis *redis.Client
}

// Connect opens every configured backend and verifies it is reachable.
func Connect(ctx context.Context, cfg config.Config) (_ *Connections, err error) {
	conns := &Connections{}
	defer func() {
		if err != nil {
			_ = conns.Close(context.Background())
		}
	}()

	if cfg.DatabaseURL != "" {
		if conns.DB, err = db.Open(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
	}

	if cfg.CatalogBackend == config.BackendMongo {
		if conns.Mongo, err = mongodb.Connect(ctx, cfg.MongoURI); err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect: parse REDIS_URL: %w", err)
		}
		conns.Redis = redis.NewClient(opts)
		if err := conns.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect: ping redis: %w", err)
		}
	}

	return conns, nil
}

// Close releases every open client.
func (c *Connections) Close(ctx context.Context) error {
	var errs []error
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	if c.Mongo != nil {
		errs = append(errs, c.Mongo.Disconnect(ctx))
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	return errors.Join(errs...)
}

// OpenCityStore returns the catalog store selected by CATALOG_BACKEND.
func OpenCityStore(ctx context.Context, cfg config.Config, conns *Connections) (ports.CityStore, error) {
	switch cfg.CatalogBackend {
	case config.BackendMemory, "":
		return catalog.NewMemoryCityStore(), nil

	case config.BackendPostgres:
		if conns.DB == nil {
			return nil, errors.New("open city store: postgres is not connected")
		}
		store := catalog.NewPostgresCityStore(conns.DB)
		if err := store.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("open city store: %w", err)
		}
		return store, nil

	case config.BackendMongo:
		if conns.Mongo == nil {
			return nil, errors.New("open city store: mongo is not connected")
		}
		return catalog.NewMongoCityStore(conns.Mongo.Database(cfg.MongoDatabase)), nil

	default:
		return nil, fmt.Errorf("open city store: unknown backend %q", cfg.CatalogBackend)
	}
}

// NewRouteRepository stores routes in Postgres when it is configured, in memory otherwise.
func NewRouteRepository(ctx context.Context, conns *Connections) (ports.RouteRepository, error) {
	if conns.DB == nil {
		return repositories.NewMemoryRouteRepository(), nil
	}
	if err := repositories.InitSchema(ctx, conns.DB); err != nil {
		return nil, fmt.Errorf("route repository: %w", err)
	}
	return repositories.NewPostgresRouteRepository(conns.DB), nil
}

// NewGeocodeCache prefers Redis, then Postgres. It returns nil when neither is configured.
// The Postgres cache table is created by NewRouteRepository.
func NewGeocodeCache(cfg config.Config, conns *Connections) ports.GeocodeCache {
	switch {
	case conns.Redis != nil:
		return cache.NewRedisGeocodeCache(conns.Redis, cfg.GeocodeCacheTTL)
	case conns.DB != nil:
		return cache.NewSQLGeocodeCache(conns.DB)
	default:
		return nil
	}
}

// NewGeocoder builds the ORS geocoder fronted by the configured cache.
func NewGeocoder(cfg config.Config, conns *Connections) (*geocode.ORSGeocoder, error) {
	var opts []geocode.ORSOption
	if c := NewGeocodeCache(cfg, conns); c != nil {
		opts = append(opts, geocode.WithCache(c))
	}
	g, err := geocode.NewORSGeocoder(cfg.ORSAPIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}
	return g, nil
}

func SearchParams(cfg config.Config) services.SearchParams {
	return services.SearchParams{
		MinPopulation: cfg.MinPopulation,
		RadiusKm:      cfg.SearchRadiusKm,
		Limit:         cfg.CandidateLimit,
	}
}
