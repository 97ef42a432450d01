package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"
)

// SQLGeocodeCache is a SQL-backed cache mapping normalized city names to locations.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch the cached location for key.
func (s *SQLGeocodeCache) Get(ctx context.Context, key string) (_ domain.Location, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.Get")(&err)

	if s.DB == nil {
		return domain.Location{}, false, errors.New("geocode cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Location{}, false, nil
	}

	q := `
	SELECT name, lon, lat, population
	FROM geocode_cache
	WHERE query = $1;
	`

	var loc domain.Location
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&loc.Name, &loc.Longitude, &loc.Latitude, &loc.Population)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, false, nil
	}
	if err != nil {
		return domain.Location{}, false, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}

	return loc, true, nil
}

// Store key -> location in the cache, replacing any previous entry.
func (s *SQLGeocodeCache) Put(ctx context.Context, key string, loc domain.Location) (err error) {
	defer obs.Time(ctx, "geocode.cache.Put")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("insert geocode cache: empty key")
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (query, name, lon, lat, population)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (query) DO UPDATE
	SET name = EXCLUDED.name,
		lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		population = EXCLUDED.population;
	`, key, loc.Name, loc.Longitude, loc.Latitude, loc.Population)
	if err != nil {
		return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
	}

	return nil
}
