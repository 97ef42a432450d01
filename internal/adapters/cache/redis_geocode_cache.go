package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "geocode:"

// RedisGeocodeCache keeps geocoding results in Redis with an expiry.
type RedisGeocodeCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{Client: client, TTL: ttl}
}

type cachedLocation struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Population int64   `json:"population,omitempty"`
}

func (r *RedisGeocodeCache) Get(ctx context.Context, key string) (_ domain.Location, _ bool, err error) {
	defer obs.Time(ctx, "geocode.redis.Get")(&err)

	if r.Client == nil {
		return domain.Location{}, false, errors.New("geocode cache: redis client is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Location{}, false, nil
	}

	raw, err := r.Client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Location{}, false, nil
	}
	if err != nil {
		return domain.Location{}, false, fmt.Errorf("get geocode cache: redis get %q: %w", key, err)
	}

	var c cachedLocation
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Location{}, false, fmt.Errorf("get geocode cache: decode %q: %w", key, err)
	}

	return domain.Location{Name: c.Name, Latitude: c.Lat, Longitude: c.Lon, Population: c.Population}, true, nil
}

// Put stores the location. A zero TTL keeps the entry until evicted.
func (r *RedisGeocodeCache) Put(ctx context.Context, key string, loc domain.Location) (err error) {
	defer obs.Time(ctx, "geocode.redis.Put")(&err)

	if r.Client == nil {
		return errors.New("geocode cache: redis client is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("insert geocode cache: empty key")
	}

	raw, err := json.Marshal(cachedLocation{
		Name:       loc.Name,
		Lat:        loc.Latitude,
		Lon:        loc.Longitude,
		Population: loc.Population,
	})
	if err != nil {
		return fmt.Errorf("insert geocode cache: encode %q: %w", key, err)
	}

	if err := r.Client.Set(ctx, redisKeyPrefix+key, raw, r.TTL).Err(); err != nil {
		return fmt.Errorf("insert geocode cache: redis set %q: %w", key, err)
	}

	return nil
}
