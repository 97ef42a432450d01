package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"
)

// ORSGeocoder resolves city names with the OpenRouteService geocoding API.
//
// It coordinates:
//   - Name normalization
//   - An optional persistent cache
//   - External API calls with retry/backoff
//
// The geocoder is safe for concurrent use.
type ORSGeocoder struct {
	session        *http.Client
	apiKey         string
	baseURL        string
	cache          ports.GeocodeCache
	maxAttempts    int
	initialBackoff time.Duration
}

// ORSOption customizes an ORSGeocoder.
type ORSOption func(*ORSGeocoder)

// WithBaseURL points the geocoder at another ORS-compatible endpoint.
func WithBaseURL(u string) ORSOption {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithCache puts a persistent cache in front of the API.
func WithCache(c ports.GeocodeCache) ORSOption {
	return func(o *ORSGeocoder) { o.cache = c }
}

// WithRetry sets the attempt count and the first backoff delay.
func WithRetry(maxAttempts int, initialBackoff time.Duration) ORSOption {
	return func(o *ORSGeocoder) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		o.initialBackoff = initialBackoff
	}
}

func NewORSGeocoder(apiKey string, opts ...ORSOption) (*ORSGeocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	o := &ORSGeocoder{
		session:        &http.Client{Timeout: 10 * time.Second},
		apiKey:         apiKey,
		baseURL:        "https://api.openrouteservice.org",
		maxAttempts:    4,
		initialBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Normalize collapses whitespace and case so equivalent names share a cache key.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Name  string `json:"name"`
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// Resolve returns the best locality match for cityName.
func (o *ORSGeocoder) Resolve(ctx context.Context, cityName string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "ors.Resolve")(&err)

	key := Normalize(cityName)
	if key == "" {
		return domain.Location{}, fmt.Errorf("resolve: %w: city name must be non-empty", domain.ErrInvalidInput)
	}

	if o.cache != nil {
		loc, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			// A broken cache must not block geocoding.
			logging.LogError(logging.FromContext(ctx), "geocode cache read failed", err, slog.String("key", key))
		} else if ok {
			return loc, nil
		}
	}

	loc, err := o.search(ctx, cityName)
	if err != nil {
		return domain.Location{}, err
	}

	if o.cache != nil {
		if err := o.cache.Put(ctx, key, loc); err != nil {
			logging.LogError(logging.FromContext(ctx), "geocode cache write failed", err, slog.String("key", key))
		}
	}

	return loc, nil
}

func (o *ORSGeocoder) search(ctx context.Context, cityName string) (domain.Location, error) {
	text := strings.Join(strings.Fields(cityName), " ")

	query := url.Values{}
	query.Set("text", text)
	query.Set("layers", "locality")
	query.Set("size", "1")

	var decoded geocodeResponse
	if err := o.getJSON(ctx, "/geocode/search", query, &decoded); err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", text, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", text, domain.ErrNotFound)
	}

	f := decoded.Features[0]
	coords := f.Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Location{}, fmt.Errorf("geocode %q: invalid coordinate format", text)
	}

	name := f.Properties.Name
	if name == "" {
		name = text
	}

	loc := domain.Location{Name: name, Longitude: coords[0], Latitude: coords[1]}
	if err := loc.Validate(); err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", text, err)
	}
	return loc, nil
}

// httpStatusError is an ORS response with a 4xx or 5xx status.
type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ors status %d: %s", e.Code, e.Body)
}

// retryable reports whether a failed attempt may succeed when repeated.
func retryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		return he.Code == http.StatusTooManyRequests || he.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// getJSON issues GET path?query and decodes the body into out. Rate limits,
// server errors and network failures are retried with doubling delays
// until maxAttempts is spent or ctx ends.
func (o *ORSGeocoder) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := o.baseURL + path + "?" + query.Encode()
	delay := o.initialBackoff

	for attempt := 1; ; attempt++ {
		err := o.getOnce(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		if attempt >= o.maxAttempts || !retryable(err) {
			return fmt.Errorf("attempt %d: %w", attempt, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func (o *ORSGeocoder) getOnce(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
