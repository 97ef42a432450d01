package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"trip-planner-service/internal/adapters/catalog"
	"trip-planner-service/internal/adapters/geocode"
	"trip-planner-service/internal/adapters/repositories"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCities() []domain.CityRecord {
	return []domain.CityRecord{
		{GeonameID: 1, Name: "Regina", CountryCode: "CA", Latitude: 50.4501, Longitude: -104.6178, Population: 215106},
		{GeonameID: 2, Name: "Saskatoon", CountryCode: "CA", Latitude: 52.1332, Longitude: -106.6700, Population: 266141},
		{GeonameID: 3, Name: "Moose Jaw", CountryCode: "CA", Latitude: 50.3934, Longitude: -105.5519, Population: 33890},
		{GeonameID: 4, Name: "Calgary", CountryCode: "CA", Latitude: 51.0447, Longitude: -114.0719, Population: 1306784},
		{GeonameID: 5, Name: "Minneapolis", CountryCode: "US", Latitude: 44.9778, Longitude: -93.2650, Population: 425336},
		{GeonameID: 6, Name: "Winnipeg", CountryCode: "CA", Latitude: 49.8951, Longitude: -97.1384, Population: 749607},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	store := catalog.NewMemoryCityStore()
	require.NoError(t, store.InsertCities(context.Background(), testCities()))
	cat := services.NewCatalog(store)
	routes := repositories.NewMemoryRouteRepository()

	planner := &services.TripPlanner{
		Geocoder: geocode.NewStaticGeocoder(
			domain.Location{Name: "Vancouver", Latitude: 49.2609, Longitude: -123.1140},
			domain.Location{Name: "Toronto", Latitude: 43.6535, Longitude: -79.3839},
		),
		Selector: services.NewStopSelector(cat, services.DefaultSearchParams()),
		Routes:   routes,
	}

	return NewRouter(Deps{
		Planner:      planner,
		Routes:       routes,
		Finder:       cat,
		SearchParams: services.DefaultSearchParams(),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	newTestServer(t).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCreateAndGetRoute(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/routes", `{"start":"Vancouver","end":"Toronto","number_of_stops":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/routes/"+created.ID, rec.Header().Get("Location"))
	require.Len(t, created.Stops, 2)
	assert.Equal(t, "Regina", created.Stops[0].Location.Name)
	assert.Equal(t, "Minneapolis", created.Stops[1].Location.Name)

	rec = do(t, srv, http.MethodGet, "/routes/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched dto.RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Stops, fetched.Stops)
}

func TestCreateRoute_ZeroStops(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/routes", `{"start":"Vancouver","end":"Toronto","number_of_stops":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created dto.RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotNil(t, created.Stops)
	assert.Empty(t, created.Stops)
}

func TestCreateRoute_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	cases := map[string]string{
		"malformed":       `{"start":`,
		"unknown field":   `{"start":"Vancouver","end":"Toronto","stops":2}`,
		"two objects":     `{"start":"Vancouver","end":"Toronto"}{}`,
		"missing end":     `{"start":"Vancouver"}`,
		"negative stops":  `{"start":"Vancouver","end":"Toronto","number_of_stops":-1}`,
		"too many stops":  `{"start":"Vancouver","end":"Toronto","number_of_stops":26}`,
		"whitespace name": `{"start":"  ","end":"Toronto","number_of_stops":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/routes", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateRoute_UnknownCity(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/routes", `{"start":"Vancouver","end":"Atlantis","number_of_stops":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRoute_NotFound(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/routes/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodDelete, "/routes", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNearby(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/cities/nearby?lat=49.3188&lon=-107.6506", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.NearbyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	got := make([]string, 0, len(res.Cities))
	for _, c := range res.Cities {
		got = append(got, c.Name)
	}
	assert.Equal(t, []string{"Regina", "Saskatoon", "Calgary", "Winnipeg"}, got)
}

func TestNearby_QueryOverrides(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/cities/nearby?lat=49.3188&lon=-107.6506&min_population=0&radius_km=200&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.NearbyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Cities, 1)
	assert.Equal(t, "Moose Jaw", res.Cities[0].Name)
}

func TestNearby_BadQuery(t *testing.T) {
	srv := newTestServer(t)

	for _, target := range []string{
		"/cities/nearby?lon=1",
		"/cities/nearby?lat=x&lon=1",
		"/cities/nearby?lat=91&lon=1",
		"/cities/nearby?lat=1&lon=1&radius_km=-5",
		"/cities/nearby?lat=1&lon=1&limit=abc",
		"/cities/nearby?lat=1&lon=1&limit=1000",
	} {
		rec := do(t, srv, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

type brokenPlanner struct{}

func (brokenPlanner) PlanTrip(context.Context, services.PlanTripRequest) (domain.Route, error) {
	return domain.Route{}, errors.New("connection refused")
}

func TestCreateRoute_InternalErrorHidesCause(t *testing.T) {
	var logs bytes.Buffer
	srv := NewRouter(Deps{
		Planner: brokenPlanner{},
		Logger:  slog.New(slog.NewJSONHandler(&logs, nil)),
	})

	rec := do(t, srv, http.MethodPost, "/routes", `{"start":"a","end":"b","number_of_stops":1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "connection refused")
}
