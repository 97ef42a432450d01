package geometry

import (
	"math"
	"math/rand"
	"testing"
	"trip-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vancouver = domain.Location{Name: "Vancouver", Latitude: 49.2609, Longitude: -123.1140}
	toronto   = domain.Location{Name: "Toronto", Latitude: 43.6535, Longitude: -79.3839}
)

func randomLocation(r *rand.Rand) domain.Location {
	return domain.Location{
		Latitude:  r.Float64()*180 - 90,
		Longitude: r.Float64()*360 - 180,
	}
}

func TestHaversineDistanceKm(t *testing.T) {
	d, err := HaversineDistanceKm(vancouver, toronto)
	require.NoError(t, err)
	assert.InDelta(t, 3358.6, d, 0.5)

	london := domain.Location{Name: "London", Latitude: 51.5074, Longitude: -0.1278}
	paris := domain.Location{Name: "Paris", Latitude: 48.8566, Longitude: 2.3522}
	d, err = HaversineDistanceKm(london, paris)
	require.NoError(t, err)
	assert.InDelta(t, 343.5, d, 0.5)
}

func TestHaversineDistanceProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		a := randomLocation(r)
		b := randomLocation(r)

		aa, err := HaversineDistanceKm(a, a)
		require.NoError(t, err)
		assert.Equal(t, 0.0, aa, "distance to self")

		ab, err := HaversineDistanceKm(a, b)
		require.NoError(t, err)
		ba, err := HaversineDistanceKm(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba, "symmetry for %+v %+v", a, b)
		assert.LessOrEqual(t, ab, math.Pi*EarthRadiusKm+1e-6)
	}
}

func TestHaversineDistanceIsExactlySymmetric(t *testing.T) {
	// Argument order used to change the last bit for this pair.
	a := domain.Location{Latitude: -62.2585521418974, Longitude: 117.40545104795689}
	b := domain.Location{Latitude: -13.875972257863424, Longitude: -90.52364358593906}

	ab, err := HaversineDistanceKm(a, b)
	require.NoError(t, err)
	ba, err := HaversineDistanceKm(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.InDelta(t, 11206.04, ab, 0.01)

	antipodes := domain.Location{Latitude: 62.2585521418974, Longitude: 117.40545104795689 - 180}
	d, err := HaversineDistanceKm(a, antipodes)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1e-3)
}

func TestHaversineRejectsNonFinite(t *testing.T) {
	bad := domain.Location{Name: "bad", Latitude: math.NaN(), Longitude: 0}
	_, err := HaversineDistanceKm(bad, toronto)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)

	bad = domain.Location{Name: "bad", Latitude: 0, Longitude: math.Inf(-1)}
	_, err = HaversineDistanceKm(vancouver, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
}

func TestInterpolateEndpoints(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		a := randomLocation(r)
		b := randomLocation(r)

		p0, err := Interpolate(a, b, 0)
		require.NoError(t, err)
		assert.InDelta(t, a.Latitude, p0.Lat, 1e-9)
		assert.InDelta(t, a.Longitude, p0.Lon, 1e-9)

		p1, err := Interpolate(a, b, 1)
		require.NoError(t, err)
		assert.InDelta(t, b.Latitude, p1.Lat, 1e-9)
		assert.InDelta(t, b.Longitude, p1.Lon, 1e-9)
	}
}

func TestInterpolateAlongArc(t *testing.T) {
	total := DistanceKm(vancouver.Coordinates(), toronto.Coordinates())

	for _, f := range []float64{0.25, 1.0 / 3, 0.5, 2.0 / 3, 0.9} {
		p, err := Interpolate(vancouver, toronto, f)
		require.NoError(t, err)

		fromStart := DistanceKm(vancouver.Coordinates(), p)
		toEnd := DistanceKm(p, toronto.Coordinates())
		assert.InDelta(t, f*total, fromStart, 1e-6, "fraction %v", f)
		assert.InDelta(t, total, fromStart+toEnd, 1e-6, "point must lie on the arc")
	}

	third, err := Interpolate(vancouver, toronto, 1.0/3)
	require.NoError(t, err)
	assert.InDelta(t, 49.3188, third.Lat, 1e-3)
	assert.InDelta(t, -107.6506, third.Lon, 1e-3)
}

func TestInterpolateDegenerateArc(t *testing.T) {
	p, err := Interpolate(vancouver, vancouver, 0.5)
	require.NoError(t, err)
	assert.Equal(t, vancouver.Coordinates(), p)
}

func TestInterpolateRejectsInvalidInput(t *testing.T) {
	_, err := Interpolate(vancouver, toronto, -0.1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Interpolate(vancouver, toronto, math.NaN())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Interpolate(domain.Location{Latitude: 100}, toronto, 0.5)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)

	north := domain.Location{Name: "N", Latitude: 90}
	south := domain.Location{Name: "S", Latitude: -90}
	_, err = Interpolate(north, south, 0.5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAngleForKm(t *testing.T) {
	assert.InDelta(t, math.Pi, AngleForKm(math.Pi*EarthRadiusKm).Radians(), 1e-12)
}
