package catalog

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sort"
	"sync"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/geometry"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// coveringMaxCells bounds the number of S2 cells used to cover a search cap.
// More cells fit the cap tighter but cost one binary search each.
const coveringMaxCells = 16

// indexedCity is a catalog position keyed by its leaf S2 cell.
type indexedCity struct {
	cell s2.CellID
	idx  int
}

// MemoryCityStore keeps the catalog in process memory.
//
// It maintains two indexes over the records: cities sorted by leaf S2 cell id,
// so any cell of a covering maps to a contiguous range, and city positions
// sorted by population descending. Safe for concurrent use.
type MemoryCityStore struct {
	mu           sync.RWMutex
	cities       []domain.CityRecord
	byCell       []indexedCity
	byPopulation []int
	stale        bool
}

func NewMemoryCityStore() *MemoryCityStore {
	return &MemoryCityStore{}
}

func (m *MemoryCityStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.cities)), nil
}

func (m *MemoryCityStore) InsertCities(ctx context.Context, cities []domain.CityRecord) error {
	if len(cities) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cities = append(m.cities, cities...)
	m.stale = true
	return nil
}

func (m *MemoryCityStore) Truncate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cities = nil
	m.byCell = nil
	m.byPopulation = nil
	m.stale = false
	return nil
}

// EnsureIndexes rebuilds both indexes when records were added since the last build.
func (m *MemoryCityStore) EnsureIndexes(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buildIndexesLocked()
	return nil
}

func (m *MemoryCityStore) buildIndexesLocked() {
	if !m.stale && len(m.byCell) == len(m.cities) {
		return
	}

	byCell := make([]indexedCity, len(m.cities))
	byPopulation := make([]int, len(m.cities))
	for i, c := range m.cities {
		ll := s2.LatLngFromDegrees(c.Latitude, c.Longitude)
		byCell[i] = indexedCity{cell: s2.CellIDFromLatLng(ll), idx: i}
		byPopulation[i] = i
	}

	slices.SortFunc(byCell, func(a, b indexedCity) int {
		return cmp.Compare(a.cell, b.cell)
	})
	slices.SortFunc(byPopulation, func(a, b int) int {
		return comparePopulation(m.cities[a], m.cities[b])
	})

	m.byCell = byCell
	m.byPopulation = byPopulation
	m.stale = false
}

// comparePopulation orders by population descending, then geoname id for determinism.
func comparePopulation(a, b domain.CityRecord) int {
	if c := cmp.Compare(b.Population, a.Population); c != 0 {
		return c
	}
	return cmp.Compare(a.GeonameID, b.GeonameID)
}

// FindNearby answers a radius query. It scans the S2 covering of the search
// cap, unless walking the population index is expected to reach Limit matches sooner.
func (m *MemoryCityStore) FindNearby(ctx context.Context, q ports.NearbyQuery) (_ []domain.CityRecord, err error) {
	defer obs.Time(ctx, "catalog.memory.FindNearby")(&err)

	if err := q.Center.Validate(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 || q.RadiusKm < 0 || math.IsNaN(q.RadiusKm) {
		return []domain.CityRecord{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// An insert can land between Unlock and RLock, so staleness is re-checked
	// until the read lock is held over fresh indexes.
	m.mu.RLock()
	for m.stale {
		m.mu.RUnlock()
		m.mu.Lock()
		m.buildIndexesLocked()
		m.mu.Unlock()
		m.mu.RLock()
	}
	defer m.mu.RUnlock()

	covering := m.covering(q)
	inCover := m.countCovered(covering)
	if inCover == 0 {
		return []domain.CityRecord{}, nil
	}

	if len(m.cities)*q.Limit < inCover*inCover {
		return m.findByPopulation(q), nil
	}
	return m.findByCells(q, covering), nil
}

func (m *MemoryCityStore) covering(q ports.NearbyQuery) s2.CellUnion {
	angle := geometry.AngleForKm(q.RadiusKm)
	if angle > s1.Angle(math.Pi) {
		angle = s1.Angle(math.Pi)
	}

	center := s2.PointFromLatLng(geometry.LatLng(q.Center))
	coverer := &s2.RegionCoverer{MinLevel: 0, MaxLevel: 30, LevelMod: 1, MaxCells: coveringMaxCells}
	return coverer.Covering(s2.CapFromCenterAngle(center, angle))
}

// cellRange returns the byCell index range [lo, hi) of cities inside cell.
func (m *MemoryCityStore) cellRange(cell s2.CellID) (int, int) {
	minID, maxID := cell.RangeMin(), cell.RangeMax()
	lo := sort.Search(len(m.byCell), func(i int) bool { return m.byCell[i].cell >= minID })
	hi := sort.Search(len(m.byCell), func(i int) bool { return m.byCell[i].cell > maxID })
	return lo, hi
}

func (m *MemoryCityStore) countCovered(covering s2.CellUnion) int {
	n := 0
	for _, cell := range covering {
		lo, hi := m.cellRange(cell)
		n += hi - lo
	}
	return n
}

func (m *MemoryCityStore) matches(c domain.CityRecord, q ports.NearbyQuery) bool {
	if c.Population < q.MinPopulation {
		return false
	}
	if _, excluded := q.ExcludedNames[c.Name]; excluded {
		return false
	}
	return geometry.DistanceKm(q.Center, c.GeoPoint()) <= q.RadiusKm
}

func (m *MemoryCityStore) findByCells(q ports.NearbyQuery, covering s2.CellUnion) []domain.CityRecord {
	out := make([]domain.CityRecord, 0, q.Limit)
	for _, cell := range covering {
		lo, hi := m.cellRange(cell)
		for _, ic := range m.byCell[lo:hi] {
			if c := m.cities[ic.idx]; m.matches(c, q) {
				out = append(out, c)
			}
		}
	}

	slices.SortFunc(out, comparePopulation)
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (m *MemoryCityStore) findByPopulation(q ports.NearbyQuery) []domain.CityRecord {
	out := make([]domain.CityRecord, 0, q.Limit)
	for _, idx := range m.byPopulation {
		c := m.cities[idx]
		// Population only decreases from here on.
		if c.Population < q.MinPopulation {
			break
		}
		if m.matches(c, q) {
			out = append(out, c)
			if len(out) == q.Limit {
				break
			}
		}
	}
	return out
}
