package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/geometry"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"

	"github.com/jackc/pgx/v5/pgtype"
)

// kmPerDegreeLat is the length of one degree of latitude on the 6371 km sphere.
const kmPerDegreeLat = math.Pi * geometry.EarthRadiusKm / 180

// distanceKmSQL is the haversine distance from ($8, $9) on a sphere of radius $7 km.
// Rounding can push the sqrt argument past 1 near the antipode, where asin would raise.
const distanceKmSQL = `2 * $7::double precision * asin(LEAST(1.0, sqrt(
			power(sin(radians(latitude - $8) / 2), 2) +
			cos(radians($8)) * cos(radians(latitude)) *
			power(sin(radians(longitude - $9) / 2), 2)
		)))`

// PostgresCityStore implements ports.CityStore on a plain Postgres table.
//
// Radius queries prefilter with a lat/lon bounding box served by a btree
// index, then apply the exact haversine distance in SQL.
type PostgresCityStore struct {
	DB *sql.DB
}

func NewPostgresCityStore(db *sql.DB) *PostgresCityStore {
	return &PostgresCityStore{DB: db}
}

// InitSchema creates the cities table if it does not exist.
func (s *PostgresCityStore) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("postgres city store: db is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS cities (
		geoname_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		ascii_name TEXT NOT NULL,
		alternate_names TEXT[] NOT NULL DEFAULT '{}',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		feature_class TEXT NOT NULL,
		feature_code TEXT NOT NULL,
		country_code TEXT NOT NULL,
		admin1_code TEXT NOT NULL,
		admin2_code TEXT NOT NULL,
		admin3_code TEXT NOT NULL,
		admin4_code TEXT NOT NULL,
		population BIGINT NOT NULL,
		elevation BIGINT NOT NULL,
		timezone TEXT NOT NULL,
		modified_at TEXT NOT NULL
	);
	`
	if _, err := s.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init cities schema: %w", err)
	}
	return nil
}

func (s *PostgresCityStore) Count(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "catalog.postgres.Count")(&err)

	if s.DB == nil {
		return 0, errors.New("postgres city store: db is nil")
	}

	var n int64
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cities;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cities: %w", err)
	}
	return n, nil
}

// InsertCities writes one batch inside a single transaction.
func (s *PostgresCityStore) InsertCities(ctx context.Context, cities []domain.CityRecord) (err error) {
	defer obs.Time(ctx, "catalog.postgres.InsertCities")(&err)

	if s.DB == nil {
		return errors.New("postgres city store: db is nil")
	}
	if len(cities) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert cities: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO cities (
		geoname_id, name, ascii_name, alternate_names, latitude, longitude,
		feature_class, feature_code, country_code,
		admin1_code, admin2_code, admin3_code, admin4_code,
		population, elevation, timezone, modified_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (geoname_id) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("insert cities: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range cities {
		_, err := stmt.ExecContext(ctx,
			c.GeonameID, c.Name, c.ASCIIName, c.AlternateNames, c.Latitude, c.Longitude,
			c.FeatureClass, c.FeatureCode, c.CountryCode,
			c.Admin1Code, c.Admin2Code, c.Admin3Code, c.Admin4Code,
			c.Population, c.Elevation, c.Timezone, c.ModifiedAt,
		)
		if err != nil {
			return fmt.Errorf("insert cities geoname_id=%d: %w", c.GeonameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert cities commit: %w", err)
	}
	return nil
}

func (s *PostgresCityStore) EnsureIndexes(ctx context.Context) (err error) {
	defer obs.Time(ctx, "catalog.postgres.EnsureIndexes")(&err)

	if s.DB == nil {
		return errors.New("postgres city store: db is nil")
	}

	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_cities_lat_lon ON cities (latitude, longitude);`,
		`CREATE INDEX IF NOT EXISTS idx_cities_population ON cities (population DESC);`,
	}
	for i, stmt := range statements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure city indexes: exec statement #%d: %w", i+1, err)
		}
	}
	return nil
}

func (s *PostgresCityStore) Truncate(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("postgres city store: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, `TRUNCATE TABLE cities;`); err != nil {
		return fmt.Errorf("truncate cities: %w", err)
	}
	return nil
}

// boundingBox returns the lat/lon box enclosing the search circle.
// ok is false when the box would wrap a pole or the antimeridian, in which
// case the longitude bounds must not be used.
func boundingBox(c domain.Coordinates, radiusKm float64) (minLat, maxLat, minLon, maxLon float64, ok bool) {
	dLat := radiusKm / kmPerDegreeLat
	minLat, maxLat = c.Lat-dLat, c.Lat+dLat
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(minLat, -90), math.Min(maxLat, 90), -180, 180, false
	}

	// Widest longitude span occurs at the latitude nearest a pole.
	maxAbsLat := math.Max(math.Abs(minLat), math.Abs(maxLat))
	dLon := dLat / math.Cos(maxAbsLat*math.Pi/180)
	minLon, maxLon = c.Lon-dLon, c.Lon+dLon
	if minLon < -180 || maxLon > 180 {
		return minLat, maxLat, -180, 180, false
	}
	return minLat, maxLat, minLon, maxLon, true
}

func (s *PostgresCityStore) FindNearby(ctx context.Context, q ports.NearbyQuery) (_ []domain.CityRecord, err error) {
	defer obs.Time(ctx, "catalog.postgres.FindNearby")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres city store: db is nil")
	}
	if err := q.Center.Validate(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 || q.RadiusKm < 0 || math.IsNaN(q.RadiusKm) {
		return []domain.CityRecord{}, nil
	}

	excluded := make([]string, 0, len(q.ExcludedNames))
	for name := range q.ExcludedNames {
		excluded = append(excluded, name)
	}

	minLat, maxLat, minLon, maxLon, _ := boundingBox(q.Center, q.RadiusKm)

	query := `
	SELECT
		geoname_id, name, ascii_name, alternate_names, latitude, longitude,
		feature_class, feature_code, country_code,
		admin1_code, admin2_code, admin3_code, admin4_code,
		population, elevation, timezone, modified_at
	FROM cities
	WHERE latitude BETWEEN $1 AND $2
		AND longitude BETWEEN $3 AND $4
		AND population >= $5
		AND NOT (name = ANY($6::text[]))
		AND ` + distanceKmSQL + ` <= $10
	ORDER BY population DESC, geoname_id
	LIMIT $11;
	`

	rows, err := s.DB.QueryContext(ctx, query,
		minLat, maxLat, minLon, maxLon,
		q.MinPopulation, excluded,
		geometry.EarthRadiusKm, q.Center.Lat, q.Center.Lon, q.RadiusKm,
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find nearby cities: query cities table: %w", err)
	}
	defer rows.Close()

	// text[] columns need pgx's type map when scanning through database/sql.
	typeMap := pgtype.NewMap()

	out := make([]domain.CityRecord, 0, q.Limit)
	for rows.Next() {
		var c domain.CityRecord
		if err := rows.Scan(
			&c.GeonameID, &c.Name, &c.ASCIIName, typeMap.SQLScanner(&c.AlternateNames), &c.Latitude, &c.Longitude,
			&c.FeatureClass, &c.FeatureCode, &c.CountryCode,
			&c.Admin1Code, &c.Admin2Code, &c.Admin3Code, &c.Admin4Code,
			&c.Population, &c.Elevation, &c.Timezone, &c.ModifiedAt,
		); err != nil {
			return nil, fmt.Errorf("find nearby cities: scan rows: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find nearby cities: row iteration: %w", err)
	}

	return out, nil
}
