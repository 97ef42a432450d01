package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"

	"github.com/google/uuid"
)

// Postgres-backed implementation of the RouteRepository port.
// Endpoints and stops are stored as JSONB documents.
type PostgresRouteRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewPostgresRouteRepository(db *sql.DB) *PostgresRouteRepository {
	return &PostgresRouteRepository{DB: db, Now: time.Now}
}

func (p *PostgresRouteRepository) SaveRoute(ctx context.Context, route domain.Route) (_ domain.Route, err error) {
	defer obs.Time(ctx, "routes.postgres.Save")(&err)

	if p.DB == nil {
		return domain.Route{}, errors.New("postgres route repository: DB is nil")
	}

	if err := route.Validate(); err != nil {
		return domain.Route{}, fmt.Errorf("save route: %w", err)
	}

	route.ID = uuid.NewString()
	route.CreatedAt = p.Now().UTC().Truncate(time.Microsecond)

	start, err := json.Marshal(toLocationRecord(route.Start))
	if err != nil {
		return domain.Route{}, fmt.Errorf("save route: encode start: %w", err)
	}
	end, err := json.Marshal(toLocationRecord(route.End))
	if err != nil {
		return domain.Route{}, fmt.Errorf("save route: encode end: %w", err)
	}
	stops, err := json.Marshal(toStopRecords(route.Stops))
	if err != nil {
		return domain.Route{}, fmt.Errorf("save route: encode stops: %w", err)
	}

	query := `
	INSERT INTO routes (id, start_location, end_location, stops, created_at)
	VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := p.DB.ExecContext(ctx, query, route.ID, start, end, stops, route.CreatedAt); err != nil {
		return domain.Route{}, fmt.Errorf("save route: insert id=%s: %w", route.ID, err)
	}

	return route, nil
}

func (p *PostgresRouteRepository) GetRoute(ctx context.Context, id string) (_ domain.Route, err error) {
	defer obs.Time(ctx, "routes.postgres.Get")(&err)

	if p.DB == nil {
		return domain.Route{}, errors.New("postgres route repository: DB is nil")
	}

	if _, err := uuid.Parse(id); err != nil {
		return domain.Route{}, fmt.Errorf("get route %q: %w", id, domain.ErrNotFound)
	}

	query := `
	SELECT start_location, end_location, stops, created_at
	FROM routes
	WHERE id = $1;
	`

	var (
		start, end, stops []byte
		createdAt         time.Time
	)
	err = p.DB.QueryRowContext(ctx, query, id).Scan(&start, &end, &stops, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, fmt.Errorf("get route %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route %q: query routes table: %w", id, err)
	}

	var (
		startRec, endRec locationRecord
		stopRecs         []stopRecord
	)
	if err := json.Unmarshal(start, &startRec); err != nil {
		return domain.Route{}, fmt.Errorf("get route %q: decode start: %w", id, err)
	}
	if err := json.Unmarshal(end, &endRec); err != nil {
		return domain.Route{}, fmt.Errorf("get route %q: decode end: %w", id, err)
	}
	if err := json.Unmarshal(stops, &stopRecs); err != nil {
		return domain.Route{}, fmt.Errorf("get route %q: decode stops: %w", id, err)
	}

	return domain.Route{
		ID:        id,
		Start:     startRec.location(),
		End:       endRec.location(),
		Stops:     fromStopRecords(stopRecs),
		CreatedAt: createdAt.UTC(),
	}, nil
}
