package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
	"trip-planner-service/internal/adapters/geonames"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/ports"
)

// DefaultBatchSize bounds the payload of a single InsertCities call.
const DefaultBatchSize = 1000

// LoadReport summarizes a catalog load.
type LoadReport struct {
	// Skipped is true when the store already held cities and nothing was read.
	Skipped   bool
	Inserted  int
	Malformed int
	Duration  time.Duration
}

// CatalogLoader ingests a GeoNames extract into a CityStore.
//
// Loading is idempotent: a store that already holds records is not ingested
// again. The mutex serializes check-and-populate within the process; across
// processes the count check is the only guard.
type CatalogLoader struct {
	Store     ports.CityStore
	BatchSize int

	mu sync.Mutex
}

func NewCatalogLoader(store ports.CityStore, batchSize int) *CatalogLoader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &CatalogLoader{Store: store, BatchSize: batchSize}
}

// Load populates the store from sourcePath unless it is already populated,
// then makes sure the spatial and population indexes exist.
func (l *CatalogLoader) Load(ctx context.Context, sourcePath string) (*Catalog, LoadReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.loadLocked(ctx, sourcePath)
}

// Reload drops every stored city and ingests sourcePath from scratch.
func (l *CatalogLoader) Reload(ctx context.Context, sourcePath string) (*Catalog, LoadReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.Store.Truncate(ctx); err != nil {
		return nil, LoadReport{}, fmt.Errorf("reload catalog: %w", err)
	}
	return l.loadLocked(ctx, sourcePath)
}

func (l *CatalogLoader) loadLocked(ctx context.Context, sourcePath string) (*Catalog, LoadReport, error) {
	if l.Store == nil {
		return nil, LoadReport{}, errors.New("load catalog: store is nil")
	}

	logger := logging.FromContext(ctx)
	start := time.Now()

	n, err := l.Store.Count(ctx)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("load catalog: count cities: %w", err)
	}

	report := LoadReport{Skipped: n > 0}
	if report.Skipped {
		logging.LogOperation(logger, "catalog_load_skipped",
			slog.Int64("cities", n),
			slog.String("reason", "store already populated"))
	} else {
		f, err := geonames.Open(sourcePath)
		if err != nil {
			return nil, LoadReport{}, fmt.Errorf("load catalog: %w", err)
		}
		defer logging.SafeCloseWithLogging(f, logger, "close_catalog_source")

		report, err = l.ingest(ctx, f)
		if err != nil {
			return nil, report, fmt.Errorf("load catalog from %q: %w", sourcePath, err)
		}
	}

	if err := l.Store.EnsureIndexes(ctx); err != nil {
		return nil, report, fmt.Errorf("load catalog: %w", err)
	}

	report.Duration = time.Since(start)
	logging.LogOperation(logger, "catalog_loaded",
		slog.String("source", sourcePath),
		slog.Bool("skipped", report.Skipped),
		slog.Int("inserted", report.Inserted),
		slog.Int("malformed", report.Malformed),
		slog.Duration("duration", report.Duration))

	return NewCatalog(l.Store), report, nil
}

// ingest streams records into the store in batches of BatchSize.
// Malformed lines are logged and skipped.
func (l *CatalogLoader) ingest(ctx context.Context, r io.Reader) (LoadReport, error) {
	logger := logging.FromContext(ctx)

	reader := geonames.NewReader(r)
	reader.OnMalformed = func(line int, err error) {
		logger.Debug("skipping malformed catalog line", slog.Int("line", line), slog.String("error", err.Error()))
	}

	var report LoadReport
	batch := make([]domain.CityRecord, 0, l.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.Store.InsertCities(ctx, batch); err != nil {
			return fmt.Errorf("insert batch ending at record %d: %w", report.Inserted+len(batch), err)
		}
		report.Inserted += len(batch)
		batch = make([]domain.CityRecord, 0, l.BatchSize)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, err
		}

		batch = append(batch, rec)
		if len(batch) >= l.BatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}

	if err := flush(); err != nil {
		return report, err
	}

	report.Malformed = reader.Malformed()
	return report, nil
}
