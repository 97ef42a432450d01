package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"trip-planner-service/internal/api"
	"trip-planner-service/internal/app"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/services"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters behind ports, loads the catalog once and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	conns, err := app.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conns.Close(closeCtx); err != nil {
			logging.LogError(logger, "close connections", err)
		}
	}()

	store, err := app.OpenCityStore(ctx, cfg, conns)
	if err != nil {
		return err
	}

	// The catalog is built once, before the first request is served.
	catalog, _, err := services.NewCatalogLoader(store, cfg.CatalogBatchSize).Load(ctx, cfg.CitiesPath)
	if err != nil {
		return err
	}

	routes, err := app.NewRouteRepository(ctx, conns)
	if err != nil {
		return err
	}

	geocoder, err := app.NewGeocoder(cfg, conns)
	if err != nil {
		return err
	}

	params := app.SearchParams(cfg)
	planner := &services.TripPlanner{
		Geocoder: geocoder,
		Selector: services.NewStopSelector(catalog, params),
		Routes:   routes,
		Timeout:  cfg.RouteTimeout,
	}

	router := api.NewRouter(api.Deps{
		Planner:      planner,
		Routes:       routes,
		Finder:       catalog,
		SearchParams: params,
		Logger:       logger,
	})

	// Write timeout leaves room for geocoding plus one catalog search per stop.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RouteTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr), slog.String("catalog_backend", cfg.CatalogBackend))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
