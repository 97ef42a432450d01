package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
	"trip-planner-service/internal/app"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/ports"

	"github.com/spf13/cobra"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:           "tripctl",
	Short:         "Manage the city catalog and plan trip stops from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "v", false, "Enable debug logs")

	rootCmd.AddCommand(newLoadCitiesCmd())
	rootCmd.AddCommand(newStopsCmd())
	rootCmd.AddCommand(newNearbyCmd())
}

// env is what every subcommand needs: configuration, a logger-bearing context and the catalog store.
type env struct {
	cfg   config.Config
	ctx   context.Context
	conns *app.Connections
	store ports.CityStore
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if debugFlag {
		level = logging.ParseLevel("debug")
	}
	logger := logging.NewStructuredLogger(cmd.ErrOrStderr(), level)
	ctx := logging.WithLogger(cmd.Context(), logger)

	conns, err := app.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := app.OpenCityStore(ctx, cfg, conns)
	if err != nil {
		_ = conns.Close(ctx)
		return nil, err
	}

	return &env{cfg: cfg, ctx: ctx, conns: conns, store: store}, nil
}

func (e *env) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.conns.Close(ctx); err != nil {
		logging.LogError(logging.FromContext(e.ctx), "close connections", err)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
