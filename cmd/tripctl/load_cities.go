package main

import (
	"fmt"
	"time"
	"trip-planner-service/internal/services"

	"github.com/spf13/cobra"
)

func newLoadCitiesCmd() *cobra.Command {
	var (
		file   string
		reload bool
	)

	cmd := &cobra.Command{
		Use:   "load-cities",
		Short: "Ingest a GeoNames cities extract into the configured catalog backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if file == "" {
				file = e.cfg.CitiesPath
			}

			loader := services.NewCatalogLoader(e.store, e.cfg.CatalogBatchSize)
			load := loader.Load
			if reload {
				load = loader.Reload
			}

			_, report, err := load(e.ctx, file)
			if err != nil {
				return err
			}

			if report.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "catalog already populated; use --reload to rebuild")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d cities (%d malformed lines skipped) in %s\n",
				report.Inserted, report.Malformed, report.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "GeoNames extract (.txt or .zip); defaults to CITIES_PATH")
	cmd.Flags().BoolVar(&reload, "reload", false, "Drop stored cities before loading")
	return cmd
}
