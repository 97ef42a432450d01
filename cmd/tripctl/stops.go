package main

import (
	"fmt"
	"strconv"
	"strings"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/app"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/services"

	"github.com/spf13/cobra"
)

// parseEndpoint reads NAME:LAT,LON.
func parseEndpoint(s string) (domain.Location, error) {
	name, coords, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return domain.Location{}, fmt.Errorf("%w: endpoint %q must look like NAME:LAT,LON", domain.ErrInvalidInput, s)
	}

	latStr, lonStr, ok := strings.Cut(coords, ",")
	if !ok {
		return domain.Location{}, fmt.Errorf("%w: endpoint %q must look like NAME:LAT,LON", domain.ErrInvalidInput, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: endpoint %q: latitude: %v", domain.ErrInvalidInput, s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: endpoint %q: longitude: %v", domain.ErrInvalidInput, s, err)
	}

	loc := domain.Location{Name: name, Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return domain.Location{}, err
	}
	return loc, nil
}

func newStopsCmd() *cobra.Command {
	var (
		start, end string
		count      int
	)

	cmd := &cobra.Command{
		Use:   "stops",
		Short: "Pick intermediate stop cities between two points",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseEndpoint(start)
			if err != nil {
				return err
			}
			to, err := parseEndpoint(end)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			catalog, _, err := services.NewCatalogLoader(e.store, e.cfg.CatalogBatchSize).Load(e.ctx, e.cfg.CitiesPath)
			if err != nil {
				return err
			}

			stops, err := services.NewStopSelector(catalog, app.SearchParams(e.cfg)).GenerateStops(e.ctx, from, to, count)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), dto.NewRouteResponse(domain.Route{Start: from, End: to, Stops: stops}).Stops)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start as NAME:LAT,LON")
	cmd.Flags().StringVar(&end, "end", "", "End as NAME:LAT,LON")
	cmd.Flags().IntVarP(&count, "stops", "n", 3, "Number of stops to request")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
