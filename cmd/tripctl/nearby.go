package main

import (
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/app"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/services"

	"github.com/spf13/cobra"
)

func newNearbyCmd() *cobra.Command {
	var (
		lat, lon float64
		radius   float64
		minPop   int64
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List the candidate stop cities around a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			catalog, _, err := services.NewCatalogLoader(e.store, e.cfg.CatalogBatchSize).Load(e.ctx, e.cfg.CitiesPath)
			if err != nil {
				return err
			}

			params := app.SearchParams(e.cfg)
			if cmd.Flags().Changed("radius") {
				params.RadiusKm = radius
			}
			if cmd.Flags().Changed("min-population") {
				params.MinPopulation = minPop
			}
			if cmd.Flags().Changed("limit") {
				params.Limit = limit
			}

			candidates, err := catalog.FindCandidates(e.ctx, domain.Coordinates{Lat: lat, Lon: lon}, nil, params)
			if err != nil {
				return err
			}

			res := dto.NearbyResponse{Cities: make([]dto.CandidateResponse, 0, len(candidates))}
			for _, c := range candidates {
				res.Cities = append(res.Cities, dto.CandidateResponse{
					GeonameID:   c.City.GeonameID,
					Name:        c.City.Name,
					CountryCode: c.City.CountryCode,
					Latitude:    c.City.Latitude,
					Longitude:   c.City.Longitude,
					Population:  c.City.Population,
					DistanceKm:  c.DistanceKm,
				})
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the search center")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the search center")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Search radius in km (default STOP_SEARCH_RADIUS_KM)")
	cmd.Flags().Int64Var(&minPop, "min-population", 0, "Population floor (default STOP_MIN_POPULATION)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Shortlist size (default STOP_CANDIDATE_LIMIT)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
