package main

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-covid-reports/internal/dashboard"
	"github.com/deploymenttheory/go-covid-reports/internal/logger"
	"github.com/deploymenttheory/go-covid-reports/internal/report"
)

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the EU confirmed cases chart from downloaded reports",
		Args:  cobra.NoArgs,
		RunE:  runChart,
	}

	cmd.Flags().StringP("input-dir", "i", "", "directory holding the daily report CSV files (default covid_data)")
	cmd.Flags().StringP("output", "o", "", "chart HTML file (default "+dashboard.DefaultOutputFile+")")
	cmd.Flags().StringSlice("regions", nil, "regions to plot (default EU member states)")
	return cmd
}

func runChart(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("input-dir") {
		cfg.Chart.InputDir, _ = flags.GetString("input-dir")
	}
	if flags.Changed("output") {
		cfg.Chart.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("regions") {
		cfg.Chart.Regions, _ = flags.GetStringSlice("regions")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	regions := cfg.Chart.Regions
	if len(regions) == 0 {
		regions = report.EUCountries
	}

	table, err := report.LoadAll(cfg.Chart.InputDir)
	if err != nil {
		return err
	}

	view := report.PrepareRegionalView(table, regions)
	logger.Infof("Prepared %d regional rows from %d report rows", len(view), table.Len())

	if _, err := dashboard.Render(view, cfg.Chart.OutputFile); err != nil {
		return err
	}

	logger.Infof("Chart generated successfully: %s", cfg.Chart.OutputFile)
	return nil
}
