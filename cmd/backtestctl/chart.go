package main

import (
	"context"
	"fmt"

	"github.com/quantfold/backtestctl/internal/chart"
	"github.com/quantfold/backtestctl/internal/tui"
	"github.com/spf13/cobra"
)

var (
	chartWidth  int
	chartHeight int
	chartRaw    bool
)

var chartCmd = &cobra.Command{
	Use:   "chart <backtest-id>",
	Short: "Render a backtest's equity curve",
	Args:  cobra.ExactArgs(1),
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().IntVar(&chartWidth, "width", 80, "Chart width in columns")
	chartCmd.Flags().IntVar(&chartHeight, "height", 16, "Chart height in rows")
	chartCmd.Flags().BoolVar(&chartRaw, "raw", false, "Print the series as rows instead of a plot")

	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	gw := newGateway(cfg, log)
	projector := chart.New(gw, log)

	if err := projector.Select(context.Background(), args[0]); err != nil {
		return err
	}

	points := projector.Points()
	if chartRaw {
		for _, p := range points {
			fmt.Printf("%s\t%.2f\n", chart.AxisLabel(p.Timestamp), p.Value)
		}
		return nil
	}

	fmt.Println(tui.RenderCurve(points, chartWidth, chartHeight))
	return nil
}
