package main

import (
	"context"
	"fmt"

	"github.com/quantfold/backtestctl/internal/report"
	"github.com/spf13/cobra"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report <backtest-id>",
	Short: "Download a backtest's PDF report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output directory (defaults to report.output_dir)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	dir := reportOut
	if dir == "" {
		dir = cfg.Report.OutputDir
	}

	gw := newGateway(cfg, log)
	exporter := report.New(gw, dir, log)

	path, err := exporter.Export(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("report saved to %s\n", path)
	return nil
}
