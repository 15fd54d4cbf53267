package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantfold/backtestctl/internal/results"
	"github.com/quantfold/backtestctl/internal/runner"
	"github.com/spf13/cobra"
)

var (
	runStrategy string
	runSymbol   string
	runFrom     string
	runTo       string
	runCapital  float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit a backtest run",
	Long:  "Validate a run configuration, submit it to the service and print the resulting metrics",
	RunE:  runSubmit,
}

func init() {
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "Strategy id (required)")
	runCmd.Flags().StringVar(&runSymbol, "symbol", "AAPL", "Symbol to backtest")
	runCmd.Flags().StringVar(&runFrom, "from", "2023-01-01", "Start date YYYY-MM-DD")
	runCmd.Flags().StringVar(&runTo, "to", "2024-01-01", "End date YYYY-MM-DD")
	runCmd.Flags().Float64Var(&runCapital, "capital", 10000, "Initial capital")

	rootCmd.AddCommand(runCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	gw := newGateway(cfg, log)
	store := results.New(gw, log)
	r := runner.New(gw, store, log)

	r.SetStrategy(runStrategy)
	r.SetSymbol(runSymbol)
	r.SetDates(runFrom, runTo)
	r.SetInitialCapital(runCapital)

	note := r.Submit(context.Background())
	if note.Level == runner.LevelError {
		return errors.New(note.Message)
	}

	fmt.Println(note.Message)
	if note.Result != nil {
		fmt.Printf("  Backtest id: %s\n", note.Result.BacktestID)
	}
	return nil
}
