package main

import (
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/quantfold/backtestctl/internal/chart"
	"github.com/quantfold/backtestctl/internal/gateway"
	"github.com/quantfold/backtestctl/internal/metrics"
	"github.com/quantfold/backtestctl/internal/report"
	"github.com/quantfold/backtestctl/internal/results"
	"github.com/quantfold/backtestctl/internal/runner"
	"github.com/quantfold/backtestctl/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal UI",
	Long: `Start the full-screen terminal UI: a run configuration form, the
backtest history table, the equity-curve chart and one-key report export.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	var reg *metrics.Registry
	var opts []gateway.Option
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		opts = append(opts, gateway.WithObserver(reg))

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, reg.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
				log.Warn("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	gw := newGateway(cfg, log, opts...)
	store := results.New(gw, log)

	model := tui.NewModel(tui.Deps{
		Strategies: gw,
		Runner:     runner.New(gw, store, log),
		Store:      store,
		Projector:  chart.New(gw, log),
		Exporter:   report.New(gw, cfg.Report.OutputDir, log),
		Metrics:    reg,
		Logger:     log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
