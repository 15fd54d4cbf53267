package main

import (
	"fmt"
	"os"

	"github.com/quantfold/backtestctl/internal/config"
	"github.com/quantfold/backtestctl/internal/gateway"
	"github.com/quantfold/backtestctl/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "backtestctl",
	Short: "backtestctl - terminal client for the remote backtesting service",
	Long: `backtestctl submits trading-strategy backtests to a remote backtesting
service and renders the results: run history, equity curves and PDF reports.
All computation happens server-side; this client is a thin, typed front end.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// setup loads configuration and builds the shared logger. Commands call it
// first thing in their RunE.
func setup() (*config.Config, *zap.Logger, error) {
	log := logger.Must(debug)

	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, log, nil
}

// newGateway builds the service client from config. The base URL lives only
// here; no command talks to the service any other way.
func newGateway(cfg *config.Config, log *zap.Logger, opts ...gateway.Option) *gateway.Client {
	return gateway.New(cfg.Service, log, opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
