package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/quantfold/backtestctl/internal/core"
	"github.com/spf13/cobra"
)

var (
	createName        string
	createDescription string
	createCodeFile    string
	createInactive    bool
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "Work with the service's strategy catalog",
}

var strategiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List strategies known to the service",
	RunE:  runStrategiesList,
}

var strategiesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new strategy from a code file",
	RunE:  runStrategiesCreate,
}

func init() {
	strategiesCreateCmd.Flags().StringVar(&createName, "name", "", "Strategy name (required)")
	strategiesCreateCmd.Flags().StringVar(&createDescription, "description", "", "Strategy description")
	strategiesCreateCmd.Flags().StringVar(&createCodeFile, "file", "", "Path to the strategy code file (required)")
	strategiesCreateCmd.Flags().BoolVar(&createInactive, "inactive", false, "Register the strategy as inactive")

	strategiesCreateCmd.MarkFlagRequired("name")
	strategiesCreateCmd.MarkFlagRequired("file")

	strategiesCmd.AddCommand(strategiesListCmd)
	strategiesCmd.AddCommand(strategiesCreateCmd)
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategiesList(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	gw := newGateway(cfg, log)

	strategies, err := gw.ListStrategies(context.Background())
	if err != nil {
		return err
	}

	if len(strategies) == 0 {
		fmt.Println("no strategies registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tACTIVE\tDESCRIPTION")
	for _, s := range strategies {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", s.ID, s.Name, s.IsActive, s.Description)
	}
	return w.Flush()
}

func runStrategiesCreate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	code, err := os.ReadFile(createCodeFile)
	if err != nil {
		return fmt.Errorf("reading strategy code: %w", err)
	}

	gw := newGateway(cfg, log)

	ref, err := gw.CreateStrategy(context.Background(), core.StrategyDraft{
		Name:        createName,
		Description: createDescription,
		Code:        string(code),
		IsActive:    !createInactive,
	})
	if err != nil {
		return err
	}

	fmt.Printf("strategy %q registered with id %s\n", ref.Name, ref.ID)
	return nil
}
