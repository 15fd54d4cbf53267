package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var backtestsCmd = &cobra.Command{
	Use:   "backtests",
	Short: "Inspect completed backtest runs",
}

var backtestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List completed backtests",
	RunE:  runBacktestsList,
}

var backtestsShowCmd = &cobra.Command{
	Use:   "show <backtest-id>",
	Short: "Show one backtest in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktestsShow,
}

var backtestsDeleteCmd = &cobra.Command{
	Use:   "delete <backtest-id>",
	Short: "Delete a backtest record",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktestsDelete,
}

func init() {
	backtestsCmd.AddCommand(backtestsListCmd)
	backtestsCmd.AddCommand(backtestsShowCmd)
	backtestsCmd.AddCommand(backtestsDeleteCmd)
	rootCmd.AddCommand(backtestsCmd)
}

func runBacktestsList(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	gw := newGateway(cfg, log)

	backtests, err := gw.ListBacktests(context.Background())
	if err != nil {
		return err
	}

	if len(backtests) == 0 {
		fmt.Println("no backtests yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tPERIOD\tRETURN%\tMAXDD%\tSHARPE\tTRADES\tSTATUS")
	for _, b := range backtests {
		fmt.Fprintf(w, "%s\t%s\t%s..%s\t%.2f\t%.2f\t%.2f\t%d\t%s\n",
			b.ID, b.Symbol, b.StartDate, b.EndDate,
			b.TotalReturn, b.MaxDrawdown, b.SharpeRatio, b.TotalTrades, b.Status)
	}
	return w.Flush()
}

func runBacktestsShow(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	gw := newGateway(cfg, log)

	b, err := gw.GetBacktest(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Backtest %s\n", b.ID)
	fmt.Printf("  Strategy:        %s\n", b.StrategyID)
	fmt.Printf("  Symbol:          %s\n", b.Symbol)
	fmt.Printf("  Period:          %s .. %s\n", b.StartDate, b.EndDate)
	fmt.Printf("  Initial capital: %.2f\n", b.InitialCapital)
	fmt.Printf("  Final capital:   %.2f\n", b.FinalCapital)
	fmt.Printf("  Total return:    %.2f%%\n", b.TotalReturn)
	fmt.Printf("  Max drawdown:    %.2f%%\n", b.MaxDrawdown)
	fmt.Printf("  Sharpe ratio:    %.2f\n", b.SharpeRatio)
	fmt.Printf("  Win rate:        %.2f%%\n", b.WinRate)
	fmt.Printf("  Trades:          %d\n", b.TotalTrades)
	fmt.Printf("  Status:          %s\n", b.Status)
	return nil
}

func runBacktestsDelete(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	gw := newGateway(cfg, log)

	if err := gw.DeleteBacktest(context.Background(), args[0]); err != nil {
		return err
	}

	fmt.Printf("backtest %s deleted\n", args[0])
	return nil
}
