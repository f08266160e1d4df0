package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperbot/backtest"
	"github.com/rustyeddy/paperbot/internal/reporter"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run and browse synthetic strategy backtests",
	Long: `Backtest evaluates a strategy over a named lookback period and
records the run. Results are persisted and can be listed, inspected and
deleted later.

Example:
  paperbot backtest run -s 01J8... -p 90d -b 25000`,
}

var backtestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest for a strategy",
	RunE:  runBacktestRun,
}

var backtestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored backtest results",
	RunE:  runBacktestList,
}

var backtestShowCmd = &cobra.Command{
	Use:   "show <result-id>",
	Short: "Show one backtest result in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktestShow,
}

var backtestDeleteCmd = &cobra.Command{
	Use:   "delete <result-id>",
	Short: "Delete a stored backtest result",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktestDelete,
}

var (
	btStrategyID string
	btPeriod     string
	btBalance    float64
	btFees       bool
	btFeePct     float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd, backtestListCmd, backtestShowCmd, backtestDeleteCmd)

	backtestRunCmd.Flags().StringVarP(&btStrategyID, "strategy", "s", "", "strategy id (required)")
	backtestRunCmd.Flags().StringVarP(&btPeriod, "period", "p", backtest.DefaultPeriodID,
		"lookback period ("+strings.Join(backtest.PeriodIDs(), ", ")+")")
	backtestRunCmd.Flags().Float64VarP(&btBalance, "balance", "b", 10_000, "starting balance")
	backtestRunCmd.Flags().BoolVar(&btFees, "fees", true, "record fee settings with the run")
	backtestRunCmd.Flags().Float64Var(&btFeePct, "fee-pct", 0.1, "fee percentage to record")

	backtestRunCmd.MarkFlagRequired("strategy")
}

func runBacktestRun(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	result, err := b.RunBacktest(cmd.Context(), backtest.Settings{
		StrategyID:     btStrategyID,
		PeriodID:       btPeriod,
		InitialBalance: btBalance,
		IncludeFees:    btFees,
		FeePct:         btFeePct,
	})
	if err != nil {
		return err
	}
	reporter.PrintBacktest(os.Stdout, result)
	return nil
}

func runBacktestList(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	results := b.Results().List()
	if len(results) == 0 {
		fmt.Println("no backtest results")
		return nil
	}
	reporter.PrintResults(os.Stdout, results)
	return nil
}

func runBacktestShow(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	result, err := b.Results().Get(args[0])
	if err != nil {
		return err
	}
	reporter.PrintBacktest(os.Stdout, result)
	return nil
}

func runBacktestDelete(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	b.DeleteResult(args[0])
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
