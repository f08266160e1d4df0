package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperbot/internal/reporter"
	"github.com/rustyeddy/paperbot/strategy"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage trading strategies",
	Long: `Strategy manages the strategy roster: add strategies from the type
catalog, toggle them on and off, and rank active strategies by backtest
return.

Example:
  paperbot strategy add -n "BTC trend" -t trend_following -i bitcoin -m spot`,
}

var strategyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a strategy with its type's default parameters",
	RunE:  runStrategyAdd,
}

var strategyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List strategies",
	RunE:  runStrategyList,
}

var strategyToggleCmd = &cobra.Command{
	Use:   "toggle <strategy-id>",
	Short: "Flip a strategy between active and inactive",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategyToggle,
}

var strategyRemoveCmd = &cobra.Command{
	Use:   "remove <strategy-id>",
	Short: "Remove a strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategyRemove,
}

var strategyRankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Backtest every active strategy and report the best performer",
	RunE:  runStrategyRank,
}

var strategyTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the strategy type catalog",
	RunE:  runStrategyTypes,
}

var (
	stName       string
	stType       string
	stInstrument string
	stMode       string
	stActive     bool
	stPersistent bool
)

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyAddCmd, strategyListCmd, strategyToggleCmd,
		strategyRemoveCmd, strategyRankCmd, strategyTypesCmd)

	strategyAddCmd.Flags().StringVarP(&stName, "name", "n", "", "strategy name (required)")
	strategyAddCmd.Flags().StringVarP(&stType, "type", "t", "trend_following", "strategy type id")
	strategyAddCmd.Flags().StringVarP(&stInstrument, "instrument", "i", "bitcoin", "instrument id")
	strategyAddCmd.Flags().StringVarP(&stMode, "mode", "m", "spot", "trading mode (spot, future)")
	strategyAddCmd.Flags().BoolVar(&stActive, "active", true, "start the strategy active")
	strategyAddCmd.Flags().BoolVar(&stPersistent, "persistent", true, "save the strategy across restarts")

	strategyRankCmd.Flags().StringVarP(&stMode, "mode", "m", "spot", "trading mode (spot, future)")

	strategyAddCmd.MarkFlagRequired("name")
}

func runStrategyAdd(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(stMode)
	if err != nil {
		return err
	}

	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.Strategies().Add(strategy.Strategy{
		Name:       stName,
		Type:       stType,
		Instrument: stInstrument,
		Mode:       mode,
		Active:     stActive,
		Persistent: stPersistent,
	})
	if err != nil {
		return err
	}
	fmt.Printf("added %q (id %s)\n", st.Name, st.ID)
	return nil
}

func runStrategyList(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	strategies := b.Strategies().List()
	if len(strategies) == 0 {
		fmt.Println("no strategies")
		return nil
	}
	reporter.PrintStrategies(os.Stdout, strategies)
	return nil
}

func runStrategyToggle(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.Strategies().Toggle(args[0])
	if err != nil {
		return err
	}
	state := "inactive"
	if st.Active {
		state = "active"
	}
	fmt.Printf("%q is now %s\n", st.Name, state)
	return nil
}

func runStrategyRemove(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Strategies().Remove(args[0]); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", args[0])
	return nil
}

func runStrategyRank(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(stMode)
	if err != nil {
		return err
	}

	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	bestID, err := b.FindBestStrategy(cmd.Context(), mode)
	if err != nil {
		return err
	}
	if bestID == "" {
		fmt.Printf("no active %s strategies to rank\n", mode)
		return nil
	}
	st, err := b.Strategies().Get(bestID)
	if err != nil {
		return err
	}
	fmt.Printf("best %s strategy: %q (id %s)\n", mode, st.Name, st.ID)
	return nil
}

func runStrategyTypes(cmd *cobra.Command, args []string) error {
	ids := make([]string, 0, len(strategy.Types))
	for typeID := range strategy.Types {
		ids = append(ids, typeID)
	}
	sort.Strings(ids)

	for _, typeID := range ids {
		info := strategy.Types[typeID]
		fmt.Printf("%-18s %s\n", typeID, info.Description)
	}
	return nil
}
