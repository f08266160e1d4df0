package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperbot/internal/reporter"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/sim"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Open, close and inspect paper positions",
}

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Open a long position",
	Long: `Buy debits the account balance by price*amount, credits the asset
holding, and opens a long position at the current quote.

Example:
  paperbot trade buy -i bitcoin -a 0.5 -m future -l 10`,
	RunE: runBuy,
}

var sellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Sell a holding (spot) or open a short (future)",
	Long: `In spot mode sell reduces the asset holding and books a closed trade
at the current quote; selling more than is held fails. In futures mode
sell always opens a short position, no holding required.`,
	RunE: runSell,
}

var closeCmd = &cobra.Command{
	Use:   "close <position-id>",
	Short: "Close an open position at the current market price",
	Args:  cobra.ExactArgs(1),
	RunE:  runClose,
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show balances, holdings and open positions",
	RunE:  runPortfolio,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the account to its initial balance",
	RunE:  runReset,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear holdings, open positions and trade history",
	Long: `Clear empties the asset holdings, open positions and closed-trade
history while preserving the current balance.`,
	RunE: runClear,
}

var (
	tradeMode       string
	tradeInstrument string
	tradeAmount     float64
	tradePrice      float64
	tradeLeverage   int
	tradeStrategy   string
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(buyCmd, sellCmd, closeCmd, portfolioCmd, resetCmd, clearCmd)

	tradeCmd.PersistentFlags().StringVarP(&tradeMode, "mode", "m", "spot", "trading mode (spot, future)")

	for _, c := range []*cobra.Command{buyCmd, sellCmd} {
		c.Flags().StringVarP(&tradeInstrument, "instrument", "i", "bitcoin", "instrument id")
		c.Flags().Float64VarP(&tradeAmount, "amount", "a", 0, "amount in asset units (required)")
		c.Flags().Float64VarP(&tradePrice, "price", "p", 0, "limit price (0 uses the current quote)")
		c.Flags().IntVarP(&tradeLeverage, "leverage", "l", 0, "leverage, futures only (0 uses the account default)")
		c.Flags().StringVarP(&tradeStrategy, "strategy", "s", "", "strategy id to attribute the trade to")
	}
}

func runBuy(cmd *cobra.Command, args []string) error {
	return placeOrder(ledger.Buy)
}

func runSell(cmd *cobra.Command, args []string) error {
	return placeOrder(ledger.Sell)
}

func placeOrder(side ledger.Side) error {
	mode, err := parseMode(tradeMode)
	if err != nil {
		return err
	}

	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	price := tradePrice
	if price <= 0 {
		price, err = b.Quotes().CurrentPrice(tradeInstrument)
		if err != nil {
			return err
		}
	}

	pos, err := b.OpenPosition(mode, sim.OrderIntent{
		Instrument: tradeInstrument,
		Side:       side,
		Price:      price,
		Amount:     tradeAmount,
		Leverage:   tradeLeverage,
		StrategyID: tradeStrategy,
	})
	if err != nil {
		return err
	}

	if mode == ledger.Spot && side == ledger.Sell {
		// spot sell books a closed trade, there is no open position
		fmt.Printf("sold %.6f %s at %.2f\n", pos.Amount, pos.Instrument, pos.Price)
		return nil
	}
	fmt.Printf("opened %s %s %.6f %s at %.2f (id %s)\n",
		mode, side, pos.Amount, pos.Instrument, pos.Price, pos.ID)
	return nil
}

func runClose(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(tradeMode)
	if err != nil {
		return err
	}

	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	trade, err := b.ClosePosition(mode, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("closed %.6f %s at %.2f\n", trade.Amount, trade.Instrument, trade.Price)
	return nil
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(tradeMode)
	if err != nil {
		return err
	}

	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.MarkToMarket(mode); err != nil {
		return err
	}
	acct, err := b.Ledger().Account(mode)
	if err != nil {
		return err
	}
	positions, err := b.MergedPositions(mode)
	if err != nil {
		return err
	}
	reporter.PrintPortfolio(os.Stdout, mode, acct, positions)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(tradeMode)
	if err != nil {
		return err
	}

	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.ResetAccount(mode); err != nil {
		return err
	}
	fmt.Printf("%s account reset\n", mode)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(tradeMode)
	if err != nil {
		return err
	}

	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.ClearHistory(mode); err != nil {
		return err
	}
	fmt.Printf("%s history cleared\n", mode)
	return nil
}
