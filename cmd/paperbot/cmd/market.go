package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/paperbot/market"
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Inspect the instrument catalog and quotes",
}

var marketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instruments with their current quotes",
	RunE:  runMarketList,
}

var marketHistoryCmd = &cobra.Command{
	Use:   "history <instrument>",
	Short: "Show a synthetic daily price series for an instrument",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarketHistory,
}

var historyDays int

func init() {
	rootCmd.AddCommand(marketCmd)
	marketCmd.AddCommand(marketListCmd, marketHistoryCmd)

	marketHistoryCmd.Flags().IntVarP(&historyDays, "days", "d", 30, "number of daily samples")
}

func runMarketList(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	ids := market.IDs()
	sort.Strings(ids)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Symbol", "Name", "Price"})
	for _, instrumentID := range ids {
		meta := market.Instruments[instrumentID]
		price, err := b.Quotes().CurrentPrice(instrumentID)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{meta.ID, meta.Symbol, meta.Name, fmt.Sprintf("%.4f", price)})
	}
	t.Render()
	return nil
}

func runMarketHistory(cmd *cobra.Command, args []string) error {
	b, err := openBot()
	if err != nil {
		return err
	}
	defer b.Close()

	current, err := b.Quotes().CurrentPrice(args[0])
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	points := market.History(rng, args[0], current, historyDays, time.Now())
	for _, p := range points {
		fmt.Printf("%s  %.4f\n", p.Time.Format("2006-01-02"), p.Price)
	}
	return nil
}
