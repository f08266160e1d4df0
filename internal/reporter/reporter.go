// Package reporter renders portfolio and backtest summaries for the CLI.
package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rustyeddy/paperbot/backtest"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/strategy"
)

// PrintPortfolio writes the account summary, holdings, and open positions
// (including any exchange overlay rows the caller merged in).
func PrintPortfolio(w io.Writer, mode ledger.TradingMode, acct ledger.Account, positions []ledger.Position) {
	fmt.Fprintf(w, "Portfolio (%s)\n", mode)
	fmt.Fprintf(w, "  Balance:  %.2f\n", acct.Balance)
	fmt.Fprintf(w, "  Equity:   %.2f\n", acct.Equity)
	if acct.Leverage > 0 {
		fmt.Fprintf(w, "  Leverage: %dx\n", acct.Leverage)
	}
	fmt.Fprintf(w, "  Performance: daily %+.2f%%  weekly %+.2f%%  monthly %+.2f%%  all-time %+.2f%%\n",
		acct.Performance.Daily, acct.Performance.Weekly, acct.Performance.Monthly, acct.Performance.AllTime)

	if len(acct.Assets) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("Holdings")
		t.AppendHeader(table.Row{"Instrument", "Amount"})
		for instrument, amount := range acct.Assets {
			t.AppendRow(table.Row{instrument, fmt.Sprintf("%.8f", amount)})
		}
		t.Render()
	}

	if len(positions) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("Open Positions")
		t.AppendHeader(table.Row{"ID", "Strategy", "Instrument", "Side", "Entry", "Mark", "Amount", "PnL"})
		for _, p := range positions {
			t.AppendRow(table.Row{
				p.ID, p.StrategyID, p.Instrument, p.Side,
				fmt.Sprintf("%.4f", p.Price),
				fmt.Sprintf("%.4f", p.MarkPrice),
				fmt.Sprintf("%.6f", p.Amount),
				fmt.Sprintf("%+.2f", p.UnrealizedPnl),
			})
		}
		t.Render()
	}

	if len(acct.ClosedTrades) > 0 {
		fmt.Fprintf(w, "Closed trades: %d\n", len(acct.ClosedTrades))
	}
}

// PrintBacktest writes a single result summary with its trade table.
func PrintBacktest(w io.Writer, r backtest.Result) {
	fmt.Fprintf(w, "Backtest %s\n", r.ID)
	fmt.Fprintf(w, "  Strategy:  %s (%s)\n", r.StrategyID, r.Mode)
	fmt.Fprintf(w, "  Window:    %s - %s\n", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	fmt.Fprintf(w, "  Balance:   %.2f -> %.2f\n", r.InitialBalance, r.FinalBalance)
	fmt.Fprintf(w, "  Return:    %+.2f%%   Win rate: %.1f%%   Profit factor: %.2f   Max drawdown: %.2f%%\n",
		r.Performance.TotalReturn, r.Performance.WinRate, r.Performance.ProfitFactor, r.Performance.MaxDrawdown)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Trades")
	t.AppendHeader(table.Row{"Time", "Side", "Price", "Amount"})
	for _, tr := range r.Trades {
		t.AppendRow(table.Row{
			tr.Timestamp.Format(time.DateOnly), tr.Side,
			fmt.Sprintf("%.4f", tr.Price),
			fmt.Sprintf("%.6f", tr.Amount),
		})
	}
	t.Render()
}

// PrintResults writes the one-line-per-run listing.
func PrintResults(w io.Writer, results []backtest.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no backtest results")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Strategy", "Mode", "Return %", "Win %", "Trades"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.ID, r.StrategyID, r.Mode,
			fmt.Sprintf("%+.2f", r.Performance.TotalReturn),
			fmt.Sprintf("%.1f", r.Performance.WinRate),
			len(r.Trades),
		})
	}
	t.Render()
}

// PrintStrategies writes the strategy listing.
func PrintStrategies(w io.Writer, strategies []strategy.Strategy) {
	if len(strategies) == 0 {
		fmt.Fprintln(w, "no strategies")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Instrument", "Mode", "Active", "Persistent"})
	for _, s := range strategies {
		t.AppendRow(table.Row{s.ID, s.Name, s.Type, s.Instrument, s.Mode, s.Active, s.Persistent})
	}
	t.Render()
}
