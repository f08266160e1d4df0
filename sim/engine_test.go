package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rustyeddy/paperbot/journal"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/market"
)

type testJournal struct {
	trades []journal.TradeRecord
	equity []journal.EquitySnapshot
	closed bool
}

func (j *testJournal) RecordTrade(rec journal.TradeRecord) error {
	j.trades = append(j.trades, rec)
	return nil
}

func (j *testJournal) RecordEquity(rec journal.EquitySnapshot) error {
	j.equity = append(j.equity, rec)
	return nil
}

func (j *testJournal) Close() error {
	j.closed = true
	return nil
}

func newEngine(t *testing.T) (*Engine, *ledger.Store, *market.QuoteStore, *testJournal) {
	t.Helper()
	store := ledger.NewStore(10000, 10)
	quotes := market.NewQuoteStore()
	j := &testJournal{}
	e := NewEngine(store, quotes, j)
	e.rng = rand.New(rand.NewSource(1))
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e, store, quotes, j
}

func setPrice(t *testing.T, quotes *market.QuoteStore, instrument string, price float64) {
	t.Helper()
	quotes.Set(market.Quote{Instrument: instrument, Price: price, Time: time.Now()})
}

func account(t *testing.T, store *ledger.Store, mode ledger.TradingMode) ledger.Account {
	t.Helper()
	a, err := store.Account(mode)
	if err != nil {
		t.Fatalf("account %s: %v", mode, err)
	}
	return a
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestOpenLongDebitsBalance(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	pos, err := e.OpenPosition(ledger.Future, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     1,
	})
	if err != nil {
		t.Fatalf("open position: %v", err)
	}
	if pos.ID == "" {
		t.Fatalf("expected position id to be assigned")
	}
	if pos.StrategyID != ledger.StrategyManual {
		t.Fatalf("strategy id: got %q want %q", pos.StrategyID, ledger.StrategyManual)
	}

	a := account(t, store, ledger.Future)
	if !approxEqual(a.Balance, 9900, 1e-6) {
		t.Fatalf("balance mismatch: got %.6f want 9900", a.Balance)
	}
	if !approxEqual(a.Assets["bitcoin"], 1, 1e-6) {
		t.Fatalf("asset mismatch: got %.6f want 1", a.Assets["bitcoin"])
	}
	if len(a.OpenPositions) != 1 {
		t.Fatalf("open positions: got %d want 1", len(a.OpenPositions))
	}
	if len(a.ClosedTrades) != 0 {
		t.Fatalf("closed trades: got %d want 0", len(a.ClosedTrades))
	}
}

func TestMarkToMarketLeveragedPL(t *testing.T) {
	e, store, quotes, j := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	_, err := e.OpenPosition(ledger.Future, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     1,
	})
	if err != nil {
		t.Fatalf("open position: %v", err)
	}

	setPrice(t, quotes, "bitcoin", 110)
	if err := e.MarkToMarket(ledger.Future); err != nil {
		t.Fatalf("mark to market: %v", err)
	}

	a := account(t, store, ledger.Future)
	pos := a.OpenPositions[0]
	if !approxEqual(pos.UnrealizedPnl, 100, 1e-6) {
		t.Fatalf("pnl mismatch: got %.6f want 100 (10x leverage)", pos.UnrealizedPnl)
	}
	if !approxEqual(pos.MarkPrice, 110, 1e-6) {
		t.Fatalf("mark price mismatch: got %.6f want 110", pos.MarkPrice)
	}
	if !approxEqual(a.Equity, a.Balance+100, 1e-6) {
		t.Fatalf("equity mismatch: got %.6f want %.6f", a.Equity, a.Balance+100)
	}
	if len(j.equity) != 1 {
		t.Fatalf("equity snapshots: got %d want 1", len(j.equity))
	}
}

func TestMarkToMarketIdempotent(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	_, err := e.OpenPosition(ledger.Future, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     1,
	})
	if err != nil {
		t.Fatalf("open position: %v", err)
	}

	setPrice(t, quotes, "bitcoin", 110)
	if err := e.MarkToMarket(ledger.Future); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	first := account(t, store, ledger.Future).OpenPositions[0].UnrealizedPnl

	if err := e.MarkToMarket(ledger.Future); err != nil {
		t.Fatalf("second mark: %v", err)
	}
	second := account(t, store, ledger.Future).OpenPositions[0].UnrealizedPnl

	if !approxEqual(first, second, 1e-9) {
		t.Fatalf("mark not idempotent: %.9f then %.9f", first, second)
	}
}

func TestOpenMarkCloseLifecycle(t *testing.T) {
	e, store, quotes, j := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	pos, err := e.OpenPosition(ledger.Future, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     1,
	})
	if err != nil {
		t.Fatalf("open position: %v", err)
	}

	setPrice(t, quotes, "bitcoin", 110)
	if err := e.MarkToMarket(ledger.Future); err != nil {
		t.Fatalf("mark to market: %v", err)
	}

	closed, err := e.ClosePosition(ledger.Future, pos.ID)
	if err != nil {
		t.Fatalf("close position: %v", err)
	}
	if closed.Side != ledger.Sell {
		t.Fatalf("closing trade side: got %q want sell", closed.Side)
	}
	if !approxEqual(closed.Price, 110, 1e-6) {
		t.Fatalf("closing price: got %.6f want 110", closed.Price)
	}

	a := account(t, store, ledger.Future)
	if !approxEqual(a.Balance, 10000, 1e-6) {
		t.Fatalf("balance mismatch: got %.6f want 10000", a.Balance)
	}
	if len(a.OpenPositions) != 0 {
		t.Fatalf("open positions: got %d want 0", len(a.OpenPositions))
	}
	if len(a.ClosedTrades) != 1 {
		t.Fatalf("closed trades: got %d want 1", len(a.ClosedTrades))
	}
	if _, held := a.Assets["bitcoin"]; held {
		t.Fatalf("asset should be fully reduced")
	}

	if len(j.trades) != 1 {
		t.Fatalf("journaled trades: got %d want 1", len(j.trades))
	}
	rec := j.trades[0]
	if rec.Reason != "ManualClose" {
		t.Fatalf("journal reason: got %q", rec.Reason)
	}
	if !approxEqual(rec.RealizedPL, 100, 1e-6) {
		t.Fatalf("journal realized P&L: got %.6f want 100", rec.RealizedPL)
	}
}

func TestCloseUsesFreshMarkNotStale(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	pos, err := e.OpenPosition(ledger.Future, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     1,
	})
	if err != nil {
		t.Fatalf("open position: %v", err)
	}

	// price moves but no mark pass runs; close must still settle at 120
	setPrice(t, quotes, "bitcoin", 120)
	if _, err := e.ClosePosition(ledger.Future, pos.ID); err != nil {
		t.Fatalf("close position: %v", err)
	}

	a := account(t, store, ledger.Future)
	if !approxEqual(a.Balance, 9900+200, 1e-6) {
		t.Fatalf("balance mismatch: got %.6f want 10100", a.Balance)
	}
}

func TestShortPL(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "ethereum", 3000)

	pos, err := e.OpenPosition(ledger.Future, OrderIntent{
		Instrument: "ethereum",
		Side:       ledger.Sell,
		Price:      3000,
		Amount:     0.5,
	})
	if err != nil {
		t.Fatalf("open short: %v", err)
	}

	a := account(t, store, ledger.Future)
	if !approxEqual(a.Balance, 10000, 1e-6) {
		t.Fatalf("short entry must not debit balance: got %.6f", a.Balance)
	}
	if len(a.OpenPositions) != 1 {
		t.Fatalf("open positions: got %d want 1", len(a.OpenPositions))
	}

	setPrice(t, quotes, "ethereum", 2900)
	if err := e.MarkToMarket(ledger.Future); err != nil {
		t.Fatalf("mark to market: %v", err)
	}

	a = account(t, store, ledger.Future)
	// (3000 - 2900) * 0.5 * 10
	if !approxEqual(a.OpenPositions[0].UnrealizedPnl, 500, 1e-6) {
		t.Fatalf("short pnl mismatch: got %.6f want 500", a.OpenPositions[0].UnrealizedPnl)
	}

	if _, err := e.ClosePosition(ledger.Future, pos.ID); err != nil {
		t.Fatalf("close short: %v", err)
	}
	a = account(t, store, ledger.Future)
	if !approxEqual(a.Balance, 10500, 1e-6) {
		t.Fatalf("balance mismatch: got %.6f want 10500", a.Balance)
	}
}

func TestPositionLeverageOverridesAccount(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	_, err := e.OpenPosition(ledger.Future, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     1,
		Leverage:   25,
	})
	if err != nil {
		t.Fatalf("open position: %v", err)
	}

	setPrice(t, quotes, "bitcoin", 104)
	if err := e.MarkToMarket(ledger.Future); err != nil {
		t.Fatalf("mark to market: %v", err)
	}

	a := account(t, store, ledger.Future)
	if !approxEqual(a.OpenPositions[0].UnrealizedPnl, 100, 1e-6) {
		t.Fatalf("pnl mismatch: got %.6f want 100 (25x)", a.OpenPositions[0].UnrealizedPnl)
	}
}

func TestSpotPLUnleveraged(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	_, err := e.OpenPosition(ledger.Spot, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     2,
	})
	if err != nil {
		t.Fatalf("open position: %v", err)
	}

	setPrice(t, quotes, "bitcoin", 105)
	if err := e.MarkToMarket(ledger.Spot); err != nil {
		t.Fatalf("mark to market: %v", err)
	}

	a := account(t, store, ledger.Spot)
	if !approxEqual(a.OpenPositions[0].UnrealizedPnl, 10, 1e-6) {
		t.Fatalf("spot pnl mismatch: got %.6f want 10", a.OpenPositions[0].UnrealizedPnl)
	}
}

func TestInsufficientFundsLeavesAccountUntouched(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	_, err := e.OpenPosition(ledger.Spot, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     200, // cost 20000 > 10000
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	a := account(t, store, ledger.Spot)
	if !approxEqual(a.Balance, 10000, 1e-6) {
		t.Fatalf("balance must be untouched: got %.6f", a.Balance)
	}
	if len(a.OpenPositions) != 0 || len(a.Assets) != 0 {
		t.Fatalf("account must be untouched: %+v", a)
	}
}

func TestSpotSellRequiresHoldings(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	_, err := e.OpenPosition(ledger.Spot, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Sell,
		Price:      100,
		Amount:     1,
	})
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("expected ErrInsufficientHoldings, got %v", err)
	}

	a := account(t, store, ledger.Spot)
	if !approxEqual(a.Balance, 10000, 1e-6) {
		t.Fatalf("balance must be untouched: got %.6f", a.Balance)
	}
}

func TestSpotSellBooksClosedTrade(t *testing.T) {
	e, store, quotes, j := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	_, err := e.OpenPosition(ledger.Spot, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Buy,
		Price:      100,
		Amount:     2,
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	_, err = e.OpenPosition(ledger.Spot, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Sell,
		Price:      110,
		Amount:     1,
	})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	a := account(t, store, ledger.Spot)
	// 10000 - 200 + 110
	if !approxEqual(a.Balance, 9910, 1e-6) {
		t.Fatalf("balance mismatch: got %.6f want 9910", a.Balance)
	}
	if !approxEqual(a.Assets["bitcoin"], 1, 1e-6) {
		t.Fatalf("holding mismatch: got %.6f want 1", a.Assets["bitcoin"])
	}
	if len(a.ClosedTrades) != 1 {
		t.Fatalf("closed trades: got %d want 1", len(a.ClosedTrades))
	}

	if len(j.trades) != 1 || j.trades[0].Reason != "SpotSell" {
		t.Fatalf("expected one SpotSell journal record, got %+v", j.trades)
	}
}

func TestFuturesSellNeedsNoHoldings(t *testing.T) {
	e, _, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	_, err := e.OpenPosition(ledger.Future, OrderIntent{
		Instrument: "bitcoin",
		Side:       ledger.Sell,
		Price:      100,
		Amount:     3,
	})
	if err != nil {
		t.Fatalf("futures sell must open a short: %v", err)
	}
}

func TestOpenPositionBadIntent(t *testing.T) {
	e, _, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	cases := []struct {
		name   string
		intent OrderIntent
	}{
		{"zero price", OrderIntent{Instrument: "bitcoin", Side: ledger.Buy, Price: 0, Amount: 1}},
		{"negative amount", OrderIntent{Instrument: "bitcoin", Side: ledger.Buy, Price: 100, Amount: -1}},
		{"bad side", OrderIntent{Instrument: "bitcoin", Side: "hold", Price: 100, Amount: 1}},
		{"unknown instrument", OrderIntent{Instrument: "shibarium", Side: ledger.Buy, Price: 100, Amount: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.OpenPosition(ledger.Spot, tc.intent)
			if !errors.Is(err, ErrBadIntent) {
				t.Fatalf("expected ErrBadIntent, got %v", err)
			}
		})
	}
}

func TestClosePositionNotFound(t *testing.T) {
	e, _, _, _ := newEngine(t)

	_, err := e.ClosePosition(ledger.Spot, "nope")
	if !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestPerformanceDriftBounded(t *testing.T) {
	e, store, quotes, _ := newEngine(t)
	setPrice(t, quotes, "bitcoin", 100)

	for i := 0; i < 50; i++ {
		if err := e.MarkToMarket(ledger.Spot); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}

	a := account(t, store, ledger.Spot)
	perf := a.Performance
	if perf.Daily < 50*-0.5 || perf.Daily > 50*0.7 {
		t.Fatalf("daily drift out of bounds: %.4f", perf.Daily)
	}
	if perf.AllTime < 50*-0.1 || perf.AllTime > 50*0.3 {
		t.Fatalf("allTime drift out of bounds: %.4f", perf.AllTime)
	}
}
