// Package sim is the position lifecycle engine: it turns trade intents
// into ledger transitions, marks open positions to market, and realizes
// positions into the closed-trade history.
package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rustyeddy/paperbot/journal"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/market"
	"github.com/rustyeddy/paperbot/pkg/id"
)

// OrderIntent is a user- or strategy-initiated trade request.
type OrderIntent struct {
	Instrument string
	Side       ledger.Side
	Price      float64
	Amount     float64
	Leverage   int    // 0 means account default
	StrategyID string // "" means manual
}

type Engine struct {
	store   *ledger.Store
	prices  market.PriceSource
	journal journal.Journal

	rng *rand.Rand       // drives the advisory performance walk
	now func() time.Time // injectable clock for tests
}

func NewEngine(store *ledger.Store, prices market.PriceSource, j journal.Journal) *Engine {
	if j == nil {
		j = journal.Nop{}
	}
	return &Engine{
		store:   store,
		prices:  prices,
		journal: j,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

// OpenPosition validates the intent and applies it to the ledger for mode.
//
// Buys debit balance by price*amount, credit the asset holding, and open a
// long Position. Spot sells reduce or remove the holding, credit balance
// by the proceeds, and book a closed Trade directly; there is no spot
// short. Futures sells open a short Position without any holdings check,
// since futures positions are leveraged exposure rather than custody.
func (e *Engine) OpenPosition(mode ledger.TradingMode, intent OrderIntent) (ledger.Position, error) {
	if intent.Price <= 0 || intent.Amount <= 0 {
		return ledger.Position{}, fmt.Errorf("%w: price=%v amount=%v", ErrBadIntent, intent.Price, intent.Amount)
	}
	if intent.Side != ledger.Buy && intent.Side != ledger.Sell {
		return ledger.Position{}, fmt.Errorf("%w: side=%q", ErrBadIntent, intent.Side)
	}
	if _, ok := market.Instruments[intent.Instrument]; !ok {
		return ledger.Position{}, fmt.Errorf("%w: unknown instrument %q", ErrBadIntent, intent.Instrument)
	}

	strategyID := intent.StrategyID
	if strategyID == "" {
		strategyID = ledger.StrategyManual
	}

	trade := ledger.Trade{
		ID:         id.New(),
		StrategyID: strategyID,
		Instrument: intent.Instrument,
		Side:       intent.Side,
		Price:      intent.Price,
		Amount:     intent.Amount,
		Timestamp:  e.now(),
		Mode:       mode,
		Leverage:   intent.Leverage,
	}

	var out ledger.Position
	err := e.store.Update(mode, func(a *ledger.Account) error {
		switch {
		case intent.Side == ledger.Buy:
			cost := intent.Price * intent.Amount
			if cost > a.Balance {
				return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientFunds, cost, a.Balance)
			}
			a.Balance -= cost
			a.Assets[intent.Instrument] += intent.Amount
			out = ledger.Position{Trade: trade, MarkPrice: intent.Price}
			a.OpenPositions = append(a.OpenPositions, out)

		case mode == ledger.Spot:
			held := a.Assets[intent.Instrument]
			if held < intent.Amount {
				return fmt.Errorf("%w: hold %.8f %s, want to sell %.8f",
					ErrInsufficientHoldings, held, intent.Instrument, intent.Amount)
			}
			a.Balance += intent.Price * intent.Amount
			e.reduceAsset(a, intent.Instrument, intent.Amount)
			a.ClosedTrades = append(a.ClosedTrades, trade)
			e.journal.RecordTrade(journal.TradeRecord{
				TradeID:    trade.ID,
				StrategyID: trade.StrategyID,
				Instrument: trade.Instrument,
				Mode:       mode,
				Side:       trade.Side,
				Amount:     trade.Amount,
				EntryPrice: trade.Price,
				ExitPrice:  trade.Price,
				OpenTime:   trade.Timestamp,
				CloseTime:  trade.Timestamp,
				Reason:     "SpotSell",
			})
			out = ledger.Position{Trade: trade, MarkPrice: intent.Price}

		default: // futures short entry
			out = ledger.Position{Trade: trade, MarkPrice: intent.Price}
			a.OpenPositions = append(a.OpenPositions, out)
		}
		e.revalue(a)
		return nil
	})
	if err != nil {
		return ledger.Position{}, err
	}
	return out, nil
}

// ClosePosition realizes the position at the current market price: balance
// is credited with the unrealized P&L, the holding is reduced, the
// position leaves openPositions, and a closing Trade lands in the history.
// The whole transition runs under the store lock, so no reader can observe
// the position gone without its closing trade.
func (e *Engine) ClosePosition(mode ledger.TradingMode, positionID string) (ledger.Trade, error) {
	var closed ledger.Trade
	err := e.store.Update(mode, func(a *ledger.Account) error {
		idx := -1
		for i := range a.OpenPositions {
			if a.OpenPositions[i].ID == positionID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %q", ErrPositionNotFound, positionID)
		}
		pos := a.OpenPositions[idx]

		mark, err := e.prices.CurrentPrice(pos.Instrument)
		if err != nil {
			return fmt.Errorf("close position %q: %w", positionID, err)
		}
		pnl := positionPL(a, pos, mark)

		closed = ledger.Trade{
			ID:         id.New(),
			StrategyID: pos.StrategyID,
			Instrument: pos.Instrument,
			Side:       ledger.Sell,
			Price:      mark,
			Amount:     pos.Amount,
			Timestamp:  e.now(),
			Mode:       mode,
			Leverage:   pos.Leverage,
		}

		a.Balance += pnl
		e.reduceAsset(a, pos.Instrument, pos.Amount)
		a.OpenPositions = append(a.OpenPositions[:idx], a.OpenPositions[idx+1:]...)
		a.ClosedTrades = append(a.ClosedTrades, closed)

		e.journal.RecordTrade(journal.TradeRecord{
			TradeID:    closed.ID,
			StrategyID: closed.StrategyID,
			Instrument: closed.Instrument,
			Mode:       mode,
			Side:       closed.Side,
			Amount:     closed.Amount,
			EntryPrice: pos.Price,
			ExitPrice:  mark,
			OpenTime:   pos.Timestamp,
			CloseTime:  closed.Timestamp,
			RealizedPL: pnl,
			Reason:     "ManualClose",
		})

		e.revalue(a)
		return nil
	})
	if err != nil {
		return ledger.Trade{}, err
	}
	return closed, nil
}

// MarkToMarket recomputes markPrice and unrealizedPnl for every open
// position in mode against the price source. The recomputation is pure:
// calling it twice with unchanged prices yields identical P&L.
func (e *Engine) MarkToMarket(mode ledger.TradingMode) error {
	return e.store.Update(mode, func(a *ledger.Account) error {
		for i := range a.OpenPositions {
			p := &a.OpenPositions[i]
			mark, err := e.prices.CurrentPrice(p.Instrument)
			if err != nil {
				return fmt.Errorf("mark %s: %w", p.Instrument, err)
			}
			p.MarkPrice = mark
			p.UnrealizedPnl = positionPL(a, *p, mark)
		}
		e.revalue(a)
		e.driftPerformance(a, mode)

		return e.journal.RecordEquity(journal.EquitySnapshot{
			Time:    e.now(),
			Mode:    mode,
			Balance: a.Balance,
			Equity:  a.Equity,
		})
	})
}

// MarkToMarketAll marks both ledgers.
func (e *Engine) MarkToMarketAll() error {
	for _, mode := range ledger.Modes {
		if err := e.MarkToMarket(mode); err != nil {
			return err
		}
	}
	return nil
}

// positionPL applies the leverage-aware P&L model:
//
//	long:  (mark - entry) * amount * leverageFactor
//	short: (entry - mark) * amount * leverageFactor
func positionPL(a *ledger.Account, p ledger.Position, mark float64) float64 {
	factor := a.LeverageFactor(p)
	if p.Side == ledger.Buy {
		return (mark - p.Price) * p.Amount * factor
	}
	return (p.Price - mark) * p.Amount * factor
}

func (e *Engine) reduceAsset(a *ledger.Account, instrument string, amount float64) {
	held, ok := a.Assets[instrument]
	if !ok {
		return // futures shorts never held the asset
	}
	left := held - amount
	if left <= 0 {
		delete(a.Assets, instrument)
		return
	}
	a.Assets[instrument] = left
}

func (e *Engine) revalue(a *ledger.Account) {
	equity := a.Balance
	for i := range a.OpenPositions {
		equity += a.OpenPositions[i].UnrealizedPnl
	}
	a.Equity = equity
}

// driftPerformance nudges the advisory performance figures by a bounded
// random step per tick. These figures are display-only and deliberately
// decoupled from realized P&L.
func (e *Engine) driftPerformance(a *ledger.Account, mode ledger.TradingMode) {
	step := func(min, max float64) float64 {
		return e.rng.Float64()*(max-min) + min
	}
	if mode == ledger.Future {
		a.Performance.Daily += step(-0.8, 1.2)
		a.Performance.Weekly += step(-0.5, 0.8)
		a.Performance.Monthly += step(-0.3, 0.6)
		a.Performance.AllTime += step(-0.2, 0.4)
		return
	}
	a.Performance.Daily += step(-0.5, 0.7)
	a.Performance.Weekly += step(-0.3, 0.5)
	a.Performance.Monthly += step(-0.2, 0.4)
	a.Performance.AllTime += step(-0.1, 0.3)
}
