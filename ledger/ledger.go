// Package ledger owns the two simulated trading accounts (spot and
// future): cash balances, held assets, open positions, and the immutable
// closed-trade history.
package ledger

import "time"

type TradingMode string

const (
	Spot   TradingMode = "spot"
	Future TradingMode = "future"
)

// Modes lists the two ledgers in a stable order.
var Modes = []TradingMode{Spot, Future}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Sentinel strategy ids for trades that did not come from a strategy.
const (
	StrategyManual   = "manual"
	StrategyExchange = "exchange"
)

// Trade is a closed, immutable transaction record. Once appended to an
// account's history it is never mutated or removed, except by a full
// history clear.
type Trade struct {
	ID         string      `json:"id"`
	StrategyID string      `json:"strategy_id"`
	Instrument string      `json:"instrument"`
	Side       Side        `json:"side"`
	Price      float64     `json:"price"`
	Amount     float64     `json:"amount"`
	Timestamp  time.Time   `json:"timestamp"`
	Mode       TradingMode `json:"trading_mode"`
	Leverage   int         `json:"leverage,omitempty"` // 0 means account default
}

// Position is an open, unsettled exposure. UnrealizedPnl and MarkPrice are
// derived fields, recomputed on every mark-to-market pass; they are never
// authoritative state.
type Position struct {
	Trade
	UnrealizedPnl float64 `json:"pnl"`
	MarkPrice     float64 `json:"current_price"`
}

// Performance holds the advisory rolling return figures shown in the
// portfolio summary. They move by a bounded random walk on each mark pass
// and are deliberately not derived from realized P&L.
type Performance struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
	AllTime float64 `json:"all_time"`
}

// Account is one of the two ledgers.
type Account struct {
	Balance       float64            `json:"balance"`
	Equity        float64            `json:"equity"`
	Assets        map[string]float64 `json:"assets"`
	OpenPositions []Position         `json:"open_positions"`
	ClosedTrades  []Trade            `json:"closed_trades"`
	Performance   Performance        `json:"performance"`
	Leverage      int                `json:"leverage,omitempty"` // future account only
}

// LeverageFactor resolves the multiplier applied to a position's P&L:
// the position's own leverage if set, else the account default, else 1.
func (a *Account) LeverageFactor(p Position) float64 {
	if p.Leverage > 0 {
		return float64(p.Leverage)
	}
	if a.Leverage > 0 {
		return float64(a.Leverage)
	}
	return 1
}

// clone returns a deep copy safe to hand to readers.
func (a *Account) clone() Account {
	out := *a
	out.Assets = make(map[string]float64, len(a.Assets))
	for k, v := range a.Assets {
		out.Assets[k] = v
	}
	out.OpenPositions = append([]Position(nil), a.OpenPositions...)
	out.ClosedTrades = append([]Trade(nil), a.ClosedTrades...)
	return out
}
