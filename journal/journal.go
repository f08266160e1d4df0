// journal/journal.go
package journal

import (
	"time"

	"github.com/rustyeddy/paperbot/ledger"
)

// TradeRecord is the audit row written whenever the engine realizes a
// position or books a direct spot sale.
type TradeRecord struct {
	TradeID    string
	StrategyID string
	Instrument string
	Mode       ledger.TradingMode
	Side       ledger.Side
	Amount     float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// EquitySnapshot is written once per mark-to-market pass.
type EquitySnapshot struct {
	Time    time.Time
	Mode    ledger.TradingMode
	Balance float64
	Equity  float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything. Used when journaling is disabled.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
