package persistence

import (
	"github.com/rustyeddy/paperbot/backtest"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/strategy"
)

// Repository is the durable local store behind the engine: one record per
// account, one for the persistent strategies, one for the backtest
// results. Load methods return the zero value with no error when nothing
// usable is stored; a parse mismatch falls back to defaults instead of
// crashing the engine.
type Repository interface {
	SaveAccount(mode ledger.TradingMode, a ledger.Account) error
	LoadAccount(mode ledger.TradingMode) (*ledger.Account, error)

	SaveStrategies(strategies []strategy.Strategy) error
	LoadStrategies() ([]strategy.Strategy, error)

	SaveResults(results []backtest.Result) error
	LoadResults() ([]backtest.Result, error)

	Close() error
}
