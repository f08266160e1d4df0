package backtest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/paperbot/ledger"
)

var ErrResultNotFound = errors.New("backtest result not found")

// Performance holds the headline metrics of one run. These are drawn by
// the synthetic generator, not derived from the trade walk.
type Performance struct {
	TotalReturn  float64 `json:"total_return"`  // percent
	WinRate      float64 `json:"win_rate"`      // percent
	ProfitFactor float64 `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"` // percent, negative
}

// Result is immutable once produced. The equity series is chronological
// with equity[0] == InitialBalance and len(equity) == len(trades)+1.
type Result struct {
	ID             string             `json:"id"`
	StrategyID     string             `json:"strategy_id"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
	InitialBalance float64            `json:"initial_balance"`
	FinalBalance   float64            `json:"final_balance"`
	Trades         []ledger.Trade     `json:"trades"`
	Equity         []float64          `json:"equity"`
	Performance    Performance        `json:"performance"`
	Mode           ledger.TradingMode `json:"trading_mode"`
}

// ResultStore is the process-wide collection of completed runs. It never
// touches the live ledger.
type ResultStore struct {
	mu      sync.RWMutex
	results []Result
}

func NewResultStore() *ResultStore { return &ResultStore{} }

func (s *ResultStore) Add(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *ResultStore) Get(resultID string) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.ID == resultID {
			return r, nil
		}
	}
	return Result{}, fmt.Errorf("%w: %q", ErrResultNotFound, resultID)
}

// Delete removes a result by id. Deleting an unknown id is a no-op.
func (s *ResultStore) Delete(resultID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.results {
		if r.ID == resultID {
			s.results = append(s.results[:i], s.results[i+1:]...)
			return
		}
	}
}

func (s *ResultStore) List() []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Result(nil), s.results...)
}

// Restore replaces the collection with a persisted snapshot.
func (s *ResultStore) Restore(results []Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]Result(nil), results...)
}
