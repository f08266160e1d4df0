// Package backtest evaluates strategies over a nominal historical window.
// The generator is deliberately synthetic: headline metrics and the trade
// walk are drawn from bounded random ranges rather than replayed from a
// price series, and the two need not agree (see Settings).
package backtest

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/market"
	"github.com/rustyeddy/paperbot/pkg/id"
	"github.com/rustyeddy/paperbot/strategy"
)

// Settings is one backtest request. IncludeFees and FeePct are recorded
// with the request but do not alter the synthetic numbers; the generator
// draws its return figures directly.
type Settings struct {
	StrategyID     string  `json:"strategy_id"`
	PeriodID       string  `json:"period_id"`
	InitialBalance float64 `json:"initial_balance"`
	IncludeFees    bool    `json:"include_fees"`
	FeePct         float64 `json:"fee_percentage"`
}

// Simulator produces self-contained Results without touching the live
// ledger. The random source is injectable so tests can pin the draws.
type Simulator struct {
	strategies *strategy.Store
	prices     market.PriceSource
	results    *ResultStore

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewSimulator(strategies *strategy.Store, prices market.PriceSource, results *ResultStore) *Simulator {
	return &Simulator{
		strategies: strategies,
		prices:     prices,
		results:    results,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// Seed replaces the random source. Tests use this for deterministic runs.
func (s *Simulator) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

// Run synthesizes one backtest for settings and appends the result to the
// result collection.
//
// The headline metrics are authoritative draws: totalReturn in [-10,+30]%,
// winRate in [30,70]%, profitFactor in [0.8,2.5], maxDrawdown in
// [-20,-5]%. The trade walk is cosmetic: 5-25 trades alternating buy/sell,
// prices within ±10% of the instrument's current price, each sell booking
// a P&L in ±10% of its notional onto the equity series. FinalBalance
// comes from the totalReturn draw, not from the walk.
func (s *Simulator) Run(ctx context.Context, settings Settings) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	strat, err := s.strategies.Get(settings.StrategyID)
	if err != nil {
		return Result{}, err
	}
	period, err := PeriodByID(settings.PeriodID)
	if err != nil {
		return Result{}, err
	}
	current, err := s.prices.CurrentPrice(strat.Instrument)
	if err != nil {
		return Result{}, fmt.Errorf("backtest %s: %w", strat.Instrument, err)
	}
	if settings.InitialBalance <= 0 {
		return Result{}, fmt.Errorf("initial balance must be positive, got %v", settings.InitialBalance)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -period.Days)

	perf := Performance{
		TotalReturn:  s.rng.Float64()*40 - 10,
		WinRate:      30 + s.rng.Float64()*40,
		ProfitFactor: 0.8 + s.rng.Float64()*1.7,
		MaxDrawdown:  -(5 + s.rng.Float64()*15),
	}

	numTrades := 5 + s.rng.Intn(21)
	trades := make([]ledger.Trade, 0, numTrades)

	currentBalance := settings.InitialBalance
	equity := make([]float64, 0, numTrades+1)
	equity = append(equity, currentBalance)

	for i := 0; i < numTrades; i++ {
		tradeTime := startDate.AddDate(0, 0, s.rng.Intn(period.Days))

		side := ledger.Buy
		if i%2 == 1 {
			side = ledger.Sell
		}
		price := current * (0.9 + s.rng.Float64()*0.2)
		amount := settings.InitialBalance * 0.1 / price

		// Buys carry no P&L; sells book a draw in ±10% of notional.
		if side == ledger.Sell {
			currentBalance += amount * price * (s.rng.Float64()*0.2 - 0.1)
		}

		trades = append(trades, ledger.Trade{
			ID:         id.New(),
			StrategyID: settings.StrategyID,
			Instrument: strat.Instrument,
			Side:       side,
			Price:      price,
			Amount:     amount,
			Timestamp:  tradeTime,
			Mode:       strat.Mode,
		})
		equity = append(equity, currentBalance)
	}

	result := Result{
		ID:             uuid.NewString(),
		StrategyID:     settings.StrategyID,
		StartDate:      startDate,
		EndDate:        endDate,
		InitialBalance: settings.InitialBalance,
		FinalBalance:   settings.InitialBalance * (1 + perf.TotalReturn/100),
		Trades:         trades,
		Equity:         equity,
		Performance:    perf,
		Mode:           strat.Mode,
	}

	s.results.Add(result)
	return result, nil
}
