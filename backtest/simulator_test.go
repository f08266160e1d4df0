package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/market"
	"github.com/rustyeddy/paperbot/strategy"
)

func newSimulator(t *testing.T) (*Simulator, *strategy.Store, *ResultStore) {
	t.Helper()
	strategies := strategy.NewStore()
	results := NewResultStore()
	sim := NewSimulator(strategies, market.NewQuoteStore(), results)
	sim.Seed(42)
	return sim, strategies, results
}

func addActive(t *testing.T, strategies *strategy.Store, name string, mode ledger.TradingMode) strategy.Strategy {
	t.Helper()
	st, err := strategies.Add(strategy.Strategy{
		Name:       name,
		Type:       "trend_following",
		Instrument: "bitcoin",
		Mode:       mode,
		Active:     true,
	})
	require.NoError(t, err)
	return st
}

func TestRunProducesBoundedMetrics(t *testing.T) {
	sim, strategies, _ := newSimulator(t)
	st := addActive(t, strategies, "btc", ledger.Spot)

	for seed := int64(0); seed < 20; seed++ {
		sim.Seed(seed)
		res, err := sim.Run(context.Background(), Settings{
			StrategyID:     st.ID,
			PeriodID:       "30d",
			InitialBalance: 10000,
		})
		require.NoError(t, err)

		perf := res.Performance
		assert.GreaterOrEqual(t, perf.TotalReturn, -10.0)
		assert.LessOrEqual(t, perf.TotalReturn, 30.0)
		assert.GreaterOrEqual(t, perf.WinRate, 30.0)
		assert.LessOrEqual(t, perf.WinRate, 70.0)
		assert.GreaterOrEqual(t, perf.ProfitFactor, 0.8)
		assert.LessOrEqual(t, perf.ProfitFactor, 2.5)
		assert.GreaterOrEqual(t, perf.MaxDrawdown, -20.0)
		assert.LessOrEqual(t, perf.MaxDrawdown, -5.0)

		assert.GreaterOrEqual(t, len(res.Trades), 5)
		assert.LessOrEqual(t, len(res.Trades), 25)
	}
}

func TestRunEquityInvariants(t *testing.T) {
	sim, strategies, _ := newSimulator(t)
	st := addActive(t, strategies, "btc", ledger.Spot)

	res, err := sim.Run(context.Background(), Settings{
		StrategyID:     st.ID,
		PeriodID:       "90d",
		InitialBalance: 25000,
	})
	require.NoError(t, err)

	require.Len(t, res.Equity, len(res.Trades)+1)
	assert.Equal(t, 25000.0, res.Equity[0])

	// only sells move the equity walk
	for i, tr := range res.Trades {
		if tr.Side == ledger.Buy {
			assert.Equal(t, res.Equity[i], res.Equity[i+1], "buy %d moved equity", i)
		}
	}
}

func TestRunFinalBalanceFromTotalReturn(t *testing.T) {
	sim, strategies, _ := newSimulator(t)
	st := addActive(t, strategies, "btc", ledger.Spot)

	res, err := sim.Run(context.Background(), Settings{
		StrategyID:     st.ID,
		PeriodID:       "30d",
		InitialBalance: 10000,
	})
	require.NoError(t, err)

	want := 10000 * (1 + res.Performance.TotalReturn/100)
	assert.InDelta(t, want, res.FinalBalance, 1e-6)
}

func TestRunWindowMatchesPeriod(t *testing.T) {
	sim, strategies, _ := newSimulator(t)
	st := addActive(t, strategies, "btc", ledger.Spot)
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sim.now = func() time.Time { return fixed }

	res, err := sim.Run(context.Background(), Settings{
		StrategyID:     st.ID,
		PeriodID:       "7d",
		InitialBalance: 10000,
	})
	require.NoError(t, err)

	assert.Equal(t, fixed, res.EndDate)
	assert.Equal(t, fixed.AddDate(0, 0, -7), res.StartDate)
	assert.Equal(t, st.Mode, res.Mode)
	for _, tr := range res.Trades {
		assert.False(t, tr.Timestamp.Before(res.StartDate))
		assert.True(t, tr.Timestamp.Before(res.EndDate))
	}
}

func TestRunAppendsResult(t *testing.T) {
	sim, strategies, results := newSimulator(t)
	st := addActive(t, strategies, "btc", ledger.Spot)

	res, err := sim.Run(context.Background(), Settings{
		StrategyID:     st.ID,
		PeriodID:       "30d",
		InitialBalance: 10000,
	})
	require.NoError(t, err)

	got, err := results.Get(res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
}

func TestRunErrors(t *testing.T) {
	sim, strategies, _ := newSimulator(t)
	st := addActive(t, strategies, "btc", ledger.Spot)

	_, err := sim.Run(context.Background(), Settings{
		StrategyID: "missing", PeriodID: "30d", InitialBalance: 10000,
	})
	assert.ErrorIs(t, err, strategy.ErrNotFound)

	_, err = sim.Run(context.Background(), Settings{
		StrategyID: st.ID, PeriodID: "13d", InitialBalance: 10000,
	})
	assert.ErrorIs(t, err, ErrPeriodNotFound)

	_, err = sim.Run(context.Background(), Settings{
		StrategyID: st.ID, PeriodID: "30d", InitialBalance: 0,
	})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Run(ctx, Settings{
		StrategyID: st.ID, PeriodID: "30d", InitialBalance: 10000,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultStoreDeleteIdempotent(t *testing.T) {
	results := NewResultStore()
	results.Add(Result{ID: "r1"})

	results.Delete("r1")
	results.Delete("r1") // no-op
	results.Delete("never-existed")

	assert.Empty(t, results.List())
}

func TestResultStoreRestore(t *testing.T) {
	results := NewResultStore()
	results.Add(Result{ID: "gone"})

	results.Restore([]Result{{ID: "a"}, {ID: "b"}})

	list := results.List()
	require.Len(t, list, 2)
	_, err := results.Get("gone")
	assert.ErrorIs(t, err, ErrResultNotFound)
}
