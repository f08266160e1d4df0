package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/market"
	"github.com/rustyeddy/paperbot/strategy"
)

// failingPrices errors for one instrument and delegates the rest.
type failingPrices struct {
	fail string
	next market.PriceSource
}

func (p failingPrices) CurrentPrice(instrument string) (float64, error) {
	if instrument == p.fail {
		return 0, errors.New("feed down")
	}
	return p.next.CurrentPrice(instrument)
}

func TestFindBestNoCandidates(t *testing.T) {
	sim, strategies, _ := newSimulator(t)
	r := NewRanker(sim, strategies)

	best, err := r.FindBest(context.Background(), ledger.Spot)
	require.NoError(t, err)
	assert.Empty(t, best)
}

func TestFindBestPicksHighestReturn(t *testing.T) {
	sim, strategies, results := newSimulator(t)
	r := NewRanker(sim, strategies)

	addActive(t, strategies, "a", ledger.Spot)
	addActive(t, strategies, "b", ledger.Spot)
	addActive(t, strategies, "c", ledger.Spot)
	addActive(t, strategies, "other mode", ledger.Future)

	best, err := r.FindBest(context.Background(), ledger.Spot)
	require.NoError(t, err)
	require.NotEmpty(t, best)

	// one recorded run per spot candidate; the winner is the max draw
	runs := results.List()
	require.Len(t, runs, 3)

	var wantID string
	wantReturn := 0.0
	for _, res := range runs {
		if wantID == "" || res.Performance.TotalReturn > wantReturn {
			wantID = res.StrategyID
			wantReturn = res.Performance.TotalReturn
		}
	}
	assert.Equal(t, wantID, best)
}

func TestFindBestSingleNegativeCandidate(t *testing.T) {
	// a lone candidate wins even with a negative return draw
	for seed := int64(0); seed < 10; seed++ {
		sim, strategies, _ := newSimulator(t)
		sim.Seed(seed)
		r := NewRanker(sim, strategies)

		st := addActive(t, strategies, "only", ledger.Spot)

		best, err := r.FindBest(context.Background(), ledger.Spot)
		require.NoError(t, err)
		assert.Equal(t, st.ID, best)
	}
}

func TestFindBestExcludesFailures(t *testing.T) {
	strategies := strategy.NewStore()
	results := NewResultStore()
	prices := failingPrices{fail: "ethereum", next: market.NewQuoteStore()}
	sim := NewSimulator(strategies, prices, results)
	sim.Seed(7)
	r := NewRanker(sim, strategies)

	healthy := addActive(t, strategies, "btc", ledger.Spot)
	_, err := strategies.Add(strategy.Strategy{
		Name:       "eth",
		Type:       "trend_following",
		Instrument: "ethereum",
		Mode:       ledger.Spot,
		Active:     true,
	})
	require.NoError(t, err)

	best, err := r.FindBest(context.Background(), ledger.Spot)
	require.NoError(t, err)
	assert.Equal(t, healthy.ID, best)
	assert.Len(t, results.List(), 1)
}

func TestFindBestAllFailed(t *testing.T) {
	strategies := strategy.NewStore()
	prices := failingPrices{fail: "bitcoin", next: market.NewQuoteStore()}
	sim := NewSimulator(strategies, prices, NewResultStore())
	r := NewRanker(sim, strategies)

	addActive(t, strategies, "btc", ledger.Spot)

	best, err := r.FindBest(context.Background(), ledger.Spot)
	require.NoError(t, err)
	assert.Empty(t, best)
}

func TestFindBestCancelled(t *testing.T) {
	sim, strategies, _ := newSimulator(t)
	r := NewRanker(sim, strategies)

	addActive(t, strategies, "btc", ledger.Spot)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.FindBest(ctx, ledger.Spot)
	assert.ErrorIs(t, err, context.Canceled)
}
