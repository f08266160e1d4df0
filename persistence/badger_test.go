package persistence

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/paperbot/backtest"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/strategy"
)

func newTestRepo(t *testing.T) (Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := NewBadger(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, dir
}

func TestAccountRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	saved := ledger.Account{
		Balance: 9876.5,
		Equity:  9900.1,
		Assets:  map[string]float64{"bitcoin": 0.5},
		OpenPositions: []ledger.Position{{
			Trade: ledger.Trade{
				ID:         "p1",
				StrategyID: "manual",
				Instrument: "bitcoin",
				Side:       ledger.Buy,
				Price:      64000,
				Amount:     0.5,
				Timestamp:  time.Now().UTC().Truncate(time.Second),
				Mode:       ledger.Future,
			},
			UnrealizedPnl: 23.6,
			MarkPrice:     64047.2,
		}},
		ClosedTrades: []ledger.Trade{{ID: "t1", Side: ledger.Sell, Mode: ledger.Future}},
		Leverage:     10,
	}
	require.NoError(t, repo.SaveAccount(ledger.Future, saved))

	got, err := repo.LoadAccount(ledger.Future)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.Balance, got.Balance)
	assert.Equal(t, saved.Assets, got.Assets)
	require.Len(t, got.OpenPositions, 1)
	assert.Equal(t, "p1", got.OpenPositions[0].ID)
	assert.Equal(t, 23.6, got.OpenPositions[0].UnrealizedPnl)
	assert.Equal(t, 10, got.Leverage)
}

func TestAccountsKeyedByMode(t *testing.T) {
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.SaveAccount(ledger.Spot, ledger.Account{Balance: 1}))
	require.NoError(t, repo.SaveAccount(ledger.Future, ledger.Account{Balance: 2}))

	spot, err := repo.LoadAccount(ledger.Spot)
	require.NoError(t, err)
	fut, err := repo.LoadAccount(ledger.Future)
	require.NoError(t, err)

	assert.Equal(t, 1.0, spot.Balance)
	assert.Equal(t, 2.0, fut.Balance)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	repo, _ := newTestRepo(t)

	a, err := repo.LoadAccount(ledger.Spot)
	require.NoError(t, err)
	assert.Nil(t, a)

	strategies, err := repo.LoadStrategies()
	require.NoError(t, err)
	assert.Nil(t, strategies)

	results, err := repo.LoadResults()
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestStrategiesRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	saved := []strategy.Strategy{{
		ID:         "s1",
		Name:       "BTC trend",
		Instrument: "bitcoin",
		Type:       "trend_following",
		Params:     &strategy.TrendFollowingParams{PeriodDays: 14, ThresholdPct: 2},
		Active:     true,
		Mode:       ledger.Spot,
		Persistent: true,
	}}
	require.NoError(t, repo.SaveStrategies(saved))

	got, err := repo.LoadStrategies()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	require.IsType(t, &strategy.TrendFollowingParams{}, got[0].Params)
	assert.Equal(t, saved[0].Params, got[0].Params)
}

func TestResultsRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	saved := []backtest.Result{{
		ID:             "r1",
		StrategyID:     "s1",
		InitialBalance: 10000,
		FinalBalance:   11200,
		Equity:         []float64{10000, 10250, 11200},
		Performance:    backtest.Performance{TotalReturn: 12, WinRate: 55},
		Mode:           ledger.Spot,
	}}
	require.NoError(t, repo.SaveResults(saved))

	got, err := repo.LoadResults()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, saved[0].Equity, got[0].Equity)
	assert.Equal(t, 12.0, got[0].Performance.TotalReturn)
}

func TestUnreadableRecordFallsBack(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewBadger(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	// plant bytes that no longer parse as an account
	db := repo.(*badgerRepository).db
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(accountKey(ledger.Spot)), []byte(`{"balance":"lots"}`))
	}))

	a, err := repo.LoadAccount(ledger.Spot)
	require.NoError(t, err)
	assert.Nil(t, a, "unreadable state must load as no state")
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()

	repo, err := NewBadger(dir)
	require.NoError(t, err)
	require.NoError(t, repo.SaveAccount(ledger.Spot, ledger.Account{Balance: 4321}))
	require.NoError(t, repo.Close())

	repo, err = NewBadger(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	a, err := repo.LoadAccount(ledger.Spot)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 4321.0, a.Balance)
}
