package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/paperbot/ledger"
)

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	return j, tradesPath, equityPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVHeaders(t *testing.T) {
	j, tradesPath, equityPath := newTestCSV(t)
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 1)
	assert.Equal(t, []string{
		"trade_id", "strategy_id", "instrument", "mode", "side",
		"amount", "entry_price", "exit_price", "open_time", "close_time",
		"realized_pl", "reason",
	}, trades[0])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 1)
	assert.Equal(t, []string{"time", "mode", "balance", "equity"}, equity[0])
}

func TestCSVRecordTrade(t *testing.T) {
	j, tradesPath, _ := newTestCSV(t)

	closeTime := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("t1", closeTime)))
	require.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "t1", row[0])
	assert.Equal(t, "manual", row[1])
	assert.Equal(t, "bitcoin", row[2])
	assert.Equal(t, "future", row[3])
	assert.Equal(t, "sell", row[4])
	assert.Equal(t, "0.500000", row[5])
	assert.Equal(t, "64000.000000", row[6])
	assert.Equal(t, "64500.000000", row[7])
	assert.Equal(t, closeTime.Format(time.RFC3339), row[9])
	assert.Equal(t, "250.000000", row[10])
	assert.Equal(t, "ManualClose", row[11])
}

func TestCSVRecordEquity(t *testing.T) {
	j, _, equityPath := newTestCSV(t)

	snap := EquitySnapshot{
		Time:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Mode:    ledger.Spot,
		Balance: 9900,
		Equity:  10000,
	}
	require.NoError(t, j.RecordEquity(snap))
	require.NoError(t, j.Close())

	rows := readCSV(t, equityPath)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		snap.Time.Format(time.RFC3339), "spot", "9900.000000", "10000.000000",
	}, rows[1])
}

func TestNopJournal(t *testing.T) {
	var j Journal = Nop{}
	assert.NoError(t, j.RecordTrade(TradeRecord{}))
	assert.NoError(t, j.RecordEquity(EquitySnapshot{}))
	assert.NoError(t, j.Close())
}
