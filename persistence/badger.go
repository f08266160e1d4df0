package persistence

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/rustyeddy/paperbot/backtest"
	"github.com/rustyeddy/paperbot/internal/logger"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/strategy"
)

const (
	keyStrategies = "strategies"
	keyResults    = "backtest:results"
)

func accountKey(mode ledger.TradingMode) string {
	return fmt.Sprintf("account:%s", mode)
}

// badgerRepository stores each record as a JSON value under a string key.
type badgerRepository struct {
	db *badger.DB
}

// NewBadger opens (or creates) the key/value store at dbPath.
func NewBadger(dbPath string) (Repository, error) {
	opts := badger.DefaultOptions(dbPath)
	// Badger's own logging is noisy; errors still surface from operations.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerRepository{db: db}, nil
}

func (r *badgerRepository) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get unmarshals the value at key into out. It reports found=false both
// when the key is absent and when the stored bytes no longer parse into
// the expected shape; the latter is logged and treated as "no state" so a
// schema drift falls back to defaults.
func (r *badgerRepository) get(key string, out any) (found bool, err error) {
	var data []byte
	err = r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.S().Warnw("discarding unreadable record", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (r *badgerRepository) SaveAccount(mode ledger.TradingMode, a ledger.Account) error {
	return r.put(accountKey(mode), a)
}

func (r *badgerRepository) LoadAccount(mode ledger.TradingMode) (*ledger.Account, error) {
	var a ledger.Account
	found, err := r.get(accountKey(mode), &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

func (r *badgerRepository) SaveStrategies(strategies []strategy.Strategy) error {
	return r.put(keyStrategies, strategies)
}

func (r *badgerRepository) LoadStrategies() ([]strategy.Strategy, error) {
	var out []strategy.Strategy
	found, err := r.get(keyStrategies, &out)
	if err != nil || !found {
		return nil, err
	}
	return out, nil
}

func (r *badgerRepository) SaveResults(results []backtest.Result) error {
	return r.put(keyResults, results)
}

func (r *badgerRepository) LoadResults() ([]backtest.Result, error) {
	var out []backtest.Result
	found, err := r.get(keyResults, &out)
	if err != nil || !found {
		return nil, err
	}
	return out, nil
}

func (r *badgerRepository) Close() error {
	return r.db.Close()
}
