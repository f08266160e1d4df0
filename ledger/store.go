package ledger

import (
	"fmt"
	"sync"
)

const (
	// DefaultBalance is the canonical starting cash for both accounts.
	DefaultBalance = 10000
	// DefaultFutureLeverage is the multiplier applied to futures positions
	// that carry no leverage of their own.
	DefaultFutureLeverage = 10
)

// Store holds the two accounts and serializes every read-modify-write
// through one mutex, so no reader can observe a half-applied transition.
type Store struct {
	mu             sync.Mutex
	accounts       map[TradingMode]*Account
	initialBalance float64
	futureLeverage int
}

func NewStore(initialBalance float64, futureLeverage int) *Store {
	if initialBalance <= 0 {
		initialBalance = DefaultBalance
	}
	if futureLeverage <= 0 {
		futureLeverage = DefaultFutureLeverage
	}
	s := &Store{
		accounts:       make(map[TradingMode]*Account, 2),
		initialBalance: initialBalance,
		futureLeverage: futureLeverage,
	}
	for _, mode := range Modes {
		s.accounts[mode] = s.initialAccount(mode)
	}
	return s
}

func (s *Store) initialAccount(mode TradingMode) *Account {
	a := &Account{
		Balance: s.initialBalance,
		Equity:  s.initialBalance,
		Assets:  make(map[string]float64),
	}
	if mode == Future {
		a.Leverage = s.futureLeverage
	}
	return a
}

// Account returns a deep-copy snapshot of the ledger for mode.
func (s *Store) Account(mode TradingMode) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[mode]
	if !ok {
		return Account{}, fmt.Errorf("unknown trading mode %q", mode)
	}
	return a.clone(), nil
}

// Update runs fn against the live account for mode under the store lock.
// Every ledger transition (open, close, mark, reset, clear) goes through
// here; fn must leave the account consistent before returning.
func (s *Store) Update(mode TradingMode, fn func(*Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[mode]
	if !ok {
		return fmt.Errorf("unknown trading mode %q", mode)
	}
	return fn(a)
}

// ResetAccount replaces the account with the canonical initial state.
func (s *Store) ResetAccount(mode TradingMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[mode]; !ok {
		return fmt.Errorf("unknown trading mode %q", mode)
	}
	s.accounts[mode] = s.initialAccount(mode)
	return nil
}

// ClearHistory preserves balance and leverage while emptying assets, open
// positions, and the closed-trade history. It always succeeds for a known
// mode.
func (s *Store) ClearHistory(mode TradingMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[mode]
	if !ok {
		return fmt.Errorf("unknown trading mode %q", mode)
	}
	a.Assets = make(map[string]float64)
	a.OpenPositions = nil
	a.ClosedTrades = nil
	a.Equity = a.Balance
	return nil
}

// Restore overwrites the account for mode with a previously persisted
// snapshot. Used once at startup, before the engine starts mutating.
func (s *Store) Restore(mode TradingMode, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[mode]; !ok {
		return fmt.Errorf("unknown trading mode %q", mode)
	}
	if a.Assets == nil {
		a.Assets = make(map[string]float64)
	}
	cp := a.clone()
	s.accounts[mode] = &cp
	return nil
}
