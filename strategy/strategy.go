// Package strategy holds user-defined trading strategies and the catalog
// of strategy types they are built from.
package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/market"
	"github.com/rustyeddy/paperbot/pkg/id"
)

var ErrNotFound = errors.New("strategy not found")

type Strategy struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Instrument string             `json:"instrument"`
	Type       string             `json:"type"`
	Params     Params             `json:"parameters"`
	Active     bool               `json:"active"`
	Mode       ledger.TradingMode `json:"trading_mode"`
	// Persistent=false strategies live only for the current process.
	Persistent bool      `json:"persistent"`
	CreatedAt  time.Time `json:"created_at"`
}

// strategyJSON mirrors Strategy with raw parameters so decoding can
// dispatch on the type id.
type strategyJSON struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Instrument string             `json:"instrument"`
	Type       string             `json:"type"`
	Params     json.RawMessage    `json:"parameters"`
	Active     bool               `json:"active"`
	Mode       ledger.TradingMode `json:"trading_mode"`
	Persistent bool               `json:"persistent"`
	CreatedAt  time.Time          `json:"created_at"`
}

func (s *Strategy) UnmarshalJSON(data []byte) error {
	var raw strategyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	params, err := DecodeParams(raw.Type, raw.Params)
	if err != nil {
		return err
	}
	*s = Strategy{
		ID:         raw.ID,
		Name:       raw.Name,
		Instrument: raw.Instrument,
		Type:       raw.Type,
		Params:     params,
		Active:     raw.Active,
		Mode:       raw.Mode,
		Persistent: raw.Persistent,
		CreatedAt:  raw.CreatedAt,
	}
	return nil
}

func (s *Strategy) validate() error {
	if s.Name == "" {
		return fmt.Errorf("strategy name is required")
	}
	if _, ok := market.Instruments[s.Instrument]; !ok {
		return fmt.Errorf("unknown instrument %q", s.Instrument)
	}
	if _, ok := Types[s.Type]; !ok {
		return fmt.Errorf("unknown strategy type %q", s.Type)
	}
	if s.Mode != ledger.Spot && s.Mode != ledger.Future {
		return fmt.Errorf("unknown trading mode %q", s.Mode)
	}
	if s.Params == nil {
		return fmt.Errorf("strategy parameters are required")
	}
	if s.Params.TypeID() != s.Type {
		return fmt.Errorf("parameters are for type %q, strategy is %q", s.Params.TypeID(), s.Type)
	}
	return s.Params.Validate()
}

// Store is the mutex-guarded strategy collection.
type Store struct {
	mu         sync.RWMutex
	strategies []Strategy
}

func NewStore() *Store { return &Store{} }

// Add validates st, assigns it an id and creation time, and appends it.
func (s *Store) Add(st Strategy) (Strategy, error) {
	if st.Mode == "" {
		st.Mode = ledger.Spot
	}
	if st.Params == nil {
		if info, ok := Types[st.Type]; ok {
			st.Params = info.Defaults()
		}
	}
	if err := st.validate(); err != nil {
		return Strategy{}, err
	}
	st.ID = id.New()
	st.CreatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies = append(s.strategies, st)
	return st, nil
}

func (s *Store) Get(strategyID string) (Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.strategies {
		if st.ID == strategyID {
			return st, nil
		}
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrNotFound, strategyID)
}

// Toggle flips the active flag and returns the updated strategy.
func (s *Store) Toggle(strategyID string) (Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.strategies {
		if s.strategies[i].ID == strategyID {
			s.strategies[i].Active = !s.strategies[i].Active
			return s.strategies[i], nil
		}
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrNotFound, strategyID)
}

// Update applies fn to the stored strategy and re-validates the result.
// The id and creation time cannot be changed.
func (s *Store) Update(strategyID string, fn func(*Strategy)) (Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.strategies {
		if s.strategies[i].ID != strategyID {
			continue
		}
		updated := s.strategies[i]
		fn(&updated)
		updated.ID = s.strategies[i].ID
		updated.CreatedAt = s.strategies[i].CreatedAt
		if err := updated.validate(); err != nil {
			return Strategy{}, err
		}
		s.strategies[i] = updated
		return updated, nil
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrNotFound, strategyID)
}

func (s *Store) Remove(strategyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.strategies {
		if s.strategies[i].ID == strategyID {
			s.strategies = append(s.strategies[:i], s.strategies[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, strategyID)
}

func (s *Store) List() []Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Strategy(nil), s.strategies...)
}

// ListActive returns the active strategies trading in mode.
func (s *Store) ListActive(mode ledger.TradingMode) []Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Strategy
	for _, st := range s.strategies {
		if st.Active && st.Mode == mode {
			out = append(out, st)
		}
	}
	return out
}

// Persistent returns only the strategies that survive a restart.
func (s *Store) Persistent() []Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Strategy
	for _, st := range s.strategies {
		if st.Persistent {
			out = append(out, st)
		}
	}
	return out
}

// Restore replaces the collection with a persisted snapshot.
func (s *Store) Restore(strategies []Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies = append([]Strategy(nil), strategies...)
}
