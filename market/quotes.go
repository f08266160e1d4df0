package market

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrNoQuote = errors.New("no quote for instrument")

// PriceSource is the lookup the lifecycle engine marks positions against.
type PriceSource interface {
	CurrentPrice(instrument string) (float64, error)
}

// Quote is the latest known price for one instrument.
type Quote struct {
	Instrument string
	Price      float64
	Time       time.Time
}

// QuoteStore holds the latest quote per instrument. It is seeded from the
// catalog so every known instrument always resolves.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewQuoteStore() *QuoteStore {
	qs := &QuoteStore{quotes: make(map[string]Quote, len(Instruments))}
	now := time.Now()
	for id, meta := range Instruments {
		qs.quotes[id] = Quote{Instrument: id, Price: meta.SeedPrice, Time: now}
	}
	return qs
}

func (s *QuoteStore) Set(q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Instrument] = q
}

func (s *QuoteStore) Get(instrument string) (Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[instrument]
	if !ok {
		return Quote{}, ErrNoQuote
	}
	return q, nil
}

// CurrentPrice implements PriceSource.
func (s *QuoteStore) CurrentPrice(instrument string) (float64, error) {
	q, err := s.Get(instrument)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

// Drift nudges every quote by a bounded random step, at most ±0.5% per
// call. The run loop calls this before each mark-to-market pass so open
// positions have something to revalue against.
func (s *QuoteStore) Drift(rng *rand.Rand, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, q := range s.quotes {
		step := (rng.Float64()*2 - 1) * 0.005
		q.Price *= 1 + step
		q.Time = now
		s.quotes[id] = q
	}
}
