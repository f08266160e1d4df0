// Package bot owns the whole engine state: the ledger, the lifecycle
// engine, the strategy and result collections, the exchange adapter, and
// the durable store. Every mutation funnels through here so state changes
// are serialized and persisted in one place instead of living in ambient
// globals.
package bot

import (
	"context"
	"math/rand"
	"time"

	"github.com/rustyeddy/paperbot/backtest"
	"github.com/rustyeddy/paperbot/config"
	"github.com/rustyeddy/paperbot/exchange"
	"github.com/rustyeddy/paperbot/internal/logger"
	"github.com/rustyeddy/paperbot/journal"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/market"
	"github.com/rustyeddy/paperbot/persistence"
	"github.com/rustyeddy/paperbot/sim"
	"github.com/rustyeddy/paperbot/strategy"
)

type Bot struct {
	cfg *config.Config

	quotes     *market.QuoteStore
	ledger     *ledger.Store
	engine     *sim.Engine
	strategies *strategy.Store
	results    *backtest.ResultStore
	simulator  *backtest.Simulator
	ranker     *backtest.Ranker
	adapter    *exchange.Adapter

	repo persistence.Repository
	jrnl journal.Journal
	rng  *rand.Rand
}

// New wires the engine together and restores any persisted state. repo
// and jrnl may be nil (nothing durable, nothing journaled).
func New(cfg *config.Config, repo persistence.Repository, jrnl journal.Journal) *Bot {
	if jrnl == nil {
		jrnl = journal.Nop{}
	}

	quotes := market.NewQuoteStore()
	led := ledger.NewStore(cfg.Account.InitialBalance, cfg.Account.FutureLeverage)
	strategies := strategy.NewStore()
	results := backtest.NewResultStore()
	simulator := backtest.NewSimulator(strategies, quotes, results)

	b := &Bot{
		cfg:        cfg,
		quotes:     quotes,
		ledger:     led,
		engine:     sim.NewEngine(led, quotes, jrnl),
		strategies: strategies,
		results:    results,
		simulator:  simulator,
		ranker:     backtest.NewRanker(simulator, strategies),
		adapter:    exchange.NewAdapter(quotes),
		repo:       repo,
		jrnl:       jrnl,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	b.restore()
	return b
}

// restore loads whatever the repository has; anything missing or
// unreadable keeps its default.
func (b *Bot) restore() {
	if b.repo == nil {
		return
	}
	for _, mode := range ledger.Modes {
		acct, err := b.repo.LoadAccount(mode)
		if err != nil {
			logger.S().Warnw("load account", "mode", mode, "error", err)
			continue
		}
		if acct != nil {
			if err := b.ledger.Restore(mode, *acct); err != nil {
				logger.S().Warnw("restore account", "mode", mode, "error", err)
			}
		}
	}
	if strategies, err := b.repo.LoadStrategies(); err != nil {
		logger.S().Warnw("load strategies", "error", err)
	} else if strategies != nil {
		b.strategies.Restore(strategies)
	}
	if results, err := b.repo.LoadResults(); err != nil {
		logger.S().Warnw("load backtest results", "error", err)
	} else if results != nil {
		b.results.Restore(results)
	}
}

// SaveAll flushes the current state to the repository. Persistent=false
// strategies never hit the durable store.
func (b *Bot) SaveAll() {
	if b.repo == nil {
		return
	}
	for _, mode := range ledger.Modes {
		acct, err := b.ledger.Account(mode)
		if err != nil {
			continue
		}
		if err := b.repo.SaveAccount(mode, acct); err != nil {
			logger.S().Warnw("save account", "mode", mode, "error", err)
		}
	}
	if err := b.repo.SaveStrategies(b.strategies.Persistent()); err != nil {
		logger.S().Warnw("save strategies", "error", err)
	}
	if err := b.repo.SaveResults(b.results.List()); err != nil {
		logger.S().Warnw("save backtest results", "error", err)
	}
}

// Run drives the mark-to-market loop until ctx is cancelled: drift the
// quotes, mark both ledgers, persist. Interval comes from the config
// (default 5s).
func (b *Bot) Run(ctx context.Context) error {
	interval, err := b.cfg.Engine.ParseMarkInterval()
	if err != nil {
		return err
	}

	logger.S().Infow("engine running", "mark_interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.SaveAll()
			logger.S().Info("engine stopped")
			return nil
		case <-ticker.C:
			b.quotes.Drift(b.rng, time.Now())
			if err := b.engine.MarkToMarketAll(); err != nil {
				logger.S().Warnw("mark to market", "error", err)
			}
			b.SaveAll()
		}
	}
}

// Close flushes state and releases the repository and journal.
func (b *Bot) Close() error {
	b.SaveAll()
	if b.repo != nil {
		if err := b.repo.Close(); err != nil {
			return err
		}
	}
	return b.jrnl.Close()
}

func (b *Bot) Ledger() *ledger.Store          { return b.ledger }
func (b *Bot) Quotes() *market.QuoteStore     { return b.quotes }
func (b *Bot) Strategies() *strategy.Store    { return b.strategies }
func (b *Bot) Results() *backtest.ResultStore { return b.results }
func (b *Bot) Adapter() *exchange.Adapter     { return b.adapter }

// OpenPosition applies a trade intent and persists the ledger.
func (b *Bot) OpenPosition(mode ledger.TradingMode, intent sim.OrderIntent) (ledger.Position, error) {
	pos, err := b.engine.OpenPosition(mode, intent)
	if err != nil {
		return ledger.Position{}, err
	}
	b.SaveAll()
	return pos, nil
}

// ClosePosition realizes an open position and persists the ledger.
func (b *Bot) ClosePosition(mode ledger.TradingMode, positionID string) (ledger.Trade, error) {
	trade, err := b.engine.ClosePosition(mode, positionID)
	if err != nil {
		return ledger.Trade{}, err
	}
	b.SaveAll()
	return trade, nil
}

// MarkToMarket runs one mark pass for mode against the current quotes.
func (b *Bot) MarkToMarket(mode ledger.TradingMode) error {
	return b.engine.MarkToMarket(mode)
}

// ResetAccount restores the canonical initial account for mode.
func (b *Bot) ResetAccount(mode ledger.TradingMode) error {
	if err := b.ledger.ResetAccount(mode); err != nil {
		return err
	}
	b.SaveAll()
	return nil
}

// ClearHistory empties assets, positions, and trade history for mode
// while preserving balance and leverage.
func (b *Bot) ClearHistory(mode ledger.TradingMode) error {
	if err := b.ledger.ClearHistory(mode); err != nil {
		return err
	}
	b.SaveAll()
	return nil
}

// RunBacktest evaluates one strategy/period pair and persists the result
// collection.
func (b *Bot) RunBacktest(ctx context.Context, settings backtest.Settings) (backtest.Result, error) {
	res, err := b.simulator.Run(ctx, settings)
	if err != nil {
		return backtest.Result{}, err
	}
	b.SaveAll()
	return res, nil
}

// DeleteResult drops a backtest result; unknown ids are a no-op.
func (b *Bot) DeleteResult(resultID string) {
	b.results.Delete(resultID)
	b.SaveAll()
}

// FindBestStrategy ranks the active strategies for mode. An empty id with
// a nil error means there was nothing to rank.
func (b *Bot) FindBestStrategy(ctx context.Context, mode ledger.TradingMode) (string, error) {
	best, err := b.ranker.FindBest(ctx, mode)
	if err != nil {
		return "", err
	}
	b.SaveAll() // ranking appended one result per candidate
	return best, nil
}

// SyncExchange refreshes the remote snapshot overlay.
func (b *Bot) SyncExchange(ctx context.Context, mode ledger.TradingMode) (exchange.Snapshot, error) {
	return b.adapter.Sync(ctx, mode)
}

// MergedPositions returns the local open positions plus the cached
// exchange overlay, for display. The overlay never enters the ledger.
func (b *Bot) MergedPositions(mode ledger.TradingMode) ([]ledger.Position, error) {
	acct, err := b.ledger.Account(mode)
	if err != nil {
		return nil, err
	}
	out := acct.OpenPositions
	if snap, ok := b.adapter.Snapshot(); ok {
		out = append(out, snap.OpenPositions...)
	}
	return out, nil
}
