package backtest

import (
	"context"

	"github.com/rustyeddy/paperbot/internal/logger"
	"github.com/rustyeddy/paperbot/ledger"
	"github.com/rustyeddy/paperbot/strategy"
)

// Ranker defaults: every candidate is evaluated over the same window with
// the same stake so totalReturn figures are comparable.
var rankSettings = Settings{
	PeriodID:       DefaultPeriodID,
	InitialBalance: 10000,
	IncludeFees:    true,
	FeePct:         0.1,
}

// Ranker picks the best strategy for a trading mode by backtesting every
// active candidate and comparing total returns.
type Ranker struct {
	sim        *Simulator
	strategies *strategy.Store
}

func NewRanker(sim *Simulator, strategies *strategy.Store) *Ranker {
	return &Ranker{sim: sim, strategies: strategies}
}

// FindBest returns the id of the active strategy with the numerically
// greatest totalReturn over the default period, or "" when there are no
// active strategies for mode or every backtest failed.
//
// A failing backtest excludes that strategy from the comparison rather
// than aborting the ranking; the error is logged and swallowed so the
// start-trading flow degrades gracefully. Context cancellation is the one
// exception: a superseded ranking must not deliver a result.
func (r *Ranker) FindBest(ctx context.Context, mode ledger.TradingMode) (string, error) {
	candidates := r.strategies.ListActive(mode)
	if len(candidates) == 0 {
		return "", nil
	}

	bestID := ""
	bestReturn := 0.0

	for _, st := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		settings := rankSettings
		settings.StrategyID = st.ID

		res, err := r.sim.Run(ctx, settings)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logger.S().Warnw("ranking: backtest failed, excluding strategy",
				"strategy", st.ID, "name", st.Name, "error", err)
			continue
		}

		if bestID == "" || res.Performance.TotalReturn > bestReturn {
			bestID = st.ID
			bestReturn = res.Performance.TotalReturn
		}
	}

	return bestID, nil
}
