package strategy

import (
	"encoding/json"
	"fmt"
)

// Params is the typed parameter set of one strategy. Each strategy type
// declares its own schema; decoding dispatches on the type id, so an
// unknown parameter bag can never sneak into a Strategy.
type Params interface {
	TypeID() string
	Validate() error
}

// TypeInfo describes one entry of the strategy-type catalog.
type TypeInfo struct {
	ID          string
	Name        string
	Description string
	Defaults    func() Params
}

var Types = map[string]TypeInfo{
	"trend_following": {
		ID:          "trend_following",
		Name:        "Trend Following",
		Description: "Buy when price is rising, sell when price is falling",
		Defaults:    func() Params { return &TrendFollowingParams{PeriodDays: 14, ThresholdPct: 2} },
	},
	"mean_reversion": {
		ID:          "mean_reversion",
		Name:        "Mean Reversion",
		Description: "Buy when price is below average, sell when above average",
		Defaults:    func() Params { return &MeanReversionParams{PeriodDays: 20, DeviationPct: 3} },
	},
	"breakout": {
		ID:          "breakout",
		Name:        "Breakout",
		Description: "Buy when price breaks above resistance, sell when below support",
		Defaults:    func() Params { return &BreakoutParams{LookbackDays: 30, ThresholdPct: 5} },
	},
	"rsi": {
		ID:          "rsi",
		Name:        "RSI Strategy",
		Description: "Buy when RSI is oversold, sell when overbought",
		Defaults:    func() Params { return &RSIParams{Period: 14, Oversold: 30, Overbought: 70} },
	},
	"macd": {
		ID:          "macd",
		Name:        "MACD Strategy",
		Description: "Buy on MACD crossover above signal line, sell on crossover below",
		Defaults:    func() Params { return &MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9} },
	},
	"bollinger_bands": {
		ID:          "bollinger_bands",
		Name:        "Bollinger Bands",
		Description: "Buy when price touches the lower band, sell at the upper band",
		Defaults:    func() Params { return &BollingerParams{Period: 20, StdDev: 2} },
	},
	"grid_trading": {
		ID:          "grid_trading",
		Name:        "Grid Trading",
		Description: "Place buy and sell orders at regular price intervals",
		Defaults:    func() Params { return &GridParams{UpperLimitPct: 10, LowerLimitPct: 10, Levels: 5} },
	},
	"scalping": {
		ID:          "scalping",
		Name:        "Scalping",
		Description: "Take advantage of small price movements multiple times per day",
		Defaults: func() Params {
			return &ScalpingParams{ProfitTargetPct: 0.5, StopLossPct: 0.3, MaxTradesPerDay: 50, TimeframeMin: 5}
		},
	},
}

// DecodeParams unmarshals raw into the schema registered for typeID.
func DecodeParams(typeID string, raw json.RawMessage) (Params, error) {
	info, ok := Types[typeID]
	if !ok {
		return nil, fmt.Errorf("unknown strategy type %q", typeID)
	}
	p := info.Defaults()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decode %s parameters: %w", typeID, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

type TrendFollowingParams struct {
	PeriodDays   int     `json:"period"`
	ThresholdPct float64 `json:"threshold"`
}

func (*TrendFollowingParams) TypeID() string { return "trend_following" }

func (p *TrendFollowingParams) Validate() error {
	if p.PeriodDays <= 0 {
		return fmt.Errorf("trend_following: period must be positive")
	}
	if p.ThresholdPct <= 0 {
		return fmt.Errorf("trend_following: threshold must be positive")
	}
	return nil
}

type MeanReversionParams struct {
	PeriodDays   int     `json:"period"`
	DeviationPct float64 `json:"deviation"`
}

func (*MeanReversionParams) TypeID() string { return "mean_reversion" }

func (p *MeanReversionParams) Validate() error {
	if p.PeriodDays <= 0 {
		return fmt.Errorf("mean_reversion: period must be positive")
	}
	if p.DeviationPct <= 0 {
		return fmt.Errorf("mean_reversion: deviation must be positive")
	}
	return nil
}

type BreakoutParams struct {
	LookbackDays int     `json:"lookback"`
	ThresholdPct float64 `json:"threshold"`
}

func (*BreakoutParams) TypeID() string { return "breakout" }

func (p *BreakoutParams) Validate() error {
	if p.LookbackDays <= 0 {
		return fmt.Errorf("breakout: lookback must be positive")
	}
	if p.ThresholdPct <= 0 {
		return fmt.Errorf("breakout: threshold must be positive")
	}
	return nil
}

type RSIParams struct {
	Period     int     `json:"period"`
	Oversold   float64 `json:"oversold"`
	Overbought float64 `json:"overbought"`
}

func (*RSIParams) TypeID() string { return "rsi" }

func (p *RSIParams) Validate() error {
	if p.Period <= 0 {
		return fmt.Errorf("rsi: period must be positive")
	}
	if p.Oversold >= p.Overbought {
		return fmt.Errorf("rsi: oversold level must be below overbought level")
	}
	return nil
}

type MACDParams struct {
	FastPeriod   int `json:"fastPeriod"`
	SlowPeriod   int `json:"slowPeriod"`
	SignalPeriod int `json:"signalPeriod"`
}

func (*MACDParams) TypeID() string { return "macd" }

func (p *MACDParams) Validate() error {
	if p.FastPeriod <= 0 || p.SlowPeriod <= 0 || p.SignalPeriod <= 0 {
		return fmt.Errorf("macd: periods must be positive")
	}
	if p.FastPeriod >= p.SlowPeriod {
		return fmt.Errorf("macd: fast period must be below slow period")
	}
	return nil
}

type BollingerParams struct {
	Period int     `json:"period"`
	StdDev float64 `json:"stdDev"`
}

func (*BollingerParams) TypeID() string { return "bollinger_bands" }

func (p *BollingerParams) Validate() error {
	if p.Period <= 0 {
		return fmt.Errorf("bollinger_bands: period must be positive")
	}
	if p.StdDev <= 0 {
		return fmt.Errorf("bollinger_bands: stdDev must be positive")
	}
	return nil
}

type GridParams struct {
	UpperLimitPct float64 `json:"upperLimit"`
	LowerLimitPct float64 `json:"lowerLimit"`
	Levels        int     `json:"gridLevels"`
}

func (*GridParams) TypeID() string { return "grid_trading" }

func (p *GridParams) Validate() error {
	if p.UpperLimitPct <= 0 || p.LowerLimitPct <= 0 {
		return fmt.Errorf("grid_trading: limits must be positive")
	}
	if p.Levels < 2 {
		return fmt.Errorf("grid_trading: need at least 2 grid levels")
	}
	return nil
}

type ScalpingParams struct {
	ProfitTargetPct float64 `json:"profitTarget"`
	StopLossPct     float64 `json:"stopLoss"`
	MaxTradesPerDay int     `json:"maxTradesPerDay"`
	TimeframeMin    int     `json:"timeframe"`
}

func (*ScalpingParams) TypeID() string { return "scalping" }

func (p *ScalpingParams) Validate() error {
	if p.ProfitTargetPct <= 0 || p.StopLossPct <= 0 {
		return fmt.Errorf("scalping: profit target and stop loss must be positive")
	}
	if p.MaxTradesPerDay <= 0 {
		return fmt.Errorf("scalping: maxTradesPerDay must be positive")
	}
	if p.TimeframeMin <= 0 {
		return fmt.Errorf("scalping: timeframe must be positive")
	}
	return nil
}
