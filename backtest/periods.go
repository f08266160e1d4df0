package backtest

import (
	"errors"
	"fmt"
)

var ErrPeriodNotFound = errors.New("period not found")

// Period is one lookback window from the period catalog.
type Period struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Days int    `json:"days"`
}

// DefaultPeriodID is the window the strategy ranker evaluates against.
const DefaultPeriodID = "30d"

var Periods = []Period{
	{ID: "7d", Name: "7 Days", Days: 7},
	{ID: "30d", Name: "30 Days", Days: 30},
	{ID: "90d", Name: "90 Days", Days: 90},
	{ID: "180d", Name: "6 Months", Days: 180},
	{ID: "365d", Name: "1 Year", Days: 365},
}

// PeriodIDs returns the catalog ids in display order.
func PeriodIDs() []string {
	ids := make([]string, len(Periods))
	for i, p := range Periods {
		ids[i] = p.ID
	}
	return ids
}

func PeriodByID(periodID string) (Period, error) {
	for _, p := range Periods {
		if p.ID == periodID {
			return p, nil
		}
	}
	return Period{}, fmt.Errorf("%w: %q", ErrPeriodNotFound, periodID)
}
