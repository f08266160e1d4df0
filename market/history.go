package market

import (
	"math/rand"
	"time"
)

// PricePoint is one sample of a synthetic daily price series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// History generates a daily price series for instrument ending at the
// current price, walking backwards with a bounded random step of at most
// ±2% per day. The series is synthetic display data, not market history;
// a fixed seed yields a reproducible curve.
func History(rng *rand.Rand, instrument string, current float64, days int, end time.Time) []PricePoint {
	if days <= 0 {
		return nil
	}

	points := make([]PricePoint, days)
	price := current
	for i := days - 1; i >= 0; i-- {
		points[i] = PricePoint{
			Time:  end.AddDate(0, 0, i-days+1),
			Price: price,
		}
		step := (rng.Float64()*2 - 1) * 0.02
		price /= 1 + step
	}
	return points
}
