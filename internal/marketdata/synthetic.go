package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// syntheticProvider generates deterministic random-walk data, keyed on the
// ticker string, for offline runs and tests. The same ticker always yields
// the same series.
type syntheticProvider struct{}

// NewSyntheticProvider constructs the offline data provider.
func NewSyntheticProvider() Provider { return &syntheticProvider{} }

func (p *syntheticProvider) Name() string { return "synthetic" }

func tickerSeed(ticker string) int64 {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	return int64(h.Sum64())
}

func (p *syntheticProvider) walk(ticker string, days int) []Bar {
	rng := rand.New(rand.NewSource(tickerSeed(ticker)))
	price := 50.0 + float64(rng.Intn(400))

	// Walk backwards from today so the series ends at the current date.
	// Dates are calendar days at midnight UTC, so repeated calls within
	// the same day yield identical bars.
	y, m, d := time.Now().UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days*7/5 + 7))
	cur := start
	var out []Bar
	for len(out) < days {
		if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
			delta := rng.NormFloat64() * 0.01 * price
			open := price
			close := price + delta
			high := math.Max(open, close) + math.Abs(rng.NormFloat64()*0.3)
			low := math.Min(open, close) - math.Abs(rng.NormFloat64()*0.3)
			out = append(out, Bar{
				Date:   cur,
				Open:   open,
				High:   high,
				Low:    low,
				Close:  close,
				Volume: float64(1000 + rng.Intn(5000)),
			})
			price = close
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}

func (p *syntheticProvider) DailyBars(_ context.Context, ticker string, days int) ([]Bar, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrDataUnavailable)
	}
	return p.walk(ticker, days), nil
}

func (p *syntheticProvider) CurrentPrice(_ context.Context, ticker string) (float64, error) {
	bars, err := p.DailyBars(context.Background(), ticker, 63)
	if err != nil {
		return 0, err
	}
	return bars[len(bars)-1].Close, nil
}

func (p *syntheticProvider) TickerDetails(_ context.Context, ticker string) (Details, error) {
	if ticker == "" {
		return Details{}, fmt.Errorf("%w: empty ticker", ErrDataUnavailable)
	}
	return Details{
		Name:      ticker + " (synthetic)",
		MarketCap: 1e9 + float64(tickerSeed(ticker)%1e9),
		Currency:  "USD",
	}, nil
}
