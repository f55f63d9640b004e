package marketdata

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// minBars is the fewest closes accepted for a volatility estimate.
const minBars = 10

// LogReturns computes ln(c[i]/c[i-1]) for consecutive closes. Non-positive
// closes make the ratio undefined and are rejected by the caller's
// validation path.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, math.Log(closes[i]/closes[i-1]))
	}
	return out
}

// AnnualizedVolatility estimates trailing volatility from daily bars:
// the sample standard deviation of daily log returns over the most recent
// `window` closes, scaled by sqrt(252).
func AnnualizedVolatility(bars []Bar, window int) (float64, error) {
	if window < 2 {
		return 0, fmt.Errorf("volatility window must be at least 2, got %d", window)
	}
	cs := closes(bars)
	if len(cs) < minBars {
		return 0, fmt.Errorf("need at least %d closes for a volatility estimate, got %d", minBars, len(cs))
	}
	for i, c := range cs {
		if c <= 0 {
			return 0, fmt.Errorf("non-positive close %g at index %d", c, i)
		}
	}
	if len(cs) > window {
		cs = cs[len(cs)-window:]
	}

	returns := LogReturns(cs)
	daily, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return 0, fmt.Errorf("stddev of %d returns: %w", len(returns), err)
	}
	return daily * math.Sqrt(tradingDaysPerYear), nil
}
