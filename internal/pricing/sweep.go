package pricing

import "fmt"

// Range describes an inclusive, evenly spaced sweep over underlying prices.
type Range struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Steps int     `json:"steps"`
}

// Validate checks the range bounds and step count.
func (r Range) Validate() error {
	if r.Min >= r.Max {
		return fmt.Errorf("%w: range min %g must be below max %g", ErrInvalidInput, r.Min, r.Max)
	}
	if r.Steps < 2 {
		return fmt.Errorf("%w: range needs at least 2 steps, got %d", ErrInvalidInput, r.Steps)
	}
	return nil
}

// at returns the i-th sweep price. at(0) == Min and at(Steps-1) == Max.
func (r Range) at(i int) float64 {
	return r.Min + (r.Max-r.Min)*float64(i)/float64(r.Steps-1)
}

// SweepPoint pairs a substituted underlying price with the pricing result
// computed at that price.
type SweepPoint struct {
	Spot   float64 `json:"spot"`
	Result Result  `json:"result"`
}

// Sweep evaluates the base contract across the given spot-price range and
// returns exactly r.Steps points in strictly increasing spot order.
//
// Each point is computed independently by substituting the sweep price into
// an otherwise-identical copy of the base contract; there is no shared
// mutable state between points, so evaluating them in parallel would be
// safe. A fresh call restarts the sweep from scratch.
func Sweep(base Contract, r Range) ([]SweepPoint, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	points := make([]SweepPoint, 0, r.Steps)
	for i := 0; i < r.Steps; i++ {
		spot := r.at(i)
		res, err := PriceAndGreeks(base.WithSpot(spot))
		if err != nil {
			return nil, fmt.Errorf("sweep at spot %g: %w", spot, err)
		}
		points = append(points, SweepPoint{Spot: spot, Result: res})
	}
	return points, nil
}

// DefaultBand returns the ±20% band around spot used for Greeks charts.
func DefaultBand(spot float64) Range {
	return Range{Min: spot * 0.8, Max: spot * 1.2, Steps: 50}
}

// PayoffBand returns the wider ±30% band used for payoff diagrams.
func PayoffBand(spot float64) Range {
	return Range{Min: spot * 0.7, Max: spot * 1.3, Steps: 100}
}
