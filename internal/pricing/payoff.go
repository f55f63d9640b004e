package pricing

import (
	"fmt"
	"math"
)

// PayoffPoint is one sample of an expiry payoff curve: the profit after
// premium at a terminal underlying price, alongside the raw exercise value.
type PayoffPoint struct {
	Spot      float64 `json:"spot"`
	Profit    float64 `json:"profit"`
	Intrinsic float64 `json:"intrinsic"`
}

// PayoffCurve computes the profit-at-expiry curve for the contract across
// the given terminal price range, net of the premium paid.
//
//	call profit = max(S - K, 0) - premium
//	put profit  = max(K - S, 0) - premium
//
// The premium is supplied by the caller rather than taken from the pricing
// engine, so historical or override prices can be charted. This is model
// independent: only the contract's strike and type are used.
func PayoffCurve(c Contract, premium float64, r Range) ([]PayoffPoint, error) {
	if c.Strike <= 0 {
		return nil, fmt.Errorf("%w: strike must be positive, got %g", ErrInvalidInput, c.Strike)
	}
	if premium < 0 {
		return nil, fmt.Errorf("%w: premium must be non-negative, got %g", ErrInvalidInput, premium)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	points := make([]PayoffPoint, 0, r.Steps)
	for i := 0; i < r.Steps; i++ {
		spot := r.at(i)
		intrinsic := Intrinsic(c.WithSpot(spot))
		points = append(points, PayoffPoint{
			Spot:      spot,
			Profit:    intrinsic - premium,
			Intrinsic: intrinsic,
		})
	}
	return points, nil
}

// BreakEven returns the terminal underlying price at which the position
// recovers its premium: K+premium for calls, max(K-premium, 0) for puts.
// The underlying cannot settle below zero, so a put premium above the
// strike floors the break-even at zero.
func BreakEven(c Contract, premium float64) (float64, error) {
	if c.Strike <= 0 {
		return 0, fmt.Errorf("%w: strike must be positive, got %g", ErrInvalidInput, c.Strike)
	}
	if premium < 0 {
		return 0, fmt.Errorf("%w: premium must be non-negative, got %g", ErrInvalidInput, premium)
	}
	if c.Type == Call {
		return c.Strike + premium, nil
	}
	return math.Max(c.Strike-premium, 0), nil
}
