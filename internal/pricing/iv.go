package pricing

import (
	"fmt"
	"math"
)

// ImpliedVolATM solves for the volatility that makes the Black-Scholes call
// price match the observed at-the-money mid price (average of call and put
// quotes), using Newton-Raphson with the analytic vega.
//
// Returns ErrInvalidInput for a non-positive expiry and an error when the
// iteration fails to converge.
func ImpliedVolATM(spot, strike, timeToExpiry, rate, callPrice, putPrice float64) (float64, error) {
	if timeToExpiry <= 0 {
		return 0, fmt.Errorf("%w: time to expiry must be positive, got %g", ErrInvalidInput, timeToExpiry)
	}
	if spot <= 0 || strike <= 0 {
		return 0, fmt.Errorf("%w: spot and strike must be positive", ErrInvalidInput)
	}

	marketPrice := (callPrice + putPrice) / 2

	// Initial guess: 20%
	sigma := 0.20

	const (
		maxIter = 100
		tol     = 1e-6
	)

	for i := 0; i < maxIter; i++ {
		res, err := PriceAndGreeks(Contract{
			Spot:         spot,
			Strike:       strike,
			TimeToExpiry: timeToExpiry,
			Volatility:   sigma,
			Rate:         rate,
			Type:         Call,
		})
		if err != nil {
			return 0, err
		}

		diff := res.Price - marketPrice
		if math.Abs(diff) < tol {
			return sigma, nil
		}
		if res.Vega < 1e-8 {
			break
		}

		sigma -= diff / res.Vega

		// Guardrails
		if sigma <= 0 {
			sigma = 1e-4
		}
		if sigma > 5 {
			sigma = 5
		}
	}

	return 0, fmt.Errorf("implied vol did not converge for mid price %g", marketPrice)
}
