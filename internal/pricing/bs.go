// Package pricing implements closed-form Black-Scholes pricing for
// European-style vanilla options, including the five standard Greeks,
// spot-price sensitivity sweeps, expiry payoff curves, and ATM implied
// volatility.
//
// All functions in this package are pure: they hold no state, perform no
// I/O, and are safe to call concurrently.
package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput reports an input outside the domain of the Black-Scholes
// formula (non-positive spot, strike, expiry, or volatility) or a malformed
// analysis parameter. Callers test for it with errors.Is and recover by
// correcting the input.
var ErrInvalidInput = errors.New("invalid input")

// OptionType distinguishes calls from puts.
type OptionType int

const (
	Call OptionType = iota
	Put
)

// String returns the lowercase name of the option type.
func (t OptionType) String() string {
	if t == Put {
		return "put"
	}
	return "call"
}

// MarshalJSON renders the option type by name rather than ordinal.
func (t OptionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ParseOptionType parses "call"/"c" or "put"/"p" (case-insensitive).
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return Call, fmt.Errorf("%w: unknown option type %q", ErrInvalidInput, s)
}

// Contract is an immutable description of a European vanilla option.
// It has no identity beyond its field values; build a fresh one per
// evaluation and never mutate it.
type Contract struct {
	Spot         float64    `json:"spot"`           // current underlying price
	Strike       float64    `json:"strike"`         // strike price
	TimeToExpiry float64    `json:"time_to_expiry"` // time to expiry in years
	Volatility   float64    `json:"volatility"`     // annualized volatility, as a decimal
	Rate         float64    `json:"rate"`           // annualized risk-free rate
	Type         OptionType `json:"type"`           // Call or Put
}

// WithSpot returns a copy of the contract with the underlying price
// replaced. Used by sensitivity sweeps to substitute one input while
// keeping the rest fixed.
func (c Contract) WithSpot(spot float64) Contract {
	c.Spot = spot
	return c
}

// Validate checks that the contract lies inside the Black-Scholes domain.
func (c Contract) Validate() error {
	switch {
	case c.Spot <= 0:
		return fmt.Errorf("%w: spot must be positive, got %g", ErrInvalidInput, c.Spot)
	case c.Strike <= 0:
		return fmt.Errorf("%w: strike must be positive, got %g", ErrInvalidInput, c.Strike)
	case c.TimeToExpiry <= 0:
		return fmt.Errorf("%w: time to expiry must be positive, got %g", ErrInvalidInput, c.TimeToExpiry)
	case c.Volatility <= 0:
		return fmt.Errorf("%w: volatility must be positive, got %g", ErrInvalidInput, c.Volatility)
	}
	return nil
}

// Result holds the theoretical price and the five Greeks for one contract.
//
// Units are the raw derivatives: Theta is per year, Vega per unit of
// volatility, Rho per unit of rate. Display layers rescale via the
// helpers below.
type Result struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"` // per year
	Vega  float64 `json:"vega"`  // per unit volatility
	Rho   float64 `json:"rho"`   // per unit rate
}

// ThetaPerDay returns time decay per calendar day.
func (r Result) ThetaPerDay() float64 { return r.Theta / 365 }

// VegaPerPoint returns price change per one percentage point of volatility.
func (r Result) VegaPerPoint() float64 { return r.Vega / 100 }

// RhoPerPoint returns price change per one percentage point of rate.
func (r Result) RhoPerPoint() float64 { return r.Rho / 100 }

const sqrt2Pi = 2.5066282746310002

// PriceAndGreeks computes the Black-Scholes price and all five Greeks for
// the given contract in a single pass.
//
// d1, d2, N(d1), N(d2) and the discount factor are computed once and
// shared across the price and every Greek. The closed forms used
// (no dividends):
//
//	d1 = (ln(S/K) + (r + σ²/2)·T) / (σ·√T)
//	d2 = d1 - σ·√T
//	call = S·N(d1) - K·e^(-rT)·N(d2)
//	put  = K·e^(-rT)·N(-d2) - S·N(-d1)
//
// Returns ErrInvalidInput when spot, strike, expiry, or volatility is
// non-positive. Extreme but in-domain inputs (very small T, very large σ)
// produce large or degenerate, yet finite, outputs.
func PriceAndGreeks(c Contract) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}

	sqrtT := math.Sqrt(c.TimeToExpiry)
	d1 := (math.Log(c.Spot/c.Strike) + (c.Rate+0.5*c.Volatility*c.Volatility)*c.TimeToExpiry) /
		(c.Volatility * sqrtT)
	d2 := d1 - c.Volatility*sqrtT

	nd1 := normCDF(d1)
	nd2 := normCDF(d2)
	pdf1 := normPDF(d1)
	disc := math.Exp(-c.Rate * c.TimeToExpiry)

	res := Result{
		// Gamma and Vega are identical for calls and puts.
		Gamma: pdf1 / (c.Spot * c.Volatility * sqrtT),
		Vega:  c.Spot * pdf1 * sqrtT,
	}
	decay := -(c.Spot * pdf1 * c.Volatility) / (2 * sqrtT)

	switch c.Type {
	case Call:
		res.Price = c.Spot*nd1 - c.Strike*disc*nd2
		res.Delta = nd1
		res.Theta = decay - c.Rate*c.Strike*disc*nd2
		res.Rho = c.Strike * c.TimeToExpiry * disc * nd2
	default: // Put
		res.Price = c.Strike*disc*(1-nd2) - c.Spot*(1-nd1)
		res.Delta = nd1 - 1
		res.Theta = decay + c.Rate*c.Strike*disc*(1-nd2)
		res.Rho = -c.Strike * c.TimeToExpiry * disc * (1 - nd2)
	}

	return res, nil
}

// Intrinsic returns the exercise value of the contract at its current spot:
// max(S-K, 0) for a call, max(K-S, 0) for a put.
func Intrinsic(c Contract) float64 {
	if c.Type == Call {
		return math.Max(c.Spot-c.Strike, 0)
	}
	return math.Max(c.Strike-c.Spot, 0)
}

// TimeValue returns the portion of the price above intrinsic value.
func (r Result) TimeValue(c Contract) float64 {
	return r.Price - Intrinsic(c)
}

// atmBand is the relative spot/strike distance treated as at-the-money.
const atmBand = 0.02

// Moneyness classifies the contract as "ITM", "ATM", or "OTM".
// Spot within 2% of strike counts as at-the-money.
func Moneyness(c Contract) string {
	if c.Spot > 0 && math.Abs(c.Spot-c.Strike)/c.Spot < atmBand {
		return "ATM"
	}
	if Intrinsic(c) > 0 {
		return "ITM"
	}
	return "OTM"
}

// normPDF is the standard normal density: exp(-x²/2) / √(2π).
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// normCDF is the standard normal cumulative distribution function,
// computed from the error function. Accurate to well under 1e-9.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
