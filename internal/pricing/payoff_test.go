package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestPayoffCurveCall(t *testing.T) {
	c := Contract{Strike: 100, Type: Call}
	premium := 5.0
	points, err := PayoffCurve(c, premium, Range{Min: 70, Max: 130, Steps: 61})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 61 {
		t.Fatalf("expected 61 points, got %d", len(points))
	}
	for _, p := range points {
		want := math.Max(p.Spot-100, 0) - premium
		if math.Abs(p.Profit-want) > 1e-12 {
			t.Errorf("call profit at %g = %g, want %g", p.Spot, p.Profit, want)
		}
		if math.Abs(p.Intrinsic-math.Max(p.Spot-100, 0)) > 1e-12 {
			t.Errorf("call intrinsic at %g = %g", p.Spot, p.Intrinsic)
		}
	}
	// Below the strike the loss is capped at the premium.
	if points[0].Profit != -premium {
		t.Errorf("deep OTM profit = %g, want %g", points[0].Profit, -premium)
	}
}

func TestPayoffCurvePut(t *testing.T) {
	c := Contract{Strike: 100, Type: Put}
	premium := 3.5
	points, err := PayoffCurve(c, premium, Range{Min: 70, Max: 130, Steps: 61})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range points {
		want := math.Max(100-p.Spot, 0) - premium
		if math.Abs(p.Profit-want) > 1e-12 {
			t.Errorf("put profit at %g = %g, want %g", p.Spot, p.Profit, want)
		}
	}
}

func TestPayoffValidation(t *testing.T) {
	rng := Range{Min: 70, Max: 130, Steps: 10}
	if _, err := PayoffCurve(Contract{Strike: 0, Type: Call}, 1, rng); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero strike, got %v", err)
	}
	if _, err := PayoffCurve(Contract{Strike: 100, Type: Call}, -1, rng); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative premium, got %v", err)
	}
	if _, err := PayoffCurve(Contract{Strike: 100, Type: Call}, 1, Range{Min: 5, Max: 1, Steps: 10}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad range, got %v", err)
	}
}

func TestBreakEven(t *testing.T) {
	call := Contract{Strike: 100, Type: Call}
	be, err := BreakEven(call, 5)
	if err != nil || be != 105 {
		t.Errorf("call break-even = %g, %v; want 105", be, err)
	}

	put := Contract{Strike: 100, Type: Put}
	be, err = BreakEven(put, 5)
	if err != nil || be != 95 {
		t.Errorf("put break-even = %g, %v; want 95", be, err)
	}

	// A put premium above the strike cannot break even; floor at zero.
	be, err = BreakEven(Contract{Strike: 2, Type: Put}, 5)
	if err != nil || be != 0 {
		t.Errorf("floored put break-even = %g, %v; want 0", be, err)
	}

	if _, err := BreakEven(call, -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative premium, got %v", err)
	}
}

// The break-even point is where the payoff curve crosses zero.
func TestBreakEvenMatchesPayoff(t *testing.T) {
	c := Contract{Strike: 100, Type: Call}
	premium := 4.25
	be, err := BreakEven(c, premium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profit := math.Max(be-c.Strike, 0) - premium
	if math.Abs(profit) > 1e-12 {
		t.Errorf("profit at break-even = %g, want 0", profit)
	}
}
