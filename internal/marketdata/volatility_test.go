package marketdata

import (
	"math"
	"testing"
	"time"
)

func barsFromCloses(closes []float64) []Bar {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return bars
}

func TestLogReturns(t *testing.T) {
	returns := LogReturns([]float64{100, 110, 99})
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	if math.Abs(returns[0]-math.Log(1.1)) > 1e-12 {
		t.Errorf("first return = %g, want ln(1.1)", returns[0])
	}
	if math.Abs(returns[1]-math.Log(0.9)) > 1e-12 {
		t.Errorf("second return = %g, want ln(0.9)", returns[1])
	}
	if LogReturns([]float64{100}) != nil {
		t.Error("expected nil for a single close")
	}
}

func TestAnnualizedVolatilityConstantSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	vol, err := AnnualizedVolatility(barsFromCloses(closes), 21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 0 {
		t.Errorf("constant series volatility = %g, want 0", vol)
	}
}

// Alternating +1%/-1% daily moves have a known sample stddev.
func TestAnnualizedVolatilityKnownSeries(t *testing.T) {
	closes := []float64{100}
	for i := 0; i < 20; i++ {
		last := closes[len(closes)-1]
		if i%2 == 0 {
			closes = append(closes, last*1.01)
		} else {
			closes = append(closes, last*0.99)
		}
	}
	vol, err := AnnualizedVolatility(barsFromCloses(closes), 21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Daily log returns alternate between ln(1.01) and ln(0.99);
	// compute the expected sample stddev directly.
	up, down := math.Log(1.01), math.Log(0.99)
	n := 20.0
	mean := (up + down) / 2
	variance := (10*math.Pow(up-mean, 2) + 10*math.Pow(down-mean, 2)) / (n - 1)
	want := math.Sqrt(variance) * math.Sqrt(252)

	if math.Abs(vol-want) > 1e-9 {
		t.Errorf("volatility = %.10f, want %.10f", vol, want)
	}
}

func TestAnnualizedVolatilityTrimsToWindow(t *testing.T) {
	// Wild swings outside the window must not affect the estimate.
	closes := []float64{10, 500, 3, 800, 20}
	for i := 0; i < 21; i++ {
		closes = append(closes, 100)
	}
	vol, err := AnnualizedVolatility(barsFromCloses(closes), 21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 0 {
		t.Errorf("expected 0 volatility inside the flat window, got %g", vol)
	}
}

func TestAnnualizedVolatilityValidation(t *testing.T) {
	if _, err := AnnualizedVolatility(barsFromCloses([]float64{100, 101}), 21); err == nil {
		t.Error("expected error for insufficient history")
	}
	if _, err := AnnualizedVolatility(barsFromCloses(make([]float64, 30)), 21); err == nil {
		t.Error("expected error for non-positive closes")
	}
	if _, err := AnnualizedVolatility(barsFromCloses([]float64{100, 101, 102}), 1); err == nil {
		t.Error("expected error for window below 2")
	}
}
