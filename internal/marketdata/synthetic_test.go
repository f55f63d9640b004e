package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSyntheticDeterminism(t *testing.T) {
	p := NewSyntheticProvider()
	a, err := p.DailyBars(context.Background(), "AAPL", 63)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := p.DailyBars(context.Background(), "AAPL", 63)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != 63 || len(b) != 63 {
		t.Fatalf("expected 63 bars, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("series not deterministic at index %d", i)
		}
	}
	for _, bar := range a {
		if h, m, s := bar.Date.Clock(); h != 0 || m != 0 || s != 0 {
			t.Fatalf("bar date %v not normalized to midnight", bar.Date)
		}
	}

	other, err := p.DailyBars(context.Background(), "MSFT", 63)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a[0].Close == other[0].Close && a[10].Close == other[10].Close {
		t.Error("different tickers produced the same walk")
	}
}

func TestSyntheticFeedsService(t *testing.T) {
	cache, _ := newTestCache(5 * time.Minute)
	svc := NewService(NewSyntheticProvider(), cache, DefaultOptions())

	snap, err := svc.GetSnapshot(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Price <= 0 || snap.Volatility <= 0 {
		t.Errorf("implausible synthetic snapshot: %+v", snap)
	}
}

func TestSyntheticEmptyTicker(t *testing.T) {
	p := NewSyntheticProvider()
	if _, err := p.DailyBars(context.Background(), "", 63); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}
