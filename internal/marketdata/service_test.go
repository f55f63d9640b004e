package marketdata

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubProvider scripts provider behavior per call for Service tests.
type stubProvider struct {
	bars      []Bar
	price     float64
	details   Details
	failFirst int // number of leading DailyBars calls that fail
	barsCalls int
	unknown   bool // simulate an unknown ticker
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) DailyBars(_ context.Context, ticker string, _ int) ([]Bar, error) {
	p.barsCalls++
	if p.unknown {
		return nil, fmt.Errorf("%w: no bars returned for %s", ErrDataUnavailable, ticker)
	}
	if p.barsCalls <= p.failFirst {
		return nil, fmt.Errorf("%w: upstream timeout", ErrDataUnavailable)
	}
	return p.bars, nil
}

func (p *stubProvider) CurrentPrice(_ context.Context, ticker string) (float64, error) {
	if p.unknown {
		return 0, fmt.Errorf("%w: no price data for %s", ErrDataUnavailable, ticker)
	}
	return p.price, nil
}

func (p *stubProvider) TickerDetails(_ context.Context, _ string) (Details, error) {
	return p.details, nil
}

func steadyBars(n int) []Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i%3) // mild, positive wiggle
	}
	return barsFromCloses(closes)
}

func newTestService(p Provider) (*Service, *fakeClock) {
	cache, clock := newTestCache(5 * time.Minute)
	svc := NewService(p, cache, DefaultOptions())
	return svc, clock
}

func TestGetSnapshotPopulatesFields(t *testing.T) {
	stub := &stubProvider{
		bars:    steadyBars(63),
		price:   213.55,
		details: Details{Name: "Apple Inc.", MarketCap: 3.2e12, Currency: "USD"},
	}
	svc, _ := newTestService(stub)

	snap, err := svc.GetSnapshot(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Ticker != "AAPL" || snap.Price != 213.55 {
		t.Errorf("snapshot core fields wrong: %+v", snap)
	}
	if snap.Volatility <= 0 {
		t.Errorf("expected positive volatility, got %g", snap.Volatility)
	}
	if snap.Name != "Apple Inc." || snap.MarketCap != 3.2e12 || snap.Currency != "USD" {
		t.Errorf("details not carried into snapshot: %+v", snap)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("snapshot missing FetchedAt stamp")
	}
}

// Two calls inside the TTL return the identical snapshot with no refetch.
func TestGetSnapshotCacheHit(t *testing.T) {
	stub := &stubProvider{bars: steadyBars(63), price: 100}
	svc, clock := newTestService(stub)

	first, err := svc.GetSnapshot(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.advance(time.Minute)

	second, err := svc.GetSnapshot(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.FetchedAt.Equal(first.FetchedAt) {
		t.Errorf("timestamps differ across cache hit: %v vs %v", first.FetchedAt, second.FetchedAt)
	}
	if stub.barsCalls != 1 {
		t.Errorf("expected exactly one upstream fetch, got %d", stub.barsCalls)
	}
}

// Past the TTL the snapshot must be refetched, not silently reused.
func TestGetSnapshotExpiryForcesRefetch(t *testing.T) {
	stub := &stubProvider{bars: steadyBars(63), price: 100}
	svc, clock := newTestService(stub)

	first, err := svc.GetSnapshot(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.advance(6 * time.Minute)

	second, err := svc.GetSnapshot(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.FetchedAt.Equal(first.FetchedAt) {
		t.Error("expired snapshot was reused")
	}
	if stub.barsCalls != 2 {
		t.Errorf("expected a second upstream fetch after expiry, got %d calls", stub.barsCalls)
	}
}

func TestGetSnapshotUnknownTicker(t *testing.T) {
	svc, _ := newTestService(&stubProvider{unknown: true})

	_, err := svc.GetSnapshot(context.Background(), "NOPE")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if _, state := svc.Cache().Lookup("NOPE"); state != Miss {
		t.Error("failed fetch must not leave a cache entry")
	}
}

func TestGetSnapshotEmptyTicker(t *testing.T) {
	svc, _ := newTestService(&stubProvider{})
	if _, err := svc.GetSnapshot(context.Background(), ""); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

// One transient failure is absorbed by the single retry.
func TestGetSnapshotRetriesOnce(t *testing.T) {
	stub := &stubProvider{bars: steadyBars(63), price: 100, failFirst: 1}
	svc, _ := newTestService(stub)

	if _, err := svc.GetSnapshot(context.Background(), "AAPL"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if stub.barsCalls != 2 {
		t.Errorf("expected 2 DailyBars calls, got %d", stub.barsCalls)
	}
}

// Two consecutive failures surface the error; no third attempt.
func TestGetSnapshotGivesUpAfterRetry(t *testing.T) {
	stub := &stubProvider{bars: steadyBars(63), price: 100, failFirst: 5}
	svc, _ := newTestService(stub)

	_, err := svc.GetSnapshot(context.Background(), "AAPL")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if stub.barsCalls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", stub.barsCalls)
	}
}

// Insufficient history is a data error, never a zero-filled snapshot.
func TestGetSnapshotInsufficientHistory(t *testing.T) {
	stub := &stubProvider{bars: steadyBars(5), price: 100}
	svc, _ := newTestService(stub)

	_, err := svc.GetSnapshot(context.Background(), "THIN")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable for thin history, got %v", err)
	}
}
