package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/optiprice/optiprice/internal/logger"
)

// Options are the fetch policy knobs. The defaults mirror the tuned
// values of the original dashboard: 3 months of history, a 1-month
// volatility window, and a 10-second fetch budget.
type Options struct {
	HistoryDays  int           // trading days of history to fetch
	VolWindow    int           // trailing closes used for the volatility estimate
	FetchTimeout time.Duration // upper bound on one snapshot refresh
}

// DefaultOptions returns the standard fetch policy.
func DefaultOptions() Options {
	return Options{
		HistoryDays:  63,
		VolWindow:    21,
		FetchTimeout: 10 * time.Second,
	}
}

// Service is the market-data front the rest of the system talks to. It
// owns the snapshot cache and consults the provider only on a cache miss
// or expiry. A transient fetch failure is retried once before surfacing
// ErrDataUnavailable; a stale cache entry is never served in place of a
// failed refresh.
type Service struct {
	provider Provider
	cache    *Cache
	opts     Options
}

// NewService wires a provider to a snapshot cache.
func NewService(provider Provider, cache *Cache, opts Options) *Service {
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = DefaultOptions().HistoryDays
	}
	if opts.VolWindow <= 0 {
		opts.VolWindow = DefaultOptions().VolWindow
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultOptions().FetchTimeout
	}
	return &Service{provider: provider, cache: cache, opts: opts}
}

// Cache exposes the owned snapshot cache, mainly so tests and shutdown
// paths can Reset it.
func (s *Service) Cache() *Cache { return s.cache }

// GetSnapshot returns a live market snapshot for the ticker.
//
// A live cached snapshot is returned without any upstream call. Otherwise
// the snapshot is refetched: history bars, a current price, ticker
// details, and a trailing volatility estimate. The whole refresh is
// bounded by the configured fetch timeout.
func (s *Service) GetSnapshot(ctx context.Context, ticker string) (Snapshot, error) {
	if ticker == "" {
		return Snapshot{}, fmt.Errorf("%w: empty ticker", ErrDataUnavailable)
	}

	cached, state := s.cache.Lookup(ticker)
	if state == Hit {
		logger.Debugf("cache hit for %s (fetched %s)", ticker, cached.FetchedAt.Format(time.RFC3339))
		return cached, nil
	}
	logger.Debugf("cache %s for %s, refetching", state, ticker)

	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	snap, err := s.fetch(ctx, ticker)
	if err != nil {
		// One retry covers transient upstream hiccups; anything beyond
		// that is the caller's decision.
		logger.Debugf("fetch %s failed, retrying once: %v", ticker, err)
		snap, err = s.fetch(ctx, ticker)
		if err != nil {
			return Snapshot{}, fmt.Errorf("snapshot for %s: %w", ticker, err)
		}
	}

	stored := s.cache.Put(snap)
	logger.Infof("snapshot refreshed for %s via %s: price=%.2f vol=%.4f",
		ticker, s.provider.Name(), stored.Price, stored.Volatility)
	return stored, nil
}

// fetch performs one full snapshot assembly against the provider.
func (s *Service) fetch(ctx context.Context, ticker string) (Snapshot, error) {
	bars, err := s.provider.DailyBars(ctx, ticker, s.opts.HistoryDays)
	if err != nil {
		return Snapshot{}, err
	}

	vol, err := AnnualizedVolatility(bars, s.opts.VolWindow)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	price, err := s.provider.CurrentPrice(ctx, ticker)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Ticker:     ticker,
		Price:      price,
		Volatility: vol,
	}

	// Descriptive fields are display-only; a failure here downgrades to
	// the bare ticker rather than failing the snapshot, matching how the
	// original treated missing company info.
	if details, err := s.provider.TickerDetails(ctx, ticker); err != nil {
		logger.Debugf("ticker details for %s unavailable: %v", ticker, err)
		snap.Name = ticker
	} else {
		snap.Name = details.Name
		snap.MarketCap = details.MarketCap
		snap.Currency = details.Currency
	}

	return snap, nil
}
