// Package marketdata fetches and caches the market inputs the pricing
// engine needs: current price, trailing historical closes, a derived
// volatility estimate, and descriptive ticker details.
//
// The only stateful piece is the TTL snapshot cache owned by Service;
// providers themselves are stateless HTTP clients.
package marketdata

import (
	"context"
	"errors"
	"time"
)

// ErrDataUnavailable reports that a ticker is unknown, the upstream source
// is unreachable, or it returned an error or timed out. Callers recover by
// retrying later or falling back to manually supplied inputs.
var ErrDataUnavailable = errors.New("market data unavailable")

// Bar is a single daily OHLCV candle.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Details holds descriptive fields about a ticker for display.
type Details struct {
	Name      string
	MarketCap float64
	Currency  string
}

// Provider supplies market data for a ticker symbol. Implementations are
// remote-backed and may be slow or failing; every method honors the
// context deadline and wraps upstream failures in ErrDataUnavailable.
type Provider interface {
	// CurrentPrice returns the latest traded or closing price.
	CurrentPrice(ctx context.Context, ticker string) (float64, error)

	// DailyBars returns up to the most recent `days` daily bars in
	// ascending date order.
	DailyBars(ctx context.Context, ticker string, days int) ([]Bar, error)

	// TickerDetails returns descriptive fields. Implementations may leave
	// fields they cannot source at their zero values.
	TickerDetails(ctx context.Context, ticker string) (Details, error)

	// Name identifies the provider ("massive", "yahoo", "synthetic").
	Name() string
}

// closes extracts the close series from a bar slice.
func closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
