package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/optiprice/optiprice/internal/logger"
)

// massiveProvider implements Provider against the Massive HTTP APIs using
// raw HTTP calls (the aggregates and reference endpoints are stable and
// small enough that the official SDK buys nothing here).
type massiveProvider struct {
	apiKey  string
	client  *http.Client
	baseURL string

	// retryBackoff is the pause before the single 429 retry.
	retryBackoff time.Duration
}

// NewMassiveProvider constructs a Massive-backed provider. The timeout
// bounds every request; a request that outlives it surfaces
// ErrDataUnavailable rather than hanging the caller.
func NewMassiveProvider(apiKey string, timeout time.Duration) Provider {
	logger.Infof("initializing Massive data provider")
	return &massiveProvider{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      "https://api.massive.com",
		retryBackoff: 2 * time.Second,
	}
}

func (p *massiveProvider) Name() string { return "massive" }

// massiveAggsResp models the aggregates (bars) response.
type massiveAggsResp struct {
	Ticker  string `json:"ticker"`
	Results []struct {
		Open      float64 `json:"o"`
		Close     float64 `json:"c"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Volume    float64 `json:"v"`
		Timestamp int64   `json:"t"` // epoch millis
	} `json:"results"`
	Status string `json:"status"`
}

// massiveTickerResp models the reference ticker details response.
type massiveTickerResp struct {
	Results struct {
		Name         string  `json:"name"`
		MarketCap    float64 `json:"market_cap"`
		CurrencyName string  `json:"currency_name"`
	} `json:"results"`
	Status string `json:"status"`
}

func (p *massiveProvider) DailyBars(ctx context.Context, ticker string, days int) ([]Bar, error) {
	// Request a calendar span wide enough to cover weekends and holidays,
	// then trim to the requested trading-day count.
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -(days*7/5 + 7))

	url := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000&apiKey=%s",
		p.baseURL, ticker,
		from.Format("2006-01-02"), to.Format("2006-01-02"),
		p.apiKey,
	)

	var body massiveAggsResp
	if err := p.getJSON(ctx, url, &body); err != nil {
		return nil, fmt.Errorf("massive daily bars for %s: %w", ticker, err)
	}
	if len(body.Results) == 0 {
		return nil, fmt.Errorf("%w: no bars returned for %s", ErrDataUnavailable, ticker)
	}

	logger.Tracef("bars received: %d records for %s", len(body.Results), ticker)

	out := make([]Bar, 0, len(body.Results))
	for _, r := range body.Results {
		out = append(out, Bar{
			Date:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	if len(out) > days {
		out = out[len(out)-days:]
	}
	return out, nil
}

func (p *massiveProvider) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true&apiKey=%s", p.baseURL, ticker, p.apiKey)

	var body massiveAggsResp
	if err := p.getJSON(ctx, url, &body); err != nil {
		return 0, fmt.Errorf("massive current price for %s: %w", ticker, err)
	}
	if len(body.Results) == 0 || body.Results[0].Close <= 0 {
		return 0, fmt.Errorf("%w: no price data for %s", ErrDataUnavailable, ticker)
	}
	return body.Results[0].Close, nil
}

func (p *massiveProvider) TickerDetails(ctx context.Context, ticker string) (Details, error) {
	url := fmt.Sprintf("%s/v3/reference/tickers/%s?apiKey=%s", p.baseURL, ticker, p.apiKey)

	var body massiveTickerResp
	if err := p.getJSON(ctx, url, &body); err != nil {
		return Details{}, fmt.Errorf("massive ticker details for %s: %w", ticker, err)
	}
	return Details{
		Name:      body.Results.Name,
		MarketCap: body.Results.MarketCap,
		Currency:  body.Results.CurrencyName,
	}, nil
}

// getJSON executes a GET request and decodes the JSON body into out.
//
// A 429 is retried exactly once after a fixed backoff; every other
// failure (transport error, timeout, non-200 status) maps to
// ErrDataUnavailable immediately.
func (p *massiveProvider) getJSON(ctx context.Context, url string, out any) error {
	logger.Debugf("massive request URL: %s", url)

	retried := false
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("%w: creating request: %v", ErrDataUnavailable, err)
		}
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "optiprice/1.0")

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && !retried {
			resp.Body.Close()
			retried = true
			logger.Infof("rate limit hit, retrying once after %s", p.retryBackoff)
			select {
			case <-time.After(p.retryBackoff):
				continue
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrDataUnavailable, ctx.Err())
			}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: reading body: %v", ErrDataUnavailable, err)
		}

		if resp.StatusCode != http.StatusOK {
			var dbg struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(body, &dbg)
			logger.Errorf("massive API error status=%d message=%s", resp.StatusCode, dbg.Message)
			return fmt.Errorf("%w: status %d: %s", ErrDataUnavailable, resp.StatusCode, dbg.Message)
		}

		if len(body) == 0 {
			return fmt.Errorf("%w: empty response body", ErrDataUnavailable)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: decode: %v", ErrDataUnavailable, err)
		}
		return nil
	}
}
