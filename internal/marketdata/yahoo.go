package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/optiprice/optiprice/internal/logger"
)

// yahooProvider implements Provider using the Yahoo Finance public API.
// It needs no API key, which makes it the default source.
type yahooProvider struct {
	client    *http.Client
	baseURL   string
	symbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooProvider creates a Yahoo Finance provider with the given
// per-request timeout.
func NewYahooProvider(timeout time.Duration) Provider {
	return &yahooProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://query1.finance.yahoo.com",
		symbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (p *yahooProvider) Name() string { return "yahoo" }

func (p *yahooProvider) yahooSymbol(ticker string) string {
	if mapped, ok := p.symbolMap[ticker]; ok {
		return mapped
	}
	return ticker
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				Currency           string  `json:"currency"`
				LongName           string  `json:"longName"`
				MarketCap          float64 `json:"marketCap"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v any) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// rangeFor maps a trading-day count onto Yahoo's coarse range buckets.
func rangeFor(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	}
	return "2y"
}

func (p *yahooProvider) fetchChart(ctx context.Context, ticker, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		p.baseURL, url.PathEscape(p.yahooSymbol(ticker)), interval, rng)
	logger.Debugf("yahoo request URL: %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrDataUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo fetch: %v", ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo read body: %v", ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: yahoo status %d", ErrDataUnavailable, resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: yahoo decode: %v", ErrDataUnavailable, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", ErrDataUnavailable, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no result for %s", ErrDataUnavailable, ticker)
	}
	return &chart, nil
}

func (p *yahooProvider) DailyBars(ctx context.Context, ticker string, days int) ([]Bar, error) {
	chart, err := p.fetchChart(ctx, ticker, "1d", rangeFor(days))
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no bars for %s", ErrDataUnavailable, ticker)
	}

	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) < n || len(quote.High) < n || len(quote.Low) < n ||
		len(quote.Close) < n || len(quote.Volume) < n {
		return nil, fmt.Errorf("%w: yahoo quote series shorter than timestamps for %s", ErrDataUnavailable, ticker)
	}
	bars := make([]Bar, 0, n)
	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, Bar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	logger.Tracef("yahoo bars: %d records for %s", len(bars), ticker)
	return bars, nil
}

func (p *yahooProvider) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	chart, err := p.fetchChart(ctx, ticker, "1d", "1d")
	if err != nil {
		return 0, err
	}
	result := chart.Chart.Result[0]
	if result.Meta.RegularMarketPrice > 0 {
		return result.Meta.RegularMarketPrice, nil
	}
	// Fall back to the last close when the meta quote is missing.
	if len(result.Timestamp) > 0 && len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if c := toFloat(closes[i]); c > 0 {
				return c, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: yahoo has no price for %s", ErrDataUnavailable, ticker)
}

func (p *yahooProvider) TickerDetails(ctx context.Context, ticker string) (Details, error) {
	chart, err := p.fetchChart(ctx, ticker, "1d", "1d")
	if err != nil {
		return Details{}, err
	}
	meta := chart.Chart.Result[0].Meta
	name := meta.LongName
	if name == "" {
		name = ticker
	}
	return Details{
		Name:      name,
		MarketCap: meta.MarketCap,
		Currency:  meta.Currency,
	}, nil
}
