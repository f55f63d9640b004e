package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/optiprice/optiprice/internal/config"
	"github.com/optiprice/optiprice/internal/logger"
	"github.com/optiprice/optiprice/internal/marketdata"
	"github.com/optiprice/optiprice/internal/pricing"
)

// report is the one-shot output document: everything the dashboard shows
// for a single evaluation.
type report struct {
	Snapshot  marketdata.Snapshot   `json:"snapshot"`
	Contract  pricing.Contract      `json:"contract"`
	Result    pricing.Result        `json:"result"`
	Moneyness string                `json:"moneyness"`
	TimeValue float64               `json:"time_value"`
	BreakEven float64               `json:"break_even"`
	Sweep     []pricing.SweepPoint  `json:"sweep,omitempty"`
	Payoff    []pricing.PayoffPoint `json:"payoff,omitempty"`
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	ticker := flag.String("ticker", "AAPL", "underlying ticker symbol")
	optType := flag.String("type", "call", "option type: call or put")
	strike := flag.Float64("strike", 0, "strike price (0 = at-the-money)")
	days := flag.Int("days", 30, "days to expiry (1-365)")
	vol := flag.Float64("vol", 0, "volatility override (0 = market estimate)")
	rate := flag.Float64("rate", -1, "risk-free rate override (-1 = config default)")
	curves := flag.Bool("curves", false, "include sweep and payoff series in the output")
	verbosity := flag.Int("v", 1, "verbosity: 0=error 1=info 2=debug 3=trace")
	rest := flag.Bool("rest", false, "run as REST server")
	port := flag.String("port", ":8080", "REST server listen address")
	flag.Parse()

	logger.SetVerbosity(*verbosity)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	svc := newService(cfg)

	if *rest {
		serve(svc, cfg, *port)
		return
	}

	r := *rate
	if r < 0 {
		r = cfg.Pricing.RiskFreeRate
	}
	rep, err := evaluate(context.Background(), svc, request{
		Ticker: *ticker,
		Type:   *optType,
		Strike: *strike,
		Days:   *days,
		Vol:    *vol,
		Rate:   r,
		Curves: *curves,
	})
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Fatalf("encoding output: %v", err)
	}
}

func newService(cfg *config.Config) *marketdata.Service {
	var provider marketdata.Provider
	switch cfg.DataSource.Provider {
	case "massive":
		provider = marketdata.NewMassiveProvider(cfg.DataSource.APIKey, cfg.Fetch.Timeout.Std())
	case "synthetic":
		provider = marketdata.NewSyntheticProvider()
	default:
		provider = marketdata.NewYahooProvider(cfg.Fetch.Timeout.Std())
	}
	logger.Infof("data source: %s", provider.Name())

	cache := marketdata.NewCache(cfg.Cache.TTL.Std())
	return marketdata.NewService(provider, cache, marketdata.Options{
		HistoryDays:  cfg.Fetch.HistoryDays,
		VolWindow:    cfg.Fetch.VolWindowDays,
		FetchTimeout: cfg.Fetch.Timeout.Std(),
	})
}

// request carries one evaluation's inputs from either front end.
type request struct {
	Ticker string
	Type   string
	Strike float64
	Days   int
	Vol    float64
	Rate   float64
	Curves bool
}

// evaluate fetches a snapshot, assembles the contract, and prices it.
func evaluate(ctx context.Context, svc *marketdata.Service, req request) (*report, error) {
	if req.Days < 1 || req.Days > 365 {
		return nil, fmt.Errorf("%w: days to expiry must be 1-365, got %d", pricing.ErrInvalidInput, req.Days)
	}
	typ, err := pricing.ParseOptionType(req.Type)
	if err != nil {
		return nil, err
	}

	snap, err := svc.GetSnapshot(ctx, req.Ticker)
	if err != nil {
		return nil, err
	}

	strike := req.Strike
	if strike == 0 {
		strike = snap.Price // at-the-money default
	}
	vol := req.Vol
	if vol == 0 {
		vol = snap.Volatility
	}

	contract := pricing.Contract{
		Spot:         snap.Price,
		Strike:       strike,
		TimeToExpiry: float64(req.Days) / 365.0,
		Volatility:   vol,
		Rate:         req.Rate,
		Type:         typ,
	}
	res, err := pricing.PriceAndGreeks(contract)
	if err != nil {
		return nil, err
	}
	breakEven, err := pricing.BreakEven(contract, res.Price)
	if err != nil {
		return nil, err
	}

	rep := &report{
		Snapshot:  snap,
		Contract:  contract,
		Result:    res,
		Moneyness: pricing.Moneyness(contract),
		TimeValue: res.TimeValue(contract),
		BreakEven: breakEven,
	}

	if req.Curves {
		if rep.Sweep, err = pricing.Sweep(contract, pricing.DefaultBand(contract.Spot)); err != nil {
			return nil, err
		}
		if rep.Payoff, err = pricing.PayoffCurve(contract, res.Price, pricing.PayoffBand(contract.Spot)); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

// serve exposes the evaluation over HTTP for the external presentation
// layer. Input errors map to 400, upstream data failures to 502.
func serve(svc *marketdata.Service, cfg *config.Config, port string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
		req, err := parseQuery(r, cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rep, err := evaluate(r.Context(), svc, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rep)
	})

	mux.HandleFunc("/sweep", func(w http.ResponseWriter, r *http.Request) {
		req, err := parseQuery(r, cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Curves = true
		rep, err := evaluate(r.Context(), svc, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rep.Sweep)
	})

	mux.HandleFunc("/payoff", func(w http.ResponseWriter, r *http.Request) {
		req, err := parseQuery(r, cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Curves = true
		rep, err := evaluate(r.Context(), svc, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, rep.Payoff)
	})

	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.GetSnapshot(r.Context(), r.URL.Query().Get("ticker"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, snap)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	logger.Infof("starting REST server on %s", port)
	log.Fatal(http.ListenAndServe(port, mux))
}

func parseQuery(r *http.Request, cfg *config.Config) (request, error) {
	q := r.URL.Query()
	req := request{
		Ticker: q.Get("ticker"),
		Type:   q.Get("type"),
		Days:   30,
		Rate:   cfg.Pricing.RiskFreeRate,
		Curves: q.Get("curves") == "true",
	}
	if req.Type == "" {
		req.Type = "call"
	}
	var err error
	if v := q.Get("strike"); v != "" {
		if req.Strike, err = strconv.ParseFloat(v, 64); err != nil {
			return request{}, fmt.Errorf("%w: bad strike %q", pricing.ErrInvalidInput, v)
		}
	}
	if v := q.Get("days"); v != "" {
		if req.Days, err = strconv.Atoi(v); err != nil {
			return request{}, fmt.Errorf("%w: bad days %q", pricing.ErrInvalidInput, v)
		}
	}
	if v := q.Get("vol"); v != "" {
		if req.Vol, err = strconv.ParseFloat(v, 64); err != nil {
			return request{}, fmt.Errorf("%w: bad vol %q", pricing.ErrInvalidInput, v)
		}
	}
	if v := q.Get("rate"); v != "" {
		if req.Rate, err = strconv.ParseFloat(v, 64); err != nil {
			return request{}, fmt.Errorf("%w: bad rate %q", pricing.ErrInvalidInput, v)
		}
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, marketdata.ErrDataUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
