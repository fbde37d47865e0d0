package market

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	errs "stockcrawler/pkg/errors"
	"stockcrawler/pkg/logger"
	"stockcrawler/pkg/ratelimit"
	"stockcrawler/pkg/retry"
)

// DefaultAlphaVantageURL is the Alpha Vantage query endpoint
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

type alphaVantageDaily struct {
	ErrorMessage string                      `json:"Error Message"`
	Note         string                      `json:"Note"`
	Information  string                      `json:"Information"`
	Series       map[string]alphaVantageOHLC `json:"Time Series (Daily)"`
}

type alphaVantageOHLC struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

// AlphaVantageProvider fetches TIME_SERIES_DAILY with outputsize=full
type AlphaVantageProvider struct {
	client  *Client
	baseURL string
	apiKey  string
	limiter ratelimit.Limiter
	retry   *retry.Config
	logger  logger.Logger
}

// NewAlphaVantageProvider creates an Alpha Vantage provider. A nil limiter
// disables request pacing; a nil retry config uses retry defaults.
func NewAlphaVantageProvider(client *Client, baseURL, apiKey string, limiter ratelimit.Limiter, retryCfg *retry.Config, log logger.Logger) *AlphaVantageProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	return &AlphaVantageProvider{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: limiter,
		retry:   retryCfg,
		logger:  log,
	}
}

// Name returns the provider name
func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

// FetchHistory returns the full daily history of symbol
func (p *AlphaVantageProvider) FetchHistory(ctx context.Context, symbol string) ([]Bar, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("outputsize", "full")
	q.Set("symbol", symbol)
	q.Set("apikey", p.apiKey)
	endpoint := p.baseURL + "?" + q.Encode()

	return retry.DoWithResult(ctx, func(ctx context.Context) ([]Bar, error) {
		if p.limiter != nil {
			start := time.Now()
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			if waited := time.Since(start); waited > time.Millisecond {
				logger.LogRateLimit(p.logger, p.Name(), float64(waited.Milliseconds()))
			}
		}

		var resp alphaVantageDaily
		if err := p.client.GetJSON(ctx, endpoint, &resp); err != nil {
			return nil, err
		}
		return resp.bars(symbol)
	}, p.retry)
}

func (r *alphaVantageDaily) bars(symbol string) ([]Bar, error) {
	switch {
	case r.ErrorMessage != "":
		return nil, errs.New(errs.ErrorTypeNotFound, 0, "%s: %s", symbol, r.ErrorMessage)
	case r.Note != "":
		return nil, errs.New(errs.ErrorTypeRateLimit, 0, "%s", r.Note)
	case r.Information != "":
		return nil, errs.New(errs.ErrorTypeRateLimit, 0, "%s", r.Information)
	}

	bars := make([]Bar, 0, len(r.Series))
	for day, ohlc := range r.Series {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(day))
		if err != nil {
			return nil, errs.New(errs.ErrorTypeParsing, 0, "bad date %q", day)
		}
		bar, err := ohlc.bar(date)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func (o alphaVantageOHLC) bar(date time.Time) (Bar, error) {
	values := make([]decimal.Decimal, 4)
	for i, raw := range []string{o.Open, o.High, o.Low, o.Close} {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return Bar{}, errs.New(errs.ErrorTypeParsing, 0, "bad price %q on %s", raw, date.Format("2006-01-02"))
		}
		values[i] = d
	}
	return Bar{Date: date, Open: values[0], High: values[1], Low: values[2], Close: values[3]}, nil
}
