package market

import (
	"context"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	errs "stockcrawler/pkg/errors"
	"stockcrawler/pkg/logger"
	"stockcrawler/pkg/retry"
)

// barIterator is the subset of *chart.Iter the provider consumes
type barIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
	Meta() finance.ChartMeta
}

// YahooProvider fetches daily bars from the Yahoo Finance chart API
type YahooProvider struct {
	chart  func(*chart.Params) barIterator
	now    func() time.Time
	retry  *retry.Config
	logger logger.Logger
}

// NewYahooProvider creates a Yahoo Finance provider
func NewYahooProvider(retryCfg *retry.Config, log logger.Logger) *YahooProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &YahooProvider{
		chart:  func(p *chart.Params) barIterator { return chart.Get(p) },
		now:    time.Now,
		retry:  retryCfg,
		logger: log,
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string { return "yahoo" }

// FetchHistory returns every daily bar from 1970 up to today
func (p *YahooProvider) FetchHistory(ctx context.Context, symbol string) ([]Bar, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) ([]Bar, error) {
		return p.fetchOnce(ctx, symbol)
	}, p.retry)
}

func (p *YahooProvider) fetchOnce(ctx context.Context, symbol string) ([]Bar, error) {
	today := p.now().UTC().AddDate(0, 0, 1)
	params := &chart.Params{
		Symbol:   symbol,
		Interval: datetime.OneDay,
		Start:    &datetime.Datetime{Year: 1970, Month: 1, Day: 2},
		End:      &datetime.Datetime{Year: today.Year(), Month: int(today.Month()), Day: today.Day()},
	}
	params.Context = &ctx

	iter := p.chart(params)
	var (
		bars []Bar
		loc  *time.Location
	)
	for iter.Next() {
		b := iter.Bar()
		if b == nil || nullBar(b) {
			continue
		}
		if loc == nil {
			loc = exchangeLocation(iter.Meta())
		}
		local := time.Unix(int64(b.Timestamp), 0).In(loc)
		bars = append(bars, Bar{
			Date:  time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		})
	}

	if err := iter.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyYahooError(symbol, err)
	}

	p.logger.DebugWithFields("yahoo chart fetched", map[string]interface{}{
		"symbol": symbol,
		"bars":   len(bars),
	})
	return bars, nil
}

// exchangeLocation returns the exchange timezone of a chart response. Daily
// timestamps mark the session open, so the trading day is the exchange-local
// date of the timestamp.
func exchangeLocation(meta finance.ChartMeta) *time.Location {
	if meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone(meta.ExchangeName, meta.Gmtoffset)
}

// nullBar reports a bar whose quotes were all null in the response. The chart
// client decodes null as zero; such rows are halted days or an unfinished
// session.
func nullBar(b *finance.ChartBar) bool {
	return b.Open.IsZero() && b.High.IsZero() && b.Low.IsZero() && b.Close.IsZero()
}

// classifyYahooError turns chart API failures into typed errors
func classifyYahooError(symbol string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no data"), strings.Contains(msg, "delisted"):
		return errs.New(errs.ErrorTypeNotFound, 404, "%s: %v", symbol, err)
	case strings.Contains(msg, "too many requests"), strings.Contains(msg, "429"):
		return errs.New(errs.ErrorTypeRateLimit, 429, "%s: %v", symbol, err)
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "401"):
		return errs.New(errs.ErrorTypeAuth, 401, "%s: %v", symbol, err)
	default:
		return errs.New(errs.ErrorTypeNetwork, 0, "%s: %v", symbol, err)
	}
}
