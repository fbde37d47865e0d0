package market

import (
	"context"
	"errors"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "stockcrawler/pkg/errors"
	"stockcrawler/pkg/retry"
)

type fakeIter struct {
	bars []*finance.ChartBar
	meta finance.ChartMeta
	pos  int
	err  error
}

func (f *fakeIter) Next() bool {
	if f.pos >= len(f.bars) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeIter) Bar() *finance.ChartBar  { return f.bars[f.pos-1] }
func (f *fakeIter) Err() error              { return f.err }
func (f *fakeIter) Meta() finance.ChartMeta { return f.meta }

var nyse = finance.ChartMeta{ExchangeName: "NMS", ExchangeTimezoneName: "America/New_York", Gmtoffset: -18000}

func newTestYahoo(iter func(*chart.Params) barIterator) *YahooProvider {
	p := NewYahooProvider(&retry.Config{MaxAttempts: 1}, nil)
	p.chart = iter
	p.now = func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestYahooFetchHistory(t *testing.T) {
	var got *chart.Params
	p := newTestYahoo(func(params *chart.Params) barIterator {
		got = params
		return &fakeIter{meta: nyse, bars: []*finance.ChartBar{
			{Timestamp: 1704205800, Open: dec("187.15"), High: dec("188.44"), Low: dec("183.89"), Close: dec("185.64")},
			nil,
			{Timestamp: 1704292200, Open: dec("184.22"), High: dec("185.88"), Low: dec("183.43"), Close: dec("184.25")},
		}}
	})

	bars, err := p.FetchHistory(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	bars = Normalize(bars)
	assert.Equal(t, day("2024-01-02"), bars[0].Date)
	assert.Equal(t, day("2024-01-03"), bars[1].Date)
	assert.True(t, bars[0].Close.Equal(dec("185.64")))

	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, datetime.OneDay, got.Interval)
	assert.Equal(t, 1970, got.Start.Year)
	assert.Equal(t, 2024, got.End.Year)
	assert.Equal(t, 7, got.End.Month)
	assert.Equal(t, 1, got.End.Day)
	require.NotNil(t, got.Context)
}

func TestYahooDatesUseExchangeTimezone(t *testing.T) {
	// 2024-01-15 10:00 NZDT is 2024-01-14 21:00 UTC
	sessionOpen := int(time.Date(2024, 1, 14, 21, 0, 0, 0, time.UTC).Unix())
	bar := &finance.ChartBar{Timestamp: sessionOpen, Open: dec("4.1"), High: dec("4.2"), Low: dec("4.0"), Close: dec("4.15")}

	tests := []struct {
		name string
		meta finance.ChartMeta
	}{
		{"named zone", finance.ChartMeta{ExchangeName: "NZE", ExchangeTimezoneName: "Pacific/Auckland", Gmtoffset: 46800}},
		{"offset only", finance.ChartMeta{ExchangeName: "NZE", Gmtoffset: 46800}},
		{"unknown zone name", finance.ChartMeta{ExchangeName: "NZE", ExchangeTimezoneName: "Nowhere/Atlantis", Gmtoffset: 46800}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestYahoo(func(*chart.Params) barIterator {
				return &fakeIter{meta: tt.meta, bars: []*finance.ChartBar{bar}}
			})

			bars, err := p.FetchHistory(context.Background(), "AIR.NZ")
			require.NoError(t, err)
			require.Len(t, bars, 1)
			assert.Equal(t, day("2024-01-15"), bars[0].Date)
			assert.Equal(t, day("2024-01-15"), Normalize(bars)[0].Date)
		})
	}
}

func TestYahooSkipsNullBars(t *testing.T) {
	p := newTestYahoo(func(*chart.Params) barIterator {
		return &fakeIter{meta: nyse, bars: []*finance.ChartBar{
			{Timestamp: 1704205800, Open: dec("187.15"), High: dec("188.44"), Low: dec("183.89"), Close: dec("185.64")},
			{Timestamp: 1704292200},
			{Timestamp: 1704378600, Open: dec("0"), High: dec("1.5"), Low: dec("0"), Close: dec("1")},
		}}
	})

	bars, err := p.FetchHistory(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, day("2024-01-02"), bars[0].Date)
	assert.Equal(t, day("2024-01-04"), bars[1].Date, "a bar with any non-zero quote is kept")
}

func TestYahooOnlyNullBars(t *testing.T) {
	p := newTestYahoo(func(*chart.Params) barIterator {
		return &fakeIter{bars: []*finance.ChartBar{{Timestamp: 1704292200}}}
	})

	bars, err := p.FetchHistory(context.Background(), "HALT")
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestYahooErrorClassification(t *testing.T) {
	tests := []struct {
		msg  string
		want errs.ErrorType
	}{
		{"remote-error: No data found, symbol may be delisted", errs.ErrorTypeNotFound},
		{"Not Found", errs.ErrorTypeNotFound},
		{"429 Too Many Requests", errs.ErrorTypeRateLimit},
		{"401 Unauthorized", errs.ErrorTypeAuth},
		{"connection reset by peer", errs.ErrorTypeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			p := newTestYahoo(func(*chart.Params) barIterator {
				return &fakeIter{err: errors.New(tt.msg)}
			})
			_, err := p.FetchHistory(context.Background(), "ZZZZ")
			assert.Equal(t, tt.want, errs.TypeOf(err))
		})
	}
}

func TestYahooCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newTestYahoo(func(*chart.Params) barIterator {
		cancel()
		return &fakeIter{err: errors.New("request canceled")}
	})

	_, err := p.FetchHistory(ctx, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)
}
