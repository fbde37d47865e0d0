package market

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one trading day of price history
type Bar struct {
	Date  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// Provider fetches the full daily price history of a symbol. An unknown
// symbol yields either an empty slice or a not_found error.
type Provider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string) ([]Bar, error)
}

// Normalize truncates bar dates to midnight UTC of the calendar day they carry,
// sorts ascending and drops duplicate days, keeping the last bar seen for a
// day. The day is read in the date's own location, so providers set Date in
// the exchange timezone (or already at the trading day) before calling it.
func Normalize(bars []Bar) []Bar {
	if len(bars) == 0 {
		return nil
	}

	byDay := make(map[time.Time]Bar, len(bars))
	for _, b := range bars {
		y, m, d := b.Date.Date()
		b.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		byDay[b.Date] = b
	}

	out := make([]Bar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
