package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	errs "stockcrawler/pkg/errors"
)

// FixtureProvider serves history from {dir}/{SYMBOL}.csv files. A missing
// file means the symbol has no data. Columns are located by header name
// (Date, Open, High, Low, Close, case-insensitive); extra columns such as
// Volume are ignored.
type FixtureProvider struct {
	dir string
}

// NewFixtureProvider creates a provider reading CSV files from dir
func NewFixtureProvider(dir string) *FixtureProvider {
	return &FixtureProvider{dir: dir}
}

// Name returns the provider name
func (p *FixtureProvider) Name() string { return "fixture" }

// FetchHistory reads the fixture file for symbol
func (p *FixtureProvider) FetchHistory(ctx context.Context, symbol string) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(p.dir, symbol+".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses a Date,Open,High,Low,Close CSV stream
func ReadCSV(r io.Reader) ([]Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "read header: %v", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	idx := make([]int, 0, 5)
	for _, name := range []string{"date", "open", "high", "low", "close"} {
		i, ok := cols[name]
		if !ok {
			return nil, errs.New(errs.ErrorTypeParsing, 0, "missing %s column", name)
		}
		idx = append(idx, i)
	}

	var bars []Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.New(errs.ErrorTypeParsing, 0, "line %d: %v", line, err)
		}

		field := func(k int) string {
			if idx[k] >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx[k]])
		}

		date, err := parseDate(field(0))
		if err != nil {
			return nil, errs.New(errs.ErrorTypeParsing, 0, "line %d: bad date %q", line, field(0))
		}

		var prices [4]decimal.Decimal
		for k := 1; k <= 4; k++ {
			d, err := decimal.NewFromString(field(k))
			if err != nil {
				return nil, errs.New(errs.ErrorTypeParsing, 0, "line %d: bad price %q", line, field(k))
			}
			prices[k-1] = d
		}

		bars = append(bars, Bar{Date: date, Open: prices[0], High: prices[1], Low: prices[2], Close: prices[3]})
	}
	return bars, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
