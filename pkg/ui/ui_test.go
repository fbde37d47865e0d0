package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"stockcrawler/pkg/crawler"
	"stockcrawler/pkg/fetcher"
)

func TestConsoleStatisticsAndEstimate(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(nil, &out)

	plan := crawler.Plan{
		TotalSymbols:     10,
		ValidSymbols:     8,
		AlreadyProcessed: 3,
		Remaining:        make([]string, 900),
		SecondsPerTicker: 2,
	}
	c.Statistics(plan)
	c.Estimate(plan)

	got := out.String()
	assert.Contains(t, got, "Total symbols in file: 10")
	assert.Contains(t, got, "Valid symbols: 8")
	assert.Contains(t, got, "Already processed: 3")
	assert.Contains(t, got, "Remaining to process: 900")
	assert.Contains(t, got, "Estimated time: 30.0 minutes (0.5 hours)")
}

func TestConsoleProgressLines(t *testing.T) {
	tests := []struct {
		name    string
		outcome fetcher.Outcome
		want    string
	}{
		{"exists", fetcher.Outcome{Kind: fetcher.AlreadyPresent}, "[1/3] AAPL     ... ✓ Exists\n"},
		{"saved", fetcher.Outcome{Kind: fetcher.Success, Rows: 250}, "[1/3] AAPL     ... ✓ Saved (250 days)\n"},
		{"no data", fetcher.Outcome{Kind: fetcher.Failure, Reason: fetcher.ReasonNoData}, "[1/3] AAPL     ... No data\n"},
		{"error", fetcher.Outcome{Kind: fetcher.Failure, Reason: "timeout"}, "[1/3] AAPL     ... Error: timeout\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(nil, &out)
			c.TickerStarted(1, 3, "AAPL")
			c.TickerFinished(1, 3, "AAPL", tt.outcome)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestConsoleColorOnlyWhenEnabled(t *testing.T) {
	var plain, colored bytes.Buffer
	NewConsole(nil, &plain).AllProcessed()
	NewConsole(nil, &colored).WithColor(true).AllProcessed()

	assert.NotContains(t, plain.String(), "\033[")
	assert.Contains(t, colored.String(), "\033[32m")
}

func TestConsoleSummary(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(nil, &out)
	c.Summary(crawler.Summary{Succeeded: 5, AlreadyExisted: 2, Failed: 1, Attempted: 8, Elapsed: 2 * time.Minute})

	got := out.String()
	assert.Contains(t, got, "📋 SUMMARY")
	assert.Contains(t, got, "✅ Successfully downloaded: 5")
	assert.Contains(t, got, "ℹ️  Already existed: 2")
	assert.Contains(t, got, "❌ Failed: 1")
	assert.Contains(t, got, "📁 Total files: 7")
	assert.Contains(t, got, "2m00s (4.0 tickers/min)")
	assert.Contains(t, got, "📍 Checkpoint saved - can resume later")

	out.Reset()
	c.Summary(crawler.Summary{CheckpointErr: errors.New("disk full")})
	assert.Contains(t, out.String(), "Checkpoint could not be saved: disk full")
	assert.NotContains(t, out.String(), "can resume later")
}

func TestConsoleCheckpointAndInterrupt(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(nil, &out)
	c.CheckpointSaved(50, 200)
	c.Interrupted()

	got := out.String()
	assert.Contains(t, got, "💾 Checkpoint saved at 50/200")
	assert.Contains(t, got, "⚠️  INTERRUPTED BY USER")
}

func TestConsoleConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"  YES  \n", true},
		{"y", true},
		{"no\n", false},
		{"yep\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		c := NewConsole(strings.NewReader(tt.input), &out)
		assert.Equal(t, tt.want, c.Confirm(), "input %q", tt.input)
		assert.Contains(t, out.String(), "Continue? (yes/no): ")
	}
}

func TestBanner(t *testing.T) {
	var out bytes.Buffer
	NewConsole(nil, &out).Banner("yahoo")
	assert.Contains(t, out.String(), "📈 STOCK MARKET DATA CRAWLER (yahoo)")
	assert.Contains(t, out.String(), Rule)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[██████████] 100%", ProgressBar(5, 5, 10))
	assert.Equal(t, "[█████░░░░░]  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "[░░░░░░░░░░]   0%", ProgressBar(0, 0, 10))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "3s", FormatDuration(3*time.Second))
	assert.Equal(t, "2m03s", FormatDuration(123*time.Second))
	assert.Equal(t, "1h02m03s", FormatDuration(time.Hour+2*time.Minute+3*time.Second))
}

type recordingSender struct {
	titles []string
	err    error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func TestNotifierCrawlFinished(t *testing.T) {
	sender := &recordingSender{}
	var out bytes.Buffer
	n := NewNotifierWithSender(sender, &out)

	assert.NoError(t, n.CrawlFinished(crawler.Summary{Succeeded: 3, Failed: 1}))
	assert.NoError(t, n.CrawlFinished(crawler.Summary{Interrupted: true}))
	assert.Equal(t, []string{"Crawl complete", "Crawl interrupted"}, sender.titles)
	assert.Contains(t, out.String(), "3 saved, 0 existed, 1 failed")

	sender.err = errors.New("no dbus")
	assert.Error(t, n.SendNotification("t", "m"))

	assert.NoError(t, NewNotifierWithSender(nil, nil).SendSuccess("t", "m"))
}

func TestAppleScriptEscape(t *testing.T) {
	assert.Equal(t, `say \"hi\" \\ bye`, appleScriptEscape(`say "hi" \ bye`))
}
