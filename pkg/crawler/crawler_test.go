package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stockcrawler/pkg/checkpoint"
	errs "stockcrawler/pkg/errors"
	"stockcrawler/pkg/fetcher"
	"stockcrawler/pkg/logger"
	"stockcrawler/pkg/market"
	"stockcrawler/pkg/storage"
)

var runDate = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

// memStore is an in-memory checkpoint.Store that records every save
type memStore struct {
	set     checkpoint.Set
	saves   []int
	loadErr error
	saveErr error
}

func newMemStore(symbols ...string) *memStore {
	return &memStore{set: checkpoint.NewSet(symbols...)}
}

func (m *memStore) Load() (checkpoint.Set, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return checkpoint.NewSet(m.set.Sorted()...), nil
}

func (m *memStore) Save(s checkpoint.Set) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, s.Len())
	m.set = checkpoint.NewSet(s.Sorted()...)
	return nil
}

func (m *memStore) Clear() error     { m.set = checkpoint.NewSet(); return nil }
func (m *memStore) Location() string { return "memory" }
func (m *memStore) Close() error     { return nil }

// scriptedFetcher returns canned outcomes and records call order
type scriptedFetcher struct {
	outcomes map[string]fetcher.Outcome
	calls    []string
	onFetch  func(n int)
}

func (f *scriptedFetcher) Fetch(ctx context.Context, ticker string) fetcher.Outcome {
	f.calls = append(f.calls, ticker)
	if f.onFetch != nil {
		f.onFetch(len(f.calls))
	}
	if out, ok := f.outcomes[ticker]; ok {
		return out
	}
	return fetcher.Outcome{Kind: fetcher.Success, Rows: 1}
}

// recordingReporter captures the calls made by the crawler
type recordingReporter struct {
	events      []string
	plan        Plan
	summary     Summary
	checkpoints []int
}

func (r *recordingReporter) Statistics(p Plan)              { r.plan = p; r.events = append(r.events, "statistics") }
func (r *recordingReporter) AllProcessed()                  { r.events = append(r.events, "all_processed") }
func (r *recordingReporter) Estimate(Plan)                  { r.events = append(r.events, "estimate") }
func (r *recordingReporter) Cancelled()                     { r.events = append(r.events, "cancelled") }
func (r *recordingReporter) Starting()                      { r.events = append(r.events, "starting") }
func (r *recordingReporter) TickerStarted(int, int, string) {}
func (r *recordingReporter) TickerFinished(_, _ int, ticker string, out fetcher.Outcome) {
	r.events = append(r.events, ticker+":"+out.Kind.String())
}
func (r *recordingReporter) CheckpointSaved(position, _ int) {
	r.checkpoints = append(r.checkpoints, position)
}
func (r *recordingReporter) Interrupted()      { r.events = append(r.events, "interrupted") }
func (r *recordingReporter) Summary(s Summary) { r.summary = s; r.events = append(r.events, "summary") }

type answer bool

func (a answer) Confirm() bool { return bool(a) }

func writeSymbols(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbols.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func newCrawler(opts Options, f Fetcher, store checkpoint.Store, rep Reporter, p Prompter) *Crawler {
	c := New(opts, f, store, rep, p, logger.NewNopLogger())
	c.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return c
}

func TestRunProcessesInInputOrder(t *testing.T) {
	path := writeSymbols(t, "CCC", "AAA", "BBB", "AAA", "DDD")
	store := newMemStore("BBB")
	f := &scriptedFetcher{}
	rep := &recordingReporter{}

	summary, err := newCrawler(Options{SymbolFile: path, AssumeYes: true}, f, store, rep, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"CCC", "AAA", "AAA", "DDD"}, f.calls)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 5, rep.plan.TotalSymbols)
	assert.Equal(t, 1, rep.plan.AlreadyProcessed)
}

func TestRunFiltersInvalidSymbolsAndHeader(t *testing.T) {
	path := writeSymbols(t, "Symbol", "AAPL", "", "  ", "BRK.B", "BAD$", "SPY ETF", "RDS-A")
	f := &scriptedFetcher{}
	rep := &recordingReporter{}

	_, err := newCrawler(Options{SymbolFile: path, AssumeYes: true}, f, newMemStore(), rep, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "BRK.B", "RDS-A"}, f.calls)
	assert.Equal(t, 5, rep.plan.TotalSymbols)
	assert.Equal(t, 3, rep.plan.ValidSymbols)
}

func TestRunFlushesEveryFiftyTickers(t *testing.T) {
	lines := make([]string, 120)
	for i := range lines {
		lines[i] = fmt.Sprintf("T%03d", i)
	}
	store := newMemStore()
	rep := &recordingReporter{}

	summary, err := newCrawler(Options{SymbolFile: writeSymbols(t, lines...), AssumeYes: true},
		&scriptedFetcher{}, store, rep, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 120, summary.Succeeded)
	assert.Equal(t, []int{50, 100}, rep.checkpoints)
	assert.Equal(t, []int{50, 100, 120}, store.saves, "two flushes and one final save")
}

func TestRunFailuresAreNotCheckpointed(t *testing.T) {
	path := writeSymbols(t, "AAA", "ZZZZ", "BBB")
	store := newMemStore()
	f := &scriptedFetcher{outcomes: map[string]fetcher.Outcome{
		"ZZZZ": {Kind: fetcher.Failure, Reason: fetcher.ReasonNoData},
		"BBB":  {Kind: fetcher.AlreadyPresent},
	}}

	summary, err := newCrawler(Options{SymbolFile: path, AssumeYes: true}, f, store, &recordingReporter{}, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.AlreadyExisted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.TotalFiles())
	assert.Equal(t, []string{"AAA", "BBB"}, store.set.Sorted())
}

func TestRunFinalizesOnInterrupt(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("S%d", i)
	}
	path := writeSymbols(t, lines...)
	store := newMemStore()
	rep := &recordingReporter{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := &scriptedFetcher{onFetch: func(n int) {
		if n == 3 {
			cancel()
		}
	}}

	summary, err := newCrawler(Options{SymbolFile: path, AssumeYes: true, Delay: time.Second}, f, store, rep, nil).Run(ctx)
	require.NoError(t, err)

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Len(t, f.calls, 3)
	assert.Equal(t, []string{"S0", "S1", "S2"}, store.set.Sorted())
	assert.Contains(t, rep.events, "interrupted")
	assert.Equal(t, "summary", rep.events[len(rep.events)-1])

	// a second run resumes with the remaining seven
	f2 := &scriptedFetcher{}
	_, err = newCrawler(Options{SymbolFile: path, AssumeYes: true}, f2, store, &recordingReporter{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lines[3:], f2.calls)
	assert.Equal(t, 10, store.set.Len())
}

func TestRunInterruptedFetchIsNotCounted(t *testing.T) {
	path := writeSymbols(t, "AAA", "BBB")
	store := newMemStore()
	f := &scriptedFetcher{outcomes: map[string]fetcher.Outcome{
		"BBB": {Kind: fetcher.Failure, Reason: "context canceled", Interrupted: true},
	}}

	summary, err := newCrawler(Options{SymbolFile: path, AssumeYes: true}, f, store, &recordingReporter{}, nil).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, []string{"AAA"}, store.set.Sorted())
}

func TestRunPausesBetweenTickersOnly(t *testing.T) {
	path := writeSymbols(t, "A", "B", "C")
	c := New(Options{SymbolFile: path, AssumeYes: true, Delay: 5 * time.Millisecond},
		&scriptedFetcher{}, newMemStore(), &recordingReporter{}, nil, logger.NewNopLogger())
	var pauses []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, pauses)
}

func TestRunNothingToDo(t *testing.T) {
	path := writeSymbols(t, "AAA", "BBB")
	rep := &recordingReporter{}
	f := &scriptedFetcher{}

	c := newCrawler(Options{SymbolFile: path}, f, newMemStore("AAA", "BBB"), rep, answer(false))
	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.NothingToDo)
	assert.Empty(t, f.calls)
	assert.Equal(t, []string{"statistics", "all_processed"}, rep.events)
	assert.Equal(t, StateDone, c.State())
}

func TestRunDeclined(t *testing.T) {
	path := writeSymbols(t, "AAA")
	store := newMemStore()
	rep := &recordingReporter{}
	f := &scriptedFetcher{}

	summary, err := newCrawler(Options{SymbolFile: path}, f, store, rep, answer(false)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Declined)
	assert.Empty(t, f.calls)
	assert.Empty(t, store.saves, "declining must not touch the checkpoint")
	assert.Equal(t, []string{"statistics", "estimate", "cancelled"}, rep.events)

	summary, err = newCrawler(Options{SymbolFile: path}, f, store, &recordingReporter{}, answer(true)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestRunMissingSymbolFile(t *testing.T) {
	c := newCrawler(Options{SymbolFile: filepath.Join(t.TempDir(), "missing.txt"), AssumeYes: true},
		&scriptedFetcher{}, newMemStore(), &recordingReporter{}, nil)

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, StateLoading, c.State())
}

func TestRunContinuesWhenCheckpointUnreadable(t *testing.T) {
	path := writeSymbols(t, "AAA")
	store := newMemStore()
	store.loadErr = errors.New("corrupt")
	log := logger.NewTestLogger()

	c := New(Options{SymbolFile: path, AssumeYes: true}, &scriptedFetcher{}, store, &recordingReporter{}, nil, log)
	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.True(t, log.HasMessage("Failed to load checkpoint, starting with an empty one"))
	warns := log.GetMessagesByLevel("WARN")
	require.NotEmpty(t, warns)
	assert.True(t, log.HasMessageContaining("Failed to load checkpoint"))
}

func TestRunReportsFinalSaveFailure(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	rep := &recordingReporter{}

	summary, err := newCrawler(Options{SymbolFile: writeSymbols(t, "AAA"), AssumeYes: true},
		&scriptedFetcher{}, store, rep, nil).Run(context.Background())
	require.NoError(t, err)
	assert.EqualError(t, summary.CheckpointErr, "disk full")
	assert.EqualError(t, rep.summary.CheckpointErr, "disk full")
}

func TestPlanEstimatedDuration(t *testing.T) {
	p := Plan{Remaining: make([]string, 90), SecondsPerTicker: 2}
	assert.Equal(t, 3*time.Minute, p.EstimatedDuration())
}

type mapProvider map[string][]market.Bar

func (m mapProvider) Name() string { return "map" }

func (m mapProvider) FetchHistory(ctx context.Context, symbol string) ([]market.Bar, error) {
	return m[symbol], nil
}

type countingProvider struct {
	market.Provider
	faults map[string]error
	calls  int
}

func (c *countingProvider) FetchHistory(ctx context.Context, symbol string) ([]market.Bar, error) {
	c.calls++
	if err := c.faults[symbol]; err != nil {
		return nil, err
	}
	return c.Provider.FetchHistory(ctx, symbol)
}

func bar(date, price string) market.Bar {
	d, _ := time.Parse(storage.DateLayout, date)
	p := decimal.RequireFromString(price)
	return market.Bar{Date: d, Open: p, High: p, Low: p, Close: p}
}

func TestEndToEndProviderFault(t *testing.T) {
	dir := t.TempDir()
	symbolFile := writeSymbols(t, "SYMBOL", "AAA", "BBB")
	cpPath := filepath.Join(dir, "processed_tickers.txt")

	provider := &countingProvider{
		Provider: mapProvider{"AAA": {
			bar("2024-01-05", "15"), bar("2024-01-02", "12"), bar("2024-01-04", "14"),
			bar("2024-01-01", "11"), bar("2024-01-03", "13"),
		}},
		faults: map[string]error{"BBB": errs.New(errs.ErrorTypeNetwork, 0, "connection reset by peer")},
	}
	out, err := storage.NewManager(filepath.Join(dir, "datack"), "")
	require.NoError(t, err)
	worker := fetcher.NewWorker(provider, out, logger.NewNopLogger()).WithClock(func() time.Time { return runDate })
	rep := &recordingReporter{}

	summary, err := newCrawler(Options{SymbolFile: symbolFile, AssumeYes: true}, worker, checkpoint.NewFileStore(cpPath, nil), rep, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, provider.calls)
	assert.Contains(t, rep.events, "AAA:success")
	assert.Contains(t, rep.events, "BBB:failure")

	content, err := os.ReadFile(out.Path("AAA", runDate))
	require.NoError(t, err)
	assert.Equal(t, "Date,Open,High,Low,Close\n"+
		"2024-01-01,11,11,11,11\n"+
		"2024-01-02,12,12,12,12\n"+
		"2024-01-03,13,13,13,13\n"+
		"2024-01-04,14,14,14,14\n"+
		"2024-01-05,15,15,15,15\n", string(content))
	assert.NoFileExists(t, out.Path("BBB", runDate))

	cp, err := os.ReadFile(cpPath)
	require.NoError(t, err)
	assert.Equal(t, "AAA\n", string(cp))
}

func TestEndToEndWithFileCheckpoint(t *testing.T) {
	dir := t.TempDir()
	symbolFile := writeSymbols(t, "TICKER", "AAA", "BBB", "CCC", "ZZZZ")
	cpPath := filepath.Join(dir, "processed_tickers.txt")

	provider := &countingProvider{
		Provider: mapProvider{
			"AAA": {bar("2024-01-03", "11"), bar("2024-01-02", "10.5")},
			"BBB": {bar("2024-01-02", "20")},
		},
		faults: map[string]error{"CCC": errors.New("unexpected EOF")},
	}
	out, err := storage.NewManager(filepath.Join(dir, "datack"), "")
	require.NoError(t, err)
	worker := fetcher.NewWorker(provider, out, logger.NewNopLogger()).WithClock(func() time.Time { return runDate })
	store := checkpoint.NewFileStore(cpPath, logger.NewNopLogger())

	summary, err := newCrawler(Options{SymbolFile: symbolFile, AssumeYes: true}, worker, store, &recordingReporter{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)

	content, err := os.ReadFile(out.Path("AAA", runDate))
	require.NoError(t, err)
	assert.Equal(t, "Date,Open,High,Low,Close\n2024-01-02,10.5,10.5,10.5,10.5\n2024-01-03,11,11,11,11\n", string(content))
	assert.FileExists(t, out.Path("BBB", runDate))
	assert.NoFileExists(t, out.Path("CCC", runDate))
	assert.NoFileExists(t, out.Path("ZZZZ", runDate))

	cp, err := os.ReadFile(cpPath)
	require.NoError(t, err)
	assert.Equal(t, "AAA\nBBB\n", string(cp))

	// with the checkpoint gone the files themselves prevent refetching
	require.NoError(t, store.Clear())
	provider.calls = 0
	summary, err = newCrawler(Options{SymbolFile: symbolFile, AssumeYes: true}, worker, store, &recordingReporter{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlreadyExisted)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, provider.calls, "only CCC and ZZZZ reach the provider")
}
