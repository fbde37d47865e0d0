package crawler

import (
	"context"
	"fmt"
	"time"

	"stockcrawler/pkg/checkpoint"
	"stockcrawler/pkg/fetcher"
	"stockcrawler/pkg/logger"
	"stockcrawler/pkg/retry"
	"stockcrawler/pkg/symbols"
)

const (
	// DefaultFlushEvery is how many tickers are processed between checkpoint saves
	DefaultFlushEvery = 50

	// DefaultSecondsPerTicker feeds the run time estimate shown before confirmation
	DefaultSecondsPerTicker = 2.0
)

// State is the phase the driver loop is in
type State int

const (
	StateLoading State = iota
	StateFiltering
	StateAwaitingConfirmation
	StateRunning
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateFiltering:
		return "filtering"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateRunning:
		return "running"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Fetcher processes a single ticker. *fetcher.Worker satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) fetcher.Outcome
}

// Prompter asks the operator to confirm a run
type Prompter interface {
	Confirm() bool
}

// Reporter renders progress for the operator
type Reporter interface {
	Statistics(plan Plan)
	AllProcessed()
	Estimate(plan Plan)
	Cancelled()
	Starting()
	TickerStarted(position, total int, ticker string)
	TickerFinished(position, total int, ticker string, outcome fetcher.Outcome)
	CheckpointSaved(position, total int)
	Interrupted()
	Summary(summary Summary)
}

// Options tunes a crawl
type Options struct {
	SymbolFile       string
	FlushEvery       int
	Delay            time.Duration
	SecondsPerTicker float64
	AssumeYes        bool
}

// Plan is the result of filtering, shown before the run starts
type Plan struct {
	TotalSymbols     int
	ValidSymbols     int
	AlreadyProcessed int
	Remaining        []string
	SecondsPerTicker float64
}

// EstimatedDuration is the expected wall time for the remaining tickers
func (p Plan) EstimatedDuration() time.Duration {
	return time.Duration(float64(len(p.Remaining)) * p.SecondsPerTicker * float64(time.Second))
}

// Summary holds the counters of one run
type Summary struct {
	Succeeded      int
	AlreadyExisted int
	Failed         int
	Attempted      int
	Interrupted    bool
	Declined       bool
	NothingToDo    bool
	CheckpointErr  error
	Elapsed        time.Duration
}

// TotalFiles is the number of output files that now exist for this run's tickers
func (s Summary) TotalFiles() int {
	return s.Succeeded + s.AlreadyExisted
}

// Crawler drives the fetch loop over a symbol file
type Crawler struct {
	opts     Options
	fetcher  Fetcher
	store    checkpoint.Store
	reporter Reporter
	prompter Prompter
	logger   logger.Logger
	state    State
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// New creates a Crawler. A nil prompter declines every run unless AssumeYes is set.
func New(opts Options, f Fetcher, store checkpoint.Store, reporter Reporter, prompter Prompter, log logger.Logger) *Crawler {
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = DefaultFlushEvery
	}
	if opts.SecondsPerTicker <= 0 {
		opts.SecondsPerTicker = DefaultSecondsPerTicker
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Crawler{
		opts:     opts,
		fetcher:  f,
		store:    store,
		reporter: reporter,
		prompter: prompter,
		logger:   log,
		state:    StateLoading,
		sleep:    retry.Wait,
		now:      time.Now,
	}
}

// State returns the phase the crawler reached
func (c *Crawler) State() State {
	return c.state
}

// Prepare loads the symbol file and the checkpoint and computes what is left to do
func (c *Crawler) Prepare() (Plan, checkpoint.Set, error) {
	c.state = StateLoading
	lines, err := symbols.Load(c.opts.SymbolFile)
	if err != nil {
		return Plan{}, nil, err
	}

	c.state = StateFiltering
	lines = symbols.StripHeader(lines)
	valid := symbols.Filter(lines)

	processed, err := c.store.Load()
	if err != nil {
		c.logger.WithError(err).WithField("checkpoint", c.store.Location()).
			Warn("Failed to load checkpoint, starting with an empty one")
		processed = checkpoint.NewSet()
	}

	plan := Plan{
		TotalSymbols:     len(lines),
		ValidSymbols:     len(valid),
		AlreadyProcessed: processed.Len(),
		Remaining:        symbols.Remaining(valid, processed.Has),
		SecondsPerTicker: c.opts.SecondsPerTicker,
	}

	c.logger.InfoWithFields("Crawl planned", map[string]interface{}{
		"symbol_file":       c.opts.SymbolFile,
		"total":             plan.TotalSymbols,
		"valid":             plan.ValidSymbols,
		"already_processed": plan.AlreadyProcessed,
		"remaining":         len(plan.Remaining),
	})
	return plan, processed, nil
}

// Run executes a full crawl. The only error it returns is a failure to load
// the symbol file; everything after that is reported through the Summary.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	plan, processed, err := c.Prepare()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load symbols: %w", err)
	}

	c.reporter.Statistics(plan)

	c.state = StateAwaitingConfirmation
	if len(plan.Remaining) == 0 {
		c.reporter.AllProcessed()
		c.state = StateDone
		return Summary{NothingToDo: true}, nil
	}

	c.reporter.Estimate(plan)
	if !c.opts.AssumeYes && (c.prompter == nil || !c.prompter.Confirm()) {
		c.reporter.Cancelled()
		c.logger.Info("Crawl declined by operator")
		c.state = StateDone
		return Summary{Declined: true}, nil
	}

	return c.crawl(ctx, plan.Remaining, processed), nil
}

// crawl runs the Running and Finalizing phases
func (c *Crawler) crawl(ctx context.Context, remaining []string, processed checkpoint.Set) (summary Summary) {
	c.state = StateRunning
	started := c.now()
	total := len(remaining)

	c.reporter.Starting()
	c.logger.InfoWithFields("Crawl started", map[string]interface{}{
		"remaining":   total,
		"delay":       c.opts.Delay.String(),
		"flush_every": c.opts.FlushEvery,
		"checkpoint":  c.store.Location(),
	})

	defer func() {
		c.state = StateFinalizing
		if summary.Interrupted {
			c.reporter.Interrupted()
		}
		if err := c.store.Save(processed); err != nil {
			summary.CheckpointErr = err
			c.logger.WithError(err).Error("Failed to save checkpoint")
		} else {
			logger.LogCheckpointSaved(c.logger, summary.Attempted, total, processed.Len())
		}
		summary.Elapsed = c.now().Sub(started)
		c.reporter.Summary(summary)

		c.logger.InfoWithFields("Crawl finished", map[string]interface{}{
			"succeeded":       summary.Succeeded,
			"already_existed": summary.AlreadyExisted,
			"failed":          summary.Failed,
			"interrupted":     summary.Interrupted,
			"elapsed_ms":      summary.Elapsed.Milliseconds(),
		})
		c.state = StateDone
	}()

	for i, ticker := range remaining {
		position := i + 1
		if ctx.Err() != nil {
			summary.Interrupted = true
			return summary
		}

		c.reporter.TickerStarted(position, total, ticker)
		outcome := c.fetcher.Fetch(ctx, ticker)
		if outcome.Interrupted {
			summary.Interrupted = true
			return summary
		}

		summary.Attempted = position
		switch outcome.Kind {
		case fetcher.AlreadyPresent:
			summary.AlreadyExisted++
			processed.Add(ticker)
		case fetcher.Success:
			summary.Succeeded++
			processed.Add(ticker)
		default:
			summary.Failed++
		}
		c.reporter.TickerFinished(position, total, ticker, outcome)

		if position%c.opts.FlushEvery == 0 {
			if err := c.store.Save(processed); err != nil {
				c.logger.WithError(err).WithField("position", position).Warn("Failed to flush checkpoint")
			} else {
				c.reporter.CheckpointSaved(position, total)
				logger.LogCheckpointSaved(c.logger, position, total, processed.Len())
			}
		}

		if position < total && c.opts.Delay > 0 {
			if err := c.sleep(ctx, c.opts.Delay); err != nil {
				summary.Interrupted = true
				return summary
			}
		}
	}
	return summary
}
