// Package fetcher runs the fetch-and-persist step for a single ticker.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "stockcrawler/pkg/errors"
	"stockcrawler/pkg/logger"
	"stockcrawler/pkg/market"
	"stockcrawler/pkg/storage"
)

// MaxReasonLength caps failure reasons shown on the progress line
const MaxReasonLength = 50

// ReasonNoData is reported when the provider knows nothing about a ticker
const ReasonNoData = "no data"

// Kind classifies an Outcome
type Kind int

const (
	AlreadyPresent Kind = iota
	Success
	Failure
)

func (k Kind) String() string {
	switch k {
	case AlreadyPresent:
		return "already_present"
	case Success:
		return "success"
	default:
		return "failure"
	}
}

// Outcome is the result of processing one ticker
type Outcome struct {
	Kind   Kind
	Rows   int
	Reason string
	// Interrupted is set when the failure was caused by cancellation
	Interrupted bool
}

// Processed reports whether the ticker belongs in the checkpoint
func (o Outcome) Processed() bool {
	return o.Kind == AlreadyPresent || o.Kind == Success
}

// Worker fetches a ticker's history and writes it to the run-date file
type Worker struct {
	provider market.Provider
	storage  *storage.Manager
	now      func() time.Time
	logger   logger.Logger
}

// NewWorker creates a worker
func NewWorker(provider market.Provider, store *storage.Manager, log logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Worker{
		provider: provider,
		storage:  store,
		now:      time.Now,
		logger:   log,
	}
}

// WithClock overrides the clock that picks the run date
func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Fetch processes ticker. It never panics and never returns an error: every
// fault becomes a Failure outcome.
func (w *Worker) Fetch(ctx context.Context, ticker string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failure(fmt.Errorf("panic: %v", r))
		}
		logger.LogTickerOutcome(w.logger, ticker, out.Kind.String(), out.Rows, out.Reason)
	}()

	path, err := w.storage.Resolve(ticker, w.now())
	if err != nil {
		return failure(err)
	}
	if w.storage.Exists(path) {
		return Outcome{Kind: AlreadyPresent}
	}

	bars, err := w.provider.FetchHistory(ctx, ticker)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			o := failure(err)
			o.Interrupted = ctx.Err() != nil
			return o
		}
		if errs.Is(err, errs.ErrorTypeNotFound) {
			return Outcome{Kind: Failure, Reason: ReasonNoData}
		}
		return failure(err)
	}

	bars = market.Normalize(bars)
	if len(bars) == 0 {
		return Outcome{Kind: Failure, Reason: ReasonNoData}
	}

	if err := w.storage.WriteHistory(path, bars); err != nil {
		return failure(err)
	}
	return Outcome{Kind: Success, Rows: len(bars)}
}

func failure(err error) Outcome {
	return Outcome{Kind: Failure, Reason: truncate(err.Error(), MaxReasonLength)}
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
