package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockcrawler/pkg/config"
	errs "stockcrawler/pkg/errors"
	"stockcrawler/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff is used for errors that ByErrorType does not cover
	Backoff BackoffStrategy
	// ByErrorType overrides Backoff per typed error when set
	ByErrorType *ErrorTypeBackoff
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Logger:      logger.NewNopLogger(),
	}
}

// FromSettings builds a retry configuration from the retry section of the
// crawler configuration. Rate-limit responses back off more slowly than
// network and server failures.
func FromSettings(rc config.RetryConfig, log logger.Logger) *Config {
	base := &ExponentialBackoff{
		BaseDelay:    rc.BaseDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	byType := NewErrorTypeBackoff()
	byType.NetworkErrorBackoff = base
	byType.ServerErrorBackoff = base
	byType.DefaultBackoff = base

	return &Config{
		MaxAttempts: rc.MaxAttempts,
		Backoff:     base,
		ByErrorType: byType,
		RetryIf:     DefaultRetryIf,
		Logger:      log,
	}
}

// WithRateLimitBackoff returns a copy of c that waits according to b after
// rate_limit errors. Other error types keep their strategies.
func (c *Config) WithRateLimitBackoff(b BackoffStrategy) *Config {
	out := *c
	byType := NewErrorTypeBackoff()
	if c.ByErrorType != nil {
		*byType = *c.ByErrorType
	}
	byType.RateLimitBackoff = b
	out.ByErrorType = byType
	return &out
}

// DefaultRetryIf retries typed errors whose type is retryable. Context
// errors are never retried; untyped errors are.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	return true
}

// Do executes op until it succeeds, returns a non-retryable error, runs out
// of attempts, or ctx is cancelled.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			log.WarnWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt - 1,
				"last_error": lastErr.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}

		delay := cfg.backoffFor(err).NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		log.DebugWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": cfg.MaxAttempts,
		})

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, op func(ctx context.Context) (T, error), cfg *Config) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, cfg)
	return result, err
}

func (c *Config) backoffFor(err error) BackoffStrategy {
	if c.ByErrorType != nil {
		var apiErr *errs.Error
		if errors.As(err, &apiErr) {
			return c.ByErrorType.GetBackoffForError(apiErr.Type)
		}
	}
	if c.Backoff == nil {
		return DefaultExponentialBackoff()
	}
	return c.Backoff
}
