package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockcrawler/pkg/logger"
)

// MultiProvider tries providers in order and returns the first non-empty
// history. When every provider fails the last error is returned; when they
// all succeed with no rows the result is empty.
type MultiProvider struct {
	providers []Provider
	logger    logger.Logger
}

// NewMultiProvider chains providers in fallback order
func NewMultiProvider(log logger.Logger, providers ...Provider) *MultiProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &MultiProvider{providers: providers, logger: log}
}

// Name lists the chained providers
func (m *MultiProvider) Name() string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

// FetchHistory asks each provider in turn
func (m *MultiProvider) FetchHistory(ctx context.Context, symbol string) ([]Bar, error) {
	var lastErr error
	for _, p := range m.providers {
		bars, err := p.FetchHistory(ctx, symbol)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			m.logger.DebugWithFields("provider failed, falling back", map[string]interface{}{
				"provider": p.Name(),
				"symbol":   symbol,
				"error":    err.Error(),
			})
			lastErr = fmt.Errorf("%s: %w", p.Name(), err)
			continue
		}
		if len(bars) > 0 {
			return bars, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}
