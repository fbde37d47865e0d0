// Package retry retries transient provider failures with backoff.
//
// Typed errors from pkg/errors drive both the retry decision and the delay:
// network and server errors back off quickly, rate-limit errors slowly, and
// auth, not-found and parsing errors are returned immediately.
//
//	cfg := retry.FromSettings(appConfig.Retry, log)
//	bars, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]market.Bar, error) {
//		return fetch(ctx, symbol)
//	}, cfg)
//
// Every wait honours ctx, so an interrupted crawl never sits out a backoff.
package retry
