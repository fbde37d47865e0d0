// Package market defines the price history Provider and its implementations.
//
// Providers:
//   - yahoo: Yahoo Finance chart API via github.com/piquette/finance-go
//   - alphavantage: TIME_SERIES_DAILY over HTTP, paced by a token bucket
//   - fixture: CSV files on disk, for offline runs and tests
//
// Configuring fallbacks wraps the primary provider in a MultiProvider that
// moves to the next provider when one errors or returns nothing.
//
// Provider errors are typed with pkg/errors so retry and the fetch worker can
// tell a missing symbol (not_found) from a transient failure.
package market
