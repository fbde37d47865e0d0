// Package storage owns the on-disk price files.
//
// Each ticker gets one CSV per run date, named from a pattern such as
// stock_market_data-{ticker}_{date}.csv. The presence of that file is what
// makes re-running a crawl on the same day skip the ticker. Files are written
// to a temporary name and renamed into place.
package storage
