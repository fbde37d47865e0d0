// Package checkpoint records which tickers a crawl has already handled so an
// interrupted run can resume where it stopped.
//
// The default FileStore writes a plain text file, one symbol per line,
// replaced atomically on every save. SQLiteStore keeps the same set in a
// processed_tickers table for setups that already collect state in SQLite.
// Both backends are chosen through Open.
package checkpoint
