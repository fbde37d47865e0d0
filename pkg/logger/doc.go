// Package logger provides structured logging for the crawler.
//
// It wraps zerolog behind a small Logger interface. Console output is written
// to stderr in a colored human format; when a log file is configured, JSON
// lines are appended to it instead.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Crawl started", map[string]interface{}{"remaining": 120})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
