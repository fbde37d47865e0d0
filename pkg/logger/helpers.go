package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogTickerOutcome records the result of one fetch-and-persist step
func LogTickerOutcome(log Logger, ticker, outcome string, rows int, reason string) {
	fields := map[string]interface{}{
		"ticker":  ticker,
		"outcome": outcome,
	}

	switch outcome {
	case "failure":
		fields["reason"] = reason
		log.WarnWithFields("Ticker failed", fields)
	case "success":
		fields["rows"] = rows
		log.InfoWithFields("Ticker saved", fields)
	default:
		log.DebugWithFields("Ticker already present", fields)
	}
}

// LogCheckpointSaved records a checkpoint flush
func LogCheckpointSaved(log Logger, position, total, entries int) {
	log.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"position": position,
		"total":    total,
		"entries":  entries,
	})
}

// LogRateLimit logs rate limiting events
func LogRateLimit(log Logger, provider string, waited float64) {
	log.WithFields(map[string]interface{}{
		"provider":  provider,
		"waited_ms": waited,
		"action":    "rate_limited",
	}).Debug("Waiting for request slot")
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := log.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
