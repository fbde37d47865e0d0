package ui

import (
	"fmt"

	"stockcrawler/pkg/crawler"
	"stockcrawler/pkg/fetcher"
)

// Statistics prints the counts computed while filtering
func (c *Console) Statistics(plan crawler.Plan) {
	c.printf("\n📊 Statistics:\n")
	c.printf("   Total symbols in file: %d\n", plan.TotalSymbols)
	c.printf("   Valid symbols: %d\n", plan.ValidSymbols)
	c.printf("   Already processed: %d\n", plan.AlreadyProcessed)
	c.printf("   Remaining to process: %d\n", len(plan.Remaining))
}

// AllProcessed reports that the checkpoint covers every valid symbol
func (c *Console) AllProcessed() {
	c.printf("\n%s\n", c.paint(Green, "✅ All symbols already processed!"))
}

// Estimate prints the expected run time for the remaining tickers
func (c *Console) Estimate(plan crawler.Plan) {
	minutes := plan.EstimatedDuration().Minutes()
	c.printf("\n⏱️  Time estimates:\n")
	c.printf("   Estimated time: %.1f minutes (%.1f hours)\n", minutes, minutes/60)
}

// Cancelled reports a declined confirmation
func (c *Console) Cancelled() {
	c.printf("Cancelled.\n")
}

// Starting announces the Running phase
func (c *Console) Starting() {
	c.printf("\n%s\n", Rule)
	c.printf("Starting crawler... (Press Ctrl+C to stop safely)\n\n")
}

// TickerStarted prints the progress prefix; TickerFinished completes the line
func (c *Console) TickerStarted(position, total int, ticker string) {
	c.printf("[%d/%d] %-8s ... ", position, total, ticker)
}

// TickerFinished prints the outcome of the current ticker
func (c *Console) TickerFinished(position, total int, ticker string, outcome fetcher.Outcome) {
	c.printf("%s\n", c.describe(outcome))
}

func (c *Console) describe(outcome fetcher.Outcome) string {
	switch outcome.Kind {
	case fetcher.AlreadyPresent:
		return c.paint(Dim, "✓ Exists")
	case fetcher.Success:
		return c.paint(Green, fmt.Sprintf("✓ Saved (%d days)", outcome.Rows))
	}
	if outcome.Reason == fetcher.ReasonNoData {
		return c.paint(Yellow, "No data")
	}
	return c.paint(Red, "Error: "+outcome.Reason)
}

// CheckpointSaved reports a periodic flush
func (c *Console) CheckpointSaved(position, total int) {
	c.printf("\n💾 Checkpoint saved at %d/%d %s\n", position, total, c.paint(Dim, ProgressBar(position, total, 20)))
}

// Interrupted prints the interruption banner
func (c *Console) Interrupted() {
	c.printf("\n\n%s\n", Rule)
	c.printf("%s\n", c.paint(Yellow, "⚠️  INTERRUPTED BY USER"))
	c.printf("%s\n", Rule)
}

// Summary prints the final counters
func (c *Console) Summary(s crawler.Summary) {
	c.printf("\n%s\n", Rule)
	c.printf("📋 SUMMARY\n")
	c.printf("%s\n", Rule)
	c.printf("✅ Successfully downloaded: %d\n", s.Succeeded)
	c.printf("ℹ️  Already existed: %d\n", s.AlreadyExisted)
	c.printf("❌ Failed: %d\n", s.Failed)
	c.printf("📁 Total files: %d\n", s.TotalFiles())
	if s.Attempted > 0 && s.Elapsed > 0 {
		c.printf("⏱️  Elapsed: %s (%.1f tickers/min)\n", FormatDuration(s.Elapsed), Rate(s.Attempted, s.Elapsed))
	}
	if s.CheckpointErr != nil {
		c.printf("%s\n", c.paint(Red, "⚠️  Checkpoint could not be saved: "+s.CheckpointErr.Error()))
	} else {
		c.printf("📍 Checkpoint saved - can resume later\n")
	}
	c.printf("%s\n", Rule)
}

var (
	_ crawler.Reporter = (*Console)(nil)
	_ crawler.Prompter = (*Console)(nil)
)
