package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"stockcrawler/pkg/auth"
	"stockcrawler/pkg/checkpoint"
	"stockcrawler/pkg/config"
	"stockcrawler/pkg/crawler"
	"stockcrawler/pkg/fetcher"
	"stockcrawler/pkg/logger"
	"stockcrawler/pkg/market"
	"stockcrawler/pkg/storage"
	"stockcrawler/pkg/ui"
)

var (
	// Crawl command flags
	providerName      string
	fixtureDir        string
	delay             time.Duration
	assumeYes         bool
	outputDir         string
	checkpointPath    string
	checkpointBackend string
	maxRetries        int
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [symbol-file]",
	Short: "Download daily price history for every ticker in a symbol file",
	Long: `Download the full daily price history for every valid ticker in a symbol file.

The symbol file holds one ticker per line; an optional SYMBOL or TICKER header
line is skipped, as are blank lines and entries with characters other than
letters, digits, '-' and '.'.

Processed tickers are recorded in a checkpoint that is saved every 50 tickers
and whenever the crawl stops, so an interrupted crawl picks up where it left off.`,
	Example: `  # Crawl the default symbol file
  stockcrawler crawl

  # Crawl a specific file without the confirmation prompt
  stockcrawler crawl nasdaq_symbols.txt --yes

  # Use Alpha Vantage and fall back to Yahoo when it has nothing
  STOCKCRAWLER_PROVIDER_FALLBACKS=yahoo stockcrawler crawl --provider alphavantage

  # Replay local CSV fixtures with no pause between tickers
  stockcrawler crawl symbols.txt --provider fixture --fixture-dir ./fixtures --delay 0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	addCrawlFlags(crawlCmd)
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&providerName, "provider", "", "market data provider (yahoo, alphavantage, fixture)")
	cmd.Flags().StringVar(&fixtureDir, "fixture-dir", "", "directory of {SYMBOL}.csv files for the fixture provider")
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "pause between tickers")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "start without asking for confirmation")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for CSV files (default ./datack)")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint location (default <output>/checkpoint.txt)")
	cmd.Flags().StringVar(&checkpointBackend, "checkpoint-backend", "", "checkpoint backend (file, sqlite)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "maximum attempts per provider request")
}

// crawlFlags builds the flag map for config.Load from what the user set
func crawlFlags(cmd *cobra.Command, args []string) map[string]interface{} {
	flags := globalFlags(cmd)
	if len(args) == 1 {
		flags["symbol-file"] = args[0]
	}

	changed := cmd.Flags().Changed
	if changed("provider") {
		flags["provider"] = providerName
	}
	if changed("fixture-dir") {
		flags["fixture-dir"] = fixtureDir
	}
	if changed("delay") {
		flags["delay"] = delay
	}
	if changed("yes") {
		flags["yes"] = assumeYes
	}
	if changed("output") {
		flags["output"] = outputDir
		if !changed("checkpoint") {
			flags["checkpoint"] = filepath.Join(outputDir, "checkpoint.txt")
		}
	}
	if changed("checkpoint") {
		flags["checkpoint"] = checkpointPath
	}
	if changed("checkpoint-backend") {
		flags["checkpoint-backend"] = checkpointBackend
	}
	if changed("max-retries") {
		flags["max-retries"] = maxRetries
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(crawlFlags(cmd, args))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := ui.NewTerminalConsole()
	if noColor {
		console.WithColor(false)
	}

	var keys apiKeySource
	if needsAPIKey(cfg) && cfg.Provider.AlphaVantage.APIKey == "" {
		manager, err := auth.NewManager()
		if err != nil {
			logger.WithError(err).Warn("Credential store unavailable")
		} else {
			keys = manager
		}
	}

	summary, err := crawl(ctx, cfg, console, keys, logger.GetLogger())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			console.PrintError("❌ Cannot find file", cfg.Crawl.SymbolFile)
		}
		return err
	}

	if cfg.Notifications.Enabled && !summary.NothingToDo && !summary.Declined {
		if err := ui.NewNotifier().CrawlFinished(summary); err != nil {
			logger.WithError(err).Debug("Desktop notification failed")
		}
	}
	return nil
}

// apiKeySource looks up provider API keys; *auth.Manager satisfies it
type apiKeySource interface {
	APIKey(provider string) string
}

func needsAPIKey(cfg *config.Config) bool {
	if cfg.Provider.Name == "alphavantage" {
		return true
	}
	for _, fb := range cfg.Provider.Fallbacks {
		if fb == "alphavantage" {
			return true
		}
	}
	return false
}

// crawl wires the provider, storage and checkpoint for cfg and runs one crawl
func crawl(ctx context.Context, cfg *config.Config, console *ui.Console, keys apiKeySource, log logger.Logger) (crawler.Summary, error) {
	log = log.WithField("run_id", uuid.NewString())

	if cfg.Provider.AlphaVantage.APIKey == "" && keys != nil {
		cfg.Provider.AlphaVantage.APIKey = keys.APIKey("alphavantage")
	}

	provider, err := market.New(cfg, log)
	if err != nil {
		return crawler.Summary{}, fmt.Errorf("failed to create provider: %w", err)
	}

	output, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Output.FileNamePattern)
	if err != nil {
		return crawler.Summary{}, err
	}

	store, err := checkpoint.Open(cfg.Checkpoint, log)
	if err != nil {
		return crawler.Summary{}, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer store.Close()

	logger.LogComponentStart(log, "crawler", map[string]interface{}{
		"provider":    provider.Name(),
		"symbol_file": cfg.Crawl.SymbolFile,
		"output_dir":  output.OutputDir(),
		"checkpoint":  store.Location(),
	})

	console.Banner(provider.Name())

	worker := fetcher.NewWorker(provider, output, log)
	c := crawler.New(crawler.Options{
		SymbolFile:       cfg.Crawl.SymbolFile,
		FlushEvery:       cfg.Checkpoint.FlushEvery,
		Delay:            cfg.Crawl.Delay,
		SecondsPerTicker: cfg.Crawl.SecondsPerTicker,
		AssumeYes:        cfg.Crawl.AssumeYes,
	}, worker, store, console, console, log)

	return c.Run(ctx)
}
