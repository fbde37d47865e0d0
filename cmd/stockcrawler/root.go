package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"stockcrawler/pkg/config"
	"stockcrawler/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
)

// rootCmd represents the base command when called without any subcommands.
// Without a subcommand it runs a crawl.
var rootCmd = &cobra.Command{
	Use:   "stockcrawler [symbol-file]",
	Short: "Resumable crawler for daily stock price history",
	Long: `stockcrawler downloads the full daily price history (Date, Open, High, Low, Close)
for every ticker in a symbol file and writes one CSV per ticker per run date.

Features:
  - Checkpointed progress, safe to interrupt with Ctrl+C and resume later
  - Existing output files are never fetched twice
  - Yahoo Finance, Alpha Vantage and local fixture providers with fallback
  - Retry with backoff and request pacing
  - API keys kept in the system keychain or an encrypted file`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCrawl,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.stockcrawler.yaml or ~/.config/stockcrawler/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when a crawl ends")

	rootCmd.SetVersionTemplate(versionText())

	addCrawlFlags(rootCmd)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func versionText() string {
	return `stockcrawler ` + rootCmd.Version + `
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`
}

// globalFlags collects the persistent flags the user actually set
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}
	return flags
}

// loadConfig loads configuration with flags applied and initializes logging
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
