package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the crawler reads
const EnvPrefix = "STOCKCRAWLER_"

// Config holds all configuration options for the crawler
type Config struct {
	// Market-data provider selection
	Provider ProviderConfig `yaml:"provider" json:"provider"`

	// Driver loop settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Checkpoint persistence
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Retry configuration for provider calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ProviderConfig selects and tunes the market-data provider
type ProviderConfig struct {
	Name         string             `yaml:"name" json:"name"`
	Fallbacks    []string           `yaml:"fallbacks" json:"fallbacks"`
	Timeout      time.Duration      `yaml:"timeout" json:"timeout"`
	FixtureDir   string             `yaml:"fixture_dir" json:"fixture_dir"`
	AlphaVantage AlphaVantageConfig `yaml:"alphavantage" json:"alphavantage"`
}

// AlphaVantageConfig holds Alpha Vantage specific settings. The API key itself
// lives in the credential store, or in STOCKCRAWLER_ALPHAVANTAGE_API_KEY.
type AlphaVantageConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"-" json:"-"`
}

// CrawlConfig holds the driver loop settings
type CrawlConfig struct {
	SymbolFile       string        `yaml:"symbol_file" json:"symbol_file"`
	Delay            time.Duration `yaml:"delay" json:"delay"`
	SecondsPerTicker float64       `yaml:"seconds_per_ticker" json:"seconds_per_ticker"`
	AssumeYes        bool          `yaml:"assume_yes" json:"assume_yes"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	FileNamePattern string `yaml:"file_name_pattern" json:"file_name_pattern"`
}

// CheckpointConfig holds checkpoint persistence settings
type CheckpointConfig struct {
	Backend    string `yaml:"backend" json:"backend"`
	Path       string `yaml:"path" json:"path"`
	FlushEvery int    `yaml:"flush_every" json:"flush_every"`
}

// RetryConfig holds retry settings for provider requests
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:       "yahoo",
			Timeout:    30 * time.Second,
			FixtureDir: "./fixtures",
			AlphaVantage: AlphaVantageConfig{
				BaseURL: "https://www.alphavantage.co/query",
			},
		},
		Crawl: CrawlConfig{
			SymbolFile:       "symbol.txt",
			Delay:            time.Second,
			SecondsPerTicker: 2,
		},
		Output: OutputConfig{
			BaseDirectory:   "./datack",
			FileNamePattern: "stock_market_data-{ticker}_{date}.csv",
		},
		Checkpoint: CheckpointConfig{
			Backend:    "file",
			Path:       "./datack/checkpoint.txt",
			FlushEvery: 50,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := getenv("PROVIDER"); v != "" {
		c.Provider.Name = v
	}
	if v := getenv("PROVIDER_FALLBACKS"); v != "" {
		c.Provider.Fallbacks = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Provider.Fallbacks = append(c.Provider.Fallbacks, name)
			}
		}
	}
	if v := getenv("FIXTURE_DIR"); v != "" {
		c.Provider.FixtureDir = v
	}
	if v := getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Provider.AlphaVantage.APIKey = v
	}
	if v := getenv("SYMBOL_FILE"); v != "" {
		c.Crawl.SymbolFile = v
	}
	if v := getenv("DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDELAY: %w", EnvPrefix, err))
		} else {
			c.Crawl.Delay = d
		}
	}
	if v := getenv("OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := getenv("CHECKPOINT_BACKEND"); v != "" {
		c.Checkpoint.Backend = v
	}
	if v := getenv("CHECKPOINT_PATH"); v != "" {
		c.Checkpoint.Path = v
	}
	if v := getenv("REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_MINUTE: %w", EnvPrefix, err))
		} else if n > 0 {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := getenv("NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

func getenv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".stockcrawler.yaml",
		".stockcrawler.yml",
		filepath.Join(home, ".config", "stockcrawler", "config.yaml"),
		filepath.Join(home, ".config", "stockcrawler", "config.yml"),
		filepath.Join(home, ".stockcrawler.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	validProviders := map[string]bool{
		"yahoo": true, "alphavantage": true, "fixture": true,
	}
	if !validProviders[c.Provider.Name] {
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider.Name))
	}
	for _, fb := range c.Provider.Fallbacks {
		if !validProviders[fb] {
			errs = append(errs, fmt.Errorf("unknown fallback provider %q", fb))
		}
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("provider timeout must be positive"))
	}

	if c.Crawl.Delay < 0 {
		errs = append(errs, errors.New("delay cannot be negative"))
	}
	if c.Crawl.SecondsPerTicker < 0 {
		errs = append(errs, errors.New("seconds per ticker cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if !strings.Contains(c.Output.FileNamePattern, "{ticker}") || !strings.Contains(c.Output.FileNamePattern, "{date}") {
		errs = append(errs, errors.New("file name pattern must contain {ticker} and {date}"))
	}

	switch c.Checkpoint.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend))
	}
	if c.Checkpoint.Path == "" {
		errs = append(errs, errors.New("checkpoint path is required"))
	}
	if c.Checkpoint.FlushEvery <= 0 {
		errs = append(errs, errors.New("checkpoint flush interval must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["provider"].(string); ok && v != "" {
		c.Provider.Name = v
	}
	if v, ok := flags["fixture-dir"].(string); ok && v != "" {
		c.Provider.FixtureDir = v
	}
	if v, ok := flags["symbol-file"].(string); ok && v != "" {
		c.Crawl.SymbolFile = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Crawl.Delay = v
	}
	if v, ok := flags["yes"].(bool); ok {
		c.Crawl.AssumeYes = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["checkpoint"].(string); ok && v != "" {
		c.Checkpoint.Path = v
	}
	if v, ok := flags["checkpoint-backend"].(string); ok && v != "" {
		c.Checkpoint.Backend = v
	}
	if v, ok := flags["max-retries"].(int); ok && v > 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".stockcrawler.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
