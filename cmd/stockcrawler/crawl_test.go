package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stockcrawler/pkg/auth"
	"stockcrawler/pkg/config"
	"stockcrawler/pkg/logger"
	"stockcrawler/pkg/market"
	"stockcrawler/pkg/ui"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func fixtureConfig(t *testing.T, symbols string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "fixtures", "AAA.csv"),
		"Date,Open,High,Low,Close\n2024-01-03,2,3,1.5,2.5\n2024-01-02,1,2,0.5,1.5\n")
	writeFile(t, filepath.Join(dir, "symbols.txt"), symbols)

	cfg := config.DefaultConfig()
	cfg.Provider.Name = "fixture"
	cfg.Provider.FixtureDir = filepath.Join(dir, "fixtures")
	cfg.Crawl.SymbolFile = filepath.Join(dir, "symbols.txt")
	cfg.Crawl.Delay = 0
	cfg.Crawl.AssumeYes = true
	cfg.Output.BaseDirectory = filepath.Join(dir, "datack")
	cfg.Checkpoint.Path = filepath.Join(dir, "datack", "checkpoint.txt")
	return cfg, dir
}

func TestCrawlWithFixtureProvider(t *testing.T) {
	cfg, _ := fixtureConfig(t, "SYMBOL\nAAA\nZZZZ\nBAD!\n")

	var out bytes.Buffer
	summary, err := crawl(context.Background(), cfg, ui.NewConsole(nil, &out), nil, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	report := out.String()
	assert.Contains(t, report, "📈 STOCK MARKET DATA CRAWLER (fixture)")
	assert.Contains(t, report, "Valid symbols: 2")
	assert.Contains(t, report, "[1/2] AAA      ... ✓ Saved (2 days)")
	assert.Contains(t, report, "[2/2] ZZZZ     ... No data")
	assert.Contains(t, report, "📁 Total files: 1")

	cp, err := os.ReadFile(cfg.Checkpoint.Path)
	require.NoError(t, err)
	assert.Equal(t, "AAA\n", string(cp))

	out.Reset()
	summary, err = crawl(context.Background(), cfg, ui.NewConsole(nil, &out), nil, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed, "ZZZZ is retried on the next run")
}

func TestCrawlWithSQLiteCheckpoint(t *testing.T) {
	cfg, dir := fixtureConfig(t, "AAA\n")
	cfg.Checkpoint.Backend = "sqlite"
	cfg.Checkpoint.Path = filepath.Join(dir, "checkpoint.db")

	summary, err := crawl(context.Background(), cfg, ui.NewConsole(nil, &bytes.Buffer{}), nil, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	summary, err = crawl(context.Background(), cfg, ui.NewConsole(nil, &bytes.Buffer{}), nil, logger.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, summary.NothingToDo)
}

func TestCrawlPromptDeclined(t *testing.T) {
	cfg, _ := fixtureConfig(t, "AAA\n")
	cfg.Crawl.AssumeYes = false

	var out bytes.Buffer
	summary, err := crawl(context.Background(), cfg, ui.NewConsole(bytes.NewBufferString("no\n"), &out), nil, logger.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, summary.Declined)
	assert.Contains(t, out.String(), "Cancelled.")
	assert.NoFileExists(t, cfg.Checkpoint.Path)
}

func TestCrawlMissingSymbolFile(t *testing.T) {
	cfg, dir := fixtureConfig(t, "AAA\n")
	cfg.Crawl.SymbolFile = filepath.Join(dir, "nope.txt")

	_, err := crawl(context.Background(), cfg, ui.NewConsole(nil, &bytes.Buffer{}), nil, logger.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCrawlAPIKeyResolution(t *testing.T) {
	cfg, _ := fixtureConfig(t, "AAA\n")
	cfg.Provider.Name = "alphavantage"
	cfg.Provider.AlphaVantage.APIKey = ""

	_, err := crawl(context.Background(), cfg, ui.NewConsole(nil, &bytes.Buffer{}), nil, logger.NewNopLogger())
	assert.ErrorIs(t, err, market.ErrMissingAPIKey)

	// with every symbol checkpointed the provider is built but never called
	writeFile(t, cfg.Checkpoint.Path, "AAA\n")
	store := auth.NewMockStore()
	require.NoError(t, store.Store(&auth.Credential{Provider: "alphavantage", APIKey: "stored-key"}))

	summary, err := crawl(context.Background(), cfg, ui.NewConsole(nil, &bytes.Buffer{}), auth.NewManagerWithStores(store), logger.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, summary.NothingToDo)
	assert.Equal(t, "stored-key", cfg.Provider.AlphaVantage.APIKey)
}

func TestNeedsAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.False(t, needsAPIKey(cfg))

	cfg.Provider.Fallbacks = []string{"alphavantage"}
	assert.True(t, needsAPIKey(cfg))

	cfg.Provider.Fallbacks = nil
	cfg.Provider.Name = "alphavantage"
	assert.True(t, needsAPIKey(cfg))
}

func TestCheckPaths(t *testing.T) {
	cfg, dir := fixtureConfig(t, "AAA\n")
	cfg.Logging.File = filepath.Join(dir, "logs", "crawl.log")

	warnings, problems := checkPaths(cfg)
	assert.Empty(t, warnings)
	assert.Empty(t, problems)
	assert.DirExists(t, filepath.Join(dir, "logs"))

	cfg.Crawl.SymbolFile = filepath.Join(dir, "missing.txt")
	warnings, _ = checkPaths(cfg)
	assert.Len(t, warnings, 1)
}
