package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockcrawler/pkg/market"
)

// DateLayout is the layout used for run dates in file names and for bar dates in CSV rows
const DateLayout = "2006-01-02"

// DefaultFileNamePattern names one output file per ticker per run date
const DefaultFileNamePattern = "stock_market_data-{ticker}_{date}.csv"

// ErrOutsideOutputDir is returned for output paths that resolve outside the
// output directory, such as a ticker of ".." in a nested file name pattern
var ErrOutsideOutputDir = errors.New("path escapes output directory")

// Header is the first row of every output file
var Header = []string{"Date", "Open", "High", "Low", "Close"}

// Manager names, detects and writes per-ticker history files
type Manager struct {
	outputDir string
	pattern   string
}

// NewManager creates a storage manager rooted at outputDir. An empty pattern
// selects DefaultFileNamePattern.
func NewManager(outputDir, pattern string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if pattern == "" {
		pattern = DefaultFileNamePattern
	}
	return &Manager{outputDir: outputDir, pattern: pattern}, nil
}

// Path returns the output file for ticker on the given run date
func (m *Manager) Path(ticker string, date time.Time) string {
	name := strings.NewReplacer(
		"{ticker}", ticker,
		"{date}", date.Format(DateLayout),
	).Replace(m.pattern)
	return filepath.Join(m.outputDir, name)
}

// Resolve returns Path(ticker, date) after checking it stays inside the
// output directory
func (m *Manager) Resolve(ticker string, date time.Time) (string, error) {
	path := m.Path(ticker, date)
	if !m.Contains(path) {
		return "", fmt.Errorf("ticker %q: %w", ticker, ErrOutsideOutputDir)
	}
	return path, nil
}

// Contains reports whether path names a file below the output directory
func (m *Manager) Contains(path string) bool {
	rel, err := filepath.Rel(filepath.Clean(m.outputDir), filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Exists reports whether path is an existing regular file
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteHistory writes bars to path as CSV with a Date,Open,High,Low,Close
// header. The file is written under a temporary name and renamed into place,
// so a crash never leaves a partial file at path. Paths outside the output
// directory are refused with ErrOutsideOutputDir.
func (m *Manager) WriteHistory(path string, bars []market.Bar) error {
	if !m.Contains(path) {
		return fmt.Errorf("%s: %w", path, ErrOutsideOutputDir)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	buf := bufio.NewWriter(out)
	w := csv.NewWriter(buf)
	w.Write(Header)
	for _, bar := range bars {
		w.Write([]string{
			bar.Date.Format(DateLayout),
			bar.Open.String(),
			bar.High.String(),
			bar.Low.String(),
			bar.Close.String(),
		})
	}
	w.Flush()

	if err := w.Error(); err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := buf.Flush(); err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}
