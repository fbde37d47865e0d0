package checkpoint

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stockcrawler/pkg/logger"
)

// FileStore keeps the checkpoint as a text file with one symbol per line
type FileStore struct {
	path   string
	logger logger.Logger
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string, log logger.Logger) *FileStore {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &FileStore{path: path, logger: log}
}

// Load reads one symbol per non-blank line. A missing file is an empty set.
func (f *FileStore) Load() (Set, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSet(), nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	set := NewSet()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if sym := strings.TrimSpace(scanner.Text()); sym != "" {
			set.Add(sym)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	f.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"path":    f.path,
		"entries": set.Len(),
	})
	return set, nil
}

// Save overwrites the checkpoint file atomically with the sorted set
func (f *FileStore) Save(s Set) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tempPath := f.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	w := bufio.NewWriter(file)
	for _, sym := range s.Sorted() {
		w.WriteString(sym)
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}
	return nil
}

// Clear removes the checkpoint file
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	f.logger.Info("Checkpoint deleted")
	return nil
}

// Location returns the checkpoint file path
func (f *FileStore) Location() string { return f.path }

// Close is a no-op for the file store
func (f *FileStore) Close() error { return nil }
