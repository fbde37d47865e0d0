package checkpoint

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stockcrawler/pkg/logger"
)

// SQLiteStore keeps the checkpoint in a processed_tickers table
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger logger.Logger
}

// OpenSQLite opens (creating if needed) the checkpoint database at path
func OpenSQLite(path string, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS processed_tickers (
		symbol TEXT PRIMARY KEY,
		updated_at TEXT NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db, path: path, logger: log}, nil
}

// Load reads every stored symbol
func (s *SQLiteStore) Load() (Set, error) {
	rows, err := s.db.Query(`SELECT symbol FROM processed_tickers`)
	if err != nil {
		return nil, fmt.Errorf("query checkpoint: %w", err)
	}
	defer rows.Close()

	set := NewSet()
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		set.Add(sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"path":    s.path,
		"entries": set.Len(),
	})
	return set, nil
}

// Save replaces the table contents with set inside one transaction
func (s *SQLiteStore) Save(set Set) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin checkpoint tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM processed_tickers`); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO processed_tickers(symbol, updated_at) VALUES(?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare checkpoint insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, sym := range set.Sorted() {
		if _, err := stmt.Exec(sym, now); err != nil {
			return fmt.Errorf("insert %s: %w", sym, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// Clear deletes every stored symbol
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM processed_tickers`); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	s.logger.Info("Checkpoint deleted")
	return nil
}

// Location returns the database path
func (s *SQLiteStore) Location() string { return s.path }

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
