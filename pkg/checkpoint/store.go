package checkpoint

import (
	"fmt"

	"stockcrawler/pkg/config"
	"stockcrawler/pkg/logger"
)

// Store persists the set of processed tickers between runs
type Store interface {
	// Load returns the persisted set, or an empty set when nothing was saved yet
	Load() (Set, error)
	// Save replaces the persisted set with s
	Save(s Set) error
	// Clear removes all persisted state
	Clear() error
	// Location describes where the set is stored
	Location() string
	Close() error
}

// Open returns the store selected by the checkpoint configuration
func Open(cfg config.CheckpointConfig, log logger.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path, log), nil
	case "sqlite":
		return OpenSQLite(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend: %s", cfg.Backend)
	}
}
