package database

import (
	"fmt"
	"path/filepath"

	"accent-go/internal/config"
	"accent-go/internal/fsutil"
)

// NewStoreFromConfig creates a SQLiteStore based on the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := fsutil.EnsureDir(cfg.DataDir); err != nil {
			return nil, err
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "accent.db"))
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
