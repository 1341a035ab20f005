// Package app is the application layer between the CLI and the service. It
// constructs all dependencies from config, exposes file-level backup
// operations, and manages the database and log-file lifecycle on Close.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"accent-go/internal/accent"
	"accent-go/internal/config"
	"accent-go/internal/database"
	"accent-go/internal/encryption"
	"accent-go/internal/fsutil"
	"accent-go/internal/prefs"
)

// App wires the stores, service, preferences, and logger together.
// The caller must call Close when done.
type App struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	prefs   *prefs.Store
	service *accent.Service
	logFile *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Export", "DeleteLesson") and
// tags every log line of this invocation.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := fsutil.EnsureDir(cfg.AudioDir); err != nil {
		store.Close()
		return nil, err
	}

	opID := time.Now().UTC().Format("20060102T150405Z") + "-" + operation
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := accent.NewService(
		store.Lessons(), store.Recordings(), store.Operations(),
		cfg.AudioDir,
		&slogAdapter{l: logger},
		accent.RealClock{}, accent.UUIDGenerator{},
	)

	return &App{
		cfg:     cfg,
		store:   store,
		prefs:   prefs.NewStore(cfg.PrefsPath),
		service: svc,
		logFile: logFile,
	}, nil
}

// Service returns the wired service layer.
func (a *App) Service() *accent.Service { return a.service }

// Prefs returns the preference store.
func (a *App) Prefs() *prefs.Store { return a.prefs }

// Close releases the database connection and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ExportToFile writes a backup archive to path. With a non-empty passphrase
// the archive is age-encrypted. A failed export removes the partial file so
// no invalid archive is left behind.
func (a *App) ExportToFile(path string, passphrase string) (*accent.ExportResult, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating archive file: %w", err)
	}

	res, err := a.export(f, passphrase)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("closing archive file: %w", err)
	}
	return res, nil
}

func (a *App) export(w io.Writer, passphrase string) (*accent.ExportResult, error) {
	if passphrase == "" {
		return a.service.Export(w)
	}

	ew, err := encryption.Encrypt(w, passphrase)
	if err != nil {
		return nil, err
	}
	res, err := a.service.Export(ew)
	if err != nil {
		return nil, err
	}
	if err := ew.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encrypted archive: %w", err)
	}
	return res, nil
}

// ImportFromFile restores a backup archive from path. Encrypted archives are
// detected by their header; promptPassphrase is called once in that case.
func (a *App) ImportFromFile(ctx context.Context, path string, promptPassphrase func() (string, error)) (*accent.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive file: %w", err)
	}
	defer f.Close()

	encrypted, r, err := encryption.Sniff(f)
	if err != nil {
		return nil, err
	}

	if encrypted {
		if promptPassphrase == nil {
			return nil, fmt.Errorf("archive is encrypted but no passphrase was provided")
		}
		passphrase, err := promptPassphrase()
		if err != nil {
			return nil, err
		}
		r, err = encryption.Decrypt(r, passphrase)
		if err != nil {
			return nil, err
		}
	}

	return a.service.Import(ctx, r)
}
