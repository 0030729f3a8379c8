// Package sqlitestorage implements the storage.Backend interface using a
// file-backed SQLite database. It wraps the GORM backend via composition; the
// only SQLite-specific concerns are opening the file with durable pragmas and
// VACUUM INTO snapshots.
package sqlitestorage

import (
	"fmt"
	"os"
	"time"

	"github.com/OCAP2/pointmap/internal/database"
	"github.com/OCAP2/pointmap/internal/logging"
	gormstorage "github.com/OCAP2/pointmap/internal/storage/gorm"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path string // empty opens a private in-memory database
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	cfg Config
	log *logging.SlogManager
}

// New opens the SQLite database at cfg.Path.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
	})

	return &Backend{
		Backend: gormBackend,
		db:      db,
		cfg:     cfg,
		log:     logManager,
	}, nil
}

// Snapshot copies the database to path via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) Snapshot(path string) error {
	if path == "" {
		return fmt.Errorf("sqlite snapshot path not set")
	}

	// VACUUM INTO refuses to overwrite
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error removing existing snapshot: %w", err)
		}
	}

	start := time.Now()
	if err := b.db.Exec("VACUUM INTO ?", path).Error; err != nil {
		return fmt.Errorf("error writing snapshot: %w", err)
	}
	if b.log != nil {
		b.log.WriteLog("sqlite:Snapshot", fmt.Sprintf("Snapshot written to %s in %s", path, time.Since(start)), "DEBUG")
	}
	return nil
}
