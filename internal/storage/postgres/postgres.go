// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
// When Postgres is unreachable the database manager falls back to a local
// SQLite file, so the point map keeps working offline.
package postgres

import (
	"fmt"

	"github.com/OCAP2/pointmap/internal/database"
	"github.com/OCAP2/pointmap/internal/logging"
	gormstorage "github.com/OCAP2/pointmap/internal/storage/gorm"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	DB         *gorm.DB // optional; when nil Init connects through Manager
	Manager    *database.Manager
	LogManager *logging.SlogManager
}

// Backend implements storage.Backend on Postgres.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. No connection is made until Init.
func New(deps Dependencies) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:         deps.DB,
			LogManager: deps.LogManager,
		}),
		deps: deps,
	}
}

// Init connects (if needed) and migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		if b.deps.Manager == nil {
			return fmt.Errorf("postgres backend has neither a DB nor a manager")
		}
		if err := b.deps.Manager.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		b.deps.DB = b.deps.Manager.DB
		b.Backend.SetDB(b.deps.DB)
		b.logConnection()
		return b.deps.Manager.Setup()
	}

	b.logConnection()
	return b.Backend.Init()
}

func (b *Backend) logConnection() {
	if b.Local() {
		b.deps.LogManager.WriteLog("postgres:Init", "Postgres unavailable, using local SQLite fallback", "WARN")
		return
	}
	b.deps.LogManager.WriteLog("postgres:Init", "Connected to Postgres", "INFO")
}

// Local reports whether writes are going to the SQLite fallback.
func (b *Backend) Local() bool {
	if b.deps.Manager != nil && b.deps.Manager.DB != nil {
		return b.deps.Manager.ShouldSaveLocal
	}
	return b.deps.DB != nil && b.deps.DB.Name() != "postgres"
}
