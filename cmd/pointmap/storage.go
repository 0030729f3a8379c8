package main

import (
	"fmt"
	"io"

	"github.com/OCAP2/pointmap/internal/config"
	"github.com/OCAP2/pointmap/internal/database"
	"github.com/OCAP2/pointmap/internal/logging"
	"github.com/OCAP2/pointmap/internal/storage"
	"github.com/OCAP2/pointmap/internal/storage/memory"
	pgstorage "github.com/OCAP2/pointmap/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/pointmap/internal/storage/sqlite"

	"github.com/spf13/viper"
)

// createStorageBackend builds the configured backend. dbLog receives the
// database manager's zerolog output.
func createStorageBackend(storageCfg config.StorageConfig, dbLog io.Writer) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		manager := database.NewManager(
			storageCfg.DB,
			storageCfg.SQLite.Path,
			logging.NewZerolog(dbLog, "database", viper.GetString("logLevel")),
		)
		Logger.Info("Postgres storage backend initialized", "host", storageCfg.DB.Host, "fallback", storageCfg.SQLite.Path)
		return pgstorage.New(pgstorage.Dependencies{
			Manager:    manager,
			LogManager: SlogManager,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path: storageCfg.SQLite.Path,
		}, SlogManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized", "snapshot", storageCfg.Memory.SnapshotPath)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
