package database

import (
	"database/sql"
	"fmt"

	"github.com/OCAP2/pointmap/internal/config"
	"github.com/OCAP2/pointmap/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Manager handles database connections and operations.
type Manager struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	ShouldSaveLocal bool // set when Connect fell back to SQLite
	SqliteFilePath  string
	Logger          zerolog.Logger

	cfg config.DBConfig
}

// NewManager creates a new database manager. fallbackPath is the SQLite file
// used when Postgres is unreachable; empty disables the fallback.
func NewManager(cfg config.DBConfig, fallbackPath string, log zerolog.Logger) *Manager {
	return &Manager{
		SqliteFilePath: fallbackPath,
		Logger:         log,
		cfg:            cfg,
	}
}

// Connect establishes a database connection, falling back to SQLite if Postgres fails.
func (m *Manager) Connect() error {
	var err error

	m.DB, err = GetPostgresDB(m.cfg)
	if err == nil {
		m.SqlDB, err = m.DB.DB()
	}
	if err == nil {
		err = m.SqlDB.Ping()
	}
	if err != nil {
		if m.SqliteFilePath == "" {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		m.ShouldSaveLocal = true
		m.DB, err = GetSqliteDB(m.SqliteFilePath)
		if err != nil || m.DB == nil {
			return fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
		m.Logger.Info().Str("path", m.SqliteFilePath).Msg("Using local SQLite DB")
		m.SqlDB, err = m.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
	} else {
		m.Logger.Info().Str("host", m.cfg.Host).Msg("Connected to database")
		m.SqlDB.SetMaxOpenConns(10)
	}

	return nil
}

// Setup migrates tables.
func (m *Manager) Setup() error {
	m.Logger.Info().Msg("Migrating schema")
	if err := Migrate(m.DB); err != nil {
		return err
	}
	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// Migrate creates or updates the point schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// PostgresDSN builds the connection string for cfg.
func PostgresDSN(cfg config.DBConfig) string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
	)
}

// GetPostgresDB returns a connection to the Postgres database.
func GetPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses a private in-memory database.
func GetSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// a single connection keeps an in-memory database alive and serialises writers
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = FULL;",
		"PRAGMA temp_store = MEMORY;",
	}
	if path == "" {
		pragmas = pragmas[:1]
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}

	return db, nil
}
