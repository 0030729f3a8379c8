// Package gormstorage implements storage.Backend on top of any GORM dialect.
// The SQLite and Postgres backends embed it and only add connection setup.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/OCAP2/pointmap/internal/database"
	"github.com/OCAP2/pointmap/internal/logging"
	"github.com/OCAP2/pointmap/internal/model"
	"github.com/OCAP2/pointmap/internal/model/convert"
	"github.com/OCAP2/pointmap/internal/storage"
	"github.com/OCAP2/pointmap/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// DB exposes the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// SetDB injects a connection opened after construction.
func (b *Backend) SetDB(db *gorm.DB) {
	b.deps.DB = db
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend has no database")
	}
	b.deps.LogManager.WriteLog("gorm:Init", "Migrating schema", "INFO")
	return database.Migrate(b.deps.DB)
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// Get returns the point with id.
func (b *Backend) Get(id string) (core.Point, error) {
	var row model.Point
	err := b.deps.DB.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Point{}, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Point{}, fmt.Errorf("get %s: %w", id, err)
	}
	return convert.PointToCore(row), nil
}

// Put inserts or replaces a point.
func (b *Backend) Put(p core.Point) error {
	return b.Apply(storage.Batch{Puts: []core.Point{p}})
}

// Delete removes a point.
func (b *Backend) Delete(id string) error {
	return b.Apply(storage.Batch{Deletes: []string{id}})
}

// List returns every stored point ordered by point_order.
func (b *Backend) List() ([]core.Point, error) {
	var rows []model.Point
	if err := b.deps.DB.Order("point_order ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	return convert.PointsToCore(rows), nil
}

// Apply writes the batch in one transaction.
func (b *Backend) Apply(batch storage.Batch) error {
	if batch.Empty() {
		return nil
	}
	return b.deps.DB.Transaction(func(tx *gorm.DB) error {
		for _, id := range batch.Deletes {
			res := tx.Where("id = ?", id).Delete(&model.Point{})
			if res.Error != nil {
				return fmt.Errorf("delete %s: %w", id, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
			}
		}
		for _, p := range batch.Puts {
			if p.ID == "" {
				return errors.New("put: point has no id")
			}
			row, err := convert.CoreToPoint(p)
			if err != nil {
				return fmt.Errorf("put: %w", err)
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"point_order", "location", "label", "header", "done", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("put %s: %w", p.ID, err)
			}
		}
		return nil
	})
}
