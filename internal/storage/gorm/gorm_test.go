package gormstorage

import (
	"testing"

	"github.com/OCAP2/pointmap/internal/logging"
	"github.com/OCAP2/pointmap/internal/storage"
	"github.com/OCAP2/pointmap/pkg/core"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	b := New(Dependencies{
		DB:         db,
		LogManager: logging.NewSlogManager(),
	})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestPutGet(t *testing.T) {
	b := newTestBackend(t)

	p := core.Point{
		ID:       "a",
		Order:    1,
		Location: core.Location{Lat: 47.5, Lng: -122.3},
		Label:    "A",
		Header:   core.Header{Description: "loop", ModeHint: "shape"},
		Done:     true,
	}
	require.NoError(t, b.Put(p))

	got, err := b.Get("a")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPut_Upserts(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Put(core.Point{ID: "a", Order: 2, Label: "old"}))

	require.NoError(t, b.Put(core.Point{ID: "a", Order: 1, Label: "new"}))

	got, err := b.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Order)
	assert.Equal(t, "new", got.Label)

	list, err := b.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGet_NotFound(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Get("missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDelete(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Put(core.Point{ID: "a", Order: 1}))

	require.NoError(t, b.Delete("a"))
	assert.ErrorIs(t, b.Delete("a"), core.ErrNotFound)
}

func TestList_OrderedByPointOrder(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Put(core.Point{ID: "x", Order: 3}))
	require.NoError(t, b.Put(core.Point{ID: "y", Order: 1}))
	require.NoError(t, b.Put(core.Point{ID: "z", Order: 2}))

	list, err := b.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"y", "z", "x"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestApply_RollsBackOnFailure(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Put(core.Point{ID: "a", Order: 1}))
	require.NoError(t, b.Put(core.Point{ID: "b", Order: 2}))

	err := b.Apply(storage.Batch{
		Puts:    []core.Point{{ID: "b", Order: 1}},
		Deletes: []string{"a", "missing"},
	})
	require.ErrorIs(t, err, core.ErrNotFound)

	a, err := b.Get("a")
	require.NoError(t, err, "delete of a must be rolled back")
	assert.Equal(t, 1, a.Order)

	bp, err := b.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 2, bp.Order)
}

func TestApply_Compaction(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Put(core.Point{ID: "a", Order: 1}))
	require.NoError(t, b.Put(core.Point{ID: "b", Order: 2}))
	require.NoError(t, b.Put(core.Point{ID: "c", Order: 3}))

	require.NoError(t, b.Apply(storage.Batch{
		Deletes: []string{"b"},
		Puts:    []core.Point{{ID: "c", Order: 2}},
	}))

	list, err := b.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
	assert.Equal(t, 2, list[1].Order)
}

func TestApply_Empty(t *testing.T) {
	b := newTestBackend(t)
	assert.NoError(t, b.Apply(storage.Batch{}))
}
