// Package memory implements storage.Backend with an in-process map. When a
// snapshot path is configured every successful write rewrites the snapshot
// file, and Init reloads it, so the collection survives restarts.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/OCAP2/pointmap/internal/config"
	"github.com/OCAP2/pointmap/internal/storage"
	"github.com/OCAP2/pointmap/pkg/core"
)

// snapshotVersion is bumped when the file layout changes.
const snapshotVersion = 1

type snapshotFile struct {
	Version int          `json:"version"`
	Points  []core.Point `json:"points"`
}

// Backend stores points in memory
type Backend struct {
	cfg    config.MemoryConfig
	points map[string]core.Point // keyed by ID
	mu     sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:    cfg,
		points: make(map[string]core.Point),
	}
}

// Init loads the snapshot file if one is configured and present.
func (b *Backend) Init() error {
	if b.cfg.SnapshotPath == "" {
		return nil
	}

	data, err := os.ReadFile(b.cfg.SnapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", b.cfg.SnapshotPath, err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = make(map[string]core.Point, len(snap.Points))
	for _, p := range snap.Points {
		b.points[p.ID] = p
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Get returns the point with id.
func (b *Backend) Get(id string) (core.Point, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.points[id]
	if !ok {
		return core.Point{}, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

// Put inserts or replaces a point.
func (b *Backend) Put(p core.Point) error {
	return b.Apply(storage.Batch{Puts: []core.Point{p}})
}

// Delete removes a point.
func (b *Backend) Delete(id string) error {
	return b.Apply(storage.Batch{Deletes: []string{id}})
}

// List returns every stored point sorted by id.
func (b *Backend) List() ([]core.Point, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedLocked(), nil
}

// Apply writes the batch. The map is swapped only after the snapshot has been
// written, so a failed write leaves the previous contents in place.
func (b *Backend) Apply(batch storage.Batch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make(map[string]core.Point, len(b.points)+len(batch.Puts))
	for id, p := range b.points {
		next[id] = p
	}
	for _, id := range batch.Deletes {
		if _, ok := next[id]; !ok {
			return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
		}
		delete(next, id)
	}
	for _, p := range batch.Puts {
		if p.ID == "" {
			return errors.New("put: point has no id")
		}
		next[p.ID] = p
	}

	if b.cfg.SnapshotPath != "" {
		if err := writeSnapshot(b.cfg.SnapshotPath, sortedPoints(next)); err != nil {
			return err
		}
	}

	b.points = next
	return nil
}

// Snapshot writes the current contents to path.
func (b *Backend) Snapshot(path string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return writeSnapshot(path, b.sortedLocked())
}

func (b *Backend) sortedLocked() []core.Point {
	return sortedPoints(b.points)
}

func sortedPoints(m map[string]core.Point) []core.Point {
	out := make([]core.Point, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// writeSnapshot writes to a temp file in the same directory and renames it
// over path so readers never observe a partial file.
func writeSnapshot(path string, points []core.Point) error {
	data, err := json.MarshalIndent(snapshotFile{Version: snapshotVersion, Points: points}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
