// internal/storage/storage.go
package storage

import "github.com/OCAP2/pointmap/pkg/core"

// Backend is the key-value persistence contract for points. Order carries no
// meaning at this layer; List may return points in any order.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Get returns core.ErrNotFound when no point has the id.
	Get(id string) (core.Point, error)
	Put(p core.Point) error
	// Delete returns core.ErrNotFound when no point has the id.
	Delete(id string) error
	List() ([]core.Point, error)

	// Apply writes every put and delete in b, or none of them.
	Apply(b Batch) error
}

// Batch is a set of writes applied atomically by Backend.Apply.
type Batch struct {
	Puts    []core.Point
	Deletes []string
}

// Empty reports whether the batch has nothing to write.
func (b Batch) Empty() bool {
	return len(b.Puts) == 0 && len(b.Deletes) == 0
}

// Snapshotter is an optional interface for backends that can write a copy of
// their contents to a file.
type Snapshotter interface {
	Snapshot(path string) error
}
