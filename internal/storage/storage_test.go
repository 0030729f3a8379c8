// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/OCAP2/pointmap/internal/storage"
	"github.com/OCAP2/pointmap/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestBatchEmpty(t *testing.T) {
	assert.True(t, storage.Batch{}.Empty())
	assert.False(t, storage.Batch{Deletes: []string{"a"}}.Empty())
	assert.False(t, storage.Batch{Puts: []core.Point{{ID: "a"}}}.Empty())
}
