package convert

import (
	"math"
	"testing"

	"github.com/OCAP2/pointmap/internal/geo"
	"github.com/OCAP2/pointmap/internal/model"
	"github.com/OCAP2/pointmap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointConversion(t *testing.T) {
	p := core.Point{
		ID:       "6f1c0d64-5a8e-4f0e-9d0c-2b1f1c9c7b11",
		Order:    1,
		Location: core.Location{Lat: 47.5, Lng: -122.3},
		Label:    "start",
		Header:   core.Header{Description: "morning loop", ModeHint: "shape"},
		Done:     true,
	}

	row, err := CoreToPoint(p)
	require.NoError(t, err)
	assert.Equal(t, 1, row.PointOrder)
	assert.Equal(t, "morning loop", row.Header.Data().Description)

	coords, ok := row.Location.Coordinates()
	assert.True(t, ok)
	assert.Equal(t, -122.3, coords.X)
	assert.Equal(t, 47.5, coords.Y)

	assert.Equal(t, p, PointToCore(row))
}

func TestPointsToCore(t *testing.T) {
	rows := []core.Point{
		{ID: "a", Order: 1, Label: "A"},
		{ID: "b", Order: 2, Label: "B"},
	}

	first, err := CoreToPoint(rows[0])
	require.NoError(t, err)
	second, err := CoreToPoint(rows[1])
	require.NoError(t, err)

	out := PointsToCore([]model.Point{first, second})
	assert.Equal(t, rows, out)
}

func TestCoreToPoint_RejectsNonFiniteLocation(t *testing.T) {
	_, err := CoreToPoint(core.Point{ID: "a", Location: core.Location{Lat: math.NaN()}})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}
