package geometry

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/OCAP2/pointmap/internal/geo"
	"github.com/OCAP2/pointmap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bowtie crosses itself between the second and fourth vertex.
var bowtie = []core.Location{
	{Lat: 0, Lng: 0},
	{Lat: 0.01, Lng: 0.01},
	{Lat: 0, Lng: 0.01},
	{Lat: 0.01, Lng: 0},
}

func TestToLineString(t *testing.T) {
	ls, err := ToLineString([]core.Location{locA, locB})
	require.NoError(t, err)

	seq := ls.Coordinates()
	require.Equal(t, 2, seq.Length())
	assert.Equal(t, locA.Lng, seq.GetXY(0).X)
	assert.Equal(t, locA.Lat, seq.GetXY(0).Y)
	assert.Equal(t, locB.Lng, seq.GetXY(1).X)
}

func TestToLineString_CoincidentPoints(t *testing.T) {
	_, err := ToLineString([]core.Location{locA, locA})
	assert.Error(t, err)
}

func TestToMultiLineString_SkipsZeroLengthEdges(t *testing.T) {
	mls, err := ToMultiLineString([]core.Edge{
		{From: locA, To: locA},
		{From: locA, To: locB},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mls.NumLineStrings())
}

func TestToPolygon_ClosedRing(t *testing.T) {
	loop, ok := BuildShapeVertices([]core.Location{locA, locB, locC}, core.ModePolygon)
	require.True(t, ok)

	poly, err := ToPolygon(loop)
	require.NoError(t, err)
	ring := poly.ExteriorRing()
	assert.True(t, ring.IsClosed())
	assert.Equal(t, 4, ring.Coordinates().Length())
}

func TestToPolygon_Bowtie(t *testing.T) {
	loop, ok := BuildShapeVertices(bowtie, core.ModePolygon)
	require.True(t, ok)

	_, err := ToPolygon(loop)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestToPolygon_CoincidentVertices(t *testing.T) {
	loop, ok := BuildShapeVertices([]core.Location{locA, locA, locA}, core.ModePolygon)
	require.True(t, ok)

	_, err := ToPolygon(loop)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestMeasure_Line(t *testing.T) {
	// one degree of longitude along the equator, then 0.01 degree north
	s, err := Measure([]core.Location{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0.01, Lng: 1},
	}, core.ModeLine)
	require.NoError(t, err)

	degree := 2 * math.Pi * geo.EarthRadius / 360
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, 2, s.Edges)
	assert.InEpsilon(t, degree*1.01, s.LengthMetres, 0.001)
	assert.False(t, s.Closed)
	assert.Zero(t, s.AreaSqMetres)
}

func TestMeasure_CoincidentPoints(t *testing.T) {
	s, err := Measure([]core.Location{locA, locA}, core.ModeLine)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Edges)
	assert.Zero(t, s.LengthMetres)
}

func TestMeasure_PolygonArea(t *testing.T) {
	// roughly a 0.01 x 0.01 degree square on the equator
	square := []core.Location{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.01},
		{Lat: 0.01, Lng: 0.01},
		{Lat: 0.01, Lng: 0},
	}

	s, err := Measure(square, core.ModePolygon)
	require.NoError(t, err)

	side := 2 * math.Pi * geo.EarthRadius / 360 * 0.01
	assert.True(t, s.Closed)
	assert.Equal(t, 4, s.Edges)
	assert.InEpsilon(t, side*side, s.AreaSqMetres, 0.01)
	assert.InEpsilon(t, 4*side, s.LengthMetres, 0.01)
}

func TestMeasure_BowtieIsInvalid(t *testing.T) {
	_, err := Measure(bowtie, core.ModePolygon)
	assert.ErrorIs(t, err, ErrInvalidShape)

	// the same vertices as an open line are fine
	s, err := Measure(bowtie, core.ModeLine)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Edges)
}

func TestMeasure_PointMode(t *testing.T) {
	s, err := Measure([]core.Location{locA, locB, locC}, core.ModePoint)
	require.NoError(t, err)

	assert.Equal(t, 0, s.Edges)
	assert.Zero(t, s.LengthMetres)
}

func TestFeatureCollection(t *testing.T) {
	points := []core.Point{
		{ID: "a", Order: 1, Location: locA, Label: "A", Header: core.Header{Description: "trip", ModeHint: "shape"}},
		{ID: "c", Order: 2, Location: locC, Label: "C"},
		{ID: "d", Order: 3, Location: locD, Label: "D"},
	}

	fc, err := FeatureCollection(points, core.ModePolygon)
	require.NoError(t, err)
	require.Len(t, fc, 5)
	assert.Equal(t, "a", fc[0].ID)
	assert.Equal(t, "trip", fc[0].Properties["description"])
	assert.Equal(t, "edges", fc[3].ID)
	assert.Equal(t, "shape", fc[4].ID)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
	assert.Contains(t, string(data), `"Polygon"`)
	assert.Contains(t, string(data), `"MultiLineString"`)
}

func TestFeatureCollection_PointModeHasOnlyMarkers(t *testing.T) {
	points := []core.Point{
		{ID: "a", Order: 1, Location: locA},
		{ID: "b", Order: 2, Location: locB},
	}

	fc, err := FeatureCollection(points, core.ModePoint)
	require.NoError(t, err)
	assert.Len(t, fc, 2)
}

func TestFeatureCollection_CoincidentPointsHaveNoEdges(t *testing.T) {
	points := []core.Point{
		{ID: "a", Order: 1, Location: locA},
		{ID: "b", Order: 2, Location: locA},
	}

	fc, err := FeatureCollection(points, core.ModeLine)
	require.NoError(t, err)
	require.Len(t, fc, 2)
	assert.Equal(t, "a", fc[0].ID)
	assert.Equal(t, "b", fc[1].ID)
}

func TestFeatureCollection_BowtieShape(t *testing.T) {
	points := make([]core.Point, len(bowtie))
	for i, loc := range bowtie {
		points[i] = core.Point{ID: string(rune('a' + i)), Order: i + 1, Location: loc}
	}

	_, err := FeatureCollection(points, core.ModePolygon)
	assert.ErrorIs(t, err, ErrInvalidShape)

	fc, err := FeatureCollection(points, core.ModeLine)
	require.NoError(t, err)
	assert.Len(t, fc, 5)
}
