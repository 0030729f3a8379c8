package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/OCAP2/pointmap/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationFromString_Valid(t *testing.T) {
	loc, err := LocationFromString("47.5,-122.3")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Lat != 47.5 {
		t.Errorf("expected Lat=47.5, got %f", loc.Lat)
	}
	if loc.Lng != -122.3 {
		t.Errorf("expected Lng=-122.3, got %f", loc.Lng)
	}
}

func TestLocationFromString_Whitespace(t *testing.T) {
	loc, err := LocationFromString(" 47.5 , -122.3 ")

	require.NoError(t, err)
	assert.Equal(t, core.Location{Lat: 47.5, Lng: -122.3}, loc)
}

func TestLocationFromString_ExtraComponents(t *testing.T) {
	// Extra components beyond lat,lng are ignored
	loc, err := LocationFromString("10,20,30")

	require.NoError(t, err)
	assert.Equal(t, core.Location{Lat: 10, Lng: 20}, loc)
}

func TestLocationFromString_Invalid(t *testing.T) {
	inputs := []string{"", "47.5", "abc,1", "1,xyz", "91,0", "0,181", "-90.5,0"}

	for _, in := range inputs {
		_, err := LocationFromString(in)
		if !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("%q: expected ErrInvalidCoordinates, got %v", in, err)
		}
	}
}

func TestPointRoundTrip(t *testing.T) {
	loc := core.Location{Lat: 47.6, Lng: -122.2}

	p, err := PointFromLocation(loc)
	require.NoError(t, err)
	coords, ok := p.Coordinates()
	require.True(t, ok)
	assert.Equal(t, -122.2, coords.X, "X is longitude")
	assert.Equal(t, 47.6, coords.Y, "Y is latitude")

	assert.Equal(t, loc, LocationFromPoint(p))
}

func TestLocationFromPoint_Empty(t *testing.T) {
	assert.Equal(t, core.Location{}, LocationFromPoint(geom.Point{}))
}

func TestPointFromLocation_NonFinite(t *testing.T) {
	_, err := PointFromLocation(core.Location{Lat: math.NaN(), Lng: 1})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = PointFromLocation(core.Location{Lat: 1, Lng: math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestTo3857_Origin(t *testing.T) {
	xy := To3857(core.Location{})

	assert.InDelta(t, 0, xy.X, 1e-6)
	assert.InDelta(t, 0, xy.Y, 1e-6)
}

func TestTo3857_Hemispheres(t *testing.T) {
	ne := To3857(core.Location{Lat: 10, Lng: 10})
	assert.Greater(t, ne.X, 0.0)
	assert.Greater(t, ne.Y, 0.0)

	sw := To3857(core.Location{Lat: -30, Lng: -45})
	assert.Less(t, sw.X, 0.0)
	assert.Less(t, sw.Y, 0.0)
}

func TestFrom3857_InvertsTo3857(t *testing.T) {
	loc := core.Location{Lat: 47.5, Lng: -122.3}

	back := From3857(To3857(loc))

	assert.InDelta(t, loc.Lat, back.Lat, 1e-7)
	assert.InDelta(t, loc.Lng, back.Lng, 1e-7)
}
