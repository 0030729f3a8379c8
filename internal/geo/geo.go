package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/pointmap/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Locations are handled as EPSG:4326 everywhere in the domain. The map surface
// and the area measurement work in EPSG:3857 (web mercator), so conversion
// happens only at those edges.

// EarthRadius is the WGS84 semi-major axis in metres.
const EarthRadius = 6378137.0

// MaxMercatorLat is the latitude limit of web mercator.
const MaxMercatorLat = 85.05112878

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// LocationFromString parses a string in the format "lat,lng" into a core.Location.
func LocationFromString(coords string) (core.Location, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return core.Location{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Location{}, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Location{}, ErrInvalidCoordinates
	}
	loc := core.Location{Lat: lat, Lng: lng}
	if !Valid(loc) {
		return core.Location{}, ErrInvalidCoordinates
	}
	return loc, nil
}

// Valid reports whether loc lies within the WGS84 bounds.
func Valid(loc core.Location) bool {
	if math.IsNaN(loc.Lat) || math.IsNaN(loc.Lng) {
		return false
	}
	return loc.Lat >= -90 && loc.Lat <= 90 && loc.Lng >= -180 && loc.Lng <= 180
}

// PointFromLocation creates a 4326 geom.Point (X=lng, Y=lat) for storage.
// Non-finite coordinates are rejected by the constructor.
func PointFromLocation(loc core.Location) (geom.Point, error) {
	p, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: loc.Lng, Y: loc.Lat},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return p, nil
}

// LocationFromPoint reads a 4326 geom.Point back into a core.Location.
// An empty point yields the zero location.
func LocationFromPoint(p geom.Point) core.Location {
	coords, ok := p.Coordinates()
	if !ok {
		return core.Location{}
	}
	return core.Location{Lat: coords.Y, Lng: coords.X}
}

// To3857 projects a location to web mercator metres.
func To3857(loc core.Location) geom.XY {
	lat := math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, loc.Lat))
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(loc.Lng, lat, 0)
	return geom.XY{X: x, Y: y}
}

// From3857 converts web mercator metres back to a location.
func From3857(xy geom.XY) core.Location {
	epsg := wgs84.EPSG()
	f := epsg.Transform(3857, 4326)
	lng, lat, _ := f(xy.X, xy.Y, 0)
	return core.Location{Lat: lat, Lng: lng}
}
