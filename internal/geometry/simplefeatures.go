package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/OCAP2/pointmap/internal/geo"
	"github.com/OCAP2/pointmap/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidShape is returned when the closed loop is not a simple polygon,
// e.g. when the user drew a self-intersecting (bowtie) loop or placed the
// vertices on top of each other.
var ErrInvalidShape = errors.New("shape is not a valid polygon")

// ToLineString converts a location sequence into an EPSG:4326 LineString (X=lng, Y=lat).
// The sequence needs at least two distinct locations.
func ToLineString(locs []core.Location) (geom.LineString, error) {
	flat := make([]float64, 0, len(locs)*2)
	for _, l := range locs {
		flat = append(flat, l.Lng, l.Lat)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("line string: %w", err)
	}
	return ls, nil
}

// ToMultiLineString converts edges into one two-vertex LineString per edge.
// Zero-length edges (two points on the same spot) have no line geometry and
// are left out.
func ToMultiLineString(edges []core.Edge) (geom.MultiLineString, error) {
	lss := make([]geom.LineString, 0, len(edges))
	for _, e := range edges {
		if e.From == e.To {
			continue
		}
		ls, err := ToLineString([]core.Location{e.From, e.To})
		if err != nil {
			return geom.MultiLineString{}, err
		}
		lss = append(lss, ls)
	}
	return geom.NewMultiLineString(lss), nil
}

// ToPolygon converts a closed vertex loop into a single-ring polygon.
func ToPolygon(loop []core.Location) (geom.Polygon, error) {
	ring, err := ToLineString(loop)
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	return poly, nil
}

// Summary holds measurements of the derived view.
type Summary struct {
	Points       int     `json:"points"`
	Edges        int     `json:"edges"`
	LengthMetres float64 `json:"lengthMetres"`
	AreaSqMetres float64 `json:"areaSqMetres"`
	Closed       bool    `json:"closed"`
}

// Measure returns edge count, total edge length and the shape area. Both are
// computed in web mercator and scaled back by the cosine of the latitude,
// which is accurate for the small shapes drawn by hand on a map.
// ErrInvalidShape is returned when the shape cannot be measured.
func Measure(points []core.Location, mode core.Mode) (Summary, error) {
	v := Build(points, mode)
	s := Summary{
		Points: len(points),
		Edges:  len(v.Edges),
		Closed: v.HasShape(),
	}
	for _, e := range v.Edges {
		l, err := projectedLength(e)
		if err != nil {
			return Summary{}, err
		}
		s.LengthMetres += l
	}
	if v.HasShape() {
		area, err := projectedArea(v.Shape)
		if err != nil {
			return Summary{}, err
		}
		s.AreaSqMetres = area
	}
	return s, nil
}

func projectedLength(e core.Edge) (float64, error) {
	if e.From == e.To {
		return 0, nil
	}
	from, to := geo.To3857(e.From), geo.To3857(e.To)
	ls, err := geom.NewLineString(geom.NewSequence([]float64{from.X, from.Y, to.X, to.Y}, geom.DimXY))
	if err != nil {
		return 0, fmt.Errorf("edge: %w", err)
	}
	midLat := (e.From.Lat + e.To.Lat) / 2 * math.Pi / 180
	return ls.Length() * math.Cos(midLat), nil
}

func projectedArea(loop []core.Location) (float64, error) {
	flat := make([]float64, 0, len(loop)*2)
	var latSum float64
	for _, l := range loop[:len(loop)-1] {
		latSum += l.Lat
	}
	for _, l := range loop {
		xy := geo.To3857(l)
		flat = append(flat, xy.X, xy.Y)
	}
	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}

	meanLat := latSum / float64(len(loop)-1) * math.Pi / 180
	scale := math.Cos(meanLat)
	return poly.Area() * scale * scale, nil
}
