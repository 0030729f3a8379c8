// Package geometry derives edges and the closed shape from an ordered point
// sequence. Everything here is pure: the same input always yields the same
// output and nothing is retained between calls.
package geometry

import "github.com/OCAP2/pointmap/pkg/core"

// MinShapeVertices is the smallest sequence that gets a closing edge and a
// filled shape. Below it Polygon mode degrades to Line.
const MinShapeVertices = 3

// Locations extracts the location sequence from points already sorted by order.
func Locations(points []core.Point) []core.Location {
	locs := make([]core.Location, len(points))
	for i, p := range points {
		locs[i] = p.Location
	}
	return locs
}

// BuildEdges returns the edge list for mode.
func BuildEdges(points []core.Location, mode core.Mode) []core.Edge {
	if mode == core.ModePoint || len(points) < 2 {
		return []core.Edge{}
	}

	n := len(points)
	edges := make([]core.Edge, 0, n)
	for i := 0; i < n-1; i++ {
		edges = append(edges, core.Edge{From: points[i], To: points[i+1]})
	}

	if mode == core.ModePolygon && n >= MinShapeVertices {
		edges = append(edges, core.Edge{From: points[n-1], To: points[0]})
	}
	return edges
}

// BuildShapeVertices returns the closed vertex loop (first vertex repeated at
// the end) when mode is Polygon and there are enough points.
func BuildShapeVertices(points []core.Location, mode core.Mode) ([]core.Location, bool) {
	if mode != core.ModePolygon || len(points) < MinShapeVertices {
		return nil, false
	}
	loop := make([]core.Location, 0, len(points)+1)
	loop = append(loop, points...)
	loop = append(loop, points[0])
	return loop, true
}

// View is the full derived state for one point sequence and mode.
type View struct {
	Mode  core.Mode
	Edges []core.Edge
	Shape []core.Location
}

// HasShape reports whether the filled shape is active.
func (v View) HasShape() bool {
	return v.Shape != nil
}

// Build computes edges and shape together.
func Build(points []core.Location, mode core.Mode) View {
	shape, _ := BuildShapeVertices(points, mode)
	return View{
		Mode:  mode,
		Edges: BuildEdges(points, mode),
		Shape: shape,
	}
}
