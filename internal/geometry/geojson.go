package geometry

import (
	"github.com/OCAP2/pointmap/internal/geo"
	"github.com/OCAP2/pointmap/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// FeatureCollection renders the sequence and its derived layers as GeoJSON:
// one Point feature per point, a MultiLineString for the edges (when any) and
// a Polygon for the shape (when active). A self-intersecting or collapsed
// shape yields ErrInvalidShape rather than an empty polygon.
func FeatureCollection(points []core.Point, mode core.Mode) (geom.GeoJSONFeatureCollection, error) {
	locs := Locations(points)
	v := Build(locs, mode)

	fc := make(geom.GeoJSONFeatureCollection, 0, len(points)+2)
	for _, p := range points {
		props := map[string]interface{}{
			"layer": "markers",
			"order": p.Order,
			"label": p.Label,
			"done":  p.Done,
		}
		if p.IsHeader() && !p.Header.IsZero() {
			props["description"] = p.Header.Description
			props["mode"] = p.Header.ModeHint
		}
		pt, err := geo.PointFromLocation(p.Location)
		if err != nil {
			return nil, err
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:         p.ID,
			Geometry:   pt.AsGeometry(),
			Properties: props,
		})
	}

	edges, err := ToMultiLineString(v.Edges)
	if err != nil {
		return nil, err
	}
	if !edges.IsEmpty() {
		fc = append(fc, geom.GeoJSONFeature{
			ID:       "edges",
			Geometry: edges.AsGeometry(),
			Properties: map[string]interface{}{
				"layer": "edges",
				"mode":  mode.String(),
			},
		})
	}

	if v.HasShape() {
		shape, err := ToPolygon(v.Shape)
		if err != nil {
			return nil, err
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:       "shape",
			Geometry: shape.AsGeometry(),
			Properties: map[string]interface{}{
				"layer": "shape",
			},
		})
	}

	return fc, nil
}
