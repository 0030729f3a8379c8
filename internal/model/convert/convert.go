// Package convert provides functions to convert GORM models to core models and back
package convert

import (
	"fmt"

	"github.com/OCAP2/pointmap/internal/geo"
	"github.com/OCAP2/pointmap/internal/model"
	"github.com/OCAP2/pointmap/pkg/core"
	"gorm.io/datatypes"
)

// PointToCore converts a GORM point row to a core.Point.
func PointToCore(p model.Point) core.Point {
	return core.Point{
		ID:       p.ID,
		Order:    p.PointOrder,
		Location: geo.LocationFromPoint(p.Location),
		Label:    p.Label,
		Header:   p.Header.Data(),
		Done:     p.Done,
	}
}

// CoreToPoint converts a core.Point to a GORM point row.
func CoreToPoint(p core.Point) (model.Point, error) {
	loc, err := geo.PointFromLocation(p.Location)
	if err != nil {
		return model.Point{}, fmt.Errorf("point %s: %w", p.ID, err)
	}
	return model.Point{
		ID:         p.ID,
		PointOrder: p.Order,
		Location:   loc,
		Label:      p.Label,
		Header:     datatypes.NewJSONType(p.Header),
		Done:       p.Done,
	}, nil
}

// PointsToCore converts a slice of rows.
func PointsToCore(rows []model.Point) []core.Point {
	out := make([]core.Point, len(rows))
	for i, r := range rows {
		out[i] = PointToCore(r)
	}
	return out
}
