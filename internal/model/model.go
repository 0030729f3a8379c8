package model

import (
	"time"

	"github.com/OCAP2/pointmap/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Point{},
}

// Point is the persisted row of a sequence point.
// Location is stored as WKB in EPSG:4326 (X=lng, Y=lat); SQLite has no spatial
// type so the column is a plain blob there.
type Point struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	PointOrder int                             `json:"order" gorm:"column:point_order;index:idx_point_order"`
	Location   geom.Point                      `json:"location"`
	Label      string                          `json:"label" gorm:"size:256"`
	Header     datatypes.JSONType[core.Header] `json:"header"`
	Done       bool                            `json:"done"`
}

func (*Point) TableName() string {
	return "points"
}
