// pkg/core/point.go
package core

// DefaultLabel is applied to points created without a label.
const DefaultLabel = "display point..."

// Point is a persisted member of the ordered sequence.
// ID is stable for the life of the point; Order is display-only and
// changes whenever an earlier point is deleted.
type Point struct {
	ID       string   `json:"id"`
	Order    int      `json:"order"`
	Location Location `json:"location"`
	Label    string   `json:"label"`
	Header   Header   `json:"header"`
	Done     bool     `json:"done"`
}

// IsHeader reports whether the point carries the sequence header.
func (p Point) IsHeader() bool {
	return p.Order == 1
}

// PointUpdate carries the fields to merge into a point. Nil fields are left
// untouched. Order and ID are present only so that attempts to set them can
// be rejected.
type PointUpdate struct {
	Location    *Location
	Label       *string
	Description *string
	ModeHint    *string
	Done        *bool

	Order *int
	ID    *string
}

// Apply merges u into p and returns the result. It does not validate.
func (u PointUpdate) Apply(p Point) Point {
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.Label != nil {
		p.Label = *u.Label
	}
	if u.Description != nil {
		p.Header.Description = *u.Description
	}
	if u.ModeHint != nil {
		p.Header.ModeHint = *u.ModeHint
	}
	if u.Done != nil {
		p.Done = *u.Done
	}
	return p
}

// TouchesHeader reports whether the update sets header fields.
func (u PointUpdate) TouchesHeader() bool {
	return u.Description != nil || u.ModeHint != nil
}

// ChangeKind identifies a store mutation.
type ChangeKind int

const (
	Created ChangeKind = iota
	Updated
	Deleted
	Reordered
)

func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	case Reordered:
		return "reordered"
	default:
		return "unknown"
	}
}

// Change is emitted by the point store after a mutation has been persisted.
// For Deleted, Shifted lists the ids whose order was decremented.
type Change struct {
	Kind    ChangeKind
	Point   Point
	Shifted []string
}
