// pkg/core/types.go
package core

// Location is a WGS84 latitude/longitude pair in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Edge is a derived segment between two locations adjacent in display order.
type Edge struct {
	From Location `json:"from"`
	To   Location `json:"to"`
}

// Header is the sequence-wide annotation carried by the point with order 1.
type Header struct {
	Description string `json:"description"`
	ModeHint    string `json:"modeHint"`
}

// IsZero reports whether the header carries nothing.
func (h Header) IsZero() bool {
	return h.Description == "" && h.ModeHint == ""
}
