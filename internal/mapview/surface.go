package mapview

import (
	"fmt"

	"github.com/OCAP2/pointmap/pkg/core"
)

// Pixel is a position in surface coordinates, origin top-left.
type Pixel struct {
	X float64
	Y float64
}

// MarkerRef is the surface's opaque handle for a placed marker.
type MarkerRef uint64

// Layer identifies one of the independently clearable drawing groups.
type Layer int

const (
	LayerMarkers Layer = iota
	LayerEdges
	LayerShape
)

func (l Layer) String() string {
	switch l {
	case LayerMarkers:
		return "markers"
	case LayerEdges:
		return "edges"
	case LayerShape:
		return "shape"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// Target is what a gesture landed on.
type Target int

const (
	TargetMap Target = iota
	TargetMarker
)

// Gesture is a click reported by the surface.
type Gesture struct {
	Target Target
	Pixel  Pixel
	Marker MarkerRef // set when Target is TargetMarker
}

// Surface is the map-rendering collaborator. Only the Coordinator calls it.
type Surface interface {
	PixelToLocation(px Pixel) (core.Location, bool)

	PlaceMarker(loc core.Location, text string) MarkerRef
	MoveMarker(ref MarkerRef, loc core.Location)
	SetMarkerText(ref MarkerRef, text string)
	RemoveMarker(ref MarkerRef)

	// ClearLayer removes everything drawn on layer, markers included.
	ClearLayer(layer Layer)
	DrawPolyline(layer Layer, vertices []core.Location)
	DrawPolygon(layer Layer, vertices []core.Location)
}
