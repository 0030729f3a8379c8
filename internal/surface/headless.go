// Package surface provides an in-memory map surface. It projects pixels
// through a web-mercator viewport the way slippy-map widgets do and records
// markers and drawings so hosts and tests can inspect them.
package surface

import (
	"math"
	"sort"
	"sync"

	"github.com/OCAP2/pointmap/internal/config"
	"github.com/OCAP2/pointmap/internal/geo"
	"github.com/OCAP2/pointmap/internal/mapview"
	"github.com/OCAP2/pointmap/pkg/core"

	"github.com/peterstace/simplefeatures/geom"
)

// TileSize is the edge length of a map tile in pixels.
const TileSize = 256

// HitRadius is how close, in pixels, a click must be to a marker to hit it.
const HitRadius = 8.0

// Viewport is the visible part of the map.
type Viewport struct {
	Center core.Location
	Zoom   int
	Width  int
	Height int
}

// ViewportFromConfig builds a viewport from the map config section.
func ViewportFromConfig(c config.MapConfig) Viewport {
	return Viewport{Center: c.Center, Zoom: c.Zoom, Width: c.Width, Height: c.Height}
}

// MetresPerPixel is the web-mercator resolution at this zoom.
func (v Viewport) MetresPerPixel() float64 {
	world := float64(TileSize) * math.Pow(2, float64(v.Zoom))
	return 2 * math.Pi * geo.EarthRadius / world
}

// Marker is a placed marker.
type Marker struct {
	Ref      mapview.MarkerRef
	Location core.Location
	Text     string
}

// Kind distinguishes drawings.
type Kind int

const (
	Polyline Kind = iota
	Polygon
)

// Drawing is one polyline or polygon on a layer.
type Drawing struct {
	Kind     Kind
	Vertices []core.Location
}

// Headless implements mapview.Surface without a display.
type Headless struct {
	mu       sync.RWMutex
	viewport Viewport
	next     mapview.MarkerRef
	markers  map[mapview.MarkerRef]Marker
	layers   map[mapview.Layer][]Drawing
}

// NewHeadless creates a surface showing vp.
func NewHeadless(vp Viewport) *Headless {
	return &Headless{
		viewport: vp,
		markers:  make(map[mapview.MarkerRef]Marker),
		layers:   make(map[mapview.Layer][]Drawing),
	}
}

// Viewport returns the current viewport.
func (h *Headless) Viewport() Viewport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewport
}

// SetViewport pans or zooms the map. Markers keep their locations.
func (h *Headless) SetViewport(vp Viewport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewport = vp
}

// PixelToLocation converts a pixel inside the viewport to a location.
func (h *Headless) PixelToLocation(px mapview.Pixel) (core.Location, bool) {
	vp := h.Viewport()
	if px.X < 0 || px.Y < 0 || px.X > float64(vp.Width) || px.Y > float64(vp.Height) {
		return core.Location{}, false
	}

	centre := geo.To3857(vp.Center)
	res := vp.MetresPerPixel()
	xy := geom.XY{
		X: centre.X + (px.X-float64(vp.Width)/2)*res,
		Y: centre.Y - (px.Y-float64(vp.Height)/2)*res,
	}
	loc := geo.From3857(xy)
	return loc, geo.Valid(loc)
}

// LocationToPixel converts a location to a pixel; ok is false when it falls
// outside the viewport.
func (h *Headless) LocationToPixel(loc core.Location) (mapview.Pixel, bool) {
	vp := h.Viewport()
	centre := geo.To3857(vp.Center)
	xy := geo.To3857(loc)
	res := vp.MetresPerPixel()

	px := mapview.Pixel{
		X: (xy.X-centre.X)/res + float64(vp.Width)/2,
		Y: (centre.Y-xy.Y)/res + float64(vp.Height)/2,
	}
	inside := px.X >= 0 && px.Y >= 0 && px.X <= float64(vp.Width) && px.Y <= float64(vp.Height)
	return px, inside
}

// Gesture classifies a click at px: a marker within HitRadius wins over the map.
func (h *Headless) Gesture(px mapview.Pixel) mapview.Gesture {
	if ref, ok := h.HitTest(px); ok {
		return mapview.Gesture{Target: mapview.TargetMarker, Pixel: px, Marker: ref}
	}
	return mapview.Gesture{Target: mapview.TargetMap, Pixel: px}
}

// HitTest returns the nearest marker within HitRadius of px.
func (h *Headless) HitTest(px mapview.Pixel) (mapview.MarkerRef, bool) {
	var (
		best     mapview.MarkerRef
		bestDist = math.Inf(1)
		found    bool
	)
	for _, m := range h.Markers() {
		mp, ok := h.LocationToPixel(m.Location)
		if !ok {
			continue
		}
		d := math.Hypot(mp.X-px.X, mp.Y-px.Y)
		if d <= HitRadius && d < bestDist {
			best, bestDist, found = m.Ref, d, true
		}
	}
	return best, found
}

// PlaceMarker adds a marker and returns its handle.
func (h *Headless) PlaceMarker(loc core.Location, text string) mapview.MarkerRef {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	ref := h.next
	h.markers[ref] = Marker{Ref: ref, Location: loc, Text: text}
	return ref
}

// MoveMarker repositions a marker. Unknown refs are ignored.
func (h *Headless) MoveMarker(ref mapview.MarkerRef, loc core.Location) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.markers[ref]; ok {
		m.Location = loc
		h.markers[ref] = m
	}
}

// SetMarkerText changes a marker's label. Unknown refs are ignored.
func (h *Headless) SetMarkerText(ref mapview.MarkerRef, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.markers[ref]; ok {
		m.Text = text
		h.markers[ref] = m
	}
}

// RemoveMarker deletes a marker. Unknown refs are ignored.
func (h *Headless) RemoveMarker(ref mapview.MarkerRef) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.markers, ref)
}

// ClearLayer empties a layer.
func (h *Headless) ClearLayer(layer mapview.Layer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if layer == mapview.LayerMarkers {
		h.markers = make(map[mapview.MarkerRef]Marker)
	}
	delete(h.layers, layer)
}

// DrawPolyline adds an open path to layer.
func (h *Headless) DrawPolyline(layer mapview.Layer, vertices []core.Location) {
	h.draw(layer, Polyline, vertices)
}

// DrawPolygon adds a filled ring to layer.
func (h *Headless) DrawPolygon(layer mapview.Layer, vertices []core.Location) {
	h.draw(layer, Polygon, vertices)
}

func (h *Headless) draw(layer mapview.Layer, kind Kind, vertices []core.Location) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cp := make([]core.Location, len(vertices))
	copy(cp, vertices)
	h.layers[layer] = append(h.layers[layer], Drawing{Kind: kind, Vertices: cp})
}

// Markers returns every marker ordered by placement.
func (h *Headless) Markers() []Marker {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Marker, 0, len(h.markers))
	for _, m := range h.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}

// Marker returns a single marker.
func (h *Headless) Marker(ref mapview.MarkerRef) (Marker, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.markers[ref]
	return m, ok
}

// Drawings returns a copy of the drawings on layer.
func (h *Headless) Drawings(layer mapview.Layer) []Drawing {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Drawing, len(h.layers[layer]))
	copy(out, h.layers[layer])
	return out
}
