// Package mapview keeps the map surface in step with the point store: one
// marker per point bound by id, plus edge and shape layers rebuilt from the
// current order after every change.
package mapview

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/OCAP2/pointmap/internal/geometry"
	"github.com/OCAP2/pointmap/internal/rendermode"
	"github.com/OCAP2/pointmap/pkg/core"
)

// PointStore is the store surface the coordinator drives.
type PointStore interface {
	Create(loc core.Location) (core.Point, error)
	Delete(id string) error
	ClearDone() (int, error)
	Update(id string, u core.PointUpdate) (core.Point, error)
	Get(id string) (core.Point, error)
	All() []core.Point
	Subscribe(fn func(core.Change)) func()
}

// ModeController is the render mode state the coordinator consults.
type ModeController interface {
	Mode() core.Mode
	Layers() rendermode.Layers
	Select(m core.Mode) (rendermode.Transition, error)
	EnsurePersisted() error
}

// Coordinator is the only component that touches the Surface.
type Coordinator struct {
	store   PointStore
	modes   ModeController
	surface Surface
	log     *slog.Logger

	markers  map[string]MarkerRef
	bindings map[MarkerRef]string
	sequence []string // marker ids in store order

	view        geometry.View
	unsubscribe func()
}

// New wires a coordinator to the store's change events. Call Sync to draw
// the initial state.
func New(store PointStore, modes ModeController, surface Surface, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{
		store:    store,
		modes:    modes,
		surface:  surface,
		log:      log.With("component", "mapview"),
		markers:  make(map[string]MarkerRef),
		bindings: make(map[MarkerRef]string),
	}
	c.unsubscribe = store.Subscribe(c.onChange)
	return c
}

// Close detaches the coordinator from the store.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// MarkerText is the display text for p. It encodes the order, so it is
// refreshed after compaction.
func MarkerText(p core.Point) string {
	return fmt.Sprintf("%d. %s", p.Order, p.Label)
}

// Sync clears the surface and redraws every marker and derived layer.
func (c *Coordinator) Sync() {
	c.surface.ClearLayer(LayerMarkers)
	c.markers = make(map[string]MarkerRef)
	c.bindings = make(map[MarkerRef]string)
	c.sequence = c.sequence[:0]

	for _, p := range c.store.All() {
		c.bind(p)
	}
	c.RebuildGeometry()
	c.log.Debug("Surface synced", "markers", len(c.sequence))
}

// OnMapClicked creates a point where the background map was clicked. Clicks
// on markers and clicks outside the map are ignored. A new first point must
// carry the current mode; failing to persist it is returned with the point.
func (c *Coordinator) OnMapClicked(g Gesture) (core.Point, bool, error) {
	if g.Target != TargetMap {
		return core.Point{}, false, nil
	}
	loc, ok := c.surface.PixelToLocation(g.Pixel)
	if !ok {
		return core.Point{}, false, nil
	}
	p, err := c.store.Create(loc)
	if err != nil {
		return core.Point{}, false, err
	}
	if p.IsHeader() {
		if err := c.modes.EnsurePersisted(); err != nil {
			return p, true, err
		}
	}
	return p, true, nil
}

// OnMarkerRightClicked deletes the point bound to ref. Unknown refs are ignored.
func (c *Coordinator) OnMarkerRightClicked(ref MarkerRef) error {
	id, ok := c.bindings[ref]
	if !ok {
		c.log.Debug("Ignoring right-click on unbound marker", "marker", uint64(ref))
		return nil
	}
	return c.DeletePoint(id)
}

// OnMarkerDragEnded moves the point bound to ref. Unknown refs are ignored.
func (c *Coordinator) OnMarkerDragEnded(ref MarkerRef, loc core.Location) error {
	id, ok := c.bindings[ref]
	if !ok {
		c.log.Debug("Ignoring drag on unbound marker", "marker", uint64(ref))
		return nil
	}
	_, err := c.store.Update(id, core.PointUpdate{Location: &loc})
	return benign(err)
}

// OnModeChanged switches the render mode and redraws the derived layers.
func (c *Coordinator) OnModeChanged(m core.Mode) error {
	tr, err := c.modes.Select(m)
	if err != nil {
		return err
	}
	if tr.Changed() {
		c.RebuildGeometry()
	}
	return nil
}

// DeletePoint removes a point by id, as the list view's destroy action does.
// A point that is already gone is not an error.
func (c *Coordinator) DeletePoint(id string) error {
	return benign(c.store.Delete(id))
}

// ClearDone removes every point marked done, as the list view's "clear
// completed" action does.
func (c *Coordinator) ClearDone() (int, error) {
	return c.store.ClearDone()
}

// RelabelPoint sets a point's label. An empty label deletes the point.
func (c *Coordinator) RelabelPoint(id, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return c.DeletePoint(id)
	}
	_, err := c.store.Update(id, core.PointUpdate{Label: &label})
	return benign(err)
}

// RebuildGeometry recomputes edges and shape from the store in the current
// mode and replaces both derived layers. Layers the mode does not render are
// left cleared.
func (c *Coordinator) RebuildGeometry() {
	locs := geometry.Locations(c.store.All())
	c.view = geometry.Build(locs, c.modes.Mode())
	layers := c.modes.Layers()

	c.surface.ClearLayer(LayerEdges)
	c.surface.ClearLayer(LayerShape)

	if layers.Edges {
		for _, e := range c.view.Edges {
			c.surface.DrawPolyline(LayerEdges, []core.Location{e.From, e.To})
		}
	}
	if layers.Shape && c.view.HasShape() {
		c.surface.DrawPolygon(LayerShape, c.view.Shape)
	}
}

// View returns the derived geometry last drawn.
func (c *Coordinator) View() geometry.View {
	return c.view
}

// MarkerFor returns the marker bound to id.
func (c *Coordinator) MarkerFor(id string) (MarkerRef, bool) {
	ref, ok := c.markers[id]
	return ref, ok
}

// PointFor resolves the point id bound to ref.
func (c *Coordinator) PointFor(ref MarkerRef) (string, bool) {
	id, ok := c.bindings[ref]
	return id, ok
}

// MarkerCount returns the number of bound markers.
func (c *Coordinator) MarkerCount() int {
	return len(c.markers)
}

// Check verifies marker parity: one marker per live point, each bound to a
// live id, in store order.
func (c *Coordinator) Check() error {
	points := c.store.All()
	if len(points) != len(c.markers) || len(points) != len(c.bindings) || len(points) != len(c.sequence) {
		return fmt.Errorf("%w: %d points, %d markers", core.ErrInvariantViolation, len(points), len(c.markers))
	}
	for i, p := range points {
		ref, ok := c.markers[p.ID]
		if !ok {
			return fmt.Errorf("%w: point %s has no marker", core.ErrInvariantViolation, p.ID)
		}
		if c.bindings[ref] != p.ID {
			return fmt.Errorf("%w: marker %d bound to %q, want %q", core.ErrInvariantViolation, ref, c.bindings[ref], p.ID)
		}
		if c.sequence[i] != p.ID {
			return fmt.Errorf("%w: marker sequence diverges at order %d", core.ErrInvariantViolation, p.Order)
		}
	}
	return nil
}

func (c *Coordinator) onChange(ch core.Change) {
	switch ch.Kind {
	case core.Created:
		c.bind(ch.Point)
	case core.Deleted:
		c.unbind(ch.Point.ID)
		for _, id := range ch.Shifted {
			c.refresh(id)
		}
	case core.Updated:
		if ref, ok := c.markers[ch.Point.ID]; ok {
			c.surface.MoveMarker(ref, ch.Point.Location)
			c.surface.SetMarkerText(ref, MarkerText(ch.Point))
		}
	case core.Reordered:
		c.Sync()
		return
	}
	c.RebuildGeometry()
}

func (c *Coordinator) bind(p core.Point) {
	ref := c.surface.PlaceMarker(p.Location, MarkerText(p))
	c.markers[p.ID] = ref
	c.bindings[ref] = p.ID
	c.sequence = append(c.sequence, p.ID)
}

func (c *Coordinator) unbind(id string) {
	ref, ok := c.markers[id]
	if !ok {
		return
	}
	c.surface.RemoveMarker(ref)
	delete(c.markers, id)
	delete(c.bindings, ref)
	for i, seqID := range c.sequence {
		if seqID == id {
			c.sequence = append(c.sequence[:i], c.sequence[i+1:]...)
			break
		}
	}
}

func (c *Coordinator) refresh(id string) {
	ref, ok := c.markers[id]
	if !ok {
		return
	}
	p, err := c.store.Get(id)
	if err != nil {
		return
	}
	c.surface.SetMarkerText(ref, MarkerText(p))
}

// benign drops NotFound, which gestures racing a prior delete produce.
func benign(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return err
}
