package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/OCAP2/pointmap/internal/dispatcher"
	"github.com/OCAP2/pointmap/internal/geo"
	"github.com/OCAP2/pointmap/internal/geometry"
	"github.com/OCAP2/pointmap/internal/mapview"
	"github.com/OCAP2/pointmap/internal/storage"
	"github.com/OCAP2/pointmap/pkg/core"
)

// Commands understood by the dispatcher.
const (
	CmdMapClick         = ":MAP:CLICK:"
	CmdMapView          = ":MAP:VIEW:"
	CmdMarkerRightClick = ":MARKER:RIGHTCLICK:"
	CmdMarkerDragEnd    = ":MARKER:DRAGEND:"
	CmdModeSelect       = ":MODE:SELECT:"
	CmdPointDelete      = ":POINT:DELETE:"
	CmdPointLabel       = ":POINT:LABEL:"
	CmdPointDone        = ":POINT:DONE:"
	CmdPointClearDone   = ":POINT:CLEARDONE:"
	CmdPointList        = ":POINT:LIST:"
	CmdGeometryExport   = ":GEOMETRY:EXPORT:"
	CmdGeometryMeasure  = ":GEOMETRY:MEASURE:"
	CmdViewCheck        = ":VIEW:CHECK:"
	CmdStorageSnapshot  = ":STORAGE:SNAPSHOT:"
)

// ErrBadArgs is returned when a command's arguments cannot be parsed.
var ErrBadArgs = errors.New("bad arguments")

// RegisterHandlers registers every gesture and list-view command on d.
func (a *App) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdMapClick, a.handleMapClick, dispatcher.Logged())
	d.Register(CmdMapView, a.handleMapView, dispatcher.Logged())
	d.Register(CmdMarkerRightClick, a.handleMarkerRightClick, dispatcher.Logged())
	d.Register(CmdMarkerDragEnd, a.handleMarkerDragEnd, dispatcher.Logged())
	d.Register(CmdModeSelect, a.handleModeSelect, dispatcher.Logged())
	d.Register(CmdPointDelete, a.handlePointDelete, dispatcher.Logged())
	d.Register(CmdPointLabel, a.handlePointLabel, dispatcher.Logged())
	d.Register(CmdPointDone, a.handlePointDone, dispatcher.Logged())
	d.Register(CmdPointClearDone, a.handlePointClearDone, dispatcher.Logged())
	d.Register(CmdPointList, a.handlePointList)
	d.Register(CmdGeometryExport, a.handleGeometryExport, dispatcher.Logged())
	d.Register(CmdGeometryMeasure, a.handleGeometryMeasure)
	d.Register(CmdViewCheck, a.handleViewCheck)
	d.Register(CmdStorageSnapshot, a.handleStorageSnapshot, dispatcher.Logged())
}

// handleMapClick args: x y. The surface decides whether a marker was hit.
func (a *App) handleMapClick(e dispatcher.Event) (any, error) {
	px, err := parsePixel(e.Args)
	if err != nil {
		return nil, err
	}
	p, created, err := a.View.OnMapClicked(a.Surface.Gesture(px))
	if err != nil {
		return nil, err
	}
	if !created {
		return "ignored", nil
	}
	return p, nil
}

// handleMapView args: lat,lng zoom. Pans and zooms the surface; markers keep
// their locations.
func (a *App) handleMapView(e dispatcher.Event) (any, error) {
	if len(e.Args) != 2 {
		return nil, fmt.Errorf("%w: want <lat,lng> <zoom>", ErrBadArgs)
	}
	center, err := geo.LocationFromString(e.Args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	zoom, err := strconv.Atoi(e.Args[1])
	if err != nil || zoom < 0 || zoom > 22 {
		return nil, fmt.Errorf("%w: zoom must be 0-22", ErrBadArgs)
	}
	vp := a.Surface.Viewport()
	vp.Center = center
	vp.Zoom = zoom
	a.Surface.SetViewport(vp)
	return "ok", nil
}

// handleMarkerRightClick args: marker-ref.
func (a *App) handleMarkerRightClick(e dispatcher.Event) (any, error) {
	ref, err := parseMarkerRef(e.Args)
	if err != nil {
		return nil, err
	}
	if err := a.View.OnMarkerRightClicked(ref); err != nil {
		return nil, err
	}
	return "ok", nil
}

// handleMarkerDragEnd args: marker-ref lat,lng.
func (a *App) handleMarkerDragEnd(e dispatcher.Event) (any, error) {
	if len(e.Args) != 2 {
		return nil, fmt.Errorf("%w: want <marker> <lat,lng>", ErrBadArgs)
	}
	ref, err := parseMarkerRef(e.Args[:1])
	if err != nil {
		return nil, err
	}
	loc, err := geo.LocationFromString(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	if err := a.View.OnMarkerDragEnded(ref, loc); err != nil {
		return nil, err
	}
	return "ok", nil
}

// handleModeSelect args: point|line|shape.
func (a *App) handleModeSelect(e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("%w: want <point|line|shape>", ErrBadArgs)
	}
	m, err := core.ParseMode(e.Args[0])
	if err != nil {
		return nil, err
	}
	if err := a.View.OnModeChanged(m); err != nil {
		return nil, err
	}
	return m.String(), nil
}

// handlePointDelete args: id.
func (a *App) handlePointDelete(e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("%w: want <id>", ErrBadArgs)
	}
	if err := a.View.DeletePoint(e.Args[0]); err != nil {
		return nil, err
	}
	return "ok", nil
}

// handlePointLabel args: id label words...; no words deletes the point.
func (a *App) handlePointLabel(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("%w: want <id> [label]", ErrBadArgs)
	}
	if err := a.View.RelabelPoint(e.Args[0], strings.Join(e.Args[1:], " ")); err != nil {
		return nil, err
	}
	return "ok", nil
}

// handlePointDone args: id. Toggles the done flag.
func (a *App) handlePointDone(e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("%w: want <id>", ErrBadArgs)
	}
	return a.Store.ToggleDone(e.Args[0])
}

// handlePointClearDone removes every done point. Returns the number removed.
func (a *App) handlePointClearDone(dispatcher.Event) (any, error) {
	return a.View.ClearDone()
}

func (a *App) handlePointList(dispatcher.Event) (any, error) {
	var b strings.Builder
	for _, p := range a.Store.All() {
		ref, _ := a.View.MarkerFor(p.ID)
		done := " "
		if p.Done {
			done = "x"
		}
		fmt.Fprintf(&b, "[%s] %s marker=%d id=%s at %.6f,%.6f\n",
			done, mapview.MarkerText(p), ref, p.ID, p.Location.Lat, p.Location.Lng)
	}
	st := a.Store.Stats()
	fmt.Fprintf(&b, "%d points, %d done, %d remaining, mode %s", st.Total, st.Done, st.Remaining, a.Modes.Mode())
	return b.String(), nil
}

// handleGeometryExport args: [path]. Without a path the GeoJSON is returned.
func (a *App) handleGeometryExport(e dispatcher.Event) (any, error) {
	fc, err := geometry.FeatureCollection(a.Store.All(), a.Modes.Mode())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if len(e.Args) == 0 {
		return string(data), nil
	}
	if err := os.WriteFile(e.Args[0], data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return e.Args[0], nil
}

func (a *App) handleGeometryMeasure(dispatcher.Event) (any, error) {
	return geometry.Measure(geometry.Locations(a.Store.All()), a.Modes.Mode())
}

func (a *App) handleViewCheck(dispatcher.Event) (any, error) {
	if err := a.Check(); err != nil {
		return nil, err
	}
	return "ok", nil
}

// handleStorageSnapshot args: path.
func (a *App) handleStorageSnapshot(e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("%w: want <path>", ErrBadArgs)
	}
	snap, ok := a.Backend.(storage.Snapshotter)
	if !ok {
		return nil, fmt.Errorf("storage backend does not support snapshots")
	}
	if err := snap.Snapshot(e.Args[0]); err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", core.ErrStorage, err)
	}
	return e.Args[0], nil
}

func parsePixel(args []string) (mapview.Pixel, error) {
	if len(args) != 2 {
		return mapview.Pixel{}, fmt.Errorf("%w: want <x> <y>", ErrBadArgs)
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return mapview.Pixel{}, fmt.Errorf("%w: x: %v", ErrBadArgs, err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return mapview.Pixel{}, fmt.Errorf("%w: y: %v", ErrBadArgs, err)
	}
	return mapview.Pixel{X: x, Y: y}, nil
}

func parseMarkerRef(args []string) (mapview.MarkerRef, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: want <marker>", ErrBadArgs)
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: marker: %v", ErrBadArgs, err)
	}
	return mapview.MarkerRef(n), nil
}
