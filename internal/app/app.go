// Package app builds the single application context: one point store, one
// render mode controller and one view coordinator over a map surface, with
// the gesture commands registered on a dispatcher.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/pointmap/internal/config"
	"github.com/OCAP2/pointmap/internal/dispatcher"
	"github.com/OCAP2/pointmap/internal/logging"
	"github.com/OCAP2/pointmap/internal/mapview"
	"github.com/OCAP2/pointmap/internal/pointstore"
	"github.com/OCAP2/pointmap/internal/rendermode"
	"github.com/OCAP2/pointmap/internal/storage"
	"github.com/OCAP2/pointmap/internal/surface"
	"github.com/OCAP2/pointmap/pkg/core"
)

// Dependencies holds everything the application context is built from.
// Backend must already be initialised.
type Dependencies struct {
	Backend    storage.Backend
	Surface    *surface.Headless
	Points     config.PointsConfig
	LogManager *logging.SlogManager
}

// App is the application context.
type App struct {
	Backend    storage.Backend
	Store      *pointstore.Store
	Modes      *rendermode.Controller
	View       *mapview.Coordinator
	Surface    *surface.Headless
	Dispatcher *dispatcher.Dispatcher

	log *slog.Logger
}

// New builds the context, draws the persisted collection and registers the
// gesture commands.
func New(deps Dependencies) (*App, error) {
	if deps.Backend == nil {
		return nil, errors.New("app: backend is required")
	}
	if deps.Surface == nil {
		return nil, errors.New("app: surface is required")
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	log := deps.LogManager.Logger()

	defaultMode := core.ModePoint
	if deps.Points.DefaultMode != "" {
		m, err := core.ParseMode(deps.Points.DefaultMode)
		if err != nil {
			return nil, fmt.Errorf("points.defaultMode: %w", err)
		}
		defaultMode = m
	}

	// the controller restores its mode from the store, and new first points
	// take their hint from the controller
	var modes *rendermode.Controller
	store, err := pointstore.New(pointstore.Options{
		Backend:      deps.Backend,
		DefaultLabel: deps.Points.DefaultLabel,
		DefaultMode:  defaultMode,
		ModeFor:      func() core.Mode { return modes.Mode() },
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load points: %w", err)
	}

	modes = rendermode.New(store, defaultMode, log)
	view := mapview.New(store, modes, deps.Surface, log)

	d, err := dispatcher.New(logging.NewDispatcherLogger(log))
	if err != nil {
		view.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	a := &App{
		Backend:    deps.Backend,
		Store:      store,
		Modes:      modes,
		View:       view,
		Surface:    deps.Surface,
		Dispatcher: d,
		log:        log,
	}
	a.RegisterHandlers(d)
	view.Sync()

	log.Info("Application ready", "points", store.Count(), "mode", modes.Mode().String())
	return a, nil
}

// ContextAttrs reports the live point count and mode for log records.
func (a *App) ContextAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("points", a.Store.Count()),
		slog.String("mode", a.Modes.Mode().String()),
	}
}

// Check verifies order density and marker parity.
func (a *App) Check() error {
	if err := a.Store.Check(); err != nil {
		return err
	}
	return a.View.Check()
}

// Close detaches the view and closes the backend.
func (a *App) Close() error {
	a.View.Close()
	return a.Backend.Close()
}
