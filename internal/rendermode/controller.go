// Package rendermode holds the Point / Line / Polygon display state and keeps
// it persisted on the first point's header.
package rendermode

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/OCAP2/pointmap/pkg/core"
)

// HeaderStore is the part of the point store the controller needs.
type HeaderStore interface {
	GetByOrder(order int) (core.Point, bool)
	Update(id string, u core.PointUpdate) (core.Point, error)
}

// Layers reports which derived layers a mode renders. Markers are always on.
type Layers struct {
	Edges bool
	Shape bool
}

// LayersFor returns the active derived layers for m.
func LayersFor(m core.Mode) Layers {
	switch m {
	case core.ModeLine:
		return Layers{Edges: true}
	case core.ModePolygon:
		return Layers{Edges: true, Shape: true}
	default:
		return Layers{}
	}
}

// Transition describes a completed Select.
type Transition struct {
	From      core.Mode
	To        core.Mode
	Persisted bool // false when there was no first point to carry the hint
}

// Changed reports whether the mode actually moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Controller is the render mode state machine.
type Controller struct {
	store HeaderStore
	log   *slog.Logger

	mu   sync.RWMutex
	mode core.Mode
}

// New restores the mode from the first point's hint, falling back to
// fallback when there is no point or the hint is unreadable.
func New(store HeaderStore, fallback core.Mode, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		store: store,
		log:   log.With("component", "rendermode"),
		mode:  fallback,
	}

	if first, ok := store.GetByOrder(1); ok && first.Header.ModeHint != "" {
		m, err := core.ParseMode(first.Header.ModeHint)
		if err != nil {
			c.log.Warn("Ignoring persisted mode hint", "hint", first.Header.ModeHint, "error", err)
		} else {
			c.mode = m
		}
	}
	return c
}

// Mode returns the current mode.
func (c *Controller) Mode() core.Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Layers returns the derived layers active in the current mode.
func (c *Controller) Layers() Layers {
	return LayersFor(c.Mode())
}

// Select switches to m and persists it onto the first point. On a storage
// failure the mode is left unchanged.
func (c *Controller) Select(m core.Mode) (Transition, error) {
	from := c.Mode()

	persisted, err := c.persist(m)
	if err != nil {
		return Transition{From: from, To: from}, err
	}

	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()

	if from != m {
		c.log.Info("Render mode changed", "from", from.String(), "to", m.String())
	}
	return Transition{From: from, To: m, Persisted: persisted}, nil
}

// EnsurePersisted writes the current mode onto the first point when its hint
// disagrees, e.g. after the collection was emptied and a new first point created.
func (c *Controller) EnsurePersisted() error {
	_, err := c.persist(c.Mode())
	return err
}

func (c *Controller) persist(m core.Mode) (bool, error) {
	first, ok := c.store.GetByOrder(1)
	if !ok {
		return false, nil
	}
	hint := m.String()
	if first.Header.ModeHint == hint {
		return true, nil
	}
	if _, err := c.store.Update(first.ID, core.PointUpdate{ModeHint: &hint}); err != nil {
		return false, fmt.Errorf("persist mode %s: %w", hint, err)
	}
	return true, nil
}
