// Package pointstore owns the canonical ordered point collection. Orders are
// kept dense (1..N) across create and delete, the first point carries the
// sequence header, and every mutation is persisted before it becomes visible.
package pointstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/OCAP2/pointmap/internal/storage"
	"github.com/OCAP2/pointmap/pkg/core"
	"github.com/google/uuid"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Options configures a Store.
type Options struct {
	Backend      storage.Backend
	DefaultLabel string    // applied to new points; core.DefaultLabel when empty
	DefaultMode  core.Mode // ModeHint written on the first point
	// ModeFor reports the live render mode for the first point's ModeHint.
	// DefaultMode is used when nil.
	ModeFor func() core.Mode
	Logger  *slog.Logger
	NewID        func() string // uuid.NewString when nil
}

// Stats summarises the collection the way the list view footer does.
type Stats struct {
	Total     int
	Done      int
	Remaining int
}

type subscriber struct {
	id int
	fn func(core.Change)
}

// Store is the ordered point collection.
type Store struct {
	backend      storage.Backend
	defaultLabel string
	defaultMode  core.Mode
	modeFor      func() core.Mode
	log          *slog.Logger
	newID        func() string

	mu     sync.RWMutex
	points []core.Point // points[i].Order == i+1

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int

	mutations metric.Int64Counter
}

// New loads the persisted collection from opts.Backend. A persisted set that
// is not dense is renumbered by (order, id) and written back.
func New(opts Options) (*Store, error) {
	if opts.Backend == nil {
		return nil, errors.New("pointstore: backend is required")
	}
	s := &Store{
		backend:      opts.Backend,
		defaultLabel: opts.DefaultLabel,
		defaultMode:  opts.DefaultMode,
		modeFor:      opts.ModeFor,
		log:          opts.Logger,
		newID:        opts.NewID,
	}
	if s.defaultLabel == "" {
		s.defaultLabel = core.DefaultLabel
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "pointstore")
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.modeFor == nil {
		mode := s.defaultMode
		s.modeFor = func() core.Mode { return mode }
	}

	var err error
	s.mutations, err = meter().Int64Counter(
		"pointstore.mutations",
		metric.WithDescription("Persisted point mutations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating mutation counter: %w", err)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	persisted, err := s.backend.List()
	if err != nil {
		return fmt.Errorf("%w: list: %v", core.ErrStorage, err)
	}

	sort.Slice(persisted, func(i, j int) bool {
		if persisted[i].Order != persisted[j].Order {
			return persisted[i].Order < persisted[j].Order
		}
		return persisted[i].ID < persisted[j].ID
	})

	if checkDense(persisted) == nil {
		s.points = persisted
		s.log.Debug("Loaded points", "count", len(persisted))
		return nil
	}

	var header core.Header
	for _, p := range persisted {
		if !p.Header.IsZero() {
			header = p.Header
			break
		}
	}

	repaired := make([]core.Point, len(persisted))
	var batch storage.Batch
	for i, p := range persisted {
		fixed := p
		fixed.Order = i + 1
		fixed.Header = core.Header{}
		if i == 0 {
			fixed.Header = header
		}
		if fixed != p {
			batch.Puts = append(batch.Puts, fixed)
		}
		repaired[i] = fixed
	}

	if err := s.backend.Apply(batch); err != nil {
		return fmt.Errorf("%w: repair: %v", core.ErrStorage, err)
	}
	s.log.Warn("Persisted order was not dense, renumbered", "count", len(repaired), "rewritten", len(batch.Puts))
	s.points = repaired
	s.record(core.Reordered)
	return nil
}

// checkDense verifies that points, sorted by order, carry exactly 1..N.
func checkDense(points []core.Point) error {
	for i, p := range points {
		if p.Order != i+1 {
			return fmt.Errorf("%w: position %d has order %d", core.ErrInvariantViolation, i+1, p.Order)
		}
	}
	return nil
}

// Subscribe registers fn for change events. Events are delivered after the
// write has been persisted, outside the store lock. The returned func removes
// the subscription.
func (s *Store) Subscribe(fn func(core.Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) emit(c core.Change) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(c)
	}
}

func (s *Store) record(kind core.ChangeKind) {
	s.mutations.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind.String())))
}

// Create appends a point at order Count()+1.
func (s *Store) Create(loc core.Location) (core.Point, error) {
	s.mu.Lock()

	p := core.Point{
		ID:       s.newID(),
		Order:    len(s.points) + 1,
		Location: loc,
		Label:    s.defaultLabel,
	}
	if p.IsHeader() {
		p.Header.ModeHint = s.modeFor().String()
	}

	if err := s.backend.Put(p); err != nil {
		s.mu.Unlock()
		return core.Point{}, fmt.Errorf("%w: create: %v", core.ErrStorage, err)
	}

	s.points = append(s.points, p)
	dense := checkDense(s.points)
	s.mu.Unlock()

	// subscribers see every persisted write, including one that broke density
	s.log.Debug("Point created", "id", p.ID, "order", p.Order)
	s.record(core.Created)
	s.emit(core.Change{Kind: core.Created, Point: p})
	return p, dense
}

// Delete removes the point and compacts the orders after it. When the first
// point goes, its header moves to the new first point.
func (s *Store) Delete(id string) error {
	s.mu.Lock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	removed := s.points[idx]

	next := make([]core.Point, 0, len(s.points)-1)
	next = append(next, s.points[:idx]...)
	batch := storage.Batch{Deletes: []string{id}}
	shifted := make([]string, 0, len(s.points)-idx-1)

	for _, p := range s.points[idx+1:] {
		p.Order--
		if p.Order == 1 {
			p.Header = removed.Header
		}
		next = append(next, p)
		batch.Puts = append(batch.Puts, p)
		shifted = append(shifted, p.ID)
	}

	if err := s.backend.Apply(batch); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: delete %s: %v", core.ErrStorage, id, err)
	}

	s.points = next
	dense := checkDense(s.points)
	s.mu.Unlock()

	s.log.Debug("Point deleted", "id", id, "order", removed.Order, "shifted", len(shifted))
	s.record(core.Deleted)
	s.emit(core.Change{Kind: core.Deleted, Point: removed, Shifted: shifted})
	return dense
}

// ClearDone removes every done point in one atomic batch and compacts the
// orders of the rest. When the first point goes, its header moves to the
// first remaining point. One Deleted change is emitted per removed point.
func (s *Store) ClearDone() (int, error) {
	s.mu.Lock()

	var removed, kept []core.Point
	for _, p := range s.points {
		if p.Done {
			removed = append(removed, p)
		} else {
			kept = append(kept, p)
		}
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return 0, nil
	}

	header := s.points[0].Header
	batch := storage.Batch{Deletes: make([]string, 0, len(removed))}
	for _, p := range removed {
		batch.Deletes = append(batch.Deletes, p.ID)
	}
	next := make([]core.Point, len(kept))
	for i, p := range kept {
		fixed := p
		fixed.Order = i + 1
		fixed.Header = core.Header{}
		if i == 0 {
			fixed.Header = header
		}
		if fixed != p {
			batch.Puts = append(batch.Puts, fixed)
		}
		next[i] = fixed
	}

	if err := s.backend.Apply(batch); err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: clear done: %v", core.ErrStorage, err)
	}

	s.points = next
	dense := checkDense(s.points)
	s.mu.Unlock()

	s.log.Debug("Done points cleared", "removed", len(removed), "kept", len(kept))
	for _, r := range removed {
		var shifted []string
		for _, p := range kept {
			if p.Order > r.Order {
				shifted = append(shifted, p.ID)
			}
		}
		s.record(core.Deleted)
		s.emit(core.Change{Kind: core.Deleted, Point: r, Shifted: shifted})
	}
	return len(removed), dense
}

// Update merges u into the point. Order and ID cannot be set; header fields
// can only be set on the first point.
func (s *Store) Update(id string, u core.PointUpdate) (core.Point, error) {
	if u.Order != nil || u.ID != nil {
		return core.Point{}, fmt.Errorf("update %s: %w", id, core.ErrReadOnlyField)
	}

	s.mu.Lock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Point{}, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	current := s.points[idx]
	if u.TouchesHeader() && !current.IsHeader() {
		s.mu.Unlock()
		return core.Point{}, fmt.Errorf("update %s: %w", id, core.ErrNotHeader)
	}

	updated := u.Apply(current)
	if err := s.backend.Put(updated); err != nil {
		s.mu.Unlock()
		return core.Point{}, fmt.Errorf("%w: update %s: %v", core.ErrStorage, id, err)
	}
	s.points[idx] = updated
	s.mu.Unlock()

	s.record(core.Updated)
	s.emit(core.Change{Kind: core.Updated, Point: updated})
	return updated, nil
}

// ToggleDone flips the done flag.
func (s *Store) ToggleDone(id string) (core.Point, error) {
	p, err := s.Get(id)
	if err != nil {
		return core.Point{}, err
	}
	done := !p.Done
	return s.Update(id, core.PointUpdate{Done: &done})
}

// Get returns the live point with id.
func (s *Store) Get(id string) (core.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return core.Point{}, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	return s.points[idx], nil
}

// GetByOrder returns the point at order.
func (s *Store) GetByOrder(order int) (core.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if order < 1 || order > len(s.points) {
		return core.Point{}, false
	}
	return s.points[order-1], true
}

// All returns a copy of the collection ascending by order.
func (s *Store) All() []core.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Point, len(s.points))
	copy(out, s.points)
	return out
}

// Count returns the number of live points.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Header returns the sequence header, if any point exists.
func (s *Store) Header() (core.Header, bool) {
	p, ok := s.GetByOrder(1)
	if !ok {
		return core.Header{}, false
	}
	return p.Header, true
}

// Stats counts done and remaining points.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.points)}
	for _, p := range s.points {
		if p.Done {
			st.Done++
		}
	}
	st.Remaining = st.Total - st.Done
	return st
}

// Check verifies the density invariant.
func (s *Store) Check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return checkDense(s.points)
}

func (s *Store) indexLocked(id string) int {
	for i, p := range s.points {
		if p.ID == id {
			return i
		}
	}
	return -1
}
