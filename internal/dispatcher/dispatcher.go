package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrEmptyCommand is returned by Parse for a blank line.
var ErrEmptyCommand = errors.New("empty command")

// Event represents an incoming command from the map surface or console.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// Parse splits a console line of the form ":CMD: arg1 arg2".
func Parse(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Event{}, ErrEmptyCommand
	}
	return Event{
		Command:   strings.ToUpper(fields[0]),
		Args:      fields[1:],
		Timestamp: time.Now(),
	}, nil
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers. Handlers run one at a
// time, in dispatch order, the way a UI event loop delivers gestures.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	// OTEL metrics
	processed metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram

	loop sync.Mutex
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}

	m := meter()

	var err error

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Total events whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	d.duration, err = m.Float64Histogram(
		"dispatcher.events.duration",
		metric.WithDescription("Handler latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.withMetrics(command, h)

	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	d.handlers[command] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}

	d.loop.Lock()
	defer d.loop.Unlock()
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

// Commands lists registered commands, unordered.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	return out
}

func (d *Dispatcher) withMetrics(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := metric.WithAttributes(attribute.String("command", command))

	return func(e Event) (any, error) {
		start := time.Now()
		result, err := h(e)

		ctx := context.Background()
		d.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, cmdAttr)
		d.processed.Add(ctx, 1, cmdAttr)
		if err != nil {
			d.failed.Add(ctx, 1, cmdAttr)
		}
		return result, err
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}

		return result, err
	}
}
