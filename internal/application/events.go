package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// Dispatcher delivers catalog events to listeners in priority order.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []output.Listener
	metrics   output.MetricsCollector
	logger    *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(metrics output.MetricsCollector, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		metrics: metrics,
		logger:  logger,
	}
}

func priority(l output.Listener) int {
	if p, ok := l.(output.Prioritized); ok {
		return p.Priority()
	}
	return output.DefaultPriority
}

// Add registers l. Listeners with equal priority keep registration order.
func (d *Dispatcher) Add(l output.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
	slices.SortStableFunc(d.listeners, func(a, b output.Listener) int {
		return priority(a) - priority(b)
	})
}

// Remove unregisters l.
func (d *Dispatcher) Remove(l output.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = slices.DeleteFunc(d.listeners, func(x output.Listener) bool { return x == l })
}

// Listeners returns the registered listeners in delivery order.
func (d *Dispatcher) Listeners() []output.Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.listeners)
}

// Fire delivers e to every listener. Delivery continues after a failure. The
// first error classified as a catalog error is returned once all listeners
// ran; every other failure is logged.
func (d *Dispatcher) Fire(ctx context.Context, e domain.Event) error {
	d.metrics.IncCatalogEvents(e.Type.String(), e.Kind().String())
	return d.deliver(e.Type.String(), func(l output.Listener) error {
		switch e.Type {
		case domain.EventPreAdd:
			return l.HandlePreAdd(ctx, e)
		case domain.EventAdd:
			return l.HandleAdd(ctx, e)
		case domain.EventModify:
			return l.HandleModify(ctx, e)
		case domain.EventPostModify:
			return l.HandlePostModify(ctx, e)
		case domain.EventRemove:
			return l.HandleRemove(ctx, e)
		case domain.EventReload:
			return l.Reloaded(ctx)
		default:
			return nil
		}
	})
}

// Reloaded notifies listeners that the catalog content was replaced.
func (d *Dispatcher) Reloaded(ctx context.Context) error {
	return d.Fire(ctx, domain.Event{Type: domain.EventReload})
}

func (d *Dispatcher) deliver(event string, fn func(output.Listener) error) error {
	var first error
	for _, l := range d.Listeners() {
		err := call(l, fn)
		if err == nil {
			continue
		}
		if first == nil && errors.Is(err, domain.ErrCatalog) {
			first = err
			continue
		}
		d.logger.Warn("catalog listener failed",
			"event", event,
			"listener", fmt.Sprintf("%T", l),
			"error", err,
		)
	}
	return first
}

// call runs fn and turns a listener panic into an error.
func call(l output.Listener, fn func(output.Listener) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn(l)
}
