// Package application contains the catalog services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

// lockOrder is the acquisition order of the collection locks.
var lockOrder = []domain.Kind{
	domain.KindWorkspace,
	domain.KindNamespace,
	domain.KindStore,
	domain.KindStyle,
	domain.KindResource,
	domain.KindLayer,
	domain.KindLayerGroup,
	domain.KindMap,
}

// exclusiveRunner is implemented by facades that serialize access, such as
// the locking decorator.
type exclusiveRunner interface {
	Exclusive(ctx context.Context, fn func(ctx context.Context) error) error
}

type allLocksKey struct{}

func holdsAll(ctx context.Context) bool {
	held, _ := ctx.Value(allLocksKey{}).(bool)
	return held
}

// LoadFunc fills an empty catalog, usually with BulkPut followed by Resolve.
type LoadFunc func(ctx context.Context, c *Catalog) error

// Catalog is the single entry point to the configuration catalog. It assigns
// ids, resolves references, validates, mutates the facade and fires events.
type Catalog struct {
	facade output.Facade
	events *Dispatcher

	// One lock per collection family guards check-then-mutate sequences.
	locks map[domain.Kind]*sync.Mutex
	// defaultsMu guards default pointer changes. It is taken after a collection lock.
	defaultsMu sync.Mutex

	validatorsMu       sync.RWMutex
	validators         []output.Validator
	extendedValidation bool

	loaded  atomic.Bool
	metrics output.MetricsCollector
	logger  *slog.Logger
	now     func() time.Time
}

// NewCatalog creates a catalog over facade with extended validation enforced.
// A facade without an exclusive section is wrapped so that reads never
// observe references being resolved in place.
func NewCatalog(facade output.Facade, metrics output.MetricsCollector, logger *slog.Logger) *Catalog {
	if _, ok := facade.(exclusiveRunner); !ok {
		facade = &guarded{Facade: facade}
	}
	c := &Catalog{
		facade:             facade,
		events:             NewDispatcher(metrics, logger),
		locks:              make(map[domain.Kind]*sync.Mutex, len(lockOrder)),
		extendedValidation: true,
		metrics:            metrics,
		logger:             logger,
		now:                time.Now,
	}
	for _, k := range lockOrder {
		c.locks[k] = &sync.Mutex{}
	}
	return c
}

// Facade returns the store stack the catalog operates on.
func (c *Catalog) Facade() output.Facade {
	return c.facade
}

// SetExtendedValidation switches extension validator failures between
// rejecting the operation (true) and being logged only (false).
func (c *Catalog) SetExtendedValidation(enforce bool) {
	c.validatorsMu.Lock()
	defer c.validatorsMu.Unlock()
	c.extendedValidation = enforce
}

// RegisterValidator adds an extension validator. Validators receive the
// context of the operation and must use it for catalog reads.
func (c *Catalog) RegisterValidator(v output.Validator) {
	c.validatorsMu.Lock()
	defer c.validatorsMu.Unlock()
	c.validators = append(c.validators, v)
}

// AddListener registers a catalog listener.
func (c *Catalog) AddListener(l output.Listener) {
	c.events.Add(l)
}

// RemoveListener unregisters a catalog listener.
func (c *Catalog) RemoveListener(l output.Listener) {
	c.events.Remove(l)
}

// Listeners returns the registered listeners in delivery order.
func (c *Catalog) Listeners() []output.Listener {
	return c.events.Listeners()
}

// Loaded reports whether the catalog completed a reload.
func (c *Catalog) Loaded() bool {
	return c.loaded.Load()
}

func (c *Catalog) newID(kind domain.Kind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.New())
}

// locked runs fn holding the lock of kind's collection family, inside the
// facade's exclusive section when the facade has one.
func (c *Catalog) locked(ctx context.Context, kind domain.Kind, fn func(ctx context.Context) error) error {
	if holdsAll(ctx) {
		return fn(ctx)
	}
	run := func(ctx context.Context) error {
		mu := c.locks[kind.Group()]
		mu.Lock()
		defer mu.Unlock()
		return fn(ctx)
	}
	if x, ok := c.facade.(exclusiveRunner); ok {
		return x.Exclusive(ctx, run)
	}
	return run(ctx)
}

// all runs fn holding every collection lock.
func (c *Catalog) all(ctx context.Context, fn func(ctx context.Context) error) error {
	if holdsAll(ctx) {
		return fn(ctx)
	}
	run := func(ctx context.Context) error {
		for _, k := range lockOrder {
			c.locks[k].Lock()
		}
		defer func() {
			for i := len(lockOrder) - 1; i >= 0; i-- {
				c.locks[lockOrder[i]].Unlock()
			}
		}()
		return fn(context.WithValue(ctx, allLocksKey{}, true))
	}
	if x, ok := c.facade.(exclusiveRunner); ok {
		return x.Exclusive(ctx, run)
	}
	return run(ctx)
}

// Atomically runs fn inside the facade's exclusive section, so other callers
// observe the catalog calls fn makes as one step. Catalog calls inside fn must
// use the context fn receives. Without a serializing facade fn runs as is.
func (c *Catalog) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if x, ok := c.facade.(exclusiveRunner); ok {
		return x.Exclusive(ctx, fn)
	}
	return fn(ctx)
}

func (c *Catalog) observe(op string, info domain.Info, start time.Time, err error) {
	kind := "unknown"
	if !domain.IsNil(info) {
		kind = info.Kind().String()
	}
	c.metrics.IncOperationCount(op, kind, err == nil)
	c.metrics.ObserveOperationDuration(op, time.Since(start))
}

// fire delivers events in order and returns the first catalog error.
func (c *Catalog) fire(ctx context.Context, events ...domain.Event) error {
	var first error
	for _, e := range events {
		if err := c.events.Fire(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Add attaches a new entity. It assigns a missing id, resolves references,
// applies defaults and validates before anything is stored. The first
// workspace, namespace and data store per workspace become the defaults.
func (c *Catalog) Add(ctx context.Context, info domain.Info) error {
	start := time.Now()
	err := c.add(ctx, info)
	c.observe("add", info, start, err)
	return err
}

func (c *Catalog) add(ctx context.Context, info domain.Info) error {
	if domain.IsNil(info) {
		return domain.Invalid(0, "", nil, "required", "entity is nil")
	}
	ictx := scope.Detach(ctx)
	meta := domain.MetaOf(info)
	if meta.ID == "" {
		meta.ID = c.newID(info.Kind())
	}
	if meta.DateCreated.IsZero() {
		meta.DateCreated = c.now()
	}

	rctx, release := c.shared(ictx)
	c.resolve(rctx, info)
	c.applyDefaults(rctx, info)
	err := c.validate(rctx, info, nil, true)
	release()
	if err != nil {
		return err
	}
	if err := c.events.Fire(ctx, domain.Event{Type: domain.EventPreAdd, Source: info}); err != nil {
		return err
	}

	var promoted []domain.Event
	err = c.locked(ictx, info.Kind(), func(lctx context.Context) error {
		if err := c.unique(lctx, info); err != nil {
			return err
		}
		if err := c.facade.Add(lctx, info); err != nil {
			return err
		}
		promoted = c.promote(lctx, info)
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Debug("catalog entity added",
		"kind", info.Kind(),
		"id", meta.ID,
		"name", domain.NameOf(info),
	)

	first := c.fire(ctx, promoted...)
	if err := c.events.Fire(ctx, domain.Event{Type: domain.EventAdd, Source: info}); err != nil && first == nil {
		first = err
	}
	c.retryUnresolved(ictx)
	return first
}

// Save validates the pending changes of h, commits them and fires modify and
// post-modify events. A rejected save leaves the canonical entity unchanged
// and h still dirty.
func (c *Catalog) Save(ctx context.Context, h domain.Handle) error {
	start := time.Now()
	var info domain.Info
	if h != nil {
		info = h.Unwrap()
	}
	err := c.save(ctx, h)
	c.observe("save", info, start, err)
	return err
}

func (c *Catalog) save(ctx context.Context, h domain.Handle) error {
	if h == nil {
		return domain.Invalid(0, "", nil, "required", "entity is nil")
	}
	if h.IsReadOnly() {
		return fmt.Errorf("%w: %s %s", domain.ErrReadOnly, h.Kind(), h.ID())
	}
	ictx := scope.Detach(ctx)
	info := h.Unwrap()

	var changes []domain.Change
	err := c.locked(ictx, info.Kind(), func(lctx context.Context) error {
		lctx, release := c.mutating(lctx)
		defer release()
		if err := c.validate(lctx, h.Staged(), info, false); err != nil {
			return err
		}
		var err error
		if changes, err = c.facade.Save(lctx, h); err != nil {
			return err
		}
		if len(changes) > 0 {
			domain.MetaOf(info).DateModified = c.now()
		}
		if len(domain.PendingRefs(info)) > 0 {
			c.resolve(lctx, info)
			c.facade.Reindex(lctx, info)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	return c.fire(ctx,
		domain.Event{Type: domain.EventModify, Source: info, Changes: changes},
		domain.Event{Type: domain.EventPostModify, Source: info, Changes: changes},
	)
}

// Remove detaches an entity. It fails with a referential integrity error
// while other entities still depend on it.
func (c *Catalog) Remove(ctx context.Context, info domain.Info) error {
	start := time.Now()
	err := c.remove(ctx, info)
	c.observe("remove", info, start, err)
	return err
}

func (c *Catalog) remove(ctx context.Context, info domain.Info) error {
	if domain.IsNil(info) {
		return domain.Invalid(0, "", nil, "required", "entity is nil")
	}
	ictx := scope.Detach(ctx)

	var repicked []domain.Event
	err := c.locked(ictx, info.Kind(), func(lctx context.Context) error {
		h := c.facade.Get(lctx, info.Kind(), domain.IDOf(info))
		if h == nil {
			return fmt.Errorf("%w: %s %s", domain.ErrEntityNotFound, info.Kind(), domain.IDOf(info))
		}
		info = h.Unwrap()
		rctx, release := c.shared(lctx)
		err := c.removable(rctx, info)
		release()
		if err != nil {
			return err
		}
		if err := c.facade.Remove(lctx, info); err != nil {
			return err
		}
		repicked = c.repick(lctx, info)
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Debug("catalog entity removed", "kind", info.Kind(), "id", domain.IDOf(info))

	first := c.fire(ctx, repicked...)
	if err := c.events.Fire(ctx, domain.Event{Type: domain.EventRemove, Source: info}); err != nil && first == nil {
		first = err
	}
	return first
}

// Reload replaces the catalog content with what load produces and notifies
// listeners. Readers see either the old or the new content when the facade
// serializes access.
func (c *Catalog) Reload(ctx context.Context, load LoadFunc) error {
	start := time.Now()
	err := c.all(scope.Detach(ctx), func(lctx context.Context) error {
		c.facade.Dispose(lctx)
		if err := load(lctx, c); err != nil {
			return err
		}
		return c.Resolve(lctx)
	})
	c.observe("reload", nil, start, err)
	if err != nil {
		c.logger.Error("catalog reload failed", "error", err)
		return err
	}
	c.loaded.Store(true)

	counts := c.Counts(ctx)
	for kind, n := range counts {
		c.metrics.SetCatalogObjects(kind, n)
	}
	c.logger.Info("catalog reloaded",
		"workspaces", counts[domain.KindWorkspace.String()],
		"layers", counts[domain.KindLayer.String()],
		"unresolved", len(c.Unresolved(ctx)),
		"duration", time.Since(start),
	)
	return c.events.Reloaded(ctx)
}

// BulkPut inserts entities without validation or events. Call Resolve afterwards.
func (c *Catalog) BulkPut(ctx context.Context, infos ...domain.Info) {
	c.facade.BulkPut(scope.Detach(ctx), infos...)
}

// Dispose drops all content and default pointers.
func (c *Catalog) Dispose(ctx context.Context) {
	_ = c.all(scope.Detach(ctx), func(lctx context.Context) error {
		c.facade.Dispose(lctx)
		return nil
	})
	c.loaded.Store(false)
}

// Unresolved returns the entities that still hold pending references.
func (c *Catalog) Unresolved(ctx context.Context) []domain.Info {
	return c.facade.Unresolved(scope.Detach(ctx))
}

// Counts returns the number of entities per collection family.
func (c *Catalog) Counts(ctx context.Context) map[string]int {
	ictx := scope.Detach(ctx)
	out := make(map[string]int, len(lockOrder))
	for _, k := range lockOrder {
		out[k.String()] = c.facade.Count(ictx, k, nil)
	}
	return out
}

// Get returns the single entity of kind matching filter, nil when there is
// none, or domain.ErrAmbiguous when there are several.
func (c *Catalog) Get(ctx context.Context, kind domain.Kind, filter domain.Filter) (domain.Handle, error) {
	it, err := c.facade.List(ctx, kind, domain.Query{Filter: filter, Limit: 2})
	if err != nil {
		return nil, err
	}
	found := output.Collect(it)
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrAmbiguous, kind)
	}
}

// List returns the entities of kind matching q.
func (c *Catalog) List(ctx context.Context, kind domain.Kind, q domain.Query) (output.Iterator, error) {
	return c.facade.List(ctx, kind, q)
}

// Count returns the number of entities of kind matching filter.
func (c *Catalog) Count(ctx context.Context, kind domain.Kind, filter domain.Filter) int {
	return c.facade.Count(ctx, kind, filter)
}

// CanSort reports whether lists of kind can be sorted by path.
func (c *Catalog) CanSort(kind domain.Kind, path string) bool {
	return c.facade.CanSort(kind, path)
}

// IsCatalogError reports whether err is classified as a catalog rule violation.
func IsCatalogError(err error) bool {
	return errors.Is(err, domain.ErrCatalog)
}
