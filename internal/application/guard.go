package application

import (
	"context"
	"sync"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

// guarded shares one read/write lock between facade reads and the catalog's
// in-place writes to stored entities, such as deferred reference resolution.
// NewCatalog installs it when the facade has no exclusive section of its own.
//
// Calls made with a context marked by scope.WithLock do not lock again.
type guarded struct {
	output.Facade
	mu sync.RWMutex
}

func (g *guarded) read(ctx context.Context) func() {
	if held, _ := scope.LockHeld(ctx); held {
		return func() {}
	}
	g.mu.RLock()
	return g.mu.RUnlock
}

// Get implements output.Facade.
func (g *guarded) Get(ctx context.Context, kind domain.Kind, id string) domain.Handle {
	defer g.read(ctx)()
	return g.Facade.Get(ctx, kind, id)
}

// GetByName implements output.Facade.
func (g *guarded) GetByName(ctx context.Context, kind domain.Kind, sc domain.Scope, name string) domain.Handle {
	defer g.read(ctx)()
	return g.Facade.GetByName(ctx, kind, sc, name)
}

// List implements output.Facade. Filters read entity fields, so the result
// is materialized under the read lock.
func (g *guarded) List(ctx context.Context, kind domain.Kind, q domain.Query) (output.Iterator, error) {
	defer g.read(ctx)()
	it, err := g.Facade.List(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	return output.NewSliceIterator(output.Collect(it)), nil
}

// Count implements output.Facade.
func (g *guarded) Count(ctx context.Context, kind domain.Kind, filter domain.Filter) int {
	defer g.read(ctx)()
	return g.Facade.Count(ctx, kind, filter)
}

// NamespacesByURI implements output.Facade.
func (g *guarded) NamespacesByURI(ctx context.Context, uri string) []domain.Handle {
	defer g.read(ctx)()
	return g.Facade.NamespacesByURI(ctx, uri)
}

// LayersByResource implements output.Facade.
func (g *guarded) LayersByResource(ctx context.Context, resourceID string) []domain.Handle {
	defer g.read(ctx)()
	return g.Facade.LayersByResource(ctx, resourceID)
}

// DefaultWorkspace implements output.Facade.
func (g *guarded) DefaultWorkspace(ctx context.Context) domain.Handle {
	defer g.read(ctx)()
	return g.Facade.DefaultWorkspace(ctx)
}

// DefaultNamespace implements output.Facade.
func (g *guarded) DefaultNamespace(ctx context.Context) domain.Handle {
	defer g.read(ctx)()
	return g.Facade.DefaultNamespace(ctx)
}

// DefaultDataStore implements output.Facade.
func (g *guarded) DefaultDataStore(ctx context.Context, workspaceID string) domain.Handle {
	defer g.read(ctx)()
	return g.Facade.DefaultDataStore(ctx, workspaceID)
}

// shared holds the read side of the guard until release is called. Reads
// made with the returned context do not lock again.
func (c *Catalog) shared(ctx context.Context) (context.Context, func()) {
	g, ok := c.facade.(*guarded)
	if !ok {
		return ctx, func() {}
	}
	if held, _ := scope.LockHeld(ctx); held {
		return ctx, func() {}
	}
	g.mu.RLock()
	return scope.WithLock(ctx, false), g.mu.RUnlock
}

// mutating holds the write side of the guard until release is called. It
// must be taken after the collection locks and never while holding shared.
func (c *Catalog) mutating(ctx context.Context) (context.Context, func()) {
	g, ok := c.facade.(*guarded)
	if !ok {
		return ctx, func() {}
	}
	if held, exclusive := scope.LockHeld(ctx); held && exclusive {
		return ctx, func() {}
	}
	g.mu.Lock()
	return scope.WithLock(ctx, true), g.mu.Unlock
}
