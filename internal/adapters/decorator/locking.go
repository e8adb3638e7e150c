package decorator

import (
	"context"
	"sync"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

// Locking serializes access to the inner facade with one process-wide
// read/write lock. Exclusive and Shared hold the lock across several calls;
// calls made with the context they pass on do not lock again.
//
// A caller holding the shared lock must not mutate the catalog.
type Locking struct {
	output.Facade
	mu sync.RWMutex
}

// NewLocking wraps inner with serialized access.
func NewLocking(inner output.Facade) *Locking {
	return &Locking{Facade: inner}
}

// Exclusive runs fn holding the write lock.
func (l *Locking) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	if held, exclusive := scope.LockHeld(ctx); held && exclusive {
		return fn(ctx)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(scope.WithLock(ctx, true))
}

// Shared runs fn holding the read lock.
func (l *Locking) Shared(ctx context.Context, fn func(ctx context.Context) error) error {
	if held, _ := scope.LockHeld(ctx); held {
		return fn(ctx)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(scope.WithLock(ctx, false))
}

func (l *Locking) read(ctx context.Context) func() {
	if held, _ := scope.LockHeld(ctx); held {
		return func() {}
	}
	l.mu.RLock()
	return l.mu.RUnlock
}

func (l *Locking) write(ctx context.Context) func() {
	if held, _ := scope.LockHeld(ctx); held {
		return func() {}
	}
	l.mu.Lock()
	return l.mu.Unlock
}

// Add implements output.Facade.
func (l *Locking) Add(ctx context.Context, info domain.Info) error {
	defer l.write(ctx)()
	return l.Facade.Add(ctx, info)
}

// Remove implements output.Facade.
func (l *Locking) Remove(ctx context.Context, info domain.Info) error {
	defer l.write(ctx)()
	return l.Facade.Remove(ctx, info)
}

// Save implements output.Facade.
func (l *Locking) Save(ctx context.Context, h domain.Handle) ([]domain.Change, error) {
	defer l.write(ctx)()
	return l.Facade.Save(ctx, h)
}

// Get implements output.Facade.
func (l *Locking) Get(ctx context.Context, kind domain.Kind, id string) domain.Handle {
	defer l.read(ctx)()
	return l.Facade.Get(ctx, kind, id)
}

// GetByName implements output.Facade.
func (l *Locking) GetByName(ctx context.Context, kind domain.Kind, sc domain.Scope, name string) domain.Handle {
	defer l.read(ctx)()
	return l.Facade.GetByName(ctx, kind, sc, name)
}

// List implements output.Facade. The result is materialized under the read
// lock so iterating does not hold it.
func (l *Locking) List(ctx context.Context, kind domain.Kind, q domain.Query) (output.Iterator, error) {
	defer l.read(ctx)()
	it, err := l.Facade.List(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	return output.NewSliceIterator(output.Collect(it)), nil
}

// Count implements output.Facade.
func (l *Locking) Count(ctx context.Context, kind domain.Kind, filter domain.Filter) int {
	defer l.read(ctx)()
	return l.Facade.Count(ctx, kind, filter)
}

// NamespacesByURI implements output.Facade.
func (l *Locking) NamespacesByURI(ctx context.Context, uri string) []domain.Handle {
	defer l.read(ctx)()
	return l.Facade.NamespacesByURI(ctx, uri)
}

// LayersByResource implements output.Facade.
func (l *Locking) LayersByResource(ctx context.Context, resourceID string) []domain.Handle {
	defer l.read(ctx)()
	return l.Facade.LayersByResource(ctx, resourceID)
}

// DefaultWorkspace implements output.Facade.
func (l *Locking) DefaultWorkspace(ctx context.Context) domain.Handle {
	defer l.read(ctx)()
	return l.Facade.DefaultWorkspace(ctx)
}

// SetDefaultWorkspace implements output.Facade.
func (l *Locking) SetDefaultWorkspace(ctx context.Context, ws *domain.Workspace) {
	defer l.write(ctx)()
	l.Facade.SetDefaultWorkspace(ctx, ws)
}

// DefaultNamespace implements output.Facade.
func (l *Locking) DefaultNamespace(ctx context.Context) domain.Handle {
	defer l.read(ctx)()
	return l.Facade.DefaultNamespace(ctx)
}

// SetDefaultNamespace implements output.Facade.
func (l *Locking) SetDefaultNamespace(ctx context.Context, ns *domain.Namespace) {
	defer l.write(ctx)()
	l.Facade.SetDefaultNamespace(ctx, ns)
}

// DefaultDataStore implements output.Facade.
func (l *Locking) DefaultDataStore(ctx context.Context, workspaceID string) domain.Handle {
	defer l.read(ctx)()
	return l.Facade.DefaultDataStore(ctx, workspaceID)
}

// SetDefaultDataStore implements output.Facade.
func (l *Locking) SetDefaultDataStore(ctx context.Context, workspaceID string, store *domain.Store) {
	defer l.write(ctx)()
	l.Facade.SetDefaultDataStore(ctx, workspaceID, store)
}

// Unresolved implements output.Facade.
func (l *Locking) Unresolved(ctx context.Context) []domain.Info {
	defer l.read(ctx)()
	return l.Facade.Unresolved(ctx)
}

// Reindex implements output.Facade.
func (l *Locking) Reindex(ctx context.Context, info domain.Info) {
	defer l.write(ctx)()
	l.Facade.Reindex(ctx, info)
}

// BulkPut implements output.Facade.
func (l *Locking) BulkPut(ctx context.Context, infos ...domain.Info) {
	defer l.write(ctx)()
	l.Facade.BulkPut(ctx, infos...)
}

// Dispose implements output.Facade.
func (l *Locking) Dispose(ctx context.Context) {
	defer l.write(ctx)()
	l.Facade.Dispose(ctx)
}
