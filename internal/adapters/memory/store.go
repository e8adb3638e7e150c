// Package memory provides the indexed in-memory object store backing the catalog.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// Compile-time contract assertion.
var _ output.Facade = (*Store)(nil)

// Store holds the canonical catalog entities, one lookup per concrete kind.
// Lookups are created on first insert, so a supertype query resolves its
// subtypes when it runs.
type Store struct {
	mu      sync.RWMutex
	lookups map[domain.Kind]*lookup

	defaultsMu       sync.RWMutex
	defaultWorkspace *domain.Workspace
	defaultNamespace *domain.Namespace
	defaultStores    map[string]*domain.Store

	unresolvedMu sync.Mutex
	unresolved   map[domain.Info]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		lookups:       make(map[domain.Kind]*lookup),
		defaultStores: make(map[string]*domain.Store),
		unresolved:    make(map[domain.Info]struct{}),
	}
}

func (s *Store) lookupFor(kind domain.Kind, create bool) *lookup {
	s.mu.RLock()
	l := s.lookups[kind]
	s.mu.RUnlock()
	if l != nil || !create {
		return l
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if l = s.lookups[kind]; l == nil {
		l = newLookup()
		s.lookups[kind] = l
	}
	return l
}

// lookupsFor returns the existing lookups a query for kind covers.
func (s *Store) lookupsFor(kind domain.Kind) []*lookup {
	var out []*lookup
	for _, k := range kind.Concrete() {
		if l := s.lookupFor(k, false); l != nil {
			out = append(out, l)
		}
	}
	return out
}

func wrap(i domain.Info) domain.Handle {
	if domain.IsNil(i) {
		return nil
	}
	return domain.WrapInfo(i)
}

// Add implements output.Facade.
func (s *Store) Add(_ context.Context, info domain.Info) error {
	if domain.IsNil(info) {
		return domain.Invalid(0, "", nil, "required", "entity is nil")
	}
	l := s.lookupFor(info.Kind(), true)
	l.mu.Lock()
	if id := domain.IDOf(info); id != "" {
		if _, dup := l.byID[id]; dup {
			l.mu.Unlock()
			return domain.Invalid(info.Kind(), "id", id, "unique", "id %s already exists", id)
		}
	}
	l.put(info)
	l.mu.Unlock()
	s.track(info)
	return nil
}

// Remove implements output.Facade.
func (s *Store) Remove(_ context.Context, info domain.Info) error {
	if domain.IsNil(info) {
		return nil
	}
	l := s.lookupFor(info.Kind(), false)
	if l == nil {
		return fmt.Errorf("%w: %s %s", domain.ErrEntityNotFound, info.Kind(), domain.IDOf(info))
	}
	l.mu.Lock()
	canonical := info
	if e, ok := l.byID[domain.IDOf(info)]; ok {
		canonical = e.info
	}
	removed := l.remove(canonical)
	l.mu.Unlock()
	if !removed {
		return fmt.Errorf("%w: %s %s", domain.ErrEntityNotFound, info.Kind(), domain.IDOf(info))
	}
	s.unresolvedMu.Lock()
	delete(s.unresolved, canonical)
	s.unresolvedMu.Unlock()
	return nil
}

// Save implements output.Facade.
func (s *Store) Save(ctx context.Context, h domain.Handle) ([]domain.Change, error) {
	info := h.Unwrap()
	l := s.lookupFor(info.Kind(), false)
	if l == nil {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrEntityNotFound, info.Kind(), h.ID())
	}
	l.mu.Lock()
	e, ok := l.entries[info]
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s %s", domain.ErrEntityNotFound, info.Kind(), h.ID())
	}
	changes, err := h.Commit()
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	l.reindex(e)
	l.mu.Unlock()

	switch v := info.(type) {
	case *domain.Resource:
		// Layers are keyed by their resource name and namespace.
		for _, layer := range s.LayersByResource(ctx, v.ID) {
			s.Reindex(ctx, layer.Unwrap())
		}
	case *domain.Layer:
		// A nested proxy may have renamed the resource.
		if res, ok := v.Resource.Get(); ok {
			s.Reindex(ctx, res)
		}
	}
	s.track(info)
	return changes, nil
}

// Get implements output.Facade.
func (s *Store) Get(_ context.Context, kind domain.Kind, id string) domain.Handle {
	if id == "" {
		return nil
	}
	for _, l := range s.lookupsFor(kind) {
		l.mu.RLock()
		e, ok := l.byID[id]
		l.mu.RUnlock()
		if ok {
			return wrap(e.info)
		}
	}
	return nil
}

// GetByName implements output.Facade.
func (s *Store) GetByName(_ context.Context, kind domain.Kind, scope domain.Scope, name string) domain.Handle {
	if name == "" {
		return nil
	}
	var found domain.Info
	matches := 0
	for _, l := range s.lookupsFor(kind) {
		l.mu.RLock()
		if scope.IsAny() {
			for _, e := range l.byLocal[name] {
				found = e.info
				matches++
			}
		} else if e, ok := l.byName[nameKey{scope: scope.ID(), name: name}]; ok {
			found = e.info
			matches++
		}
		l.mu.RUnlock()
	}
	if matches != 1 {
		return nil
	}
	return wrap(found)
}

// NamespacesByURI implements output.Facade.
func (s *Store) NamespacesByURI(_ context.Context, uri string) []domain.Handle {
	return s.secondary(domain.KindNamespace, uri)
}

// LayersByResource implements output.Facade.
func (s *Store) LayersByResource(_ context.Context, resourceID string) []domain.Handle {
	return s.secondary(domain.KindLayer, resourceID)
}

func (s *Store) secondary(kind domain.Kind, key string) []domain.Handle {
	l := s.lookupFor(kind, false)
	if l == nil || key == "" {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Handle, 0, len(l.secondary[key]))
	for _, e := range l.secondary[key] {
		out = append(out, wrap(e.info))
	}
	return out
}

// DefaultWorkspace implements output.Facade.
func (s *Store) DefaultWorkspace(_ context.Context) domain.Handle {
	s.defaultsMu.RLock()
	defer s.defaultsMu.RUnlock()
	return wrap(s.defaultWorkspace)
}

// SetDefaultWorkspace implements output.Facade.
func (s *Store) SetDefaultWorkspace(_ context.Context, ws *domain.Workspace) {
	s.defaultsMu.Lock()
	s.defaultWorkspace = ws
	s.defaultsMu.Unlock()
}

// DefaultNamespace implements output.Facade.
func (s *Store) DefaultNamespace(_ context.Context) domain.Handle {
	s.defaultsMu.RLock()
	defer s.defaultsMu.RUnlock()
	return wrap(s.defaultNamespace)
}

// SetDefaultNamespace implements output.Facade.
func (s *Store) SetDefaultNamespace(_ context.Context, ns *domain.Namespace) {
	s.defaultsMu.Lock()
	s.defaultNamespace = ns
	s.defaultsMu.Unlock()
}

// DefaultDataStore implements output.Facade.
func (s *Store) DefaultDataStore(_ context.Context, workspaceID string) domain.Handle {
	s.defaultsMu.RLock()
	defer s.defaultsMu.RUnlock()
	return wrap(s.defaultStores[workspaceID])
}

// SetDefaultDataStore implements output.Facade. A nil store clears the default.
func (s *Store) SetDefaultDataStore(_ context.Context, workspaceID string, store *domain.Store) {
	s.defaultsMu.Lock()
	defer s.defaultsMu.Unlock()
	if store == nil {
		delete(s.defaultStores, workspaceID)
		return
	}
	s.defaultStores[workspaceID] = store
}

// Unresolved implements output.Facade.
func (s *Store) Unresolved(_ context.Context) []domain.Info {
	s.unresolvedMu.Lock()
	defer s.unresolvedMu.Unlock()
	out := make([]domain.Info, 0, len(s.unresolved))
	for info := range s.unresolved {
		out = append(out, info)
	}
	return out
}

// Reindex implements output.Facade.
func (s *Store) Reindex(_ context.Context, info domain.Info) {
	if domain.IsNil(info) {
		return
	}
	if l := s.lookupFor(info.Kind(), false); l != nil {
		l.mu.Lock()
		if e, ok := l.entries[info]; ok {
			l.reindex(e)
		}
		l.mu.Unlock()
	}
	s.track(info)
}

// track records whether info still holds pending references.
func (s *Store) track(info domain.Info) {
	pending := len(domain.PendingRefs(info)) > 0
	s.unresolvedMu.Lock()
	defer s.unresolvedMu.Unlock()
	if pending {
		s.unresolved[info] = struct{}{}
	} else {
		delete(s.unresolved, info)
	}
}

// BulkPut implements output.Facade.
func (s *Store) BulkPut(_ context.Context, infos ...domain.Info) {
	for _, info := range infos {
		if domain.IsNil(info) {
			continue
		}
		l := s.lookupFor(info.Kind(), true)
		l.mu.Lock()
		l.put(info)
		l.mu.Unlock()
		s.track(info)
	}
}

// Dispose implements output.Facade.
func (s *Store) Dispose(_ context.Context) {
	s.mu.Lock()
	s.lookups = make(map[domain.Kind]*lookup)
	s.mu.Unlock()

	s.defaultsMu.Lock()
	s.defaultWorkspace = nil
	s.defaultNamespace = nil
	s.defaultStores = make(map[string]*domain.Store)
	s.defaultsMu.Unlock()

	s.unresolvedMu.Lock()
	s.unresolved = make(map[domain.Info]struct{})
	s.unresolvedMu.Unlock()
}
