package output

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
)

// Facade is the store contract shared by the indexed object store and every
// visibility decorator stacked on top of it.
//
// Read paths hand out wrapped entities. Add and BulkPut take ownership of the
// plain entity they are given; it becomes the canonical instance.
type Facade interface {
	// Add inserts an unattached entity and indexes it.
	Add(ctx context.Context, info domain.Info) error
	// Remove deletes the entity with the id of info from every index.
	Remove(ctx context.Context, info domain.Info) error
	// Save commits a wrapped entity and re-keys the name index.
	Save(ctx context.Context, h domain.Handle) ([]domain.Change, error)

	// Get returns the entity of kind with the given id, or nil.
	Get(ctx context.Context, kind domain.Kind, id string) domain.Handle
	// GetByName returns the entity of kind named name in scope, or nil.
	// With domain.AnyScope a match is returned only if it is the single one.
	GetByName(ctx context.Context, kind domain.Kind, scope domain.Scope, name string) domain.Handle
	// List returns the entities of kind matching q.
	List(ctx context.Context, kind domain.Kind, q domain.Query) (Iterator, error)
	// Count returns the number of entities of kind matching filter.
	Count(ctx context.Context, kind domain.Kind, filter domain.Filter) int
	// CanSort reports whether kind can be ordered by the dotted property path.
	CanSort(kind domain.Kind, path string) bool

	// NamespacesByURI returns every namespace with the given URI.
	NamespacesByURI(ctx context.Context, uri string) []domain.Handle
	// LayersByResource returns the layers publishing the resource with the given id.
	LayersByResource(ctx context.Context, resourceID string) []domain.Handle

	DefaultWorkspace(ctx context.Context) domain.Handle
	SetDefaultWorkspace(ctx context.Context, ws *domain.Workspace)
	DefaultNamespace(ctx context.Context) domain.Handle
	SetDefaultNamespace(ctx context.Context, ns *domain.Namespace)
	// DefaultDataStore returns the default data store of the workspace with the given id.
	DefaultDataStore(ctx context.Context, workspaceID string) domain.Handle
	SetDefaultDataStore(ctx context.Context, workspaceID string, store *domain.Store)

	// Unresolved returns the canonical entities that still hold pending references.
	Unresolved(ctx context.Context) []domain.Info
	// Reindex records the resolution state of info and re-keys its name index entry.
	Reindex(ctx context.Context, info domain.Info)

	// BulkPut inserts entities without validation. Used by loaders before Resolve.
	BulkPut(ctx context.Context, infos ...domain.Info)
	// Dispose drops every collection and default pointer.
	Dispose(ctx context.Context)
}

// Iterator is a closeable lazy sequence of query results.
type Iterator interface {
	// Next advances to the next result and reports whether there is one.
	Next() bool
	// Value returns the current result.
	Value() domain.Handle
	// Close releases the iterator. It is safe to call more than once.
	Close() error
}

// Collect drains it and closes it.
func Collect(it Iterator) []domain.Handle {
	defer it.Close()
	var out []domain.Handle
	for it.Next() {
		out = append(out, it.Value())
	}
	return out
}

// SliceIterator iterates over a materialized result.
type SliceIterator struct {
	items []domain.Handle
	pos   int
}

// NewSliceIterator returns an iterator over items.
func NewSliceIterator(items []domain.Handle) *SliceIterator {
	return &SliceIterator{items: items, pos: -1}
}

// Next implements Iterator.
func (s *SliceIterator) Next() bool {
	if s.pos+1 >= len(s.items) {
		s.pos = len(s.items)
		return false
	}
	s.pos++
	return true
}

// Value implements Iterator.
func (s *SliceIterator) Value() domain.Handle {
	if s.pos < 0 || s.pos >= len(s.items) {
		return nil
	}
	return s.items[s.pos]
}

// Close implements Iterator.
func (s *SliceIterator) Close() error {
	s.items = nil
	s.pos = 0
	return nil
}

// MapIterator applies fn to every value of an inner iterator.
type MapIterator struct {
	Iterator
	fn func(domain.Handle) domain.Handle
}

// NewMapIterator returns an iterator yielding fn(v) for every v of it.
func NewMapIterator(it Iterator, fn func(domain.Handle) domain.Handle) *MapIterator {
	return &MapIterator{Iterator: it, fn: fn}
}

// Value implements Iterator.
func (m *MapIterator) Value() domain.Handle {
	return m.fn(m.Iterator.Value())
}
