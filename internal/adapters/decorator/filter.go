// Package decorator provides read-filtering and locking layers over an
// output.Facade. Each layer holds the next one by value and can be stacked in
// any order.
package decorator

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// filtered implements the read paths shared by the visibility decorators.
type filtered struct {
	output.Facade
	visible func(ctx context.Context, info domain.Info) bool
	// view optionally replaces a visible entity by a restricted view of it.
	view func(ctx context.Context, h domain.Handle) domain.Handle
}

func (f *filtered) check(ctx context.Context, h domain.Handle) domain.Handle {
	if h == nil || !f.visible(ctx, h.Unwrap()) {
		return nil
	}
	if f.view != nil {
		return f.view(ctx, h)
	}
	return h
}

func (f *filtered) checkAll(ctx context.Context, hs []domain.Handle) []domain.Handle {
	out := hs[:0:0]
	for _, h := range hs {
		if v := f.check(ctx, h); v != nil {
			out = append(out, v)
		}
	}
	return out
}

func (f *filtered) predicate(ctx context.Context) domain.Filter {
	return func(i domain.Info) bool { return f.visible(ctx, i) }
}

// Get implements output.Facade.
func (f *filtered) Get(ctx context.Context, kind domain.Kind, id string) domain.Handle {
	return f.check(ctx, f.Facade.Get(ctx, kind, id))
}

// GetByName implements output.Facade.
func (f *filtered) GetByName(ctx context.Context, kind domain.Kind, scope domain.Scope, name string) domain.Handle {
	return f.check(ctx, f.Facade.GetByName(ctx, kind, scope, name))
}

// List implements output.Facade. Visibility is added to the query filter so
// the inner layer applies offset and limit to visible entities only.
func (f *filtered) List(ctx context.Context, kind domain.Kind, q domain.Query) (output.Iterator, error) {
	q.Filter = domain.And(q.Filter, f.predicate(ctx))
	it, err := f.Facade.List(ctx, kind, q)
	if err != nil || f.view == nil {
		return it, err
	}
	return output.NewMapIterator(it, func(h domain.Handle) domain.Handle {
		if h == nil {
			return nil
		}
		return f.view(ctx, h)
	}), nil
}

// Count implements output.Facade.
func (f *filtered) Count(ctx context.Context, kind domain.Kind, filter domain.Filter) int {
	return f.Facade.Count(ctx, kind, domain.And(filter, f.predicate(ctx)))
}

// NamespacesByURI implements output.Facade.
func (f *filtered) NamespacesByURI(ctx context.Context, uri string) []domain.Handle {
	return f.checkAll(ctx, f.Facade.NamespacesByURI(ctx, uri))
}

// LayersByResource implements output.Facade.
func (f *filtered) LayersByResource(ctx context.Context, resourceID string) []domain.Handle {
	return f.checkAll(ctx, f.Facade.LayersByResource(ctx, resourceID))
}

// DefaultDataStore implements output.Facade.
func (f *filtered) DefaultDataStore(ctx context.Context, workspaceID string) domain.Handle {
	return f.check(ctx, f.Facade.DefaultDataStore(ctx, workspaceID))
}
