package output

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
)

// DefaultPriority is used for listeners that do not implement Prioritized.
const DefaultPriority = 100

// Listener receives catalog events synchronously, with no catalog lock held.
// A returned error wrapping domain.ErrCatalog is reported to the caller of the
// mutating operation; other errors are only logged.
type Listener interface {
	HandlePreAdd(ctx context.Context, e domain.Event) error
	HandleAdd(ctx context.Context, e domain.Event) error
	HandleModify(ctx context.Context, e domain.Event) error
	HandlePostModify(ctx context.Context, e domain.Event) error
	HandleRemove(ctx context.Context, e domain.Event) error
	Reloaded(ctx context.Context) error
}

// Prioritized listeners run in ascending priority order.
type Prioritized interface {
	Priority() int
}

// ListenerFuncs adapts optional callbacks to Listener. Nil callbacks are skipped.
type ListenerFuncs struct {
	Order      int
	PreAdd     func(ctx context.Context, e domain.Event) error
	Add        func(ctx context.Context, e domain.Event) error
	Modify     func(ctx context.Context, e domain.Event) error
	PostModify func(ctx context.Context, e domain.Event) error
	Remove     func(ctx context.Context, e domain.Event) error
	Reload     func(ctx context.Context) error
}

func call(fn func(context.Context, domain.Event) error, ctx context.Context, e domain.Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, e)
}

// HandlePreAdd implements Listener.
func (l *ListenerFuncs) HandlePreAdd(ctx context.Context, e domain.Event) error {
	return call(l.PreAdd, ctx, e)
}

// HandleAdd implements Listener.
func (l *ListenerFuncs) HandleAdd(ctx context.Context, e domain.Event) error {
	return call(l.Add, ctx, e)
}

// HandleModify implements Listener.
func (l *ListenerFuncs) HandleModify(ctx context.Context, e domain.Event) error {
	return call(l.Modify, ctx, e)
}

// HandlePostModify implements Listener.
func (l *ListenerFuncs) HandlePostModify(ctx context.Context, e domain.Event) error {
	return call(l.PostModify, ctx, e)
}

// HandleRemove implements Listener.
func (l *ListenerFuncs) HandleRemove(ctx context.Context, e domain.Event) error {
	return call(l.Remove, ctx, e)
}

// Reloaded implements Listener.
func (l *ListenerFuncs) Reloaded(ctx context.Context) error {
	if l.Reload == nil {
		return nil
	}
	return l.Reload(ctx)
}

// Priority implements Prioritized. A zero Order means DefaultPriority.
func (l *ListenerFuncs) Priority() int {
	if l.Order == 0 {
		return DefaultPriority
	}
	return l.Order
}
