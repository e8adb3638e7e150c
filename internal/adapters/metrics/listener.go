package metrics

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// ObjectsPriority makes the objects listener run after other listeners.
const ObjectsPriority = 1000

// ObjectsListener keeps the catalog_objects gauge current. It recounts after
// adds, removes and reloads.
type ObjectsListener struct {
	metrics output.MetricsCollector
	counts  func(ctx context.Context) map[string]int
}

var (
	_ output.Listener    = (*ObjectsListener)(nil)
	_ output.Prioritized = (*ObjectsListener)(nil)
)

// NewObjectsListener creates a listener publishing counts to m.
func NewObjectsListener(m output.MetricsCollector, counts func(ctx context.Context) map[string]int) *ObjectsListener {
	return &ObjectsListener{metrics: m, counts: counts}
}

func (l *ObjectsListener) refresh(ctx context.Context) error {
	for kind, n := range l.counts(ctx) {
		l.metrics.SetCatalogObjects(kind, n)
	}
	return nil
}

// Priority implements output.Prioritized.
func (l *ObjectsListener) Priority() int { return ObjectsPriority }

// HandlePreAdd implements output.Listener.
func (l *ObjectsListener) HandlePreAdd(context.Context, domain.Event) error { return nil }

// HandleAdd implements output.Listener.
func (l *ObjectsListener) HandleAdd(ctx context.Context, _ domain.Event) error { return l.refresh(ctx) }

// HandleModify implements output.Listener.
func (l *ObjectsListener) HandleModify(context.Context, domain.Event) error { return nil }

// HandlePostModify implements output.Listener.
func (l *ObjectsListener) HandlePostModify(context.Context, domain.Event) error { return nil }

// HandleRemove implements output.Listener.
func (l *ObjectsListener) HandleRemove(ctx context.Context, _ domain.Event) error {
	return l.refresh(ctx)
}

// Reloaded implements output.Listener.
func (l *ObjectsListener) Reloaded(ctx context.Context) error { return l.refresh(ctx) }
