package application

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/jobrunner/geocat/internal/adapters/decorator"
	"github.com/jobrunner/geocat/internal/adapters/memory"
	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestCatalog returns a catalog over a bare memory store.
func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	return NewCatalog(memory.NewStore(), &output.NoOpMetrics{}, testLogger())
}

// newStackedCatalog returns a catalog over the full decorator stack.
func newStackedCatalog(t *testing.T, policy decorator.GroupPolicy) *Catalog {
	t.Helper()
	var facade output.Facade = memory.NewStore()
	facade = decorator.NewIsolated(facade)
	facade = decorator.NewAdvertised(facade, policy)
	facade = decorator.NewLocking(facade)
	return NewCatalog(facade, &output.NoOpMetrics{}, testLogger())
}

// recordedEvent is an event as seen by recordingListener.
type recordedEvent struct {
	Type   domain.EventType
	Kind   domain.Kind
	Source domain.Info
	Props  []string
}

// recordingListener records every event it receives.
type recordingListener struct {
	mu      sync.Mutex
	events  []recordedEvent
	reloads int
	order   int
	failOn  domain.EventType
	failErr error
}

func (l *recordingListener) record(e domain.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{Type: e.Type, Kind: e.Kind(), Source: e.Source, Props: e.PropertyNames()})
	if l.failErr != nil && e.Type == l.failOn {
		return l.failErr
	}
	return nil
}

func (l *recordingListener) HandlePreAdd(_ context.Context, e domain.Event) error { return l.record(e) }
func (l *recordingListener) HandleAdd(_ context.Context, e domain.Event) error    { return l.record(e) }
func (l *recordingListener) HandleModify(_ context.Context, e domain.Event) error { return l.record(e) }
func (l *recordingListener) HandleRemove(_ context.Context, e domain.Event) error { return l.record(e) }
func (l *recordingListener) HandlePostModify(_ context.Context, e domain.Event) error {
	return l.record(e)
}

func (l *recordingListener) Reloaded(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reloads++
	return nil
}

func (l *recordingListener) Priority() int {
	if l.order == 0 {
		return output.DefaultPriority
	}
	return l.order
}

func (l *recordingListener) types() []domain.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func (l *recordingListener) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// rejectingValidator fails every store validation.
type rejectingValidator struct {
	output.NopValidator
	calls int
}

var errRejected = errors.New("rejected by policy")

func (v *rejectingValidator) ValidateStore(_ context.Context, _ *domain.Store, _ bool) error {
	v.calls++
	return errRejected
}

// mockSource implements output.FeatureTypeSource for testing.
type mockSource struct {
	dbtype    string
	resources []*domain.Resource
	err       error
}

func (m *mockSource) Supports(store *domain.Store) bool {
	return store.ConnectionParameters["dbtype"] == m.dbtype
}

func (m *mockSource) Discover(_ context.Context, _ *domain.Store) ([]*domain.Resource, error) {
	if m.err != nil {
		return nil, m.err
	}
	// Fresh copies so a second discovery does not hand out attached entities.
	out := make([]*domain.Resource, len(m.resources))
	for i, r := range m.resources {
		c := *r
		out[i] = &c
	}
	return out, nil
}
