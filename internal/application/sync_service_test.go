package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobrunner/geocat/internal/domain"
)

// countingLoad returns a load function adding one workspace per call.
func countingLoad(calls *atomic.Int32) LoadFunc {
	return func(ctx context.Context, c *Catalog) error {
		calls.Add(1)
		c.BulkPut(ctx, &domain.Workspace{Meta: domain.Meta{ID: "ws"}, Name: "topp"})
		return nil
	}
}

func TestSyncService_RateLimiting(t *testing.T) {
	var calls atomic.Int32
	service := NewSyncService(newTestCatalog(t), countingLoad(&calls), time.Hour, testLogger())

	ctx := context.Background()

	result, err := service.TriggerSync(ctx)
	if err != nil {
		t.Errorf("first sync should succeed, got error: %v", err)
	}
	if result.Objects["workspace"] != 1 {
		t.Errorf("expected 1 workspace, got %d", result.Objects["workspace"])
	}

	// Immediate second call should be rate limited
	_, err = service.TriggerSync(ctx)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 load, got %d", calls.Load())
	}
}

func TestSyncService_SyncIsNotRateLimited(t *testing.T) {
	var calls atomic.Int32
	catalog := newTestCatalog(t)
	service := NewSyncService(catalog, countingLoad(&calls), time.Hour, testLogger())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		result, err := service.Sync(ctx)
		if err != nil {
			t.Fatalf("sync %d failed: %v", i, err)
		}
		if result.ObjectsTotal != 1 {
			t.Errorf("sync %d: expected 1 object, got %d", i, result.ObjectsTotal)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 loads, got %d", calls.Load())
	}
	if !catalog.Loaded() {
		t.Error("catalog should be loaded after sync")
	}
}

func TestSyncService_LoadError(t *testing.T) {
	boom := errors.New("bucket unreachable")
	service := NewSyncService(newTestCatalog(t), func(context.Context, *Catalog) error {
		return boom
	}, time.Hour, testLogger())

	_, err := service.TriggerSync(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestSyncService_StartStop(t *testing.T) {
	var calls atomic.Int32
	service := NewSyncService(newTestCatalog(t), countingLoad(&calls), 20*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// Should complete without hanging, also when called twice
	service.Stop()
	service.Stop()

	if calls.Load() == 0 {
		t.Error("expected at least one scheduled sync")
	}
}

func TestSyncService_Interval(t *testing.T) {
	interval := 2 * time.Hour
	service := NewSyncService(newTestCatalog(t), nil, interval, testLogger())

	if service.Interval() != interval {
		t.Errorf("expected interval %v, got %v", interval, service.Interval())
	}
}
