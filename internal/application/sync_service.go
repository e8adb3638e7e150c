package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrRateLimited is returned when the sync API rate limit is exceeded.
var ErrRateLimited = errors.New("rate limit exceeded")

// syncCooldown is the minimum time between two API triggered syncs.
const syncCooldown = 30 * time.Second

// SyncResult contains the result of a sync operation.
type SyncResult struct {
	Objects         map[string]int `json:"objects"`
	ObjectsTotal    int            `json:"objects_total"`
	Unresolved      int            `json:"unresolved"`
	SyncedAt        time.Time      `json:"synced_at"`
	NextScheduledAt time.Time      `json:"next_scheduled_at,omitempty"`
}

// SyncService periodically rebuilds the catalog from its snapshot source.
type SyncService struct {
	catalog  *Catalog
	load     LoadFunc
	interval time.Duration
	logger   *slog.Logger

	// Lifecycle management
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Rate limiting for API triggers
	lastAPISync time.Time
	apiMutex    sync.Mutex

	// Prevents concurrent sync operations
	syncOpMutex sync.Mutex

	// Track next scheduled sync for reporting
	nextSync time.Time
	syncMu   sync.RWMutex
}

// NewSyncService creates a new sync service reloading the catalog with load.
func NewSyncService(catalog *Catalog, load LoadFunc, interval time.Duration, logger *slog.Logger) *SyncService {
	return &SyncService{
		catalog:  catalog,
		load:     load,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		// Initialize to past time to allow immediate first API call
		lastAPISync: time.Now().Add(-syncCooldown - time.Second),
	}
}

// Start begins the periodic sync scheduler.
func (s *SyncService) Start(ctx context.Context) {
	s.logger.Info("starting sync service", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// run is the main sync loop.
func (s *SyncService) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.setNextSync(time.Now().Add(s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync service stopped: context canceled")
			return
		case <-s.stopCh:
			s.logger.Info("sync service stopped")
			return
		case <-ticker.C:
			s.logger.Debug("scheduled sync triggered")
			s.doSync(ctx)
			s.setNextSync(time.Now().Add(s.interval))
		}
	}
}

// Stop gracefully stops the sync service. It is safe to call more than once.
func (s *SyncService) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping sync service")
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Sync reloads the catalog now, without rate limiting. Used at startup and by
// the snapshot watcher.
func (s *SyncService) Sync(ctx context.Context) (SyncResult, error) {
	return s.doSyncWithResult(ctx)
}

// TriggerSync manually triggers a sync operation with rate limiting.
// Returns ErrRateLimited if called within 30 seconds of the previous trigger.
func (s *SyncService) TriggerSync(ctx context.Context) (SyncResult, error) {
	s.apiMutex.Lock()
	defer s.apiMutex.Unlock()

	if time.Since(s.lastAPISync) < syncCooldown {
		return SyncResult{}, ErrRateLimited
	}
	s.lastAPISync = time.Now()

	return s.doSyncWithResult(ctx)
}

// doSync performs the sync operation without returning detailed results.
func (s *SyncService) doSync(ctx context.Context) {
	result, err := s.doSyncWithResult(ctx)
	if err != nil {
		s.logger.Error("sync failed", "error", err)
		return
	}
	s.logger.Info("sync completed",
		"total", result.ObjectsTotal,
		"unresolved", result.Unresolved,
	)
}

// doSyncWithResult performs the sync operation and returns detailed results.
func (s *SyncService) doSyncWithResult(ctx context.Context) (SyncResult, error) {
	// Prevent concurrent sync operations
	s.syncOpMutex.Lock()
	defer s.syncOpMutex.Unlock()

	if err := s.catalog.Reload(ctx, s.load); err != nil {
		return SyncResult{}, err
	}

	counts := s.catalog.Counts(ctx)
	total := 0
	for _, n := range counts {
		total += n
	}

	return SyncResult{
		Objects:         counts,
		ObjectsTotal:    total,
		Unresolved:      len(s.catalog.Unresolved(ctx)),
		SyncedAt:        time.Now(),
		NextScheduledAt: s.getNextSync(),
	}, nil
}

// setNextSync updates the next scheduled sync time.
func (s *SyncService) setNextSync(t time.Time) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	s.nextSync = t
}

// getNextSync returns the next scheduled sync time.
func (s *SyncService) getNextSync() time.Time {
	s.syncMu.RLock()
	defer s.syncMu.RUnlock()
	return s.nextSync
}

// Interval returns the sync interval.
func (s *SyncService) Interval() time.Duration {
	return s.interval
}
