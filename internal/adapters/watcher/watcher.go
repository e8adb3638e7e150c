// Package watcher reloads the catalog when snapshot documents change on disk.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event represents a file system event.
type Event struct {
	Path      string
	Operation Operation
}

// Operation represents the type of file operation.
type Operation int

// File operation types.
const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Handler receives the changes of one quiet period. A catalog is rebuilt
// from all documents, so changes are delivered as a single batch.
type Handler func(ctx context.Context, events []Event) error

type pendingEvent struct {
	timestamp time.Time
	op        Operation
}

// Watcher watches snapshot directories, including their subdirectories.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	match     func(path string) bool
	logger    *slog.Logger
	paths     []string
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	last    time.Time
	running sync.WaitGroup
}

// Config holds watcher configuration.
type Config struct {
	Paths    []string
	Debounce time.Duration
	// Match selects the files whose changes trigger the handler. Nil matches all files.
	Match func(path string) bool
}

// New creates a new file watcher.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.Debounce == 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.Match == nil {
		cfg.Match = func(string) bool { return true }
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		match:     cfg.Match,
		logger:    logger,
		paths:     cfg.Paths,
		debounce:  cfg.Debounce,
		pending:   make(map[string]*pendingEvent),
	}, nil
}

// Start starts watching the configured paths.
func (w *Watcher) Start(ctx context.Context) error {
	for _, path := range w.paths {
		if err := w.AddPath(path); err != nil {
			w.logger.Warn("failed to watch path", "path", path, "error", err)
		}
	}

	go w.eventLoop(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher and waits for a running handler.
func (w *Watcher) Stop() error {
	err := w.fsWatcher.Close()
	w.running.Wait()
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.AddPath(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}
	if !w.match(event.Name) {
		return
	}

	w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
	w.record(event.Name, fsnotifyOpToOperation(event.Op), time.Now())
}

func (w *Watcher) record(path string, op Operation, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.last = now
	existing, ok := w.pending[path]
	if !ok {
		w.pending[path] = &pendingEvent{timestamp: now, op: op}
		return
	}
	existing.timestamp = now
	existing.op = mergeOperation(existing.op, op)
}

// mergeOperation folds a new operation into a pending one. A delete wins,
// and a file deleted then recreated counts as created.
func mergeOperation(pending, next Operation) Operation {
	switch {
	case pending == OpDelete && next == OpCreate:
		return OpCreate
	case next == OpDelete:
		return OpDelete
	case pending == OpCreate:
		return OpCreate
	default:
		return next
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			if batch := w.flush(now); len(batch) > 0 {
				w.dispatch(ctx, batch)
			}
		}
	}
}

// flush returns the pending events once no change arrived for the debounce
// period.
func (w *Watcher) flush(now time.Time) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || now.Sub(w.last) < w.debounce {
		return nil
	}
	batch := make([]Event, 0, len(w.pending))
	for path, p := range w.pending {
		batch = append(batch, Event{Path: path, Operation: p.op})
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	clear(w.pending)
	return batch
}

// dispatch runs the handler synchronously, so overlapping reloads cannot happen.
func (w *Watcher) dispatch(ctx context.Context, batch []Event) {
	w.running.Add(1)
	defer w.running.Done()

	w.logger.Info("snapshot changed", "files", len(batch))
	if err := w.handler(ctx, batch); err != nil {
		w.logger.Error("handler error", "files", len(batch), "error", err)
	}
}

// fsnotifyOpToOperation converts fsnotify.Op to our Operation type.
func fsnotifyOpToOperation(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove):
		return OpDelete
	case op.Has(fsnotify.Rename):
		// the file is gone from its original location
		return OpDelete
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}

// AddPath watches path and every directory below it.
func (w *Watcher) AddPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	return filepath.WalkDir(absPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return err
		}
		w.logger.Info("watching directory", "path", p)
		return nil
	})
}
