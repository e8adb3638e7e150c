// Package app provides application initialization and wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jobrunner/geocat/internal/adapters/decorator"
	"github.com/jobrunner/geocat/internal/adapters/geopackage"
	httpAdapter "github.com/jobrunner/geocat/internal/adapters/http"
	"github.com/jobrunner/geocat/internal/adapters/memory"
	"github.com/jobrunner/geocat/internal/adapters/metrics"
	"github.com/jobrunner/geocat/internal/adapters/snapshot"
	"github.com/jobrunner/geocat/internal/adapters/storage"
	"github.com/jobrunner/geocat/internal/adapters/watcher"
	"github.com/jobrunner/geocat/internal/application"
	"github.com/jobrunner/geocat/internal/config"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Storage       output.ObjectStorage
	Loader        *snapshot.Loader
	Catalog       *application.Catalog
	Source        *geopackage.Source
	Publisher     *application.Publisher
	QueryService  *application.QueryService
	HealthService *application.HealthService
	SyncService   *application.SyncService
	HTTPServer    *httpAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
	MetricsServer *metrics.Server
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	var metricsCollector output.MetricsCollector = &output.NoOpMetrics{}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("geocat")
		app.MetricsServer = metrics.NewServer(
			cfg.Metrics.Port,
			cfg.Metrics.Path,
			app.Metrics,
			logger,
		)
		metricsCollector = app.Metrics
	}

	// Initialize storage adapter
	store, err := NewStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Storage = store
	app.Loader = snapshot.NewLoader(store, cfg.Storage.SnapshotPattern, metricsCollector, logger)

	// Initialize catalog
	app.Catalog, err = NewCatalog(cfg.Catalog, metricsCollector, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing catalog: %w", err)
	}
	if app.Metrics != nil {
		app.Catalog.AddListener(metrics.NewObjectsListener(app.Metrics, app.Catalog.Counts))
	}

	app.Source = geopackage.NewSource(logger)
	app.Publisher = application.NewPublisher(app.Catalog, logger, app.Source)

	app.QueryService = application.NewQueryService(
		app.Catalog,
		metricsCollector,
		logger,
		application.QueryServiceConfig{
			MaxResults: cfg.Catalog.MaxResults,
		},
	)
	app.HealthService = application.NewHealthService(app.Catalog)
	app.SyncService = application.NewSyncService(app.Catalog, app.Loader.Load, cfg.Sync.Interval, logger)

	// Initialize HTTP server
	opts := []httpAdapter.Option{
		httpAdapter.WithSync(app.SyncService),
		httpAdapter.WithPublisher(app.Publisher),
		httpAdapter.WithSnapshot(func(ctx context.Context) (*snapshot.Document, error) {
			return snapshot.Export(ctx, app.Catalog)
		}),
	}
	if app.Metrics != nil {
		opts = append(opts, httpAdapter.WithMiddleware(app.Metrics.Middleware))
	}
	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		app.QueryService,
		app.HealthService,
		logger,
		opts...,
	)

	// Initialize file watcher for hot-reload
	if output.StorageType(cfg.Storage.Type) == output.StorageTypeLocal && cfg.Watch.Enabled {
		w, err := watcher.New(
			watcher.Config{
				Paths:    []string{cfg.Storage.LocalPath},
				Debounce: cfg.Watch.Debounce,
				Match:    storage.IsDocument,
			},
			app.handleFileEvents,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// NewCatalog builds the in-memory catalog with the facade decorators cfg
// selects, innermost first: workspace isolation, advertised filtering and
// request locking.
func NewCatalog(cfg config.CatalogConfig, m output.MetricsCollector, logger *slog.Logger) (*application.Catalog, error) {
	policy, err := decorator.ParseGroupPolicy(cfg.GroupPolicy)
	if err != nil {
		return nil, err
	}

	var facade output.Facade = memory.NewStore()
	if cfg.IsolatedWorkspaces {
		facade = decorator.NewIsolated(facade)
	}
	facade = decorator.NewAdvertised(facade, policy)
	if cfg.Locking {
		facade = decorator.NewLocking(facade)
	}

	c := application.NewCatalog(facade, m, logger)
	c.SetExtendedValidation(cfg.ExtendedValidation)
	return c, nil
}

// Start starts all application components.
func (a *App) Start(ctx context.Context) error {
	// Load the catalog from snapshot storage
	if _, err := a.SyncService.Sync(ctx); err != nil {
		a.Logger.Warn("failed to load catalog", "error", err)
	}

	// Start file watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	if a.Config.Sync.Enabled {
		a.SyncService.Start(ctx)
	}

	// Start metrics server in background
	if a.MetricsServer != nil {
		go func() {
			if err := a.MetricsServer.Start(); err != nil {
				a.Logger.Error("metrics server error", "error", err)
			}
		}()
	}

	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	if a.Config.Sync.Enabled {
		a.SyncService.Stop()
	}

	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error("metrics server shutdown error", "error", err)
		}
	}

	var errs []error
	if err := a.HTTPServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Logger.Error("HTTP server shutdown error", "error", err)
		errs = append(errs, err)
	}

	a.Catalog.Dispose(ctx)
	if err := a.Source.Close(); err != nil {
		a.Logger.Error("failed to close geopackage source", "error", err)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// handleFileEvents reloads the catalog after snapshot files changed. Any
// change requires a full reload, since documents may reference each other.
func (a *App) handleFileEvents(ctx context.Context, events []watcher.Event) error {
	for _, event := range events {
		a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())
	}
	result, err := a.SyncService.Sync(ctx)
	if err != nil {
		return fmt.Errorf("reloading catalog: %w", err)
	}
	a.Logger.Info("catalog reloaded after file change",
		"objects", result.ObjectsTotal,
		"unresolved", result.Unresolved,
	)
	return nil
}

// NewStorage initializes the storage adapter cfg selects.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch output.StorageType(cfg.Type) {
	case output.StorageTypeLocal:
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case output.StorageTypeS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case output.StorageTypeAzure:
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case output.StorageTypeHTTP:
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
