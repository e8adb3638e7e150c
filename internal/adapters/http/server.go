// Package http provides the HTTP server and handlers of the catalog API.
package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jobrunner/geocat/internal/adapters/snapshot"
	"github.com/jobrunner/geocat/internal/application"
	"github.com/jobrunner/geocat/internal/config"
	"github.com/jobrunner/geocat/internal/ports/input"
)

// Syncer reloads the catalog on request.
type Syncer interface {
	TriggerSync(ctx context.Context) (application.SyncResult, error)
}

// Publisher publishes the feature types of a data store as layers.
type Publisher interface {
	PublishStore(ctx context.Context, storeID string) (application.PublishResult, error)
}

// SnapshotFunc renders the current catalog as a snapshot document.
type SnapshotFunc func(ctx context.Context) (*snapshot.Document, error)

// Option configures optional server features.
type Option func(*Server)

// WithSync enables POST /api/v1/sync.
func WithSync(s Syncer) Option {
	return func(srv *Server) { srv.sync = s }
}

// WithPublisher enables POST /api/v1/stores/{name}/publish.
func WithPublisher(p Publisher) Option {
	return func(srv *Server) { srv.publisher = p }
}

// WithSnapshot enables GET /api/v1/snapshot.
func WithSnapshot(fn SnapshotFunc) Option {
	return func(srv *Server) { srv.snapshot = fn }
}

// WithMiddleware adds router middleware, such as request metrics.
func WithMiddleware(mw ...mux.MiddlewareFunc) Option {
	return func(srv *Server) { srv.middleware = append(srv.middleware, mw...) }
}

// Server wraps the HTTP server with application handlers.
type Server struct {
	server     *http.Server
	router     *mux.Router
	catalog    input.CatalogService
	health     input.HealthChecker
	sync       Syncer
	publisher  Publisher
	snapshot   SnapshotFunc
	middleware []mux.MiddlewareFunc
	logger     *slog.Logger
	config     config.ServerConfig
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg config.ServerConfig,
	catalog input.CatalogService,
	health input.HealthChecker,
	logger *slog.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		catalog: catalog,
		health:  health,
		logger:  logger,
		config:  cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.middleware...)

	if s.config.CORS.Enabled() {
		r.Use(s.corsMiddleware)
	}

	// Health endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.handleReadiness).Methods(http.MethodGet)

	// Service listings
	r.HandleFunc("/ows/capabilities", s.handleCapabilities).Methods(http.MethodGet)
	r.HandleFunc("/{workspace}/ows/capabilities", s.handleCapabilities).Methods(http.MethodGet)

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/workspaces", s.handleAddWorkspace).Methods(http.MethodPost)
	api.HandleFunc("/workspaces/{name}", s.handleRemoveWorkspace).Methods(http.MethodDelete)

	collection := fmt.Sprintf("/{collection:%s}", collectionPattern)
	api.HandleFunc(collection, s.handleList).Methods(http.MethodGet)
	api.HandleFunc(collection+"/{name}", s.handleGet).Methods(http.MethodGet)

	api.HandleFunc("/unresolved", s.handleUnresolved).Methods(http.MethodGet)

	if s.sync != nil {
		api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)
	}
	if s.publisher != nil {
		api.HandleFunc("/stores/{name}/publish", s.handlePublish).Methods(http.MethodPost)
	}
	if s.snapshot != nil {
		api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	}

	r.HandleFunc("/openapi.json", s.handleOpenAPI).Methods(http.MethodGet)
	r.HandleFunc("/openapi.yaml", s.handleOpenAPIYAML).Methods(http.MethodGet)

	return r
}

// Router returns the mux router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.config.Address())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs incoming requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoveryMiddleware recovers from panics.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
