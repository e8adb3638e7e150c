package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/input"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// Compile-time contract assertion.
var _ input.CatalogService = (*QueryService)(nil)

// QueryService serves catalog reads and workspace administration to the HTTP adapter.
type QueryService struct {
	catalog    *Catalog
	factory    Factory
	metrics    output.MetricsCollector
	logger     *slog.Logger
	maxResults int
}

// QueryServiceConfig holds configuration for the query service.
type QueryServiceConfig struct {
	// MaxResults caps list results when the request asks for more or sets no limit.
	MaxResults int
}

// NewQueryService creates a new query service.
func NewQueryService(
	catalog *Catalog,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	cfg QueryServiceConfig,
) *QueryService {
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 1000
	}

	return &QueryService{
		catalog:    catalog,
		metrics:    metrics,
		logger:     logger,
		maxResults: cfg.MaxResults,
	}
}

// List returns the entities of kind matching q, at most MaxResults of them.
func (s *QueryService) List(ctx context.Context, kind domain.Kind, q domain.Query) ([]domain.Handle, error) {
	start := time.Now()
	if q.Limit <= 0 || q.Limit > s.maxResults {
		q.Limit = s.maxResults
	}

	it, err := s.catalog.List(ctx, kind, q)
	s.metrics.IncOperationCount("list", kind.String(), err == nil)
	if err != nil {
		return nil, err
	}
	found := output.Collect(it)
	s.metrics.ObserveOperationDuration("list", time.Since(start))
	return found, nil
}

// Count returns the number of entities of kind matching filter.
func (s *QueryService) Count(ctx context.Context, kind domain.Kind, filter domain.Filter) int {
	return s.catalog.Count(ctx, kind, filter)
}

// GetByName returns the entity of kind named name. Workspace and namespace
// scoped kinds accept "scope:name".
func (s *QueryService) GetByName(ctx context.Context, kind domain.Kind, name string) (domain.Handle, error) {
	var h domain.Handle
	switch {
	case kind == domain.KindWorkspace:
		h = handle(s.catalog.WorkspaceByName(ctx, name))
	case kind == domain.KindNamespace:
		h = handle(s.catalog.NamespaceByPrefix(ctx, name))
	case kind == domain.KindMap:
		h = handle(s.catalog.MapByName(ctx, name))
	case kind == domain.KindLayer:
		h = handle(s.catalog.LayerByName(ctx, name))
	case kind.IsA(domain.KindResource):
		h = handle(s.catalog.ResourceByQualifiedName(ctx, name))
	case kind == domain.KindLayerGroup:
		h = handle(s.catalog.LayerGroupByName(ctx, "", name))
	case kind == domain.KindStyle:
		h = handle(s.catalog.StyleByName(ctx, "", name))
	case kind.IsA(domain.KindStore):
		ws, local, ok := strings.Cut(name, ":")
		if !ok {
			ws, local = "", name
		}
		h = handle(s.catalog.StoreByName(ctx, ws, local))
	default:
		h = s.catalog.byName(ctx, kind, name)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrEntityNotFound, kind, name)
	}
	return h, nil
}

// handle converts a typed proxy to a Handle, keeping nil untyped.
func handle[T any](p *domain.Proxy[T]) domain.Handle {
	if p == nil {
		return nil
	}
	return p
}

// AddWorkspace adds a workspace and the namespace linked to it.
func (s *QueryService) AddWorkspace(ctx context.Context, name, uri string, isolated bool) (domain.Handle, error) {
	ns := s.factory.NewNamespace()
	ns.Prefix = name
	ns.URI = uri
	ns.Isolated = isolated
	// The namespace is checked first so a bad URI leaves no workspace behind.
	if res := s.catalog.Validate(ctx, ns, true); !res.Valid() {
		return nil, res.Errors[0]
	}

	ws := s.factory.NewWorkspace()
	ws.Name = name
	ws.Isolated = isolated
	if err := s.catalog.Add(ctx, ws); err != nil {
		return nil, err
	}
	if err := s.catalog.Add(ctx, ns); err != nil {
		if rerr := s.catalog.Remove(ctx, ws); rerr != nil {
			s.logger.Error("failed to roll back workspace", "workspace", name, "error", rerr)
		}
		return nil, err
	}
	s.logger.Info("workspace added", "workspace", name, "uri", uri, "isolated", isolated)
	return s.catalog.Workspace(ctx, ws.ID), nil
}

// RemoveWorkspace removes an empty workspace and its namespace.
func (s *QueryService) RemoveWorkspace(ctx context.Context, name string) error {
	ws := s.catalog.WorkspaceByName(ctx, name)
	if ws == nil || name == "" {
		return fmt.Errorf("%w: workspace %q", domain.ErrEntityNotFound, name)
	}
	// The linked namespace blocks the workspace remove, so it goes first and
	// is put back when the workspace turns out to be in use.
	var ns *domain.Namespace
	if h := s.catalog.NamespaceByPrefix(ctx, name); h != nil {
		ns = h.Object()
		if err := s.catalog.Remove(ctx, ns); err != nil {
			return err
		}
	}
	if err := s.catalog.Remove(ctx, ws.Object()); err != nil {
		if ns != nil {
			if rerr := s.catalog.Add(ctx, ns); rerr != nil {
				s.logger.Error("failed to restore namespace", "namespace", name, "error", rerr)
			}
		}
		return err
	}
	s.logger.Info("workspace removed", "workspace", name)
	return nil
}
