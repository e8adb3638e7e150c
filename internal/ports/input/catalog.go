// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
)

// CatalogService defines the primary port used by the HTTP adapter.
type CatalogService interface {
	// List returns the entities of kind matching q.
	List(ctx context.Context, kind domain.Kind, q domain.Query) ([]domain.Handle, error)

	// Count returns the number of entities of kind matching filter.
	Count(ctx context.Context, kind domain.Kind, filter domain.Filter) int

	// GetByName returns the entity of kind named name, or domain.ErrEntityNotFound.
	// Workspace scoped kinds accept "workspace:name".
	GetByName(ctx context.Context, kind domain.Kind, name string) (domain.Handle, error)

	// AddWorkspace adds a workspace and its namespace.
	AddWorkspace(ctx context.Context, name, uri string, isolated bool) (domain.Handle, error)

	// RemoveWorkspace removes an empty workspace and its namespace.
	RemoveWorkspace(ctx context.Context, name string) error
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy    bool              // Overall health status
	Ready      bool              // Ready to accept requests
	Objects    map[string]int    // Catalog entities per kind
	Unresolved int               // Entities with pending references
	Components map[string]string // Component statuses
}
