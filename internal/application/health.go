package application

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	catalog *Catalog
}

// NewHealthService creates a new health service.
func NewHealthService(catalog *Catalog) *HealthService {
	return &HealthService{
		catalog: catalog,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(ctx context.Context) bool {
	return true // Basic health check
}

// IsReady returns true once the catalog completed its first load.
func (s *HealthService) IsReady(ctx context.Context) bool {
	return s.catalog.Loaded()
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	unresolved := len(s.catalog.Unresolved(ctx))

	components := map[string]string{
		"storage": "ok",
		"catalog": "loading",
	}
	if s.catalog.Loaded() {
		components["catalog"] = "loaded"
	}
	if unresolved > 0 {
		components["references"] = "pending"
	} else {
		components["references"] = "ok"
	}

	return input.HealthDetails{
		Healthy:    s.IsHealthy(ctx),
		Ready:      s.IsReady(ctx),
		Objects:    s.catalog.Counts(ctx),
		Unresolved: unresolved,
		Components: components,
	}
}

// UnresolvedEntity describes an entity whose references are still pending.
type UnresolvedEntity struct {
	Kind       string   `json:"kind"`
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	References []string `json:"references"`
}

// GetUnresolved returns every entity with pending references.
func (s *HealthService) GetUnresolved(ctx context.Context) []UnresolvedEntity {
	infos := s.catalog.Unresolved(ctx)

	out := make([]UnresolvedEntity, len(infos))
	for i, info := range infos {
		var refs []string
		for _, w := range domain.PendingRefs(info) {
			refs = append(refs, w.String())
		}
		out[i] = UnresolvedEntity{
			Kind:       info.Kind().String(),
			ID:         domain.IDOf(info),
			Name:       domain.NameOf(info),
			References: refs,
		}
	}

	return out
}
