package output

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
)

// Validator is an extension validator visited once per add or save.
// isNew is true on add. Store and resource variants share one method each.
type Validator interface {
	ValidateWorkspace(ctx context.Context, ws *domain.Workspace, isNew bool) error
	ValidateNamespace(ctx context.Context, ns *domain.Namespace, isNew bool) error
	ValidateStore(ctx context.Context, s *domain.Store, isNew bool) error
	ValidateResource(ctx context.Context, r *domain.Resource, isNew bool) error
	ValidateLayer(ctx context.Context, l *domain.Layer, isNew bool) error
	ValidateLayerGroup(ctx context.Context, g *domain.LayerGroup, isNew bool) error
	ValidateStyle(ctx context.Context, s *domain.Style, isNew bool) error
	ValidateMap(ctx context.Context, m *domain.Map, isNew bool) error
}

// NopValidator accepts everything. Embed it to implement only some methods.
type NopValidator struct{}

func (NopValidator) ValidateWorkspace(context.Context, *domain.Workspace, bool) error   { return nil }
func (NopValidator) ValidateNamespace(context.Context, *domain.Namespace, bool) error   { return nil }
func (NopValidator) ValidateStore(context.Context, *domain.Store, bool) error           { return nil }
func (NopValidator) ValidateResource(context.Context, *domain.Resource, bool) error     { return nil }
func (NopValidator) ValidateLayer(context.Context, *domain.Layer, bool) error           { return nil }
func (NopValidator) ValidateLayerGroup(context.Context, *domain.LayerGroup, bool) error { return nil }
func (NopValidator) ValidateStyle(context.Context, *domain.Style, bool) error           { return nil }
func (NopValidator) ValidateMap(context.Context, *domain.Map, bool) error               { return nil }

// Visit dispatches info to the matching method of v.
func Visit(ctx context.Context, v Validator, info domain.Info, isNew bool) error {
	switch t := info.(type) {
	case *domain.Workspace:
		return v.ValidateWorkspace(ctx, t, isNew)
	case *domain.Namespace:
		return v.ValidateNamespace(ctx, t, isNew)
	case *domain.Store:
		return v.ValidateStore(ctx, t, isNew)
	case *domain.Resource:
		return v.ValidateResource(ctx, t, isNew)
	case *domain.Layer:
		return v.ValidateLayer(ctx, t, isNew)
	case *domain.LayerGroup:
		return v.ValidateLayerGroup(ctx, t, isNew)
	case *domain.Style:
		return v.ValidateStyle(ctx, t, isNew)
	case *domain.Map:
		return v.ValidateMap(ctx, t, isNew)
	default:
		return nil
	}
}
