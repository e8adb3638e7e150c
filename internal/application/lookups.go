package application

import (
	"context"
	"strings"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

func typed[T any](h domain.Handle) *domain.Proxy[T] {
	p, _ := h.(*domain.Proxy[T])
	return p
}

func (c *Catalog) collect(ctx context.Context, kind domain.Kind, filter domain.Filter) []domain.Handle {
	it, err := c.facade.List(ctx, kind, domain.Query{Filter: filter})
	if err != nil {
		return nil
	}
	return output.Collect(it)
}

// isDefault reports whether a by-name lookup asks for the default entity.
func isDefault(name string) bool {
	return name == "" || name == reservedName
}

// Workspace returns the workspace with the given id.
func (c *Catalog) Workspace(ctx context.Context, id string) *domain.Proxy[domain.Workspace] {
	return typed[domain.Workspace](c.facade.Get(ctx, domain.KindWorkspace, id))
}

// WorkspaceByName returns the named workspace. "" and "default" select the default workspace.
func (c *Catalog) WorkspaceByName(ctx context.Context, name string) *domain.Proxy[domain.Workspace] {
	if isDefault(name) {
		return c.DefaultWorkspace(ctx)
	}
	return typed[domain.Workspace](c.facade.GetByName(ctx, domain.KindWorkspace, domain.NoScope, name))
}

// Namespace returns the namespace with the given id.
func (c *Catalog) Namespace(ctx context.Context, id string) *domain.Proxy[domain.Namespace] {
	return typed[domain.Namespace](c.facade.Get(ctx, domain.KindNamespace, id))
}

// NamespaceByPrefix returns the namespace with prefix. "" and "default" select the default namespace.
func (c *Catalog) NamespaceByPrefix(ctx context.Context, prefix string) *domain.Proxy[domain.Namespace] {
	if isDefault(prefix) {
		return c.DefaultNamespace(ctx)
	}
	return typed[domain.Namespace](c.facade.GetByName(ctx, domain.KindNamespace, domain.NoScope, prefix))
}

// NamespaceByURI returns the first namespace with uri. Isolated namespaces
// may share a URI; the namespace of the request's local workspace comes first.
func (c *Catalog) NamespaceByURI(ctx context.Context, uri string) *domain.Proxy[domain.Namespace] {
	found := c.facade.NamespacesByURI(ctx, uri)
	if len(found) == 0 {
		return nil
	}
	return typed[domain.Namespace](found[0])
}

// Store returns the store of any type with the given id.
func (c *Catalog) Store(ctx context.Context, id string) *domain.Proxy[domain.Store] {
	return typed[domain.Store](c.facade.Get(ctx, domain.KindStore, id))
}

// StoreByName returns the store named name in the named workspace. An empty
// workspace searches all workspaces and succeeds only for a unique name.
func (c *Catalog) StoreByName(ctx context.Context, workspace, name string) *domain.Proxy[domain.Store] {
	if workspace == "" {
		return typed[domain.Store](c.facade.GetByName(ctx, domain.KindStore, domain.AnyScope, name))
	}
	ws := c.WorkspaceByName(ctx, workspace)
	if ws == nil {
		return nil
	}
	return typed[domain.Store](c.facade.GetByName(ctx, domain.KindStore, domain.ScopeID(ws.ID()), name))
}

// StoresByWorkspace returns the stores of the workspace with the given id.
func (c *Catalog) StoresByWorkspace(ctx context.Context, workspaceID string) []domain.Handle {
	return c.collect(ctx, domain.KindStore, domain.InWorkspace(workspaceID))
}

// Resource returns the resource of any type with the given id.
func (c *Catalog) Resource(ctx context.Context, id string) *domain.Proxy[domain.Resource] {
	return typed[domain.Resource](c.facade.Get(ctx, domain.KindResource, id))
}

// ResourceByName returns the resource named name in the namespace with prefix.
func (c *Catalog) ResourceByName(ctx context.Context, prefix, name string) *domain.Proxy[domain.Resource] {
	ns := c.NamespaceByPrefix(ctx, prefix)
	if ns == nil {
		return nil
	}
	return typed[domain.Resource](c.facade.GetByName(ctx, domain.KindResource, domain.ScopeID(ns.ID()), name))
}

// ResourceByQualifiedName accepts "prefix:name" or a plain name. A plain name
// is looked up in the default namespace first, then in all namespaces.
func (c *Catalog) ResourceByQualifiedName(ctx context.Context, name string) *domain.Proxy[domain.Resource] {
	return typed[domain.Resource](c.byName(ctx, domain.KindResource, name))
}

// ResourcesByStore returns the resources of the store with the given id.
func (c *Catalog) ResourcesByStore(ctx context.Context, storeID string) []domain.Handle {
	return c.collect(ctx, domain.KindResource, func(i domain.Info) bool {
		return i.(*domain.Resource).Store.ID() == storeID
	})
}

// ResourcesByNamespace returns the resources of the namespace with the given id.
func (c *Catalog) ResourcesByNamespace(ctx context.Context, namespaceID string) []domain.Handle {
	return c.collect(ctx, domain.KindResource, func(i domain.Info) bool {
		return i.(*domain.Resource).Namespace.ID() == namespaceID
	})
}

// Layer returns the layer with the given id.
func (c *Catalog) Layer(ctx context.Context, id string) *domain.Proxy[domain.Layer] {
	return typed[domain.Layer](c.facade.Get(ctx, domain.KindLayer, id))
}

// LayerByName accepts "prefix:name" or a plain name.
func (c *Catalog) LayerByName(ctx context.Context, name string) *domain.Proxy[domain.Layer] {
	return typed[domain.Layer](c.byName(ctx, domain.KindLayer, name))
}

// LayersByResource returns the layers publishing the resource with the given id.
func (c *Catalog) LayersByResource(ctx context.Context, resourceID string) []domain.Handle {
	return c.facade.LayersByResource(ctx, resourceID)
}

// LayersByStyle returns the layers using the style with the given id as
// default or alternate style.
func (c *Catalog) LayersByStyle(ctx context.Context, styleID string) []domain.Handle {
	return c.collect(ctx, domain.KindLayer, func(i domain.Info) bool {
		l := i.(*domain.Layer)
		return l.DefaultStyle.ID() == styleID || usesRef(l.Styles, styleID)
	})
}

// LayerGroup returns the layer group with the given id.
func (c *Catalog) LayerGroup(ctx context.Context, id string) *domain.Proxy[domain.LayerGroup] {
	return typed[domain.LayerGroup](c.facade.Get(ctx, domain.KindLayerGroup, id))
}

// LayerGroupByName returns the named group of the named workspace, or the
// global group when workspace is empty. "ws:name" is accepted as well.
func (c *Catalog) LayerGroupByName(ctx context.Context, workspace, name string) *domain.Proxy[domain.LayerGroup] {
	return typed[domain.LayerGroup](c.scoped(ctx, domain.KindLayerGroup, workspace, name))
}

// LayerGroupsByWorkspace returns the groups of the workspace with the given id.
func (c *Catalog) LayerGroupsByWorkspace(ctx context.Context, workspaceID string) []domain.Handle {
	return c.collect(ctx, domain.KindLayerGroup, domain.InWorkspace(workspaceID))
}

// Style returns the style with the given id.
func (c *Catalog) Style(ctx context.Context, id string) *domain.Proxy[domain.Style] {
	return typed[domain.Style](c.facade.Get(ctx, domain.KindStyle, id))
}

// StyleByName returns the named style of the named workspace, or the global
// style when workspace is empty. "ws:name" is accepted as well.
func (c *Catalog) StyleByName(ctx context.Context, workspace, name string) *domain.Proxy[domain.Style] {
	return typed[domain.Style](c.scoped(ctx, domain.KindStyle, workspace, name))
}

// StylesByWorkspace returns the styles of the workspace with the given id.
func (c *Catalog) StylesByWorkspace(ctx context.Context, workspaceID string) []domain.Handle {
	return c.collect(ctx, domain.KindStyle, domain.InWorkspace(workspaceID))
}

// Map returns the map with the given id.
func (c *Catalog) Map(ctx context.Context, id string) *domain.Proxy[domain.Map] {
	return typed[domain.Map](c.facade.Get(ctx, domain.KindMap, id))
}

// MapByName returns the named map.
func (c *Catalog) MapByName(ctx context.Context, name string) *domain.Proxy[domain.Map] {
	return typed[domain.Map](c.facade.GetByName(ctx, domain.KindMap, domain.NoScope, name))
}

func (c *Catalog) scoped(ctx context.Context, kind domain.Kind, workspace, name string) domain.Handle {
	if workspace == "" {
		if ws, local, ok := strings.Cut(name, ":"); ok {
			workspace, name = ws, local
		}
	}
	if workspace == "" {
		return c.facade.GetByName(ctx, kind, domain.NoScope, name)
	}
	ws := c.WorkspaceByName(ctx, workspace)
	if ws == nil {
		return nil
	}
	return c.facade.GetByName(ctx, kind, domain.ScopeID(ws.ID()), name)
}
