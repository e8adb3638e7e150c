package application

import (
	"context"
	"fmt"
	"slices"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

func unwrap[T domain.Info](h domain.Handle) T {
	var zero T
	if h == nil {
		return zero
	}
	t, _ := h.Unwrap().(T)
	return t
}

// orNil turns a typed nil entity into an untyped nil for change values.
func orNil(i domain.Info) any {
	if domain.IsNil(i) {
		return nil
	}
	return i
}

func defaultChanged(changes ...domain.Change) []domain.Event {
	if len(changes) == 0 {
		return nil
	}
	return []domain.Event{
		{Type: domain.EventModify, Changes: changes},
		{Type: domain.EventPostModify, Changes: changes},
	}
}

func (c *Catalog) first(ctx context.Context, kind domain.Kind, filter domain.Filter) domain.Handle {
	it, err := c.facade.List(ctx, kind, domain.Query{Filter: filter, Limit: 1})
	if err != nil {
		return nil
	}
	if found := output.Collect(it); len(found) > 0 {
		return found[0]
	}
	return nil
}

// namespaceOf returns the namespace linked to the workspace named name.
func (c *Catalog) namespaceOf(ctx context.Context, name string) *domain.Namespace {
	return unwrap[*domain.Namespace](c.facade.GetByName(ctx, domain.KindNamespace, domain.NoScope, name))
}

// workspaceOf returns the workspace linked to the namespace with prefix.
func (c *Catalog) workspaceOf(ctx context.Context, prefix string) *domain.Workspace {
	return unwrap[*domain.Workspace](c.facade.GetByName(ctx, domain.KindWorkspace, domain.NoScope, prefix))
}

// setDefaultWorkspace moves the default workspace and the default namespace
// linked to it. defaultsMu must be held.
func (c *Catalog) setDefaultWorkspace(ctx context.Context, ws *domain.Workspace) []domain.Change {
	old := unwrap[*domain.Workspace](c.facade.DefaultWorkspace(ctx))
	if old == ws {
		return nil
	}
	c.facade.SetDefaultWorkspace(ctx, ws)
	changes := []domain.Change{{Property: domain.PropDefaultWorkspace, Old: orNil(old), New: orNil(ws)}}
	if ws == nil {
		return changes
	}
	if ns := c.namespaceOf(ctx, ws.Name); ns != nil {
		oldNS := unwrap[*domain.Namespace](c.facade.DefaultNamespace(ctx))
		if oldNS != ns {
			c.facade.SetDefaultNamespace(ctx, ns)
			changes = append(changes, domain.Change{Property: domain.PropDefaultNamespace, Old: orNil(oldNS), New: ns})
		}
	}
	return changes
}

// setDefaultNamespace moves the default namespace and the default workspace
// linked to it. defaultsMu must be held.
func (c *Catalog) setDefaultNamespace(ctx context.Context, ns *domain.Namespace) []domain.Change {
	old := unwrap[*domain.Namespace](c.facade.DefaultNamespace(ctx))
	if old == ns {
		return nil
	}
	c.facade.SetDefaultNamespace(ctx, ns)
	changes := []domain.Change{{Property: domain.PropDefaultNamespace, Old: orNil(old), New: orNil(ns)}}
	if ns == nil {
		return changes
	}
	if ws := c.workspaceOf(ctx, ns.Prefix); ws != nil {
		oldWS := unwrap[*domain.Workspace](c.facade.DefaultWorkspace(ctx))
		if oldWS != ws {
			c.facade.SetDefaultWorkspace(ctx, ws)
			changes = append(changes, domain.Change{Property: domain.PropDefaultWorkspace, Old: orNil(oldWS), New: ws})
		}
	}
	return changes
}

func (c *Catalog) setDefaultDataStore(ctx context.Context, wsID string, st *domain.Store) []domain.Change {
	old := unwrap[*domain.Store](c.facade.DefaultDataStore(ctx, wsID))
	if old == st {
		return nil
	}
	c.facade.SetDefaultDataStore(ctx, wsID, st)
	return []domain.Change{{Property: domain.PropDefaultDataStore, Old: orNil(old), New: orNil(st)}}
}

// promote makes info the default of its family when there is none yet.
func (c *Catalog) promote(ctx context.Context, info domain.Info) []domain.Event {
	c.defaultsMu.Lock()
	defer c.defaultsMu.Unlock()
	switch v := info.(type) {
	case *domain.Workspace:
		if c.facade.DefaultWorkspace(ctx) == nil {
			return defaultChanged(c.setDefaultWorkspace(ctx, v)...)
		}
	case *domain.Namespace:
		if c.facade.DefaultNamespace(ctx) == nil {
			return defaultChanged(c.setDefaultNamespace(ctx, v)...)
		}
	case *domain.Store:
		wsID := v.Workspace.ID()
		if v.Kind() == domain.KindDataStore && wsID != "" && c.facade.DefaultDataStore(ctx, wsID) == nil {
			return defaultChanged(c.setDefaultDataStore(ctx, wsID, v)...)
		}
	}
	return nil
}

// repick replaces a removed default by the first remaining candidate, or clears it.
func (c *Catalog) repick(ctx context.Context, info domain.Info) []domain.Event {
	c.defaultsMu.Lock()
	defer c.defaultsMu.Unlock()
	switch v := info.(type) {
	case *domain.Workspace:
		if unwrap[*domain.Workspace](c.facade.DefaultWorkspace(ctx)) == v {
			next := unwrap[*domain.Workspace](c.first(ctx, domain.KindWorkspace, nil))
			return defaultChanged(c.setDefaultWorkspace(ctx, next)...)
		}
	case *domain.Namespace:
		if unwrap[*domain.Namespace](c.facade.DefaultNamespace(ctx)) == v {
			next := unwrap[*domain.Namespace](c.first(ctx, domain.KindNamespace, nil))
			return defaultChanged(c.setDefaultNamespace(ctx, next)...)
		}
	case *domain.Store:
		wsID := v.Workspace.ID()
		if wsID != "" && unwrap[*domain.Store](c.facade.DefaultDataStore(ctx, wsID)) == v {
			next := unwrap[*domain.Store](c.first(ctx, domain.KindDataStore, domain.InWorkspace(wsID)))
			return defaultChanged(c.setDefaultDataStore(ctx, wsID, next)...)
		}
	}
	return nil
}

// promoteLoaded fills default pointers a snapshot did not set. No events are fired.
func (c *Catalog) promoteLoaded(ctx context.Context) {
	c.defaultsMu.Lock()
	defer c.defaultsMu.Unlock()
	if c.facade.DefaultWorkspace(ctx) == nil {
		if ws := unwrap[*domain.Workspace](c.first(ctx, domain.KindWorkspace, nil)); ws != nil {
			c.setDefaultWorkspace(ctx, ws)
		}
	}
	if c.facade.DefaultNamespace(ctx) == nil {
		if ns := unwrap[*domain.Namespace](c.first(ctx, domain.KindNamespace, nil)); ns != nil {
			c.setDefaultNamespace(ctx, ns)
		}
	}
	it, err := c.facade.List(ctx, domain.KindDataStore, domain.Query{})
	if err != nil {
		return
	}
	for _, h := range output.Collect(it) {
		st := unwrap[*domain.Store](h)
		if wsID := st.Workspace.ID(); wsID != "" && c.facade.DefaultDataStore(ctx, wsID) == nil {
			c.facade.SetDefaultDataStore(ctx, wsID, st)
		}
	}
}

// DefaultWorkspace returns the default workspace, or nil.
func (c *Catalog) DefaultWorkspace(ctx context.Context) *domain.Proxy[domain.Workspace] {
	return typed[domain.Workspace](c.facade.DefaultWorkspace(ctx))
}

// DefaultNamespace returns the default namespace, or nil.
func (c *Catalog) DefaultNamespace(ctx context.Context) *domain.Proxy[domain.Namespace] {
	return typed[domain.Namespace](c.facade.DefaultNamespace(ctx))
}

// DefaultDataStore returns the default data store of the workspace with the given id, or nil.
func (c *Catalog) DefaultDataStore(ctx context.Context, workspaceID string) *domain.Proxy[domain.Store] {
	return typed[domain.Store](c.facade.DefaultDataStore(ctx, workspaceID))
}

// SetDefaultWorkspace makes ws the default workspace. The namespace with the
// same prefix becomes the default namespace. A nil ws clears the default.
func (c *Catalog) SetDefaultWorkspace(ctx context.Context, ws *domain.Workspace) error {
	ictx := scope.Detach(ctx)
	var changes []domain.Change
	err := c.locked(ictx, domain.KindWorkspace, func(lctx context.Context) error {
		if ws != nil {
			if ws = unwrap[*domain.Workspace](c.facade.Get(lctx, domain.KindWorkspace, ws.ID)); ws == nil {
				return fmt.Errorf("%w: default workspace", domain.ErrEntityNotFound)
			}
		}
		c.defaultsMu.Lock()
		defer c.defaultsMu.Unlock()
		changes = c.setDefaultWorkspace(lctx, ws)
		return nil
	})
	if err != nil {
		return err
	}
	return c.fire(ctx, defaultChanged(changes...)...)
}

// SetDefaultNamespace makes ns the default namespace. The workspace with the
// same name becomes the default workspace. A nil ns clears the default.
func (c *Catalog) SetDefaultNamespace(ctx context.Context, ns *domain.Namespace) error {
	ictx := scope.Detach(ctx)
	var changes []domain.Change
	err := c.locked(ictx, domain.KindNamespace, func(lctx context.Context) error {
		if ns != nil {
			if ns = unwrap[*domain.Namespace](c.facade.Get(lctx, domain.KindNamespace, ns.ID)); ns == nil {
				return fmt.Errorf("%w: default namespace", domain.ErrEntityNotFound)
			}
		}
		c.defaultsMu.Lock()
		defer c.defaultsMu.Unlock()
		changes = c.setDefaultNamespace(lctx, ns)
		return nil
	})
	if err != nil {
		return err
	}
	return c.fire(ctx, defaultChanged(changes...)...)
}

// SetDefaultDataStore makes st the default data store of ws. A nil st clears it.
func (c *Catalog) SetDefaultDataStore(ctx context.Context, ws *domain.Workspace, st *domain.Store) error {
	if ws == nil {
		return domain.Invalid(domain.KindDataStore, "workspace", nil, "required", "workspace is required")
	}
	ictx := scope.Detach(ctx)
	var changes []domain.Change
	err := c.locked(ictx, domain.KindStore, func(lctx context.Context) error {
		if st != nil {
			if st = unwrap[*domain.Store](c.facade.Get(lctx, domain.KindDataStore, st.ID)); st == nil {
				return fmt.Errorf("%w: default data store", domain.ErrEntityNotFound)
			}
			if st.Workspace.ID() != ws.ID {
				return domain.Invalid(domain.KindDataStore, "workspace", ws.Name, "same workspace",
					"store %q does not belong to workspace %q", st.Name, ws.Name)
			}
		}
		c.defaultsMu.Lock()
		defer c.defaultsMu.Unlock()
		changes = c.setDefaultDataStore(lctx, ws.ID, st)
		return nil
	})
	if err != nil {
		return err
	}
	return c.fire(ctx, defaultChanged(changes...)...)
}

// applyDefaults fills the fields a new entity derives from its references.
func (c *Catalog) applyDefaults(ctx context.Context, info domain.Info) {
	switch v := info.(type) {
	case *domain.Store:
		if v.Workspace.IsZero() {
			if ws := unwrap[*domain.Workspace](c.facade.DefaultWorkspace(ctx)); ws != nil {
				v.Workspace = domain.RefTo(ws)
			}
		}
	case *domain.Resource:
		if v.NativeName == "" {
			v.NativeName = v.Name
		}
		if v.Namespace.IsZero() {
			if ws, ok := domain.WorkspaceOf(v); ok {
				if ns := c.namespaceOf(ctx, ws.Name); ns != nil {
					v.Namespace = domain.RefTo(ns)
				}
			}
		}
		if v.Namespace.IsZero() {
			if ns := unwrap[*domain.Namespace](c.facade.DefaultNamespace(ctx)); ns != nil {
				v.Namespace = domain.RefTo(ns)
			}
		}
	case *domain.Layer:
		c.layerDefaults(ctx, v)
	case *domain.LayerGroup:
		groupDefaults(v)
	}
}

func (c *Catalog) layerDefaults(ctx context.Context, l *domain.Layer) {
	res, resolved := l.Resource.Get()
	if resolved && l.Type == "" {
		switch res.Kind() {
		case domain.KindCoverage:
			l.Type = domain.PublishedRaster
		case domain.KindWMSLayer:
			l.Type = domain.PublishedWMS
		case domain.KindWMTSLayer:
			l.Type = domain.PublishedWMTS
		default:
			l.Type = domain.PublishedVector
		}
	}

	styles := l.Styles[:0]
	for _, s := range l.Styles {
		if s.IsZero() || slices.ContainsFunc(styles, s.Equal) {
			continue
		}
		styles = append(styles, s)
	}
	l.Styles = styles

	if !l.DefaultStyle.IsZero() || !resolved {
		return
	}
	var name string
	switch res.Kind() {
	case domain.KindCoverage:
		name = domain.StyleRaster
	case domain.KindFeatureType:
		name = domain.StyleForGeometry(res.GeometryType)
	default:
		return
	}
	if st := unwrap[*domain.Style](c.facade.GetByName(ctx, domain.KindStyle, domain.NoScope, name)); st != nil {
		l.DefaultStyle = domain.RefTo(st)
	}
}

// groupDefaults drops entries without layer and style and pads an empty style list.
func groupDefaults(g *domain.LayerGroup) {
	if len(g.Styles) == len(g.Layers) {
		var layers []domain.Ref[domain.Published]
		var styles []domain.Ref[*domain.Style]
		for i := range g.Layers {
			if g.Layers[i].IsZero() && g.Styles[i].IsZero() {
				continue
			}
			layers = append(layers, g.Layers[i])
			styles = append(styles, g.Styles[i])
		}
		g.Layers, g.Styles = layers, styles
		return
	}
	if len(g.Styles) == 0 {
		g.Layers = slices.DeleteFunc(g.Layers, func(r domain.Ref[domain.Published]) bool { return r.IsZero() })
		g.Styles = make([]domain.Ref[*domain.Style], len(g.Layers))
	}
}
