package application

import (
	"context"
	"strings"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

// lookup returns the resolver lookup over the facade: by id first, then by
// name. Names of scoped kinds may be qualified as "scope:name".
func (c *Catalog) lookup(ctx context.Context) domain.Lookup {
	return func(kind domain.Kind, id, name string) domain.Info {
		if id != "" {
			if h := c.facade.Get(ctx, kind, id); h != nil {
				return h.Unwrap()
			}
		}
		if name == "" {
			return nil
		}
		if h := c.byName(ctx, kind, name); h != nil {
			return h.Unwrap()
		}
		return nil
	}
}

// byName finds an entity by plain or qualified name.
func (c *Catalog) byName(ctx context.Context, kind domain.Kind, name string) domain.Handle {
	prefix, local, qualified := strings.Cut(name, ":")
	switch {
	case kind == domain.KindPublished:
		if h := c.byName(ctx, domain.KindLayer, name); h != nil {
			return h
		}
		return c.byName(ctx, domain.KindLayerGroup, name)

	case kind == domain.KindWorkspace, kind == domain.KindNamespace, kind == domain.KindMap:
		return c.facade.GetByName(ctx, kind, domain.NoScope, name)

	case kind.IsA(domain.KindResource), kind == domain.KindLayer:
		if qualified {
			ns := c.facade.GetByName(ctx, domain.KindNamespace, domain.NoScope, prefix)
			if ns == nil {
				return nil
			}
			return c.facade.GetByName(ctx, kind, domain.ScopeID(ns.ID()), local)
		}
		if ns := c.facade.DefaultNamespace(ctx); ns != nil {
			if h := c.facade.GetByName(ctx, kind, domain.ScopeID(ns.ID()), name); h != nil {
				return h
			}
		}
		return c.facade.GetByName(ctx, kind, domain.AnyScope, name)

	default:
		// Stores, styles and layer groups are scoped by workspace name.
		if qualified {
			ws := c.facade.GetByName(ctx, domain.KindWorkspace, domain.NoScope, prefix)
			if ws == nil {
				return nil
			}
			return c.facade.GetByName(ctx, kind, domain.ScopeID(ws.ID()), local)
		}
		if h := c.facade.GetByName(ctx, kind, domain.NoScope, name); h != nil {
			return h
		}
		return c.facade.GetByName(ctx, kind, domain.AnyScope, name)
	}
}

// resolve resolves the references of info in place and logs the ones left pending.
func (c *Catalog) resolve(ctx context.Context, info domain.Info) int {
	warnings := domain.ResolveRefs(info, c.lookup(ctx))
	for _, w := range warnings {
		c.logger.Warn("unresolved reference", "reference", w.String())
	}
	return len(warnings)
}

// retryUnresolved re-runs resolution for every entity with pending references.
// Entities that become resolved are re-keyed in the name index.
func (c *Catalog) retryUnresolved(ctx context.Context) {
	for _, info := range c.facade.Unresolved(ctx) {
		_ = c.locked(ctx, info.Kind(), func(lctx context.Context) error {
			lctx, release := c.mutating(lctx)
			defer release()
			left := len(domain.ResolveRefs(info, c.lookup(lctx)))
			if layer, ok := info.(*domain.Layer); ok {
				c.layerDefaults(lctx, layer)
			}
			c.facade.Reindex(lctx, info)
			if left == 0 {
				c.logger.Debug("deferred references resolved", "kind", info.Kind(), "id", domain.IDOf(info))
			}
			if res, ok := info.(*domain.Resource); ok {
				for _, l := range c.facade.LayersByResource(lctx, res.ID) {
					c.facade.Reindex(lctx, l.Unwrap())
				}
			}
			return nil
		})
	}
}

// Resolve is the bulk pass after BulkPut. It walks every collection in
// dependency order, assigns missing ids, resolves references and fills
// default pointers the loaded content did not set.
func (c *Catalog) Resolve(ctx context.Context) error {
	return c.all(scope.Detach(ctx), func(lctx context.Context) error {
		lctx, release := c.mutating(lctx)
		defer release()
		find := c.lookup(lctx)
		pending := 0
		for _, kind := range domain.AllKinds {
			it, err := c.facade.List(lctx, kind, domain.Query{})
			if err != nil {
				return err
			}
			for _, h := range output.Collect(it) {
				info := h.Unwrap()
				if domain.IDOf(info) == "" {
					domain.SetID(info, c.newID(kind))
				}
				if meta := domain.MetaOf(info); meta.DateCreated.IsZero() {
					meta.DateCreated = c.now()
				}
				warnings := domain.ResolveRefs(info, find)
				c.applyDefaults(lctx, info)
				for _, w := range warnings {
					pending++
					c.logger.Warn("unresolved reference", "reference", w.String())
				}
				c.facade.Reindex(lctx, info)
			}
		}
		c.promoteLoaded(lctx)
		if pending > 0 {
			c.logger.Info("catalog resolved with pending references", "pending", pending)
		}
		return nil
	})
}
