package decorator

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

// Isolated hides the content of isolated workspaces from service requests that
// are not scoped to that workspace. Without a request in the context, as for
// administrative access, everything is visible.
//
// Workspaces and namespaces themselves are listed; stores, resources, layers,
// styles and layer groups are checked through their workspace chain.
type Isolated struct {
	filtered
}

// NewIsolated wraps inner with workspace isolation.
func NewIsolated(inner output.Facade) *Isolated {
	d := &Isolated{}
	d.filtered = filtered{Facade: inner, visible: d.visible}
	return d
}

func canSee(req *scope.Request, ws *domain.Workspace) bool {
	if ws == nil || !ws.Isolated || req == nil {
		return true
	}
	return req.LocalWorkspace != "" && req.LocalWorkspace == ws.Name
}

func (d *Isolated) visible(ctx context.Context, info domain.Info) bool {
	req := scope.FromContext(ctx)
	if req == nil {
		return true
	}
	switch v := info.(type) {
	case *domain.Store, *domain.Resource, *domain.Layer, *domain.LayerGroup, *domain.Style:
		// An unresolved chain cannot be checked and is let through.
		ws, _ := domain.WorkspaceOf(v)
		return canSee(req, ws)
	default:
		return true
	}
}

// NamespacesByURI implements output.Facade. When several namespaces share the
// URI, the namespace of the local workspace comes first.
func (d *Isolated) NamespacesByURI(ctx context.Context, uri string) []domain.Handle {
	found := d.filtered.NamespacesByURI(ctx, uri)
	local := scope.LocalWorkspace(ctx)
	if local == "" || len(found) < 2 {
		return found
	}
	for i, h := range found {
		if ns, ok := h.Unwrap().(*domain.Namespace); ok && ns.Prefix == local {
			found[0], found[i] = found[i], found[0]
			break
		}
	}
	return found
}
