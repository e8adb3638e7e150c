package application

import (
	"context"
	"net/url"
	"strings"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

const reservedName = "default"

// validate runs the structural checks and the extension validators. prev is
// the canonical entity on save and nil on add.
func (c *Catalog) validate(ctx context.Context, info, prev domain.Info, isNew bool) error {
	if err := c.structural(ctx, info, prev); err != nil {
		return err
	}
	if err := c.unique(ctx, info); err != nil {
		return err
	}
	res := c.extension(ctx, info, isNew)
	if res.Valid() {
		return nil
	}
	c.validatorsMu.RLock()
	enforce := c.extendedValidation
	c.validatorsMu.RUnlock()
	if enforce {
		return res.Err(info.Kind())
	}
	c.logger.Warn("extended validation failed",
		"kind", info.Kind(),
		"id", domain.IDOf(info),
		"error", res.Err(info.Kind()),
	)
	return nil
}

// Validate checks info without changing the catalog and returns every failure.
// isNew selects the rules for an entity about to be added.
func (c *Catalog) Validate(ctx context.Context, info domain.Info, isNew bool) *domain.ValidationResult {
	res := &domain.ValidationResult{}
	if domain.IsNil(info) {
		res.Add(domain.Invalid(0, "", nil, "required", "entity is nil"))
		return res
	}
	var prev domain.Info
	if !isNew {
		if h := c.facade.Get(ctx, info.Kind(), domain.IDOf(info)); h != nil {
			prev = h.Unwrap()
		}
	}
	res.Add(c.structural(ctx, info, prev))
	res.Add(c.unique(ctx, info))
	res.Errors = append(res.Errors, c.extension(ctx, info, isNew).Errors...)
	return res
}

func (c *Catalog) extension(ctx context.Context, info domain.Info, isNew bool) *domain.ValidationResult {
	c.validatorsMu.RLock()
	validators := c.validators
	c.validatorsMu.RUnlock()
	res := &domain.ValidationResult{}
	for _, v := range validators {
		res.Add(output.Visit(ctx, v, info, isNew))
	}
	return res
}

func required(kind domain.Kind, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Invalid(kind, field, value, "required", "%s is required", field)
	}
	return nil
}

func requiredRef[T domain.Info](kind domain.Kind, field string, r domain.Ref[T]) error {
	if r.IsZero() {
		return domain.Invalid(kind, field, nil, "required", "%s is required", field)
	}
	return nil
}

func notReserved(kind domain.Kind, field, value string) error {
	if strings.EqualFold(value, reservedName) {
		return domain.Invalid(kind, field, value, "reserved", "%q is a reserved name", reservedName)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// structural checks the invariants of a single entity and its object graph.
func (c *Catalog) structural(ctx context.Context, info, prev domain.Info) error {
	switch v := info.(type) {
	case *domain.Workspace:
		return firstErr(
			required(domain.KindWorkspace, "name", v.Name),
			notReserved(domain.KindWorkspace, "name", v.Name),
		)
	case *domain.Namespace:
		return firstErr(
			required(domain.KindNamespace, "prefix", v.Prefix),
			notReserved(domain.KindNamespace, "prefix", v.Prefix),
			validURI(v.URI),
		)
	case *domain.Store:
		return firstErr(
			required(v.Kind(), "name", v.Name),
			requiredRef(v.Kind(), "workspace", v.Workspace),
		)
	case *domain.Resource:
		return firstErr(
			required(v.Kind(), "name", v.Name),
			requiredRef(v.Kind(), "store", v.Store),
			requiredRef(v.Kind(), "namespace", v.Namespace),
			validKeywords(v),
			domain.ValidateLatLon(v.Kind(), v.LatLonBoundingBox),
		)
	case *domain.Layer:
		return requiredRef(domain.KindLayer, "resource", v.Resource)
	case *domain.LayerGroup:
		return c.validGroup(ctx, v)
	case *domain.Style:
		return firstErr(
			required(domain.KindStyle, "name", v.Name),
			required(domain.KindStyle, "filename", v.Filename),
			validDefaultStyle(v, prev),
		)
	case *domain.Map:
		return required(domain.KindMap, "name", v.Name)
	}
	return nil
}

func validURI(uri string) error {
	if err := required(domain.KindNamespace, "uri", uri); err != nil {
		return err
	}
	u, err := url.Parse(uri)
	if err != nil || !u.IsAbs() {
		return domain.Invalid(domain.KindNamespace, "uri", uri, "absolute URI", "%q is not a valid URI", uri)
	}
	return nil
}

func validKeywords(r *domain.Resource) error {
	for _, k := range r.Keywords {
		if strings.TrimSpace(k.Value) == "" {
			return domain.Invalid(r.Kind(), "keywords", k.Value, "non-empty", "keywords must not be empty")
		}
		if strings.Contains(k.Value, `\`) {
			return domain.Invalid(r.Kind(), "keywords", k.Value, "no backslash", "keyword %q contains a backslash", k.Value)
		}
	}
	return nil
}

// validDefaultStyle keeps reserved styles global and under their name.
func validDefaultStyle(s *domain.Style, prev domain.Info) error {
	old, ok := prev.(*domain.Style)
	if !ok || !old.IsDefault() {
		return nil
	}
	if s.Name != old.Name {
		return domain.Invalid(domain.KindStyle, "name", s.Name, "default style", "default style %q cannot be renamed", old.Name)
	}
	if !s.Workspace.IsZero() {
		return domain.Invalid(domain.KindStyle, "workspace", s.Workspace.Name(), "default style",
			"default style %q cannot be moved into a workspace", old.Name)
	}
	return nil
}

func (c *Catalog) validGroup(ctx context.Context, g *domain.LayerGroup) error {
	if err := required(domain.KindLayerGroup, "name", g.Name); err != nil {
		return err
	}
	if len(g.Layers) == 0 {
		return domain.Structural(domain.KindLayerGroup, g.Name, "layer group has no layers")
	}
	if len(g.Styles) != 0 && len(g.Styles) != len(g.Layers) {
		return domain.Structural(domain.KindLayerGroup, g.Name,
			"layer group has %d layers but %d styles", len(g.Layers), len(g.Styles))
	}
	for i, entry := range g.Layers {
		if entry.IsZero() && (len(g.Styles) == 0 || g.Styles[i].IsZero()) {
			return domain.Structural(domain.KindLayerGroup, g.Name, "entry %d has neither layer nor style", i)
		}
	}

	switch g.Mode {
	case domain.ModeEO:
		if g.RootLayer.IsZero() {
			return domain.Structural(domain.KindLayerGroup, g.Name, "mode %s requires a root layer", g.Mode)
		}
		if g.RootLayerStyle.IsZero() {
			return domain.Structural(domain.KindLayerGroup, g.Name, "mode %s requires a root layer style", g.Mode)
		}
	case domain.ModeSingle, domain.ModeOpaque, domain.ModeNamed, domain.ModeContainer:
		if !g.RootLayer.IsZero() || !g.RootLayerStyle.IsZero() {
			return domain.Structural(domain.KindLayerGroup, g.Name, "mode %s does not allow a root layer", g.Mode)
		}
	case "":
		return domain.Invalid(domain.KindLayerGroup, "mode", g.Mode, "required", "mode is required")
	default:
		return domain.Invalid(domain.KindLayerGroup, "mode", g.Mode, "one of single, opaque, named, container, eo",
			"unknown mode %q", g.Mode)
	}

	for i, gs := range g.GroupStyles {
		if strings.TrimSpace(gs.Name) == "" {
			return domain.Invalid(domain.KindLayerGroup, "layerGroupStyles", i, "required", "group style %d has no name", i)
		}
		if len(gs.Layers) == 0 {
			return domain.Structural(domain.KindLayerGroup, g.Name, "group style %q has no layers", gs.Name)
		}
		if len(gs.Styles) != 0 && len(gs.Styles) != len(gs.Layers) {
			return domain.Structural(domain.KindLayerGroup, g.Name,
				"group style %q has %d layers but %d styles", gs.Name, len(gs.Layers), len(gs.Styles))
		}
	}

	if containsGroup(g, g.ID, map[*domain.LayerGroup]bool{}) {
		return domain.Structural(domain.KindLayerGroup, g.Name, "layer group contains itself")
	}
	if ws, ok := g.Workspace.Get(); ok {
		if err := groupInWorkspace(g, g, ws, map[*domain.LayerGroup]bool{}); err != nil {
			return err
		}
	}
	return nil
}

// groupEntries returns every layer group entry, including alternate group styles.
func groupEntries(g *domain.LayerGroup) []domain.Ref[domain.Published] {
	out := g.Layers
	for _, gs := range g.GroupStyles {
		out = append(out[:len(out):len(out)], gs.Layers...)
	}
	return out
}

// groupStyles returns every style a group uses.
func groupStyles(g *domain.LayerGroup) []domain.Ref[*domain.Style] {
	out := append(g.Styles[:len(g.Styles):len(g.Styles)], g.RootLayerStyle)
	for _, gs := range g.GroupStyles {
		out = append(out, gs.Styles...)
	}
	return out
}

// containsGroup reports whether g reaches the group with the given id through
// its entries. Groups are compared by id, so a staged copy finds its canonical self.
func containsGroup(g *domain.LayerGroup, id string, seen map[*domain.LayerGroup]bool) bool {
	if seen[g] {
		return false
	}
	seen[g] = true
	for _, entry := range groupEntries(g) {
		child, ok := entry.Pointee().(*domain.LayerGroup)
		if !ok {
			continue
		}
		if child.ID == id || containsGroup(child, id, seen) {
			return true
		}
	}
	return false
}

func groupInWorkspace(root, g *domain.LayerGroup, ws *domain.Workspace, seen map[*domain.LayerGroup]bool) error {
	if seen[g] {
		return nil
	}
	seen[g] = true
	outside := func(what, name string) error {
		return domain.Structural(domain.KindLayerGroup, root.Name,
			"%s %q is not in workspace %q", what, name, ws.Name)
	}
	for _, entry := range groupEntries(g) {
		switch v := entry.Pointee().(type) {
		case *domain.Layer:
			if lws, ok := domain.WorkspaceOf(v); ok && lws.ID != ws.ID {
				return outside("layer", v.PrefixedName())
			}
		case *domain.LayerGroup:
			// A global nested group is fine as long as its content is.
			if gws, ok := v.Workspace.Get(); ok && gws.ID != ws.ID {
				return outside("layer group", v.Name)
			}
			if err := groupInWorkspace(root, v, ws, seen); err != nil {
				return err
			}
		}
	}
	if l, ok := g.RootLayer.Get(); ok {
		if lws, ok := domain.WorkspaceOf(l); ok && lws.ID != ws.ID {
			return outside("root layer", l.PrefixedName())
		}
	}
	for _, s := range groupStyles(g) {
		if st, ok := s.Get(); ok {
			if sws, ok := st.Workspace.Get(); ok && sws.ID != ws.ID {
				return outside("style", st.Name)
			}
		}
	}
	return nil
}

// unique checks the name uniqueness rules. Entities with the id of info are
// not conflicts, so a save may keep its own name.
func (c *Catalog) unique(ctx context.Context, info domain.Info) error {
	id := domain.IDOf(info)
	taken := func(h domain.Handle) bool { return h != nil && h.ID() != id }
	dup := func(field, value, where string) error {
		return domain.Invalid(info.Kind(), field, value, "unique", "%s %q already exists%s", info.Kind(), value, where)
	}

	switch v := info.(type) {
	case *domain.Workspace:
		if taken(c.facade.GetByName(ctx, domain.KindWorkspace, domain.NoScope, v.Name)) {
			return dup("name", v.Name, "")
		}
	case *domain.Namespace:
		if taken(c.facade.GetByName(ctx, domain.KindNamespace, domain.NoScope, v.Prefix)) {
			return dup("prefix", v.Prefix, "")
		}
		if v.Isolated {
			return nil
		}
		for _, h := range c.facade.NamespacesByURI(ctx, v.URI) {
			if ns := unwrap[*domain.Namespace](h); ns != nil && ns.ID != id && !ns.Isolated {
				return domain.Invalid(domain.KindNamespace, "uri", v.URI, "unique",
					"uri %q is already used by namespace %q", v.URI, ns.Prefix)
			}
		}
	case *domain.Store:
		if taken(c.facade.GetByName(ctx, domain.KindStore, domain.ScopeID(v.Workspace.ID()), v.Name)) {
			return dup("name", v.Name, " in workspace "+v.Workspace.Name())
		}
	case *domain.Resource:
		if taken(c.facade.GetByName(ctx, domain.KindResource, domain.ScopeID(v.Namespace.ID()), v.Name)) {
			return dup("name", v.Name, " in namespace "+v.Namespace.Name())
		}
		storeID := v.Store.ID()
		sameStore := func(i domain.Info) bool {
			r, ok := i.(*domain.Resource)
			return ok && r.ID != id && r.Name == v.Name && r.Store.ID() == storeID
		}
		if c.facade.Count(ctx, domain.KindResource, sameStore) > 0 {
			return dup("name", v.Name, " in store "+v.Store.Name())
		}
	case *domain.Layer:
		res, ok := v.Resource.Get()
		if !ok {
			return nil
		}
		if taken(c.facade.GetByName(ctx, domain.KindLayer, domain.ScopeID(res.Namespace.ID()), res.Name)) {
			return dup("name", res.Name, " in namespace "+res.Namespace.Name())
		}
	case *domain.LayerGroup:
		if taken(c.facade.GetByName(ctx, domain.KindLayerGroup, domain.ScopeID(v.Workspace.ID()), v.Name)) {
			return dup("name", v.Name, "")
		}
	case *domain.Style:
		if taken(c.facade.GetByName(ctx, domain.KindStyle, domain.ScopeID(v.Workspace.ID()), v.Name)) {
			return dup("name", v.Name, "")
		}
	case *domain.Map:
		if taken(c.facade.GetByName(ctx, domain.KindMap, domain.NoScope, v.Name)) {
			return dup("name", v.Name, "")
		}
	}
	return nil
}

func usesRef[T domain.Info](refs []domain.Ref[T], id string) bool {
	for _, r := range refs {
		if r.ID() == id {
			return true
		}
	}
	return false
}

// removable checks that nothing still depends on info.
func (c *Catalog) removable(ctx context.Context, info domain.Info) error {
	id := domain.IDOf(info)
	blocked := func(format string, args ...any) error {
		return domain.Referenced(info.Kind(), domain.NameOf(info), format, args...)
	}
	count := func(kind domain.Kind, f domain.Filter) int {
		return c.facade.Count(ctx, kind, f)
	}

	switch v := info.(type) {
	case *domain.Workspace:
		if ns := c.namespaceOf(ctx, v.Name); ns != nil {
			return blocked("namespace %q is linked to the workspace", ns.Prefix)
		}
		if n := count(domain.KindStore, domain.InWorkspace(id)); n > 0 {
			return blocked("workspace holds %d stores", n)
		}
		if n := count(domain.KindStyle, domain.InWorkspace(id)); n > 0 {
			return blocked("workspace holds %d styles", n)
		}
		if n := count(domain.KindLayerGroup, domain.InWorkspace(id)); n > 0 {
			return blocked("workspace holds %d layer groups", n)
		}
	case *domain.Namespace:
		n := count(domain.KindResource, func(i domain.Info) bool {
			return i.(*domain.Resource).Namespace.ID() == id
		})
		if n > 0 {
			return blocked("namespace holds %d resources", n)
		}
	case *domain.Store:
		n := count(domain.KindResource, func(i domain.Info) bool {
			return i.(*domain.Resource).Store.ID() == id
		})
		if n > 0 {
			return blocked("store holds %d resources", n)
		}
	case *domain.Resource:
		if n := len(c.facade.LayersByResource(ctx, id)); n > 0 {
			return blocked("resource is published by %d layers", n)
		}
	case *domain.Layer:
		n := count(domain.KindLayerGroup, func(i domain.Info) bool {
			g := i.(*domain.LayerGroup)
			return usesRef(groupEntries(g), id) || g.RootLayer.ID() == id
		})
		if n > 0 {
			return blocked("layer is used by %d layer groups", n)
		}
	case *domain.LayerGroup:
		n := count(domain.KindLayerGroup, func(i domain.Info) bool {
			g := i.(*domain.LayerGroup)
			return g.ID != id && usesRef(groupEntries(g), id)
		})
		if n > 0 {
			return blocked("layer group is nested in %d layer groups", n)
		}
	case *domain.Style:
		if v.IsDefault() {
			return domain.Invalid(domain.KindStyle, "name", v.Name, "default style", "default style %q cannot be removed", v.Name)
		}
		layers := count(domain.KindLayer, func(i domain.Info) bool {
			l := i.(*domain.Layer)
			return l.DefaultStyle.ID() == id || usesRef(l.Styles, id)
		})
		if layers > 0 {
			return blocked("style is used by %d layers", layers)
		}
		groups := count(domain.KindLayerGroup, func(i domain.Info) bool {
			return usesRef(groupStyles(i.(*domain.LayerGroup)), id)
		})
		if groups > 0 {
			return blocked("style is used by %d layer groups", groups)
		}
	}
	return nil
}
