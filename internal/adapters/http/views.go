package http

import (
	"github.com/jobrunner/geocat/internal/domain"
)

// collections maps the API path segment of each entity list to its kind.
var collections = map[string]domain.Kind{
	"workspaces":  domain.KindWorkspace,
	"namespaces":  domain.KindNamespace,
	"stores":      domain.KindStore,
	"resources":   domain.KindResource,
	"layers":      domain.KindLayer,
	"layergroups": domain.KindLayerGroup,
	"styles":      domain.KindStyle,
	"maps":        domain.KindMap,
}

const collectionPattern = "workspaces|namespaces|stores|resources|layers|layergroups|styles|maps"

func refView[T domain.Info](r domain.Ref[T]) map[string]interface{} {
	if r.IsZero() {
		return nil
	}
	v := map[string]interface{}{
		"id":   r.ID(),
		"name": r.Name(),
	}
	if r.IsPending() {
		v["pending"] = true
	}
	return v
}

func refsView[T domain.Info](refs []domain.Ref[T]) []map[string]interface{} {
	out := make([]map[string]interface{}, len(refs))
	for i, r := range refs {
		out[i] = refView(r)
	}
	return out
}

func envelopeView(e *domain.Envelope) map[string]interface{} {
	if e == nil {
		return nil
	}
	return map[string]interface{}{
		"min_x": e.MinX,
		"min_y": e.MinY,
		"max_x": e.MaxX,
		"max_y": e.MaxY,
		"crs":   e.CRS,
	}
}

func keywordsView(kws []domain.Keyword) []string {
	out := make([]string, len(kws))
	for i, k := range kws {
		out[i] = k.String()
	}
	return out
}

// view formats a catalog entity for JSON output.
func view(info domain.Info) map[string]interface{} {
	meta := domain.MetaOf(info)
	v := map[string]interface{}{
		"id":   meta.ID,
		"kind": info.Kind().String(),
	}
	if !meta.DateCreated.IsZero() {
		v["created"] = meta.DateCreated
	}
	if !meta.DateModified.IsZero() {
		v["modified"] = meta.DateModified
	}

	switch e := info.(type) {
	case *domain.Workspace:
		v["name"] = e.Name
		v["isolated"] = e.Isolated
	case *domain.Namespace:
		v["prefix"] = e.Prefix
		v["uri"] = e.URI
		v["isolated"] = e.Isolated
	case *domain.Store:
		v["name"] = e.Name
		v["type"] = string(e.Type)
		v["description"] = e.Description
		v["enabled"] = e.Enabled
		v["workspace"] = refView(e.Workspace)
		if e.URL != "" {
			v["url"] = e.URL
		}
	case *domain.Resource:
		v["name"] = e.Name
		v["qualified_name"] = e.QualifiedName()
		v["type"] = string(e.Type)
		v["title"] = e.Title
		v["abstract"] = e.Abstract
		v["store"] = refView(e.Store)
		v["namespace"] = refView(e.Namespace)
		v["keywords"] = keywordsView(e.Keywords)
		v["srs"] = e.SRS
		v["geometry_type"] = e.GeometryType
		v["native_bbox"] = envelopeView(e.NativeBoundingBox)
		v["latlon_bbox"] = envelopeView(e.LatLonBoundingBox)
		v["enabled"] = e.Enabled
		v["advertised"] = e.Advertised
	case *domain.Layer:
		v["name"] = e.Name()
		v["prefixed_name"] = e.PrefixedName()
		v["type"] = string(e.Type)
		v["resource"] = refView(e.Resource)
		v["default_style"] = refView(e.DefaultStyle)
		v["styles"] = refsView(e.Styles)
		v["enabled"] = e.Enabled
		v["advertised"] = e.Advertised
	case *domain.LayerGroup:
		v["name"] = e.Name
		v["prefixed_name"] = e.PrefixedName()
		v["title"] = e.Title
		v["mode"] = string(e.Mode)
		v["workspace"] = refView(e.Workspace)
		v["layers"] = refsView(e.Layers)
		v["styles"] = refsView(e.Styles)
		v["bounds"] = envelopeView(e.Bounds)
		v["enabled"] = e.Enabled
		v["advertised"] = e.Advertised
	case *domain.Style:
		v["name"] = e.Name
		v["workspace"] = refView(e.Workspace)
		v["filename"] = e.Filename
		v["format"] = e.Format
	case *domain.Map:
		v["name"] = e.Name
		v["enabled"] = e.Enabled
		v["layers"] = refsView(e.Layers)
	}
	return v
}

func views(hs []domain.Handle) []map[string]interface{} {
	out := make([]map[string]interface{}, len(hs))
	for i, h := range hs {
		out[i] = view(h.Unwrap())
	}
	return out
}

// capabilityLayer formats a layer for a capabilities listing.
func capabilityLayer(l *domain.Layer) map[string]interface{} {
	v := map[string]interface{}{
		"name": l.PrefixedName(),
	}
	if r, ok := l.Resource.Get(); ok {
		v["title"] = r.Title
		v["abstract"] = r.Abstract
		v["srs"] = r.SRS
		v["keywords"] = keywordsView(r.Keywords)
		v["latlon_bbox"] = envelopeView(r.LatLonBoundingBox)
	}
	styles := make([]string, 0, len(l.Styles)+1)
	if s, ok := l.DefaultStyle.Get(); ok {
		styles = append(styles, s.Name)
	}
	for _, r := range l.Styles {
		if s, ok := r.Get(); ok {
			styles = append(styles, s.Name)
		}
	}
	v["styles"] = styles
	return v
}

// capabilityGroup formats a layer group for a capabilities listing.
func capabilityGroup(g *domain.LayerGroup) map[string]interface{} {
	members := make([]string, 0, len(g.Layers))
	for _, r := range g.Layers {
		switch p := target(r).(type) {
		case *domain.Layer:
			members = append(members, p.PrefixedName())
		case *domain.LayerGroup:
			members = append(members, p.PrefixedName())
		}
	}
	return map[string]interface{}{
		"name":     g.PrefixedName(),
		"title":    g.Title,
		"abstract": g.Abstract,
		"mode":     string(g.Mode),
		"layers":   members,
		"bounds":   envelopeView(g.Bounds),
	}
}

func target(r domain.Ref[domain.Published]) domain.Published {
	p, _ := r.Get()
	return p
}
