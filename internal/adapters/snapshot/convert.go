package snapshot

import (
	"github.com/jobrunner/geocat/internal/domain"
)

func pending[T domain.Info](kind domain.Kind, r Ref) domain.Ref[T] {
	if r.Kind != "" {
		if k, ok := domain.ParseKind(r.Kind); ok {
			kind = k
		}
	}
	switch {
	case r.ID != "":
		return domain.PendingRef[T](kind, r.ID)
	case r.Name != "":
		return domain.PendingRefByName[T](kind, r.Name)
	default:
		return domain.Ref[T]{}
	}
}

func pendingList[T domain.Info](kind domain.Kind, refs []Ref) []domain.Ref[T] {
	if len(refs) == 0 {
		return nil
	}
	out := make([]domain.Ref[T], len(refs))
	for i, r := range refs {
		out[i] = pending[T](kind, r)
	}
	return out
}

func refOf[T domain.Info](r domain.Ref[T]) Ref {
	if r.IsZero() {
		return Ref{}
	}
	if id := r.ID(); id != "" {
		return Ref{ID: id}
	}
	return Ref{Name: r.Name()}
}

// publishedRefOf also records the kind, since groups may hold layers and groups.
func publishedRefOf(r domain.Ref[domain.Published]) Ref {
	out := refOf(r)
	if !out.IsZero() && !r.Kind().IsAbstract() {
		out.Kind = r.Kind().String()
	}
	return out
}

func refsOf[T domain.Info](refs []domain.Ref[T]) []Ref {
	if len(refs) == 0 {
		return nil
	}
	out := make([]Ref, len(refs))
	for i, r := range refs {
		out[i] = refOf(r)
	}
	return out
}

func publishedRefsOf(refs []domain.Ref[domain.Published]) []Ref {
	if len(refs) == 0 {
		return nil
	}
	out := make([]Ref, len(refs))
	for i, r := range refs {
		out[i] = publishedRefOf(r)
	}
	return out
}

func flag(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func ptr(b bool) *bool { return &b }

func envelope(e *Envelope) *domain.Envelope {
	if e == nil {
		return nil
	}
	return &domain.Envelope{MinX: e.MinX, MinY: e.MinY, MaxX: e.MaxX, MaxY: e.MaxY, CRS: e.CRS}
}

func envelopeDoc(e *domain.Envelope) *Envelope {
	if e == nil {
		return nil
	}
	return &Envelope{MinX: e.MinX, MinY: e.MinY, MaxX: e.MaxX, MaxY: e.MaxY, CRS: e.CRS}
}

func meta(id string, s Stamp) domain.Meta {
	return domain.Meta{ID: id, DateCreated: s.Created, DateModified: s.Modified}
}

func stamp(m domain.Meta) Stamp {
	return Stamp{Created: m.DateCreated, Modified: m.DateModified}
}

func (d WorkspaceDoc) entity() *domain.Workspace {
	return &domain.Workspace{
		Meta:     meta(d.ID, d.Stamp),
		Name:     d.Name,
		Isolated: d.Isolated,
		Metadata: d.Metadata,
	}
}

func (d NamespaceDoc) entity() *domain.Namespace {
	return &domain.Namespace{
		Meta:     meta(d.ID, d.Stamp),
		Prefix:   d.Prefix,
		URI:      d.URI,
		Isolated: d.Isolated,
		Metadata: d.Metadata,
	}
}

func (d StoreDoc) entity() *domain.Store {
	t := domain.StoreType(d.Type)
	if t == "" {
		t = domain.StoreTypeData
	}
	params := d.ConnectionParameters
	if params == nil {
		params = make(map[string]string)
	}
	return &domain.Store{
		Meta:                 meta(d.ID, d.Stamp),
		Type:                 t,
		Name:                 d.Name,
		Description:          d.Description,
		Enabled:              flag(d.Enabled, true),
		Workspace:            pending[*domain.Workspace](domain.KindWorkspace, d.Workspace),
		ConnectionParameters: params,
		URL:                  d.URL,
		Metadata:             d.Metadata,
	}
}

func (d ResourceDoc) entity() *domain.Resource {
	t := domain.ResourceType(d.Type)
	if t == "" {
		t = domain.ResourceTypeFeature
	}
	var keywords []domain.Keyword
	for _, k := range d.Keywords {
		keywords = append(keywords, domain.Keyword{Value: k.Value, Language: k.Language, Vocabulary: k.Vocabulary})
	}
	return &domain.Resource{
		Meta:              meta(d.ID, d.Stamp),
		Type:              t,
		Name:              d.Name,
		NativeName:        d.NativeName,
		Title:             d.Title,
		Abstract:          d.Abstract,
		Store:             pending[*domain.Store](domain.KindStore, d.Store),
		Namespace:         pending[*domain.Namespace](domain.KindNamespace, d.Namespace),
		Keywords:          keywords,
		SRS:               d.SRS,
		NativeBoundingBox: envelope(d.NativeBoundingBox),
		LatLonBoundingBox: envelope(d.LatLonBoundingBox),
		GeometryType:      d.GeometryType,
		Enabled:           flag(d.Enabled, true),
		Advertised:        flag(d.Advertised, true),
		Metadata:          d.Metadata,
	}
}

func (d StyleDoc) entity() *domain.Style {
	return &domain.Style{
		Meta:          meta(d.ID, d.Stamp),
		Name:          d.Name,
		Workspace:     pending[*domain.Workspace](domain.KindWorkspace, d.Workspace),
		Filename:      d.Filename,
		Format:        d.Format,
		FormatVersion: d.FormatVersion,
	}
}

func (d LayerDoc) entity() *domain.Layer {
	return &domain.Layer{
		Meta:         meta(d.ID, d.Stamp),
		Resource:     pending[*domain.Resource](domain.KindResource, d.Resource),
		DefaultStyle: pending[*domain.Style](domain.KindStyle, d.DefaultStyle),
		Styles:       pendingList[*domain.Style](domain.KindStyle, d.Styles),
		Type:         domain.PublishedType(d.Type),
		Path:         d.Path,
		Enabled:      flag(d.Enabled, true),
		Advertised:   flag(d.Advertised, true),
		Metadata:     d.Metadata,
	}
}

func (d LayerGroupDoc) entity() *domain.LayerGroup {
	g := &domain.LayerGroup{
		Meta:           meta(d.ID, d.Stamp),
		Name:           d.Name,
		Title:          d.Title,
		Abstract:       d.Abstract,
		Mode:           domain.GroupMode(d.Mode),
		Workspace:      pending[*domain.Workspace](domain.KindWorkspace, d.Workspace),
		Layers:         pendingList[domain.Published](domain.KindPublished, d.Layers),
		Styles:         pendingList[*domain.Style](domain.KindStyle, d.Styles),
		RootLayer:      pending[*domain.Layer](domain.KindLayer, d.RootLayer),
		RootLayerStyle: pending[*domain.Style](domain.KindStyle, d.RootLayerStyle),
		Bounds:         envelope(d.Bounds),
		Enabled:        flag(d.Enabled, true),
		Advertised:     flag(d.Advertised, true),
		Metadata:       d.Metadata,
	}
	for _, s := range d.GroupStyles {
		g.GroupStyles = append(g.GroupStyles, domain.LayerGroupStyle{
			Name:   s.Name,
			Title:  s.Title,
			Layers: pendingList[domain.Published](domain.KindPublished, s.Layers),
			Styles: pendingList[*domain.Style](domain.KindStyle, s.Styles),
		})
	}
	return g
}

func (d MapDoc) entity() *domain.Map {
	return &domain.Map{
		Meta:    meta(d.ID, d.Stamp),
		Name:    d.Name,
		Enabled: flag(d.Enabled, true),
		Layers:  pendingList[*domain.Layer](domain.KindLayer, d.Layers),
	}
}

// Entities converts d into unattached entities with pending references, in
// dependency order.
func (d *Document) Entities() []domain.Info {
	out := make([]domain.Info, 0, d.Len())
	for _, x := range d.Workspaces {
		out = append(out, x.entity())
	}
	for _, x := range d.Namespaces {
		out = append(out, x.entity())
	}
	for _, x := range d.Stores {
		out = append(out, x.entity())
	}
	for _, x := range d.Styles {
		out = append(out, x.entity())
	}
	for _, x := range d.Resources {
		out = append(out, x.entity())
	}
	for _, x := range d.Layers {
		out = append(out, x.entity())
	}
	for _, x := range d.LayerGroups {
		out = append(out, x.entity())
	}
	for _, x := range d.Maps {
		out = append(out, x.entity())
	}
	return out
}

// add appends the document form of info.
func (d *Document) add(info domain.Info) {
	switch v := info.(type) {
	case *domain.Workspace:
		d.Workspaces = append(d.Workspaces, WorkspaceDoc{
			ID: v.ID, Name: v.Name, Isolated: v.Isolated, Metadata: v.Metadata, Stamp: stamp(v.Meta),
		})
	case *domain.Namespace:
		d.Namespaces = append(d.Namespaces, NamespaceDoc{
			ID: v.ID, Prefix: v.Prefix, URI: v.URI, Isolated: v.Isolated, Metadata: v.Metadata, Stamp: stamp(v.Meta),
		})
	case *domain.Store:
		d.Stores = append(d.Stores, StoreDoc{
			ID:                   v.ID,
			Type:                 string(v.Type),
			Name:                 v.Name,
			Description:          v.Description,
			Enabled:              ptr(v.Enabled),
			Workspace:            refOf(v.Workspace),
			ConnectionParameters: v.ConnectionParameters,
			URL:                  v.URL,
			Metadata:             v.Metadata,
			Stamp:                stamp(v.Meta),
		})
	case *domain.Resource:
		var keywords []KeywordDoc
		for _, k := range v.Keywords {
			keywords = append(keywords, KeywordDoc{Value: k.Value, Language: k.Language, Vocabulary: k.Vocabulary})
		}
		d.Resources = append(d.Resources, ResourceDoc{
			ID:                v.ID,
			Type:              string(v.Type),
			Name:              v.Name,
			NativeName:        v.NativeName,
			Title:             v.Title,
			Abstract:          v.Abstract,
			Store:             refOf(v.Store),
			Namespace:         refOf(v.Namespace),
			Keywords:          keywords,
			SRS:               v.SRS,
			NativeBoundingBox: envelopeDoc(v.NativeBoundingBox),
			LatLonBoundingBox: envelopeDoc(v.LatLonBoundingBox),
			GeometryType:      v.GeometryType,
			Enabled:           ptr(v.Enabled),
			Advertised:        ptr(v.Advertised),
			Metadata:          v.Metadata,
			Stamp:             stamp(v.Meta),
		})
	case *domain.Style:
		d.Styles = append(d.Styles, StyleDoc{
			ID:            v.ID,
			Name:          v.Name,
			Workspace:     refOf(v.Workspace),
			Filename:      v.Filename,
			Format:        v.Format,
			FormatVersion: v.FormatVersion,
			Stamp:         stamp(v.Meta),
		})
	case *domain.Layer:
		d.Layers = append(d.Layers, LayerDoc{
			ID:           v.ID,
			Resource:     refOf(v.Resource),
			DefaultStyle: refOf(v.DefaultStyle),
			Styles:       refsOf(v.Styles),
			Type:         string(v.Type),
			Path:         v.Path,
			Enabled:      ptr(v.Enabled),
			Advertised:   ptr(v.Advertised),
			Metadata:     v.Metadata,
			Stamp:        stamp(v.Meta),
		})
	case *domain.LayerGroup:
		g := LayerGroupDoc{
			ID:             v.ID,
			Name:           v.Name,
			Title:          v.Title,
			Abstract:       v.Abstract,
			Mode:           string(v.Mode),
			Workspace:      refOf(v.Workspace),
			Layers:         publishedRefsOf(v.Layers),
			Styles:         refsOf(v.Styles),
			RootLayer:      refOf(v.RootLayer),
			RootLayerStyle: refOf(v.RootLayerStyle),
			Bounds:         envelopeDoc(v.Bounds),
			Enabled:        ptr(v.Enabled),
			Advertised:     ptr(v.Advertised),
			Metadata:       v.Metadata,
			Stamp:          stamp(v.Meta),
		}
		for _, s := range v.GroupStyles {
			g.GroupStyles = append(g.GroupStyles, GroupStyleDoc{
				Name:   s.Name,
				Title:  s.Title,
				Layers: publishedRefsOf(s.Layers),
				Styles: refsOf(s.Styles),
			})
		}
		d.LayerGroups = append(d.LayerGroups, g)
	case *domain.Map:
		d.Maps = append(d.Maps, MapDoc{
			ID: v.ID, Name: v.Name, Enabled: ptr(v.Enabled), Layers: refsOf(v.Layers), Stamp: stamp(v.Meta),
		})
	}
}
