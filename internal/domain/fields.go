package domain

import (
	"maps"
	"slices"
)

func scalarField[T any, V comparable](name string, get func(*T) V, set func(*T, V)) Field[T, V] {
	return Field[T, V]{
		name:  name,
		get:   get,
		set:   set,
		equal: func(a, b V) bool { return a == b },
	}
}

func refField[T any, U Info](name string, get func(*T) Ref[U], set func(*T, Ref[U])) Field[T, Ref[U]] {
	return Field[T, Ref[U]]{
		name:  name,
		get:   get,
		set:   set,
		equal: func(a, b Ref[U]) bool { return a.Equal(b) },
	}
}

func refListField[T any, U Info](name string, get func(*T) []Ref[U], set func(*T, []Ref[U])) Field[T, []Ref[U]] {
	return Field[T, []Ref[U]]{
		name:  name,
		get:   get,
		set:   set,
		clone: slices.Clone[[]Ref[U]],
		equal: EqualRefs[U],
		merge: mergeSlice[Ref[U]],
	}
}

func listField[T any, V comparable](name string, get func(*T) []V, set func(*T, []V)) Field[T, []V] {
	return Field[T, []V]{
		name:  name,
		get:   get,
		set:   set,
		clone: slices.Clone[[]V],
		equal: slices.Equal[[]V],
		merge: mergeSlice[V],
	}
}

func mapField[T any, M ~map[string]string](name string, get func(*T) M, set func(*T, M)) Field[T, M] {
	return Field[T, M]{
		name:  name,
		get:   get,
		set:   set,
		clone: cloneMap[M],
		equal: maps.Equal[M, M],
		merge: mergeMap[M],
	}
}

func envelopeField[T any](name string, get func(*T) *Envelope, set func(*T, *Envelope)) Field[T, *Envelope] {
	return Field[T, *Envelope]{
		name:  name,
		get:   get,
		set:   set,
		clone: cloneEnvelope,
		equal: func(a, b *Envelope) bool {
			if a == nil || b == nil {
				return a == b
			}
			return *a == *b
		},
	}
}

func cloneEnvelope(e *Envelope) *Envelope {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func cloneMap[M ~map[string]string](m M) M {
	c := make(M, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func mergeMap[M ~map[string]string](dst, src M) M {
	if dst == nil {
		return cloneMap(src)
	}
	clear(dst)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func mergeSlice[V any](dst, src []V) []V {
	if src == nil {
		return dst[:0]
	}
	return append(dst[:0], src...)
}

func cloneGroupStyles(in []LayerGroupStyle) []LayerGroupStyle {
	if in == nil {
		return nil
	}
	out := make([]LayerGroupStyle, len(in))
	for i, s := range in {
		out[i] = LayerGroupStyle{
			Name:   s.Name,
			Title:  s.Title,
			Layers: slices.Clone(s.Layers),
			Styles: slices.Clone(s.Styles),
		}
	}
	return out
}

func equalGroupStyles(a, b []LayerGroupStyle) bool {
	return slices.EqualFunc(a, b, func(x, y LayerGroupStyle) bool {
		return x.Name == y.Name && x.Title == y.Title &&
			EqualRefs(x.Layers, y.Layers) && EqualRefs(x.Styles, y.Styles)
	})
}

// Workspace fields.
var (
	WorkspaceName = scalarField("name",
		func(w *Workspace) string { return w.Name }, func(w *Workspace, v string) { w.Name = v })
	WorkspaceIsolated = scalarField("isolated",
		func(w *Workspace) bool { return w.Isolated }, func(w *Workspace, v bool) { w.Isolated = v })
	WorkspaceMetadata = mapField("metadata",
		func(w *Workspace) Metadata { return w.Metadata }, func(w *Workspace, v Metadata) { w.Metadata = v })
)

// Namespace fields.
var (
	NamespacePrefix = scalarField("prefix",
		func(n *Namespace) string { return n.Prefix }, func(n *Namespace, v string) { n.Prefix = v })
	NamespaceURI = scalarField("uri",
		func(n *Namespace) string { return n.URI }, func(n *Namespace, v string) { n.URI = v })
	NamespaceIsolated = scalarField("isolated",
		func(n *Namespace) bool { return n.Isolated }, func(n *Namespace, v bool) { n.Isolated = v })
	NamespaceMetadata = mapField("metadata",
		func(n *Namespace) Metadata { return n.Metadata }, func(n *Namespace, v Metadata) { n.Metadata = v })
)

// Store fields.
var (
	StoreName = scalarField("name",
		func(s *Store) string { return s.Name }, func(s *Store, v string) { s.Name = v })
	StoreDescription = scalarField("description",
		func(s *Store) string { return s.Description }, func(s *Store, v string) { s.Description = v })
	StoreEnabled = scalarField("enabled",
		func(s *Store) bool { return s.Enabled }, func(s *Store, v bool) { s.Enabled = v })
	StoreWorkspace = refField("workspace",
		func(s *Store) Ref[*Workspace] { return s.Workspace }, func(s *Store, v Ref[*Workspace]) { s.Workspace = v })
	StoreConnectionParameters = mapField("connectionParameters",
		func(s *Store) map[string]string { return s.ConnectionParameters },
		func(s *Store, v map[string]string) { s.ConnectionParameters = v })
	StoreURL = scalarField("url",
		func(s *Store) string { return s.URL }, func(s *Store, v string) { s.URL = v })
	StoreMetadata = mapField("metadata",
		func(s *Store) Metadata { return s.Metadata }, func(s *Store, v Metadata) { s.Metadata = v })
)

// Resource fields.
var (
	ResourceName = scalarField("name",
		func(r *Resource) string { return r.Name }, func(r *Resource, v string) { r.Name = v })
	ResourceNativeName = scalarField("nativeName",
		func(r *Resource) string { return r.NativeName }, func(r *Resource, v string) { r.NativeName = v })
	ResourceTitle = scalarField("title",
		func(r *Resource) string { return r.Title }, func(r *Resource, v string) { r.Title = v })
	ResourceAbstract = scalarField("abstract",
		func(r *Resource) string { return r.Abstract }, func(r *Resource, v string) { r.Abstract = v })
	ResourceStore = refField("store",
		func(r *Resource) Ref[*Store] { return r.Store }, func(r *Resource, v Ref[*Store]) { r.Store = v })
	ResourceNamespace = refField("namespace",
		func(r *Resource) Ref[*Namespace] { return r.Namespace }, func(r *Resource, v Ref[*Namespace]) { r.Namespace = v })
	ResourceKeywords = listField("keywords",
		func(r *Resource) []Keyword { return r.Keywords }, func(r *Resource, v []Keyword) { r.Keywords = v })
	ResourceSRS = scalarField("srs",
		func(r *Resource) string { return r.SRS }, func(r *Resource, v string) { r.SRS = v })
	ResourceNativeBoundingBox = envelopeField("nativeBoundingBox",
		func(r *Resource) *Envelope { return r.NativeBoundingBox }, func(r *Resource, v *Envelope) { r.NativeBoundingBox = v })
	ResourceLatLonBoundingBox = envelopeField("latLonBoundingBox",
		func(r *Resource) *Envelope { return r.LatLonBoundingBox }, func(r *Resource, v *Envelope) { r.LatLonBoundingBox = v })
	ResourceGeometryType = scalarField("geometryType",
		func(r *Resource) string { return r.GeometryType }, func(r *Resource, v string) { r.GeometryType = v })
	ResourceEnabled = scalarField("enabled",
		func(r *Resource) bool { return r.Enabled }, func(r *Resource, v bool) { r.Enabled = v })
	ResourceAdvertised = scalarField("advertised",
		func(r *Resource) bool { return r.Advertised }, func(r *Resource, v bool) { r.Advertised = v })
	ResourceMetadata = mapField("metadata",
		func(r *Resource) Metadata { return r.Metadata }, func(r *Resource, v Metadata) { r.Metadata = v })
)

// Layer fields.
var (
	LayerResource = refField("resource",
		func(l *Layer) Ref[*Resource] { return l.Resource }, func(l *Layer, v Ref[*Resource]) { l.Resource = v })
	LayerDefaultStyle = refField("defaultStyle",
		func(l *Layer) Ref[*Style] { return l.DefaultStyle }, func(l *Layer, v Ref[*Style]) { l.DefaultStyle = v })
	LayerStyles = refListField("styles",
		func(l *Layer) []Ref[*Style] { return l.Styles }, func(l *Layer, v []Ref[*Style]) { l.Styles = v })
	LayerType = scalarField("type",
		func(l *Layer) PublishedType { return l.Type }, func(l *Layer, v PublishedType) { l.Type = v })
	LayerPath = scalarField("path",
		func(l *Layer) string { return l.Path }, func(l *Layer, v string) { l.Path = v })
	LayerEnabledField = scalarField("enabled",
		func(l *Layer) bool { return l.Enabled }, func(l *Layer, v bool) { l.Enabled = v })
	LayerAdvertisedField = scalarField("advertised",
		func(l *Layer) bool { return l.Advertised }, func(l *Layer, v bool) { l.Advertised = v })
	LayerMetadata = mapField("metadata",
		func(l *Layer) Metadata { return l.Metadata }, func(l *Layer, v Metadata) { l.Metadata = v })
)

// LayerGroup fields.
var (
	GroupName = scalarField("name",
		func(g *LayerGroup) string { return g.Name }, func(g *LayerGroup, v string) { g.Name = v })
	GroupTitle = scalarField("title",
		func(g *LayerGroup) string { return g.Title }, func(g *LayerGroup, v string) { g.Title = v })
	GroupAbstract = scalarField("abstract",
		func(g *LayerGroup) string { return g.Abstract }, func(g *LayerGroup, v string) { g.Abstract = v })
	GroupModeField = scalarField("mode",
		func(g *LayerGroup) GroupMode { return g.Mode }, func(g *LayerGroup, v GroupMode) { g.Mode = v })
	GroupWorkspace = refField("workspace",
		func(g *LayerGroup) Ref[*Workspace] { return g.Workspace }, func(g *LayerGroup, v Ref[*Workspace]) { g.Workspace = v })
	GroupLayers = refListField("layers",
		func(g *LayerGroup) []Ref[Published] { return g.Layers }, func(g *LayerGroup, v []Ref[Published]) { g.Layers = v })
	GroupStyles = refListField("styles",
		func(g *LayerGroup) []Ref[*Style] { return g.Styles }, func(g *LayerGroup, v []Ref[*Style]) { g.Styles = v })
	GroupRootLayer = refField("rootLayer",
		func(g *LayerGroup) Ref[*Layer] { return g.RootLayer }, func(g *LayerGroup, v Ref[*Layer]) { g.RootLayer = v })
	GroupRootLayerStyle = refField("rootLayerStyle",
		func(g *LayerGroup) Ref[*Style] { return g.RootLayerStyle }, func(g *LayerGroup, v Ref[*Style]) { g.RootLayerStyle = v })
	GroupBounds = envelopeField("bounds",
		func(g *LayerGroup) *Envelope { return g.Bounds }, func(g *LayerGroup, v *Envelope) { g.Bounds = v })
	GroupAlternateStyles = Field[LayerGroup, []LayerGroupStyle]{
		name:  "layerGroupStyles",
		get:   func(g *LayerGroup) []LayerGroupStyle { return g.GroupStyles },
		set:   func(g *LayerGroup, v []LayerGroupStyle) { g.GroupStyles = v },
		clone: cloneGroupStyles,
		equal: equalGroupStyles,
		merge: mergeSlice[LayerGroupStyle],
	}
	GroupEnabled = scalarField("enabled",
		func(g *LayerGroup) bool { return g.Enabled }, func(g *LayerGroup, v bool) { g.Enabled = v })
	GroupAdvertised = scalarField("advertised",
		func(g *LayerGroup) bool { return g.Advertised }, func(g *LayerGroup, v bool) { g.Advertised = v })
	GroupMetadata = mapField("metadata",
		func(g *LayerGroup) Metadata { return g.Metadata }, func(g *LayerGroup, v Metadata) { g.Metadata = v })
)

// Style fields.
var (
	StyleName = scalarField("name",
		func(s *Style) string { return s.Name }, func(s *Style, v string) { s.Name = v })
	StyleWorkspace = refField("workspace",
		func(s *Style) Ref[*Workspace] { return s.Workspace }, func(s *Style, v Ref[*Workspace]) { s.Workspace = v })
	StyleFilename = scalarField("filename",
		func(s *Style) string { return s.Filename }, func(s *Style, v string) { s.Filename = v })
	StyleFormat = scalarField("format",
		func(s *Style) string { return s.Format }, func(s *Style, v string) { s.Format = v })
	StyleFormatVersion = scalarField("formatVersion",
		func(s *Style) string { return s.FormatVersion }, func(s *Style, v string) { s.FormatVersion = v })
)

// Map fields.
var (
	MapName = scalarField("name",
		func(m *Map) string { return m.Name }, func(m *Map, v string) { m.Name = v })
	MapEnabled = scalarField("enabled",
		func(m *Map) bool { return m.Enabled }, func(m *Map, v bool) { m.Enabled = v })
	MapLayers = refListField("layers",
		func(m *Map) []Ref[*Layer] { return m.Layers }, func(m *Map, v []Ref[*Layer]) { m.Layers = v })
)
