package domain

import (
	"strings"
	"time"
)

// Info is implemented by every catalog entity. The set of implementations is closed.
type Info interface {
	// Kind returns the concrete entity kind.
	Kind() Kind
	meta() *Meta
}

// Published is implemented by entities that can be entries of a layer group.
type Published interface {
	Info
	published()
}

// Meta holds the attributes shared by all entities.
type Meta struct {
	ID           string
	DateCreated  time.Time
	DateModified time.Time
}

// Metadata is a free-form key/value bag.
type Metadata map[string]string

// Keyword is a resource keyword with optional language and vocabulary.
type Keyword struct {
	Value      string
	Language   string
	Vocabulary string
}

// String returns the keyword in "value\@language=x\;\@vocabulary=y\;" notation.
func (k Keyword) String() string {
	var b strings.Builder
	b.WriteString(k.Value)
	if k.Language != "" {
		b.WriteString("\\@language=" + k.Language + "\\;")
	}
	if k.Vocabulary != "" {
		b.WriteString("\\@vocabulary=" + k.Vocabulary + "\\;")
	}
	return b.String()
}

// Envelope is a 2D bounding box in the given CRS.
type Envelope struct {
	MinX, MinY float64
	MaxX, MaxY float64
	CRS        string
}

// IsEmpty reports whether the envelope covers no area.
func (e *Envelope) IsEmpty() bool {
	return e == nil || e.MaxX < e.MinX || e.MaxY < e.MinY
}

// Union returns the smallest envelope covering both e and o.
// The result takes the CRS of the first non-empty operand.
func (e *Envelope) Union(o *Envelope) *Envelope {
	if e.IsEmpty() {
		if o.IsEmpty() {
			return nil
		}
		c := *o
		return &c
	}
	if o.IsEmpty() {
		c := *e
		return &c
	}
	return &Envelope{
		MinX: min(e.MinX, o.MinX),
		MinY: min(e.MinY, o.MinY),
		MaxX: max(e.MaxX, o.MaxX),
		MaxY: max(e.MaxY, o.MaxY),
		CRS:  e.CRS,
	}
}

// Workspace is a named administrative grouping of stores.
type Workspace struct {
	Meta
	Name     string
	Isolated bool
	Metadata Metadata
}

// Namespace is a prefix/URI pair bound to the workspace of the same name.
type Namespace struct {
	Meta
	Prefix   string
	URI      string
	Isolated bool
	Metadata Metadata
}

// StoreType distinguishes the store variants.
type StoreType string

// Store variants.
const (
	StoreTypeData     StoreType = "data"
	StoreTypeCoverage StoreType = "coverage"
	StoreTypeWMS      StoreType = "wms"
	StoreTypeWMTS     StoreType = "wmts"
)

// Store is a data source registered under a workspace.
type Store struct {
	Meta
	Type                 StoreType
	Name                 string
	Description          string
	Enabled              bool
	Workspace            Ref[*Workspace]
	ConnectionParameters map[string]string
	URL                  string
	Metadata             Metadata
}

// ResourceType distinguishes the resource variants.
type ResourceType string

// Resource variants.
const (
	ResourceTypeFeature  ResourceType = "featureType"
	ResourceTypeCoverage ResourceType = "coverage"
	ResourceTypeWMS      ResourceType = "wmsLayer"
	ResourceTypeWMTS     ResourceType = "wmtsLayer"
)

// Resource is a single dataset published from a store.
type Resource struct {
	Meta
	Type              ResourceType
	Name              string
	NativeName        string
	Title             string
	Abstract          string
	Store             Ref[*Store]
	Namespace         Ref[*Namespace]
	Keywords          []Keyword
	SRS               string
	NativeBoundingBox *Envelope
	LatLonBoundingBox *Envelope
	GeometryType      string
	Enabled           bool
	Advertised        bool
	Metadata          Metadata
}

// QualifiedName returns "prefix:name" when the namespace is resolved.
func (r *Resource) QualifiedName() string {
	if ns, ok := r.Namespace.Get(); ok {
		return ns.Prefix + ":" + r.Name
	}
	return r.Name
}

// PublishedType is the type of a published entity.
type PublishedType string

// Published types.
const (
	PublishedVector PublishedType = "vector"
	PublishedRaster PublishedType = "raster"
	PublishedWMS    PublishedType = "wms"
	PublishedWMTS   PublishedType = "wmts"
	PublishedGroup  PublishedType = "group"
)

// Layer publishes exactly one resource with a default style and alternates.
type Layer struct {
	Meta
	Resource     Ref[*Resource]
	DefaultStyle Ref[*Style]
	Styles       []Ref[*Style]
	Type         PublishedType
	Path         string
	Enabled      bool
	Advertised   bool
	Metadata     Metadata
}

// Name returns the name of the layer's resource.
func (l *Layer) Name() string {
	if r, ok := l.Resource.Get(); ok {
		return r.Name
	}
	return ""
}

// PrefixedName returns "prefix:name" when the resource namespace is known.
func (l *Layer) PrefixedName() string {
	if r, ok := l.Resource.Get(); ok {
		return r.QualifiedName()
	}
	return ""
}

// LayerEnabled reports whether the layer, its resource and its store are all enabled.
func LayerEnabled(l *Layer) bool {
	if !l.Enabled {
		return false
	}
	r, ok := l.Resource.Get()
	if !ok {
		return false
	}
	if !r.Enabled {
		return false
	}
	if s, ok := r.Store.Get(); ok {
		return s.Enabled
	}
	return true
}

// LayerAdvertised reports whether both the layer and its resource are advertised.
func LayerAdvertised(l *Layer) bool {
	if !l.Advertised {
		return false
	}
	if r, ok := l.Resource.Get(); ok {
		return r.Advertised
	}
	return true
}

// GroupMode is the rendering mode of a layer group.
type GroupMode string

// Layer group modes.
const (
	ModeSingle    GroupMode = "single"
	ModeOpaque    GroupMode = "opaque"
	ModeNamed     GroupMode = "named"
	ModeContainer GroupMode = "container"
	ModeEO        GroupMode = "eo"
)

// LayerGroupStyle is an alternate named (layers, styles) configuration of a group.
type LayerGroupStyle struct {
	Name   string
	Title  string
	Layers []Ref[Published]
	Styles []Ref[*Style]
}

// LayerGroup is an ordered aggregation of layers and groups with parallel styles.
// A nil layer entry with a style denotes a style group.
type LayerGroup struct {
	Meta
	Name           string
	Title          string
	Abstract       string
	Mode           GroupMode
	Workspace      Ref[*Workspace]
	Layers         []Ref[Published]
	Styles         []Ref[*Style]
	RootLayer      Ref[*Layer]
	RootLayerStyle Ref[*Style]
	Bounds         *Envelope
	GroupStyles    []LayerGroupStyle
	Enabled        bool
	Advertised     bool
	Metadata       Metadata
}

// PrefixedName returns "workspace:name" for workspace scoped groups.
func (g *LayerGroup) PrefixedName() string {
	if ws, ok := g.Workspace.Get(); ok {
		return ws.Name + ":" + g.Name
	}
	return g.Name
}

// Default style names. Global styles with these names are never removable.
const (
	StylePoint   = "point"
	StyleLine    = "line"
	StylePolygon = "polygon"
	StyleRaster  = "raster"
	StyleGeneric = "generic"
)

// DefaultStyleNames lists the reserved system style names.
var DefaultStyleNames = []string{StylePoint, StyleLine, StylePolygon, StyleRaster, StyleGeneric}

// IsDefaultStyleName reports whether name is reserved for a system style.
func IsDefaultStyleName(name string) bool {
	for _, n := range DefaultStyleNames {
		if n == name {
			return true
		}
	}
	return false
}

// Style is a named styling definition backed by a file.
type Style struct {
	Meta
	Name          string
	Workspace     Ref[*Workspace]
	Filename      string
	Format        string
	FormatVersion string
}

// IsDefault reports whether s is one of the global system styles.
func (s *Style) IsDefault() bool {
	return s.Workspace.IsZero() && IsDefaultStyleName(s.Name)
}

// Map is a named ordered collection of layers.
type Map struct {
	Meta
	Name    string
	Enabled bool
	Layers  []Ref[*Layer]
}

// Kind implementations.

func (*Workspace) Kind() Kind  { return KindWorkspace }
func (*Namespace) Kind() Kind  { return KindNamespace }
func (*Layer) Kind() Kind      { return KindLayer }
func (*LayerGroup) Kind() Kind { return KindLayerGroup }
func (*Style) Kind() Kind      { return KindStyle }
func (*Map) Kind() Kind        { return KindMap }

func (s *Store) Kind() Kind {
	switch s.Type {
	case StoreTypeCoverage:
		return KindCoverageStore
	case StoreTypeWMS:
		return KindWMSStore
	case StoreTypeWMTS:
		return KindWMTSStore
	default:
		return KindDataStore
	}
}

func (r *Resource) Kind() Kind {
	switch r.Type {
	case ResourceTypeCoverage:
		return KindCoverage
	case ResourceTypeWMS:
		return KindWMSLayer
	case ResourceTypeWMTS:
		return KindWMTSLayer
	default:
		return KindFeatureType
	}
}

func (m *Meta) meta() *Meta { return m }

func (*Layer) published()      {}
func (*LayerGroup) published() {}

// IsNil reports whether i is nil or a typed nil pointer.
func IsNil(i Info) bool {
	switch v := i.(type) {
	case nil:
		return true
	case *Workspace:
		return v == nil
	case *Namespace:
		return v == nil
	case *Store:
		return v == nil
	case *Resource:
		return v == nil
	case *Layer:
		return v == nil
	case *LayerGroup:
		return v == nil
	case *Style:
		return v == nil
	case *Map:
		return v == nil
	default:
		return false
	}
}

// IDOf returns the identifier of i, or "" for nil.
func IDOf(i Info) string {
	if IsNil(i) {
		return ""
	}
	return i.meta().ID
}

// SetID assigns an identifier to i.
func SetID(i Info, id string) {
	if !IsNil(i) {
		i.meta().ID = id
	}
}

// MetaOf returns the shared attributes of i.
func MetaOf(i Info) *Meta {
	if IsNil(i) {
		return nil
	}
	return i.meta()
}

// NameOf returns the local name of any entity. Namespaces are named by prefix.
func NameOf(i Info) string {
	switch v := i.(type) {
	case *Workspace:
		if v != nil {
			return v.Name
		}
	case *Namespace:
		if v != nil {
			return v.Prefix
		}
	case *Store:
		if v != nil {
			return v.Name
		}
	case *Resource:
		if v != nil {
			return v.Name
		}
	case *Layer:
		if v != nil {
			return v.Name()
		}
	case *LayerGroup:
		if v != nil {
			return v.Name
		}
	case *Style:
		if v != nil {
			return v.Name
		}
	case *Map:
		if v != nil {
			return v.Name
		}
	}
	return ""
}

// WorkspaceOf returns the workspace an entity belongs to, following store and
// resource references. The second result is false when the chain is not resolved.
func WorkspaceOf(i Info) (*Workspace, bool) {
	switch v := i.(type) {
	case *Workspace:
		return v, v != nil
	case *Store:
		return v.Workspace.Get()
	case *Resource:
		if s, ok := v.Store.Get(); ok {
			return s.Workspace.Get()
		}
	case *Layer:
		if r, ok := v.Resource.Get(); ok {
			return WorkspaceOf(r)
		}
	case *LayerGroup:
		return v.Workspace.Get()
	case *Style:
		return v.Workspace.Get()
	}
	return nil, false
}
