// Package snapshot reads and writes catalog snapshot documents.
//
// A snapshot is a YAML document listing catalog entities. References between
// entities are written by id, or by name when the target has no id yet, and
// are loaded as pending references that the catalog resolves in bulk.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jobrunner/geocat/internal/domain"
)

// Document is one snapshot file.
type Document struct {
	Defaults    Defaults        `yaml:"defaults,omitempty"`
	Workspaces  []WorkspaceDoc  `yaml:"workspaces,omitempty"`
	Namespaces  []NamespaceDoc  `yaml:"namespaces,omitempty"`
	Stores      []StoreDoc      `yaml:"stores,omitempty"`
	Resources   []ResourceDoc   `yaml:"resources,omitempty"`
	Styles      []StyleDoc      `yaml:"styles,omitempty"`
	Layers      []LayerDoc      `yaml:"layers,omitempty"`
	LayerGroups []LayerGroupDoc `yaml:"layerGroups,omitempty"`
	Maps        []MapDoc        `yaml:"maps,omitempty"`
}

// Defaults records the default pointers by name. DataStores maps a workspace
// name to the name of its default data store.
type Defaults struct {
	Workspace  string            `yaml:"workspace,omitempty"`
	DataStores map[string]string `yaml:"dataStores,omitempty"`
}

// IsZero reports whether no default is recorded.
func (d Defaults) IsZero() bool {
	return d.Workspace == "" && len(d.DataStores) == 0
}

// Ref is a reference to another entity. It is written as a bare id when only
// the id is known, and as a mapping otherwise.
type Ref struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name,omitempty"`
	Kind string `yaml:"kind,omitempty"`
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.ID == "" && r.Name == ""
}

// UnmarshalYAML accepts a scalar id or a mapping.
func (r *Ref) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		r.ID = n.Value
		return nil
	}
	type plain Ref
	return n.Decode((*plain)(r))
}

// MarshalYAML writes an id-only reference as a scalar and an unset one as null.
func (r Ref) MarshalYAML() (any, error) {
	if r.IsZero() {
		return nil, nil
	}
	if r.Name == "" && r.Kind == "" {
		return r.ID, nil
	}
	type plain Ref
	return plain(r), nil
}

// Stamp carries the creation and modification times.
type Stamp struct {
	Created  time.Time `yaml:"created,omitempty"`
	Modified time.Time `yaml:"modified,omitempty"`
}

type WorkspaceDoc struct {
	ID       string          `yaml:"id,omitempty"`
	Name     string          `yaml:"name"`
	Isolated bool            `yaml:"isolated,omitempty"`
	Metadata domain.Metadata `yaml:"metadata,omitempty"`
	Stamp    `yaml:",inline"`
}

type NamespaceDoc struct {
	ID       string          `yaml:"id,omitempty"`
	Prefix   string          `yaml:"prefix"`
	URI      string          `yaml:"uri"`
	Isolated bool            `yaml:"isolated,omitempty"`
	Metadata domain.Metadata `yaml:"metadata,omitempty"`
	Stamp    `yaml:",inline"`
}

type StoreDoc struct {
	ID                   string            `yaml:"id,omitempty"`
	Type                 string            `yaml:"type,omitempty"`
	Name                 string            `yaml:"name"`
	Description          string            `yaml:"description,omitempty"`
	Enabled              *bool             `yaml:"enabled,omitempty"`
	Workspace            Ref               `yaml:"workspace,omitempty"`
	ConnectionParameters map[string]string `yaml:"connectionParameters,omitempty"`
	URL                  string            `yaml:"url,omitempty"`
	Metadata             domain.Metadata   `yaml:"metadata,omitempty"`
	Stamp                `yaml:",inline"`
}

// Envelope is a bounding box.
type Envelope struct {
	MinX float64 `yaml:"minx"`
	MinY float64 `yaml:"miny"`
	MaxX float64 `yaml:"maxx"`
	MaxY float64 `yaml:"maxy"`
	CRS  string  `yaml:"crs,omitempty"`
}

type KeywordDoc struct {
	Value      string `yaml:"value"`
	Language   string `yaml:"language,omitempty"`
	Vocabulary string `yaml:"vocabulary,omitempty"`
}

type ResourceDoc struct {
	ID                string          `yaml:"id,omitempty"`
	Type              string          `yaml:"type,omitempty"`
	Name              string          `yaml:"name"`
	NativeName        string          `yaml:"nativeName,omitempty"`
	Title             string          `yaml:"title,omitempty"`
	Abstract          string          `yaml:"abstract,omitempty"`
	Store             Ref             `yaml:"store,omitempty"`
	Namespace         Ref             `yaml:"namespace,omitempty"`
	Keywords          []KeywordDoc    `yaml:"keywords,omitempty"`
	SRS               string          `yaml:"srs,omitempty"`
	NativeBoundingBox *Envelope       `yaml:"nativeBoundingBox,omitempty"`
	LatLonBoundingBox *Envelope       `yaml:"latLonBoundingBox,omitempty"`
	GeometryType      string          `yaml:"geometryType,omitempty"`
	Enabled           *bool           `yaml:"enabled,omitempty"`
	Advertised        *bool           `yaml:"advertised,omitempty"`
	Metadata          domain.Metadata `yaml:"metadata,omitempty"`
	Stamp             `yaml:",inline"`
}

type StyleDoc struct {
	ID            string `yaml:"id,omitempty"`
	Name          string `yaml:"name"`
	Workspace     Ref    `yaml:"workspace,omitempty"`
	Filename      string `yaml:"filename,omitempty"`
	Format        string `yaml:"format,omitempty"`
	FormatVersion string `yaml:"formatVersion,omitempty"`
	Stamp         `yaml:",inline"`
}

type LayerDoc struct {
	ID           string          `yaml:"id,omitempty"`
	Resource     Ref             `yaml:"resource"`
	DefaultStyle Ref             `yaml:"defaultStyle,omitempty"`
	Styles       []Ref           `yaml:"styles,omitempty"`
	Type         string          `yaml:"type,omitempty"`
	Path         string          `yaml:"path,omitempty"`
	Enabled      *bool           `yaml:"enabled,omitempty"`
	Advertised   *bool           `yaml:"advertised,omitempty"`
	Metadata     domain.Metadata `yaml:"metadata,omitempty"`
	Stamp        `yaml:",inline"`
}

type GroupStyleDoc struct {
	Name   string `yaml:"name"`
	Title  string `yaml:"title,omitempty"`
	Layers []Ref  `yaml:"layers,omitempty"`
	Styles []Ref  `yaml:"styles,omitempty"`
}

// LayerGroupDoc is a layer group. A null entry in Layers paired with a style
// is a style group.
type LayerGroupDoc struct {
	ID             string          `yaml:"id,omitempty"`
	Name           string          `yaml:"name"`
	Title          string          `yaml:"title,omitempty"`
	Abstract       string          `yaml:"abstract,omitempty"`
	Mode           string          `yaml:"mode,omitempty"`
	Workspace      Ref             `yaml:"workspace,omitempty"`
	Layers         []Ref           `yaml:"layers,omitempty"`
	Styles         []Ref           `yaml:"styles,omitempty"`
	RootLayer      Ref             `yaml:"rootLayer,omitempty"`
	RootLayerStyle Ref             `yaml:"rootLayerStyle,omitempty"`
	Bounds         *Envelope       `yaml:"bounds,omitempty"`
	GroupStyles    []GroupStyleDoc `yaml:"groupStyles,omitempty"`
	Enabled        *bool           `yaml:"enabled,omitempty"`
	Advertised     *bool           `yaml:"advertised,omitempty"`
	Metadata       domain.Metadata `yaml:"metadata,omitempty"`
	Stamp          `yaml:",inline"`
}

type MapDoc struct {
	ID      string `yaml:"id,omitempty"`
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled,omitempty"`
	Layers  []Ref  `yaml:"layers,omitempty"`
	Stamp   `yaml:",inline"`
}

// Decode reads one document. An empty input yields an empty document.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	doc := &Document{}
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return doc, nil
}

// Encode writes d as YAML.
func (d *Document) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}

// Merge appends the entities of o. Defaults set in o win.
func (d *Document) Merge(o *Document) {
	d.Workspaces = append(d.Workspaces, o.Workspaces...)
	d.Namespaces = append(d.Namespaces, o.Namespaces...)
	d.Stores = append(d.Stores, o.Stores...)
	d.Resources = append(d.Resources, o.Resources...)
	d.Styles = append(d.Styles, o.Styles...)
	d.Layers = append(d.Layers, o.Layers...)
	d.LayerGroups = append(d.LayerGroups, o.LayerGroups...)
	d.Maps = append(d.Maps, o.Maps...)
	if o.Defaults.Workspace != "" {
		d.Defaults.Workspace = o.Defaults.Workspace
	}
	for ws, st := range o.Defaults.DataStores {
		if d.Defaults.DataStores == nil {
			d.Defaults.DataStores = make(map[string]string)
		}
		d.Defaults.DataStores[ws] = st
	}
}

// Len returns the number of entities in d.
func (d *Document) Len() int {
	return len(d.Workspaces) + len(d.Namespaces) + len(d.Stores) + len(d.Resources) +
		len(d.Styles) + len(d.Layers) + len(d.LayerGroups) + len(d.Maps)
}
