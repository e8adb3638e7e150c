package domain

import (
	"cmp"
	"strings"
	"time"
)

type valueType int

const (
	typeString valueType = iota
	typeBool
	typeTime
	typeRef
	typeOther
)

type property struct {
	typ    valueType
	target Kind // for typeRef
	get    func(Info) any
}

func str[T Info](get func(T) string) property {
	return property{typ: typeString, get: func(i Info) any { return get(i.(T)) }}
}

func boolean[T Info](get func(T) bool) property {
	return property{typ: typeBool, get: func(i Info) any { return get(i.(T)) }}
}

func ref[T Info](target Kind, get func(T) Info) property {
	return property{typ: typeRef, target: target, get: func(i Info) any { return get(i.(T)) }}
}

func other[T Info](get func(T) any) property {
	return property{typ: typeOther, get: func(i Info) any { return get(i.(T)) }}
}

var commonProperties = map[string]property{
	"id":           {typ: typeString, get: func(i Info) any { return IDOf(i) }},
	"dateCreated":  {typ: typeTime, get: func(i Info) any { return MetaOf(i).DateCreated }},
	"dateModified": {typ: typeTime, get: func(i Info) any { return MetaOf(i).DateModified }},
}

// properties is keyed by Kind.Group().
var properties = map[Kind]map[string]property{
	KindWorkspace: {
		"name":     str(func(w *Workspace) string { return w.Name }),
		"isolated": boolean(func(w *Workspace) bool { return w.Isolated }),
	},
	KindNamespace: {
		"prefix":   str(func(n *Namespace) string { return n.Prefix }),
		"name":     str(func(n *Namespace) string { return n.Prefix }),
		"uri":      str(func(n *Namespace) string { return n.URI }),
		"isolated": boolean(func(n *Namespace) bool { return n.Isolated }),
	},
	KindStore: {
		"name":        str(func(s *Store) string { return s.Name }),
		"description": str(func(s *Store) string { return s.Description }),
		"type":        str(func(s *Store) string { return string(s.Type) }),
		"url":         str(func(s *Store) string { return s.URL }),
		"enabled":     boolean(func(s *Store) bool { return s.Enabled }),
		"workspace":   ref(KindWorkspace, func(s *Store) Info { return s.Workspace.Pointee() }),
		"connectionParameters": other(func(s *Store) any {
			return s.ConnectionParameters
		}),
	},
	KindResource: {
		"name":         str(func(r *Resource) string { return r.Name }),
		"nativeName":   str(func(r *Resource) string { return r.NativeName }),
		"prefixedName": str(func(r *Resource) string { return r.QualifiedName() }),
		"title":        str(func(r *Resource) string { return r.Title }),
		"abstract":     str(func(r *Resource) string { return r.Abstract }),
		"srs":          str(func(r *Resource) string { return r.SRS }),
		"type":         str(func(r *Resource) string { return string(r.Type) }),
		"geometryType": str(func(r *Resource) string { return r.GeometryType }),
		"enabled":      boolean(func(r *Resource) bool { return r.Enabled }),
		"advertised":   boolean(func(r *Resource) bool { return r.Advertised }),
		"store":        ref(KindStore, func(r *Resource) Info { return r.Store.Pointee() }),
		"namespace":    ref(KindNamespace, func(r *Resource) Info { return r.Namespace.Pointee() }),
		"keywords":     other(func(r *Resource) any { return r.Keywords }),
	},
	KindLayer: {
		"name":         str(func(l *Layer) string { return l.Name() }),
		"prefixedName": str(func(l *Layer) string { return l.PrefixedName() }),
		"type":         str(func(l *Layer) string { return string(l.Type) }),
		"path":         str(func(l *Layer) string { return l.Path }),
		"enabled":      boolean(LayerEnabled),
		"advertised":   boolean(LayerAdvertised),
		"resource":     ref(KindResource, func(l *Layer) Info { return l.Resource.Pointee() }),
		"defaultStyle": ref(KindStyle, func(l *Layer) Info { return l.DefaultStyle.Pointee() }),
		"styles":       other(func(l *Layer) any { return l.Styles }),
	},
	KindLayerGroup: {
		"name":           str(func(g *LayerGroup) string { return g.Name }),
		"prefixedName":   str(func(g *LayerGroup) string { return g.PrefixedName() }),
		"title":          str(func(g *LayerGroup) string { return g.Title }),
		"abstract":       str(func(g *LayerGroup) string { return g.Abstract }),
		"mode":           str(func(g *LayerGroup) string { return string(g.Mode) }),
		"enabled":        boolean(func(g *LayerGroup) bool { return g.Enabled }),
		"advertised":     boolean(func(g *LayerGroup) bool { return g.Advertised }),
		"workspace":      ref(KindWorkspace, func(g *LayerGroup) Info { return g.Workspace.Pointee() }),
		"rootLayer":      ref(KindLayer, func(g *LayerGroup) Info { return g.RootLayer.Pointee() }),
		"rootLayerStyle": ref(KindStyle, func(g *LayerGroup) Info { return g.RootLayerStyle.Pointee() }),
		"layers":         other(func(g *LayerGroup) any { return g.Layers }),
	},
	KindStyle: {
		"name":          str(func(s *Style) string { return s.Name }),
		"filename":      str(func(s *Style) string { return s.Filename }),
		"format":        str(func(s *Style) string { return s.Format }),
		"formatVersion": str(func(s *Style) string { return s.FormatVersion }),
		"workspace":     ref(KindWorkspace, func(s *Style) Info { return s.Workspace.Pointee() }),
	},
	KindMap: {
		"name":    str(func(m *Map) string { return m.Name }),
		"enabled": boolean(func(m *Map) bool { return m.Enabled }),
		"layers":  other(func(m *Map) any { return m.Layers }),
	},
}

func lookupProperty(kind Kind, name string) (property, bool) {
	if p, ok := commonProperties[name]; ok {
		return p, true
	}
	p, ok := properties[kind.Group()][name]
	return p, ok
}

// Property reads a dotted property path such as "store.workspace.name" from i.
// The second result is false when the path does not exist for the kind of i.
// A path through an unresolved reference yields (nil, true).
func Property(i Info, path string) (any, bool) {
	cur := i
	parts := strings.Split(path, ".")
	for n, part := range parts {
		if IsNil(cur) {
			return nil, true
		}
		p, ok := lookupProperty(cur.Kind(), part)
		if !ok {
			return nil, false
		}
		v := p.get(cur)
		if n == len(parts)-1 {
			if info, ok := v.(Info); ok && IsNil(info) {
				return nil, true
			}
			return v, true
		}
		if p.typ != typeRef {
			return nil, false
		}
		next, _ := v.(Info)
		cur = next
	}
	return nil, false
}

// CanSort reports whether entities of kind can be ordered by the dotted path.
func CanSort(kind Kind, path string) bool {
	if kind == KindPublished || kind == KindAny {
		for _, k := range []Kind{KindLayer, KindLayerGroup} {
			if !CanSort(k, path) {
				return false
			}
		}
		return true
	}
	cur := kind
	parts := strings.Split(path, ".")
	for n, part := range parts {
		p, ok := lookupProperty(cur, part)
		if !ok {
			return false
		}
		if n == len(parts)-1 {
			return p.typ == typeString || p.typ == typeBool || p.typ == typeTime
		}
		if p.typ != typeRef {
			return false
		}
		cur = p.target
	}
	return false
}

// Compare orders two property values. Nil sorts first.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return 0
}
