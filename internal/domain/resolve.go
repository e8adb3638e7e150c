package domain

import "strconv"

type refs struct {
	owner    Info
	find     Lookup
	warnings []ResolutionWarning
}

func one[T Info](c *refs, field string, r Ref[T]) Ref[T] {
	if c.find != nil {
		var ok bool
		r, ok = r.rebind(c.find).Resolve(c.find)
		if ok {
			return r
		}
	} else if !r.IsPending() {
		return r
	}
	c.warnings = append(c.warnings, ResolutionWarning{
		Owner:  c.owner.Kind(),
		ID:     IDOf(c.owner),
		Field:  field,
		Target: r.Kind(),
		Ref:    refLabel(r),
	})
	return r
}

func many[T Info](c *refs, field string, list []Ref[T]) {
	for i := range list {
		r := one(c, field+"["+strconv.Itoa(i)+"]", list[i])
		if c.find != nil {
			list[i] = r
		}
	}
}

func refLabel[T Info](r Ref[T]) string {
	if id := r.ID(); id != "" {
		return id
	}
	return r.Name()
}

// ResolveRefs resolves every reference held by i in place using find and
// returns a warning for each reference that is still pending.
func ResolveRefs(i Info, find Lookup) []ResolutionWarning {
	return walk(i, find)
}

// PendingRefs returns a warning for each pending reference held by i.
// It never modifies i.
func PendingRefs(i Info) []ResolutionWarning {
	return walk(i, nil)
}

func walk(i Info, find Lookup) []ResolutionWarning {
	if IsNil(i) {
		return nil
	}
	c := &refs{owner: i, find: find}
	write := find != nil
	switch v := i.(type) {
	case *Store:
		ws := one(c, "workspace", v.Workspace)
		if write {
			v.Workspace = ws
		}
	case *Resource:
		st := one(c, "store", v.Store)
		ns := one(c, "namespace", v.Namespace)
		if write {
			v.Store, v.Namespace = st, ns
		}
	case *Layer:
		res := one(c, "resource", v.Resource)
		def := one(c, "defaultStyle", v.DefaultStyle)
		if write {
			v.Resource, v.DefaultStyle = res, def
		}
		many(c, "styles", v.Styles)
	case *LayerGroup:
		ws := one(c, "workspace", v.Workspace)
		root := one(c, "rootLayer", v.RootLayer)
		rootStyle := one(c, "rootLayerStyle", v.RootLayerStyle)
		if write {
			v.Workspace, v.RootLayer, v.RootLayerStyle = ws, root, rootStyle
		}
		many(c, "layers", v.Layers)
		many(c, "styles", v.Styles)
		for n := range v.GroupStyles {
			prefix := "layerGroupStyles[" + strconv.Itoa(n) + "]."
			many(c, prefix+"layers", v.GroupStyles[n].Layers)
			many(c, prefix+"styles", v.GroupStyles[n].Styles)
		}
	case *Style:
		ws := one(c, "workspace", v.Workspace)
		if write {
			v.Workspace = ws
		}
	case *Map:
		many(c, "layers", v.Layers)
	}
	return c.warnings
}
