package domain

// Ref is a reference to another catalog entity. It is either resolved, holding the
// canonical target, or pending, holding only the target id (and optionally a name)
// until the target becomes available. The zero value is an unset reference.
type Ref[T Info] struct {
	id     string
	name   string
	kind   Kind
	target T
	ok     bool
}

// RefTo returns a resolved reference to t. A nil t yields the zero Ref.
func RefTo[T Info](t T) Ref[T] {
	if IsNil(t) {
		return Ref[T]{}
	}
	return Ref[T]{target: t, kind: t.Kind(), ok: true}
}

// PendingRef returns an unresolved reference to the entity of the given kind and id.
func PendingRef[T Info](kind Kind, id string) Ref[T] {
	return Ref[T]{id: id, kind: kind}
}

// PendingRefByName returns an unresolved reference that can only be resolved by name.
// For scoped kinds the name may be qualified as "scope:name".
func PendingRefByName[T Info](kind Kind, name string) Ref[T] {
	return Ref[T]{name: name, kind: kind}
}

// PublishedRef returns a resolved reference to a layer or layer group.
func PublishedRef(p Published) Ref[Published] {
	return RefTo(p)
}

// ID returns the target id. For resolved references it is read from the target.
func (r Ref[T]) ID() string {
	if r.ok {
		return IDOf(r.target)
	}
	return r.id
}

// Name returns the name hint of a pending reference, or the target name when resolved.
func (r Ref[T]) Name() string {
	if r.ok {
		return NameOf(r.target)
	}
	return r.name
}

// Kind returns the kind of the target.
func (r Ref[T]) Kind() Kind {
	if r.ok {
		return r.target.Kind()
	}
	return r.kind
}

// IsZero reports whether the reference is unset.
func (r Ref[T]) IsZero() bool {
	return !r.ok && r.id == "" && r.name == ""
}

// IsResolved reports whether the reference holds its target.
func (r Ref[T]) IsResolved() bool {
	return r.ok
}

// IsPending reports whether the reference is set but not yet resolved.
func (r Ref[T]) IsPending() bool {
	return !r.ok && !r.IsZero()
}

// Get returns the target and whether the reference is resolved.
func (r Ref[T]) Get() (T, bool) {
	return r.target, r.ok
}

// Target returns the target, or the zero T when not resolved.
func (r Ref[T]) Target() T {
	return r.target
}

// Equal reports whether both references denote the same entity.
func (r Ref[T]) Equal(o Ref[T]) bool {
	if r.IsZero() || o.IsZero() {
		return r.IsZero() && o.IsZero()
	}
	if r.ok && o.ok && any(r.target) == any(o.target) {
		return true
	}
	if id := r.ID(); id != "" {
		return id == o.ID()
	}
	return !r.ok && !o.ok && r.name == o.name && r.kind == o.kind
}

// Pointee returns the target as an Info, or nil when not resolved.
func (r Ref[T]) Pointee() Info {
	if !r.ok {
		return nil
	}
	return r.target
}

// Resolve returns a resolved copy of r if lookup finds its target. An already
// resolved or unset reference is returned unchanged. The second result reports
// whether r is resolved after the call.
func (r Ref[T]) Resolve(lookup func(kind Kind, id, name string) Info) (Ref[T], bool) {
	if r.ok {
		return r, true
	}
	if r.IsZero() {
		return r, true
	}
	found := lookup(r.kind, r.id, r.name)
	if IsNil(found) {
		return r, false
	}
	t, ok := found.(T)
	if !ok {
		return r, false
	}
	return RefTo(t), true
}

// ResolveAll resolves every element of refs in place, preserving order. Elements
// that cannot be resolved are left pending. It reports whether all are resolved.
func ResolveAll[T Info](refs []Ref[T], lookup func(kind Kind, id, name string) Info) bool {
	all := true
	for i := range refs {
		var ok bool
		refs[i], ok = refs[i].Resolve(lookup)
		all = all && ok
	}
	return all
}

// EqualRefs reports element-wise equality of two reference lists.
func EqualRefs[T Info](a, b []Ref[T]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Lookup finds a canonical entity by id, falling back to name. It returns nil
// when nothing matches.
type Lookup func(kind Kind, id, name string) Info

// rebind replaces a resolved target that is not the canonical instance with the
// same id, such as a detached copy, by the canonical one.
func (r Ref[T]) rebind(find Lookup) Ref[T] {
	if !r.ok {
		return r
	}
	id := IDOf(r.target)
	if id == "" {
		return r
	}
	found := find(r.target.Kind(), id, "")
	if IsNil(found) {
		return r
	}
	if t, ok := found.(T); ok && any(t) != any(r.target) {
		return RefTo(t)
	}
	return r
}
