package domain

// Field describes one tracked property of T holding values of type V.
// Descriptors for every entity kind are declared in fields.go.
type Field[T any, V any] struct {
	name  string
	get   func(*T) V
	set   func(*T, V)
	clone func(V) V
	equal func(a, b V) bool
	merge func(dst, src V) V
}

// Name returns the property name reported in change events.
func (f Field[T, V]) Name() string { return f.name }

// Of reads the field from a plain entity.
func (f Field[T, V]) Of(t *T) V { return f.get(t) }

func (f Field[T, V]) fieldName() string   { return f.name }
func (f Field[T, V]) read(t *T) any       { return f.get(t) }
func (f Field[T, V]) replace(t *T, v any) { f.set(t, v.(V)) }

func (f Field[T, V]) assign(t *T, v any) {
	nv := v.(V)
	if f.merge != nil {
		nv = f.merge(f.get(t), nv)
	}
	f.set(t, nv)
}

func (f Field[T, V]) same(a, b any) bool {
	return f.equal(a.(V), b.(V))
}

// field is the type-erased view of a Field used by Proxy internals.
type field[T any] interface {
	fieldName() string
	read(t *T) any
	replace(t *T, v any)
	assign(t *T, v any)
	same(a, b any) bool
}

// Change is one committed or pending property modification.
type Change struct {
	Property string
	Old      any
	New      any
}

// Handle is the kind-independent view of a wrapped entity.
type Handle interface {
	// Unwrap returns the canonical entity. Callers must treat it as read-only.
	Unwrap() Info
	Kind() Kind
	ID() string
	IsDirty() bool
	Changes() []Change
	PropertyNames() []string
	// Commit applies pending changes to the canonical entity.
	Commit() ([]Change, error)
	// Staged returns a copy of the entity with pending changes applied.
	Staged() Info
	Discard()
	IsReadOnly() bool
}

type pendingValue[T any] struct {
	f        field[T]
	value    any
	original any
	hasOrig  bool
}

type nestedEntry[T any] struct {
	f     field[T]
	proxy Handle
}

// Proxy wraps a canonical entity and defers writes into a pending change set.
// Reads see pending values first. A Proxy is not safe for concurrent use.
type Proxy[T any] struct {
	obj      *T
	pending  map[string]*pendingValue[T]
	order    []string
	nested   map[string]nestedEntry[T]
	readOnly bool
}

// Wrap returns a proxy over the canonical entity obj.
func Wrap[T any](obj *T) *Proxy[T] {
	return &Proxy[T]{obj: obj}
}

// WrapInfo wraps any entity in the proxy of its concrete type.
func WrapInfo(i Info) Handle {
	switch v := i.(type) {
	case *Workspace:
		return Wrap(v)
	case *Namespace:
		return Wrap(v)
	case *Store:
		return Wrap(v)
	case *Resource:
		return Wrap(v)
	case *Layer:
		return Wrap(v)
	case *LayerGroup:
		return Wrap(v)
	case *Style:
		return Wrap(v)
	case *Map:
		return Wrap(v)
	default:
		return nil
	}
}

// Get reads f through the proxy. The first read of a collection or map valued
// field stores an editable clone as the current value and a second clone as
// the original, so later in-place edits of the result are tracked.
func Get[T, V any](p *Proxy[T], f Field[T, V]) V {
	if pv, ok := p.pending[f.name]; ok {
		return pv.value.(V)
	}
	v := f.get(p.obj)
	if f.clone == nil {
		return v
	}
	c := f.clone(v)
	p.track(f, c, f.clone(v), true)
	return c
}

// Set records a pending write of f. The canonical entity is untouched.
func Set[T, V any](p *Proxy[T], f Field[T, V], v V) {
	if pv, ok := p.pending[f.name]; ok {
		pv.value = v
		return
	}
	if f.clone != nil {
		p.track(f, v, f.clone(f.get(p.obj)), true)
		return
	}
	p.track(f, v, nil, false)
}

// Edit returns a proxy over the entity referenced by f so it can be changed in
// place. Committing p also commits the nested proxy if it is dirty and f still
// points at the same entity. Edit returns nil when the reference is not resolved.
func Edit[T any, U any, PU interface {
	*U
	Info
}](p *Proxy[T], f Field[T, Ref[PU]]) *Proxy[U] {
	r := Get(p, f)
	t, ok := r.Get()
	if !ok {
		return nil
	}
	if n, ok := p.nested[f.name]; ok {
		if np, ok := n.proxy.(*Proxy[U]); ok && np.obj == (*U)(t) {
			return np
		}
	}
	np := Wrap((*U)(t))
	if p.nested == nil {
		p.nested = make(map[string]nestedEntry[T])
	}
	p.nested[f.name] = nestedEntry[T]{f: f, proxy: np}
	return np
}

// RefOf returns a resolved reference to the canonical entity behind p.
func RefOf[T any, PT interface {
	*T
	Info
}](p *Proxy[T]) Ref[PT] {
	if p == nil {
		return Ref[PT]{}
	}
	return RefTo(PT(p.obj))
}

// PublishedOf returns a resolved layer group entry for a wrapped layer or group.
func PublishedOf(h Handle) Ref[Published] {
	if h == nil {
		return Ref[Published]{}
	}
	if pub, ok := h.Unwrap().(Published); ok {
		return PublishedRef(pub)
	}
	return Ref[Published]{}
}

func (p *Proxy[T]) track(f field[T], value, original any, hasOrig bool) {
	if p.pending == nil {
		p.pending = make(map[string]*pendingValue[T])
	}
	name := f.fieldName()
	p.pending[name] = &pendingValue[T]{f: f, value: value, original: original, hasOrig: hasOrig}
	p.order = append(p.order, name)
}

// Object returns the canonical entity. Callers must treat it as read-only.
func (p *Proxy[T]) Object() *T { return p.obj }

// Unwrap implements Handle.
func (p *Proxy[T]) Unwrap() Info {
	info, _ := any(p.obj).(Info)
	return info
}

// Kind implements Handle.
func (p *Proxy[T]) Kind() Kind {
	if info := p.Unwrap(); info != nil {
		return info.Kind()
	}
	return 0
}

// ID implements Handle.
func (p *Proxy[T]) ID() string {
	return IDOf(p.Unwrap())
}

// Changes returns the pending modifications that differ from the canonical
// values, in the order the properties were first touched.
func (p *Proxy[T]) Changes() []Change {
	var out []Change
	for _, name := range p.order {
		pv := p.pending[name]
		old := pv.original
		if !pv.hasOrig {
			old = pv.f.read(p.obj)
		}
		if pv.f.same(old, pv.value) {
			continue
		}
		out = append(out, Change{Property: name, Old: old, New: pv.value})
	}
	return out
}

// PropertyNames returns the names of the changed properties.
func (p *Proxy[T]) PropertyNames() []string {
	changes := p.Changes()
	names := make([]string, len(changes))
	for i, c := range changes {
		names[i] = c.Property
	}
	return names
}

// IsDirty reports whether committing would change the canonical entity.
func (p *Proxy[T]) IsDirty() bool {
	if len(p.Changes()) > 0 {
		return true
	}
	for _, n := range p.nested {
		if n.proxy.IsDirty() && p.pointsAt(n, p.current(n.f)) {
			return true
		}
	}
	return false
}

// Commit replays pending changes onto the canonical entity. Collections and maps
// are refilled in place. Nested dirty proxies still referenced are committed too.
func (p *Proxy[T]) Commit() ([]Change, error) {
	if p.readOnly {
		return nil, ErrReadOnly
	}
	changes := p.Changes()
	for _, name := range p.order {
		pv := p.pending[name]
		pv.f.assign(p.obj, pv.value)
	}
	for _, n := range p.nested {
		if n.proxy.IsDirty() && p.pointsAt(n, n.f.read(p.obj)) {
			if _, err := n.proxy.Commit(); err != nil {
				return changes, err
			}
		}
	}
	p.Discard()
	return changes, nil
}

// Discard drops all pending changes.
func (p *Proxy[T]) Discard() {
	p.pending = nil
	p.order = nil
	p.nested = nil
}

// Preview returns a shallow copy of the entity with pending values applied.
// Untouched collections alias the canonical ones and must not be modified.
func (p *Proxy[T]) Preview() *T {
	c := *p.obj
	for _, name := range p.order {
		pv := p.pending[name]
		pv.f.replace(&c, pv.value)
	}
	return &c
}

// Staged implements Handle.
func (p *Proxy[T]) Staged() Info {
	info, _ := any(p.Preview()).(Info)
	return info
}

// ReadOnly marks the proxy as a filtered view that cannot be committed.
func (p *Proxy[T]) ReadOnly() *Proxy[T] {
	p.readOnly = true
	return p
}

// IsReadOnly implements Handle.
func (p *Proxy[T]) IsReadOnly() bool { return p.readOnly }

func (p *Proxy[T]) current(f field[T]) any {
	if pv, ok := p.pending[f.fieldName()]; ok {
		return pv.value
	}
	return f.read(p.obj)
}

func (p *Proxy[T]) pointsAt(n nestedEntry[T], value any) bool {
	r, ok := value.(interface{ Pointee() Info })
	if !ok {
		return false
	}
	target := r.Pointee()
	return target != nil && target == n.proxy.Unwrap()
}
