package memory

import (
	"slices"
	"sync"

	"github.com/jobrunner/geocat/internal/domain"
)

type nameKey struct {
	scope string
	name  string
}

type entry struct {
	info      domain.Info
	id        string
	key       nameKey
	named     bool
	secondary string
}

// lookup indexes the entities of one concrete kind.
type lookup struct {
	mu        sync.RWMutex
	entries   map[domain.Info]*entry
	byID      map[string]*entry
	byName    map[nameKey]*entry
	byLocal   map[string][]*entry
	secondary map[string][]*entry
	ordered   []*entry
}

func newLookup() *lookup {
	return &lookup{
		entries:   make(map[domain.Info]*entry),
		byID:      make(map[string]*entry),
		byName:    make(map[nameKey]*entry),
		byLocal:   make(map[string][]*entry),
		secondary: make(map[string][]*entry),
	}
}

// nameKeyOf returns the scoped name an entity is indexed under. Layers are only
// indexed once their resource is resolved.
func nameKeyOf(i domain.Info) (nameKey, bool) {
	switch v := i.(type) {
	case *domain.Workspace:
		return nameKey{name: v.Name}, v.Name != ""
	case *domain.Namespace:
		return nameKey{name: v.Prefix}, v.Prefix != ""
	case *domain.Store:
		return nameKey{scope: v.Workspace.ID(), name: v.Name}, v.Name != ""
	case *domain.Resource:
		return nameKey{scope: v.Namespace.ID(), name: v.Name}, v.Name != ""
	case *domain.Layer:
		res, ok := v.Resource.Get()
		if !ok {
			return nameKey{}, false
		}
		return nameKey{scope: res.Namespace.ID(), name: res.Name}, res.Name != ""
	case *domain.LayerGroup:
		return nameKey{scope: v.Workspace.ID(), name: v.Name}, v.Name != ""
	case *domain.Style:
		return nameKey{scope: v.Workspace.ID(), name: v.Name}, v.Name != ""
	case *domain.Map:
		return nameKey{name: v.Name}, v.Name != ""
	}
	return nameKey{}, false
}

// secondaryKeyOf returns the non-unique index key: namespace URI or layer resource id.
func secondaryKeyOf(i domain.Info) string {
	switch v := i.(type) {
	case *domain.Namespace:
		return v.URI
	case *domain.Layer:
		return v.Resource.ID()
	}
	return ""
}

// put inserts info. The caller holds mu.
func (l *lookup) put(info domain.Info) *entry {
	if e, ok := l.entries[info]; ok {
		return e
	}
	e := &entry{info: info}
	l.entries[info] = e
	l.ordered = append(l.ordered, e)
	l.index(e)
	return e
}

// index adds e to the id, name and secondary maps. The caller holds mu.
func (l *lookup) index(e *entry) {
	e.id = domain.IDOf(e.info)
	if e.id != "" {
		l.byID[e.id] = e
	}
	e.key, e.named = nameKeyOf(e.info)
	if e.named {
		if _, taken := l.byName[e.key]; !taken {
			l.byName[e.key] = e
		}
		l.byLocal[e.key.name] = append(l.byLocal[e.key.name], e)
	}
	e.secondary = secondaryKeyOf(e.info)
	if e.secondary != "" {
		l.secondary[e.secondary] = append(l.secondary[e.secondary], e)
	}
}

// unindex removes e from the id, name and secondary maps. The caller holds mu.
func (l *lookup) unindex(e *entry) {
	if e.id != "" && l.byID[e.id] == e {
		delete(l.byID, e.id)
	}
	if e.named {
		if l.byName[e.key] == e {
			delete(l.byName, e.key)
			// Promote a shadowed duplicate, which bulk loading may produce.
			for _, other := range l.byLocal[e.key.name] {
				if other != e && other.key == e.key {
					l.byName[e.key] = other
					break
				}
			}
		}
		l.byLocal[e.key.name] = without(l.byLocal[e.key.name], e)
		if len(l.byLocal[e.key.name]) == 0 {
			delete(l.byLocal, e.key.name)
		}
	}
	if e.secondary != "" {
		l.secondary[e.secondary] = without(l.secondary[e.secondary], e)
		if len(l.secondary[e.secondary]) == 0 {
			delete(l.secondary, e.secondary)
		}
	}
	e.named = false
	e.secondary = ""
}

// reindex re-keys e after its fields changed. The caller holds mu.
func (l *lookup) reindex(e *entry) {
	l.unindex(e)
	l.index(e)
}

// remove deletes info. The caller holds mu.
func (l *lookup) remove(info domain.Info) bool {
	e, ok := l.entries[info]
	if !ok {
		return false
	}
	l.unindex(e)
	delete(l.entries, info)
	l.ordered = without(l.ordered, e)
	return true
}

// snapshot returns the entities in insertion order.
func (l *lookup) snapshot() []domain.Info {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Info, len(l.ordered))
	for i, e := range l.ordered {
		out[i] = e.info
	}
	return out
}

func without(list []*entry, e *entry) []*entry {
	return slices.DeleteFunc(list, func(x *entry) bool { return x == e })
}
