package domain

import "strings"

// Scope selects the workspace or namespace a by-name lookup searches in.
type Scope struct {
	id  string
	any bool
}

var (
	// AnyScope searches every scope. A lookup succeeds only if exactly one
	// entity across all scopes carries the name.
	AnyScope = Scope{any: true}

	// NoScope matches entities that belong to no workspace.
	NoScope = Scope{}
)

// ScopeID returns the scope of the workspace or namespace with the given id.
func ScopeID(id string) Scope {
	return Scope{id: id}
}

// ScopeOf returns the scope of a workspace or namespace, or NoScope for nil.
func ScopeOf(i Info) Scope {
	return Scope{id: IDOf(i)}
}

// ID returns the scope id, or "" for NoScope and AnyScope.
func (s Scope) ID() string { return s.id }

// IsAny reports whether s is AnyScope.
func (s Scope) IsAny() bool { return s.any }

// Filter selects catalog entities. A nil Filter selects everything.
type Filter func(Info) bool

// Matches reports whether i passes the filter.
func (f Filter) Matches(i Info) bool {
	return f == nil || f(i)
}

// And returns a filter that matches when all non-nil filters match.
func And(filters ...Filter) Filter {
	var active []Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(i Info) bool {
		for _, f := range active {
			if !f(i) {
				return false
			}
		}
		return true
	}
}

// ByName matches entities whose local name equals name.
func ByName(name string) Filter {
	return func(i Info) bool { return NameOf(i) == name }
}

// NameContains matches entities whose local name contains sub, ignoring case.
func NameContains(sub string) Filter {
	sub = strings.ToLower(sub)
	return func(i Info) bool { return strings.Contains(strings.ToLower(NameOf(i)), sub) }
}

// PropertyEquals matches entities whose property at path equals value.
func PropertyEquals(path string, value any) Filter {
	return func(i Info) bool {
		v, ok := Property(i, path)
		return ok && v == value
	}
}

// InWorkspace matches entities belonging, directly or through their store, to ws.
func InWorkspace(wsID string) Filter {
	return func(i Info) bool {
		ws, ok := WorkspaceOf(i)
		return ok && ws.ID == wsID
	}
}

// SortBy orders query results by a dotted property path.
type SortBy struct {
	Property   string
	Descending bool
}

// Query is the predicate, paging and ordering of a list request.
type Query struct {
	Filter Filter
	Offset int
	// Limit caps the result size. Zero or less means no limit.
	Limit  int
	SortBy []SortBy
}
