package domain

// EventType identifies a catalog notification.
type EventType int

// Event types in the order they occur around a mutation.
const (
	EventPreAdd EventType = iota
	EventAdd
	EventModify
	EventPostModify
	EventRemove
	EventReload
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventPreAdd:
		return "pre_add"
	case EventAdd:
		return "add"
	case EventModify:
		return "modify"
	case EventPostModify:
		return "post_modify"
	case EventRemove:
		return "remove"
	case EventReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Event is delivered to catalog listeners.
// Source is nil for events about the catalog itself, such as default changes.
type Event struct {
	Type    EventType
	Source  Info
	Changes []Change
}

// Kind returns the kind of the source entity, or KindAny for catalog events.
func (e Event) Kind() Kind {
	if IsNil(e.Source) {
		return KindAny
	}
	return e.Source.Kind()
}

// PropertyNames returns the names of the changed properties.
func (e Event) PropertyNames() []string {
	names := make([]string, len(e.Changes))
	for i, c := range e.Changes {
		names[i] = c.Property
	}
	return names
}

// OldValues returns the values before the change.
func (e Event) OldValues() []any {
	vals := make([]any, len(e.Changes))
	for i, c := range e.Changes {
		vals[i] = c.Old
	}
	return vals
}

// NewValues returns the values after the change.
func (e Event) NewValues() []any {
	vals := make([]any, len(e.Changes))
	for i, c := range e.Changes {
		vals[i] = c.New
	}
	return vals
}

// Properties reported by default pointer changes.
const (
	PropDefaultWorkspace = "defaultWorkspace"
	PropDefaultNamespace = "defaultNamespace"
	PropDefaultDataStore = "defaultDataStore"
)
