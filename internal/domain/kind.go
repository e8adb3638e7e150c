package domain

// Kind identifies a catalog entity type. The set is closed.
type Kind int

// Concrete kinds.
const (
	KindWorkspace Kind = iota + 1
	KindNamespace
	KindDataStore
	KindCoverageStore
	KindWMSStore
	KindWMTSStore
	KindFeatureType
	KindCoverage
	KindWMSLayer
	KindWMTSLayer
	KindLayer
	KindLayerGroup
	KindStyle
	KindMap
)

// Abstract kinds. They only appear in queries and aggregate their subtypes.
const (
	KindStore Kind = iota + 100
	KindResource
	KindPublished
	KindAny
)

var kindNames = map[Kind]string{
	KindWorkspace:     "workspace",
	KindNamespace:     "namespace",
	KindDataStore:     "dataStore",
	KindCoverageStore: "coverageStore",
	KindWMSStore:      "wmsStore",
	KindWMTSStore:     "wmtsStore",
	KindFeatureType:   "featureType",
	KindCoverage:      "coverage",
	KindWMSLayer:      "wmsLayer",
	KindWMTSLayer:     "wmtsLayer",
	KindLayer:         "layer",
	KindLayerGroup:    "layerGroup",
	KindStyle:         "style",
	KindMap:           "map",
	KindStore:         "store",
	KindResource:      "resource",
	KindPublished:     "published",
	KindAny:           "any",
}

// String returns the kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// StoreKinds lists the concrete store kinds.
var StoreKinds = []Kind{KindDataStore, KindCoverageStore, KindWMSStore, KindWMTSStore}

// ResourceKinds lists the concrete resource kinds.
var ResourceKinds = []Kind{KindFeatureType, KindCoverage, KindWMSLayer, KindWMTSLayer}

// AllKinds lists every concrete kind in dependency order.
var AllKinds = []Kind{
	KindWorkspace, KindNamespace,
	KindDataStore, KindCoverageStore, KindWMSStore, KindWMTSStore,
	KindStyle,
	KindFeatureType, KindCoverage, KindWMSLayer, KindWMTSLayer,
	KindLayer, KindLayerGroup, KindMap,
}

// IsAbstract reports whether k only aggregates other kinds.
func (k Kind) IsAbstract() bool {
	return k >= KindStore
}

// Concrete returns the concrete kinds a query for k covers.
func (k Kind) Concrete() []Kind {
	switch k {
	case KindStore:
		return StoreKinds
	case KindResource:
		return ResourceKinds
	case KindPublished:
		return []Kind{KindLayer, KindLayerGroup}
	case KindAny:
		return AllKinds
	default:
		return []Kind{k}
	}
}

// IsA reports whether k is super or one of its subtypes.
func (k Kind) IsA(super Kind) bool {
	if k == super {
		return true
	}
	if !super.IsAbstract() {
		return false
	}
	for _, c := range super.Concrete() {
		if c == k {
			return true
		}
	}
	return false
}

// Group returns the collection family a concrete kind belongs to.
// Stores and resources of every variant share one family each.
func (k Kind) Group() Kind {
	switch {
	case k.IsA(KindStore):
		return KindStore
	case k.IsA(KindResource):
		return KindResource
	default:
		return k
	}
}
