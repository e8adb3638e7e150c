package application

import "github.com/jobrunner/geocat/internal/domain"

// Factory creates empty, unattached entities with their defaults set.
// Pass the result to Catalog.Add once it is populated.
type Factory struct{}

// NewWorkspace creates a workspace.
func (Factory) NewWorkspace() *domain.Workspace {
	return &domain.Workspace{Metadata: domain.Metadata{}}
}

// NewNamespace creates a namespace.
func (Factory) NewNamespace() *domain.Namespace {
	return &domain.Namespace{Metadata: domain.Metadata{}}
}

func newStore(t domain.StoreType) *domain.Store {
	return &domain.Store{
		Type:                 t,
		Enabled:              true,
		ConnectionParameters: map[string]string{},
		Metadata:             domain.Metadata{},
	}
}

// NewDataStore creates a vector data store.
func (Factory) NewDataStore() *domain.Store { return newStore(domain.StoreTypeData) }

// NewCoverageStore creates a raster store.
func (Factory) NewCoverageStore() *domain.Store { return newStore(domain.StoreTypeCoverage) }

// NewWMSStore creates a cascaded WMS store.
func (Factory) NewWMSStore() *domain.Store { return newStore(domain.StoreTypeWMS) }

// NewWMTSStore creates a cascaded WMTS store.
func (Factory) NewWMTSStore() *domain.Store { return newStore(domain.StoreTypeWMTS) }

func newResource(t domain.ResourceType) *domain.Resource {
	return &domain.Resource{
		Type:       t,
		Enabled:    true,
		Advertised: true,
		Metadata:   domain.Metadata{},
	}
}

// NewFeatureType creates a vector resource.
func (Factory) NewFeatureType() *domain.Resource { return newResource(domain.ResourceTypeFeature) }

// NewCoverage creates a raster resource.
func (Factory) NewCoverage() *domain.Resource { return newResource(domain.ResourceTypeCoverage) }

// NewWMSLayer creates a cascaded WMS layer resource.
func (Factory) NewWMSLayer() *domain.Resource { return newResource(domain.ResourceTypeWMS) }

// NewWMTSLayer creates a cascaded WMTS layer resource.
func (Factory) NewWMTSLayer() *domain.Resource { return newResource(domain.ResourceTypeWMTS) }

// NewLayer creates a layer. Its type is derived from the resource on add.
func (Factory) NewLayer() *domain.Layer {
	return &domain.Layer{
		Enabled:    true,
		Advertised: true,
		Metadata:   domain.Metadata{},
	}
}

// NewLayerGroup creates a layer group in single mode.
func (Factory) NewLayerGroup() *domain.LayerGroup {
	return &domain.LayerGroup{
		Mode:       domain.ModeSingle,
		Enabled:    true,
		Advertised: true,
		Metadata:   domain.Metadata{},
	}
}

// NewStyle creates a style.
func (Factory) NewStyle() *domain.Style {
	return &domain.Style{Format: "sld", FormatVersion: "1.0.0"}
}

// NewMap creates a map.
func (Factory) NewMap() *domain.Map {
	return &domain.Map{Enabled: true}
}
