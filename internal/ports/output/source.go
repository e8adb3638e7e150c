package output

import (
	"context"

	"github.com/jobrunner/geocat/internal/domain"
)

// FeatureTypeSource discovers the feature types a data store can publish.
type FeatureTypeSource interface {
	// Supports reports whether the source can read the store's connection.
	Supports(store *domain.Store) bool

	// Discover returns unattached feature types for the store. Store and
	// namespace references are left for the caller to set.
	Discover(ctx context.Context, store *domain.Store) ([]*domain.Resource, error)
}
