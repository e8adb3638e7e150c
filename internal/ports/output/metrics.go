package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncOperationCount increments the catalog operation counter.
	IncOperationCount(operation, kind string, success bool)

	// ObserveOperationDuration records catalog operation duration.
	ObserveOperationDuration(operation string, duration time.Duration)

	// IncCatalogEvents increments the dispatched event counter.
	IncCatalogEvents(event, kind string)

	// SetCatalogObjects sets the number of catalog entities of a kind.
	SetCatalogObjects(kind string, count int)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncOperationCount implements MetricsCollector.
func (n *NoOpMetrics) IncOperationCount(_, _ string, _ bool) {}

// ObserveOperationDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveOperationDuration(_ string, _ time.Duration) {}

// IncCatalogEvents implements MetricsCollector.
func (n *NoOpMetrics) IncCatalogEvents(_, _ string) {}

// SetCatalogObjects implements MetricsCollector.
func (n *NoOpMetrics) SetCatalogObjects(_ string, _ int) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
