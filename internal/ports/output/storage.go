// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"
	"io"
)

// ObjectStorage is where catalog snapshot documents live. Keys are slash
// separated and relative to the configured root, bucket prefix or base URL.
type ObjectStorage interface {
	// List returns the snapshot documents.
	List(ctx context.Context) ([]StorageObject, error)

	// GetReader opens one document for reading.
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)

	// Download copies one document to a local file, creating parent directories.
	Download(ctx context.Context, key string, dest string) error

	// Exists reports whether a document is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// StorageObject describes one stored snapshot document.
type StorageObject struct {
	Key          string
	Size         int64
	LastModified int64 // unix seconds
	ETag         string
}

// StorageType names a storage backend in configuration.
type StorageType string

// Supported storage backends.
const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeAzure StorageType = "azure"
	StorageTypeHTTP  StorageType = "http"
)
