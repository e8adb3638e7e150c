// Package storage provides the object storage backends catalog snapshots are
// read from: local filesystem, S3, Azure Blob and plain HTTP.
package storage

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IsDocument reports whether key names a snapshot document.
func IsDocument(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// trimPrefix turns a bucket key into a key relative to prefix.
func trimPrefix(prefix, key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
}

// joinPrefix turns a relative key into a bucket key.
func joinPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}

// writeFile copies r into dest, creating parent directories.
func writeFile(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return err
	}
	f, err := os.Create(dest) //#nosec G304 -- dest is a controlled local path
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
