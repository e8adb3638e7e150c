package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jobrunner/geocat/internal/ports/output"
)

// LocalStorage reads snapshot documents from a directory tree.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a local storage rooted at basePath.
func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// List returns the snapshot documents below the base directory. Keys use
// forward slashes.
func (s *LocalStorage) List(ctx context.Context) ([]output.StorageObject, error) {
	var objects []output.StorageObject
	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsDocument(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		objects = append(objects, output.StorageObject{
			Key:          filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// Download copies a document to dest. Copying a file onto itself is a no-op.
func (s *LocalStorage) Download(ctx context.Context, key string, dest string) error {
	src := s.FullPath(key)
	if src == dest {
		return nil
	}
	f, err := os.Open(src) //#nosec G304 -- key comes from List
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return writeFile(dest, f)
}

// GetReader opens the document at key.
func (s *LocalStorage) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(s.FullPath(key)) //#nosec G304 -- key comes from List
}

// Exists reports whether a file exists at key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.FullPath(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Put writes r to key, replacing any existing document.
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader) error {
	return writeFile(s.FullPath(key), r)
}

// FullPath returns the filesystem path of key.
func (s *LocalStorage) FullPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}
