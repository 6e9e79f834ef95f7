// Package file implements the default drivers.PersistenceBackend: an
// atomic write-temp-then-rename onto a single path on local non-volatile
// storage.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend persists a single blob at Path using a temp-file-then-rename,
// so a crash mid-write never leaves a torn document behind.
type Backend struct {
	Path string
}

// New returns a Backend writing to path. The containing directory is
// created on first Save if it doesn't exist yet.
func New(path string) *Backend {
	return &Backend{Path: path}
}

// Save implements drivers.PersistenceBackend.
func (b *Backend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create persistence directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledcore-doc-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, b.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	return nil
}

// Load implements drivers.PersistenceBackend. A missing file is not an
// error; it returns a nil slice so the caller keeps its defaults.
func (b *Backend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read persisted document: %w", err)
	}
	return data, nil
}
