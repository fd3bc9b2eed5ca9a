package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// Dir stores each key as a file in a directory.
// Writes go to a temp file that is renamed into place, so a crash never
// leaves a half written value behind.
type Dir struct {
	dir string
	mu  sync.Mutex
}

// NewDir creates a Dir storage rooted at dir. The directory is created on first write.
func NewDir(dir string) *Dir {
	return &Dir{dir: dir}
}

// Path returns the file that holds key.
func (d *Dir) Path(key string) string {
	// PathEscape keeps separators and dots out of the file name.
	return filepath.Join(d.dir, url.PathEscape(key)+".json")
}

// Get reads the file for key.
func (d *Dir) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(d.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set writes value for key atomically.
func (d *Dir) Set(ctx context.Context, key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	path := d.Path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Remove deletes the file for key.
func (d *Dir) Remove(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.Remove(d.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
