package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: not found")

// Storage reads, writes and removes byte blobs by key.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

const probeKey = "__telship_probe__"

// Probe reports whether s accepts a write, a read back and a remove.
func Probe(ctx context.Context, s Storage) error {
	if s == nil {
		return errors.New("storage: nil backend")
	}
	want := []byte("probe")
	if err := s.Set(ctx, probeKey, want); err != nil {
		return fmt.Errorf("probe write: %w", err)
	}
	got, err := s.Get(ctx, probeKey)
	if err != nil {
		return fmt.Errorf("probe read: %w", err)
	}
	if string(got) != string(want) {
		return fmt.Errorf("probe read: got %q", got)
	}
	if err := s.Remove(ctx, probeKey); err != nil {
		return fmt.Errorf("probe remove: %w", err)
	}
	return nil
}
