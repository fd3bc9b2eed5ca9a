package cliconfig

import (
	"fmt"

	"github.com/bft-labs/telship/pkg/storage"
)

// OpenStorage builds the storage backend selected by cfg. The returned close
// function releases connections and is never nil.
func OpenStorage(cfg Config) (storage.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage {
	case StorageMemory:
		return storage.NewMemory(), noop, nil
	case StorageDir:
		return storage.NewDir(cfg.StorageDir), noop, nil
	case StorageRedis:
		r, err := storage.NewRedisFromURL(cfg.RedisURL, "", 0)
		if err != nil {
			return nil, noop, fmt.Errorf("open redis storage: %w", err)
		}
		return r, r.Close, nil
	case StorageSQLite:
		s, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite storage: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
