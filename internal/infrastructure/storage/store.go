package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/config"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is an asynchronous string key-value store. Concurrent writes to the
// same key are last-write-wins; there are no cross-key transactions.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// GetMany returns the values that exist; missing keys are omitted.
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(SQLiteConfig{Path: cfg.Path, Compress: cfg.Compress})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
