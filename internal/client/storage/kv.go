package storage

import (
	"context"
	"errors"
)

// DefaultQuota mirrors the usual 5 MiB browser local-storage ceiling.
const DefaultQuota int64 = 5 * 1024 * 1024

var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrClosed        = errors.New("storage closed")
)

// KV is a flat string key-value namespace.
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set creates or replaces key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key; removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists every key in unspecified order.
	Keys(ctx context.Context) ([]string, error)
	// Quota returns the byte ceiling enforced by Set.
	Quota() int64
	Close() error
}

// Open returns a SQLiteKV at path, or a MemoryKV when path is empty.
// A non-positive quota selects DefaultQuota.
func Open(ctx context.Context, path string, quota int64) (KV, error) {
	if quota <= 0 {
		quota = DefaultQuota
	}
	if path == "" {
		return NewMemoryKV(quota), nil
	}
	return OpenSQLite(ctx, path, quota)
}

func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
