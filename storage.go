package main

import (
	"errors"
	"fmt"
)

// ErrNoItem is returned by Storage.GetItem when nothing is stored under the key
var ErrNoItem = errors.New("storage: no item for key")

// ErrQuotaExceeded is returned when a write would go over the storage quota
var ErrQuotaExceeded = errors.New("storage: quota exceeded")

// Storage is a string key/value medium, shaped like the browser's localStorage.
// The todo store keeps its whole state as one JSON blob under a single key,
// so this is all it needs from the medium.
type Storage interface {
	// GetItem returns the value stored under key, or ErrNoItem
	GetItem(key string) (string, error)
	// SetItem replaces the value stored under key
	SetItem(key, value string) error
	Close() error
}

// openStorage opens the medium named by driver
// An empty path or ":memory:" gives an ephemeral medium
func openStorage(driver, path string, quotaBytes int) (Storage, error) {
	var (
		s   Storage
		err error
	)

	switch driver {
	case "", driverBadger:
		s, err = openBadgerStorage(path)
	case driverSQLite:
		s, err = openSQLiteStorage(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", driver, err)
	}

	if quotaBytes > 0 {
		s = newQuotaStorage(s, quotaBytes)
	}
	return s, nil
}

const (
	driverBadger = "badger"
	driverSQLite = "sqlite"
)

// quotaStorage rejects writes larger than limit bytes (key + value)
// Browsers cap localStorage at roughly 5 MiB per origin; this gives the
// server-side media the same failure mode so write-failure recovery is real.
type quotaStorage struct {
	Storage
	limit int
}

func newQuotaStorage(s Storage, limit int) *quotaStorage {
	return &quotaStorage{Storage: s, limit: limit}
}

// SetItem checks the size before passing the write through
func (q *quotaStorage) SetItem(key, value string) error {
	if size := len(key) + len(value); size > q.limit {
		return fmt.Errorf("%w: %d bytes over limit of %d", ErrQuotaExceeded, size-q.limit, q.limit)
	}
	return q.Storage.SetItem(key, value)
}
