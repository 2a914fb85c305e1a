package main

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// Key prefix for storage entries in BadgerDB
// A storage key "todo_items" lives at "kv:todo_items", leaving room for other data
const storageKeyPrefix = "kv:"

// badgerStorage implements Storage on top of BadgerDB
type badgerStorage struct {
	db *badger.DB
}

// openBadgerStorage opens the BadgerDB database
// dbPath can be:
//   - empty string or ":memory:" for in-memory (ephemeral)
//   - a directory path for persistent storage
func openBadgerStorage(dbPath string) (*badgerStorage, error) {
	var opts badger.Options

	if dbPath == "" || dbPath == ":memory:" {
		// In-memory mode: data lost on restart
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dbPath)
	}

	// BadgerDB is verbose by default
	opts = opts.WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerStorage{db: db}, nil
}

// GetItem reads the value in a read-only transaction
func (b *badgerStorage) GetItem(key string) (string, error) {
	var value string

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storageKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			// val is only valid inside the callback, so copy it out
			value = string(val)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNoItem
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetItem writes the value in a read-write transaction
func (b *badgerStorage) SetItem(key, value string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(storageKeyPrefix+key), []byte(value))
	})
}

func (b *badgerStorage) Close() error {
	return b.db.Close()
}
