package main

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_items (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// sqliteStorage implements Storage as a single key/value table
type sqliteStorage struct {
	db *sql.DB
}

// openSQLiteStorage opens (or creates) a SQLite database file
// Empty path or ":memory:" gives a private in-memory database.
func openSQLiteStorage(path string) (*sqliteStorage, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each connection to ":memory:" is its own database, and SQLite has a
	// single writer anyway, so keep exactly one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &sqliteStorage{db: db}, nil
}

func (s *sqliteStorage) GetItem(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv_items WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoItem
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *sqliteStorage) SetItem(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv_items (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
