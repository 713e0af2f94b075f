// Package store provides the namespaced key/value storage that backs the
// cache engine. Each namespace is an independent keyspace holding opaque
// response snapshots as []byte values.
package store

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Provider is the interface for a namespace store backend.
// It stores and retrieves []byte values, which represent serialized
// HTTP response snapshots, grouped into named namespaces.
//
// Operations are atomic per (namespace, key) pair with last-write-wins
// semantics; the engine never issues conflicting concurrent writes for the
// same key within one request lifecycle, so no further coordination is done.
//
// Implementations must be thread-safe!
type Provider interface {
	// Get returns the stored value for the given key, if it exists.
	// The boolean indicates whether the key was present.
	Get(namespace, key string) ([]byte, bool, error)
	// Put stores the given value under the given key,
	// replacing any previous value atomically.
	Put(namespace, key string, value []byte) error
	// Delete removes the entry for the given key.
	// Deleting an absent key is not an error.
	Delete(namespace, key string) error
	// Keys returns all keys present in the namespace.
	Keys(namespace string) ([]string, error)
	// Count returns the number of entries in the namespace.
	Count(namespace string) (int, error)
	// Namespaces returns the names of all namespaces that currently hold
	// at least one entry. A namespace with no entries is indistinguishable
	// from one that never existed.
	Namespaces() ([]string, error)
	// DeleteNamespace removes a namespace and every entry in it.
	DeleteNamespace(namespace string) error
}

// SQLite is a Provider backed by a single SQLite database file.
type SQLite struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLite creates a new store with the given filename as the db.
// If the file name is empty, a new in-memory db is opened.
func NewSQLite(filename string) SQLite {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS records (
		namespace TEXT,
		key TEXT,
		stored_at INTEGER,
		value BLOB,
		PRIMARY KEY (namespace, key)
	)`)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS namespace_idx ON records (namespace)")
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		panic(err)
	}
	return SQLite{
		db:         db,
		writeMutex: &sync.Mutex{},
	}
}

func (s SQLite) Get(namespace, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(
		"SELECT value FROM records WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s SQLite) Put(namespace, key string, value []byte) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO records (namespace, key, stored_at, value) VALUES (?, ?, ?, ?)",
		namespace, key, time.Now().Unix(), value,
	)
	return err
}

func (s SQLite) Delete(namespace, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM records WHERE namespace = ? AND key = ?", namespace, key)
	return err
}

func (s SQLite) Keys(namespace string) ([]string, error) {
	keys := make([]string, 0)
	rows, err := s.db.Query("SELECT key FROM records WHERE namespace = ?", namespace)
	if err != nil {
		return keys, err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s SQLite) Count(namespace string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM records WHERE namespace = ?", namespace).Scan(&count)
	return count, err
}

func (s SQLite) Namespaces() ([]string, error) {
	namespaces := make([]string, 0)
	rows, err := s.db.Query("SELECT DISTINCT namespace FROM records")
	if err != nil {
		return namespaces, err
	}
	defer rows.Close()
	for rows.Next() {
		var namespace string
		if err := rows.Scan(&namespace); err != nil {
			return namespaces, err
		}
		namespaces = append(namespaces, namespace)
	}
	return namespaces, rows.Err()
}

func (s SQLite) DeleteNamespace(namespace string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM records WHERE namespace = ?", namespace)
	return err
}
