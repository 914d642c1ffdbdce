// Package kv persists the index in an embedded key-value database. Two
// engines are supported: bbolt (B+tree, single file) and badger (LSM tree,
// directory). Both are addressed through the same namespaced DB interface.
package kv

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Engines.
const (
	Bolt   = "bolt"
	Badger = "badger"
)

var ErrNotFound = errors.New("kv: key not found")

// DB is the subset of key-value operations the index store needs. A
// namespace is a bucket in bolt and a key prefix in badger.
type DB interface {
	Open() error                                                         // open or create the database at Path
	Path() string                                                        // where the data lives
	Get(namespace string, key []byte) ([]byte, error)                    // ErrNotFound when absent
	Put(namespace string, key, value []byte) error                       // write one key
	Replace(namespace string, keys, values [][]byte) error               // drop the namespace, then write all pairs
	Iterate(namespace string, fn func(k, v []byte) error) (int64, error) // visit every pair, returns the count
	Close() error                                                        // flush and release file locks
}

// OpenDB creates the parent directory of path if needed and opens the
// requested engine there.
func OpenDB(engine string, path string) (DB, error) {
	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	switch {
	case os.IsNotExist(err):
		slog.Info("creating kv parent directory", "path", parent)
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("creating kv parent directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat kv parent directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("kv parent path %s is not a directory", parent)
	}

	var db DB
	switch engine {
	case Bolt:
		db = &BoltDB{path: path}
	case Badger:
		db = &BadgerDB{path: path}
	default:
		return nil, fmt.Errorf("unknown kv engine %q", engine)
	}
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("opening %s at %s: %w", engine, path, err)
	}
	return db, nil
}
