package kv

import (
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type BadgerDB struct {
	db   *badger.DB
	path string
}

func (b *BadgerDB) Open() error {
	option := badger.DefaultOptions(b.path).
		WithNumVersionsToKeep(1).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(option)
	if err != nil {
		return err
	}
	b.db = db
	return nil
}

func (b *BadgerDB) Path() string {
	return b.path
}

func prefixed(namespace string, key []byte) []byte {
	out := make([]byte, 0, len(namespace)+1+len(key))
	out = append(out, namespace...)
	out = append(out, 0)
	return append(out, key...)
}

func (b *BadgerDB) Get(namespace string, key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixed(namespace, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		// item.Value is only valid inside the transaction
		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

func (b *BadgerDB) Put(namespace string, key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(prefixed(namespace, key), value)
	})
}

// Replace drops every key under namespace and writes the new pairs through
// a WriteBatch, which splits transactions that would grow too big.
func (b *BadgerDB) Replace(namespace string, keys, values [][]byte) error {
	if len(keys) != len(values) {
		return errors.New("key value not the same length")
	}
	if err := b.db.DropPrefix(prefixed(namespace, nil)); err != nil {
		return err
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for i, key := range keys {
		if err := wb.Set(prefixed(namespace, key), values[i]); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *BadgerDB) Iterate(namespace string, fn func(k, v []byte) error) (int64, error) {
	var count int64
	prefix := prefixed(namespace, nil)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)[len(prefix):]
			err := item.Value(func(v []byte) error {
				return fn(k, v)
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		slog.Error("badger iteration stopped with error", "namespace", namespace, "error", err)
	}
	return count, err
}

func (b *BadgerDB) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
