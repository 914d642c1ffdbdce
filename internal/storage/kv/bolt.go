package kv

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

type BoltDB struct {
	db   *bolt.DB
	path string
}

func (b *BoltDB) Open() error {
	db, err := bolt.Open(b.path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	b.db = db
	return nil
}

func (b *BoltDB) Path() string {
	return b.path
}

func (b *BoltDB) Get(namespace string, key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return ErrNotFound
		}
		v := bucket.Get(key)
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		val = append([]byte(nil), v...)
		return nil
	})
	return val, err
}

func (b *BoltDB) Put(namespace string, key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	})
}

// Replace swaps the bucket in a single transaction, so readers see either
// the old or the new content.
func (b *BoltDB) Replace(namespace string, keys, values [][]byte) error {
	if len(keys) != len(values) {
		return errors.New("key value not the same length")
	}
	name := []byte(namespace)
	return b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("dropping bucket %s: %w", namespace, err)
			}
		}
		bucket, err := tx.CreateBucket(name)
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", namespace, err)
		}
		for i, key := range keys {
			if err := bucket.Put(key, values[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltDB) Iterate(namespace string, fn func(k, v []byte) error) (int64, error) {
	var count int64
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return ErrNotFound
		}
		return bucket.ForEach(func(k, v []byte) error {
			count++
			return fn(k, v)
		})
	})
	return count, err
}

func (b *BoltDB) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
