package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var bucketRecords = []byte("records")

// BoltStore persists records in a bbolt database. Every Apply runs inside
// a single read-write transaction, so a failed batch leaves no trace.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRecords); err != nil {
			return fmt.Errorf("boltstore: create bucket %q: %w", bucketRecords, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// Get retrieves the value stored under key.
func (s *BoltStore) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketRecords).Get(key)
		if v == nil {
			return ErrNotFound
		}
		// bbolt values are only valid for the life of the transaction.
		out = clone(v)
		return nil
	})
	if err != nil {
		return nil, wrapBolt(err)
	}
	return out, nil
}

// Has reports whether key is present.
func (s *BoltStore) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}

	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketRecords).Get(key) != nil
		return nil
	})
	if err != nil {
		return false, wrapBolt(err)
	}
	return found, nil
}

// List returns every key with the given prefix in cursor order.
func (s *BoltStore) List(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecords).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, clone(k))
		}
		return nil
	})
	if err != nil {
		return nil, wrapBolt(err)
	}
	return keys, nil
}

// Apply commits the batch in one bbolt transaction.
func (s *BoltStore) Apply(b *Batch) error {
	if err := b.validate(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		for _, op := range b.ops {
			if op.delete {
				if err := bucket.Delete(op.key); err != nil {
					return fmt.Errorf("boltstore: delete %x: %w", op.key, err)
				}
				continue
			}
			if err := bucket.Put(op.key, op.value); err != nil {
				return fmt.Errorf("boltstore: put %x: %w", op.key, err)
			}
		}
		return nil
	})
	return wrapBolt(err)
}

// wrapBolt maps bbolt errors onto the package error kinds.
func wrapBolt(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, bbolt.ErrDatabaseNotOpen):
		return ErrClosed
	default:
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
}
