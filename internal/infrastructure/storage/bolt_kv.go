package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("kv")

type boltKeyValueStore struct {
	db *bolt.DB
}

// NewBoltKeyValueStore bbolt-backed key-value store. The file is locked while
// open, so only one process can use it at a time.
func NewBoltKeyValueStore(dbPath string) (repository.KeyValueStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &boltKeyValueStore{db: db}, nil
}

func (b *boltKeyValueStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		// the slice is only valid inside the transaction
		if raw := tx.Bucket(boltBucket).Get([]byte(key)); raw != nil {
			value = string(raw)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("bolt get %q: %w", key, err)
	}
	if !found {
		return "", entity.ErrKeyNotFound
	}
	return value, nil
}

func (b *boltKeyValueStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("bolt set %q: %w", key, err)
	}
	return nil
}

func (b *boltKeyValueStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt delete %q: %w", key, err)
	}
	return nil
}

func (b *boltKeyValueStore) Close() error {
	return b.db.Close()
}
