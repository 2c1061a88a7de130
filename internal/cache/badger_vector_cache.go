package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerVectorCache keeps corpus vectors in a local Badger database. It backs
// the CLI, which has no Redis.
type BadgerVectorCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerVectorCache opens (or creates) the database at dir. An empty dir
// opens an in-memory database.
func OpenBadgerVectorCache(dir string, ttl time.Duration) (*BadgerVectorCache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultVectorTTL
	}
	return &BadgerVectorCache{db: db, ttl: ttl}, nil
}

func (c *BadgerVectorCache) GetVectors(_ context.Context, key string) ([][]float32, bool, error) {
	var vectors [][]float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.vectorKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &vectors)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger get vectors failed: %w", err)
	}
	return vectors, true, nil
}

func (c *BadgerVectorCache) SetVectors(_ context.Context, key string, vectors [][]float32) error {
	payload, err := json.Marshal(vectors)
	if err != nil {
		return fmt.Errorf("marshal vectors failed: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(c.vectorKey(key), payload).WithTTL(c.ttl))
	})
}

func (c *BadgerVectorCache) Close() error {
	return c.db.Close()
}

func (c *BadgerVectorCache) vectorKey(key string) []byte {
	return []byte("vectors:" + key)
}
