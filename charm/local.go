// ABOUTME: Local-only state backend on a plain BadgerDB directory
// ABOUTME: Used when the charm server is unreachable and by tests
package charm

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// badgerBackend satisfies backend with a local BadgerDB.
type badgerBackend struct {
	db *badger.DB
}

func (b *badgerBackend) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (b *badgerBackend) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) })
}

func (b *badgerBackend) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) })
}

func (b *badgerBackend) Keys() ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (b *badgerBackend) Sync() error { return nil }

func (b *badgerBackend) Reset() error { return b.db.DropAll() }

func (b *badgerBackend) Close() error { return b.db.Close() }

// OpenLocal opens a Client over a BadgerDB at dir that never syncs.
func OpenLocal(dir string) (*Client, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}
	return &Client{db: &badgerBackend{db: db}}, nil
}
