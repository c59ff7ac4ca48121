// ABOUTME: Charm KV client for small pieces of per-device state
// ABOUTME: Wraps charm/kv behind a narrow interface so tests can use plain BadgerDB
package charm

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

const (
	// DefaultHost is the self-hosted charm server.
	DefaultHost = "charm.2389.dev"

	// AppName names the KV database.
	AppName = "dealflow"
)

// ErrNotFound is returned when a key has never been set.
var ErrNotFound = errors.New("key not found")

// backend is the subset of charm/kv the client needs.
type backend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	Close() error
}

type Options struct {
	Host string
	// AutoSync pushes every write to the server.
	AutoSync bool
}

// Client is a mutex-guarded KV handle.
type Client struct {
	mu       sync.RWMutex
	db       backend
	autoSync bool
}

// Open connects to the charm KV named AppName.
func Open(opts Options) (*Client, error) {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	_ = os.Setenv("CHARM_HOST", opts.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{db: db, autoSync: opts.AutoSync}
	if opts.AutoSync {
		_ = db.Sync()
	}
	return c, nil
}

func (c *Client) Get(key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, err := c.db.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, err
}

func (c *Client) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.Set([]byte(key), value); err != nil {
		return err
	}
	if c.autoSync {
		_ = c.db.Sync()
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Client) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	if c.autoSync {
		_ = c.db.Sync()
	}
	return nil
}

func (c *Client) Keys() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, err := c.db.Keys()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = string(k)
	}
	return keys, nil
}

func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Sync()
}

// Reset wipes every key on this device.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Reset()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
