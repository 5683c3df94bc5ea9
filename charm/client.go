// ABOUTME: Charm KV client wrapper with automatic sync support
// ABOUTME: Opens either the synced Charm KV or a local BadgerDB behind one KV interface

package charm

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// KV is the subset of charm/kv.KV the record store needs. A local
// BadgerDB satisfies it too, for offline use and tests.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
}

// Client wraps a KV with config and sync helpers.
type Client struct {
	kv       KV
	config   *Config
	mu       sync.RWMutex
	closer   func() error
	lastSync time.Time
	now      func() time.Time
}

// NewClient opens the Charm KV database for this app against cfg.Host.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
		now:    time.Now,
	}

	// Sync on startup to pull remote changes
	if cfg.AutoSync {
		c.mu.Lock()
		_ = c.syncLocked()
		c.mu.Unlock()
	}

	return c, nil
}

// OpenLocal opens a BadgerDB in dir without any server connection.
func OpenLocal(dir string) (*Client, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}

	cfg := DefaultConfig()
	cfg.AutoSync = false

	return &Client{
		kv:     &badgerKV{db: db},
		config: cfg,
		closer: db.Close,
		now:    time.Now,
	}, nil
}

// Close releases the underlying database when the client owns it.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// charm/kv doesn't expose Close(); its BadgerDB is cleaned up on process exit
	if c.closer == nil {
		return nil
	}
	err := c.closer()
	c.closer = nil
	return err
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Sync performs a manual sync with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncLocked()
}

func (c *Client) syncLocked() error {
	if err := c.kv.Sync(); err != nil {
		return err
	}
	c.lastSync = c.now()
	return nil
}

// Refresh pulls remote changes when auto-sync is on and the last sync is
// older than the configured stale threshold.
func (c *Client) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.config.AutoSync || c.now().Sub(c.lastSync) < c.config.StaleThreshold {
		return nil
	}
	return c.syncLocked()
}

// Get retrieves a value by key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Get(key)
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}

	// Sync while still holding lock to avoid race condition
	if c.config.AutoSync {
		_ = c.syncLocked()
	}
	return nil
}

// Delete removes a key and syncs if enabled.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil {
		return err
	}

	if c.config.AutoSync {
		_ = c.syncLocked()
	}
	return nil
}

// Keys returns all keys.
func (c *Client) Keys() ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Keys()
}

// KeysWithPrefix returns all keys starting with the given prefix.
func (c *Client) KeysWithPrefix(prefix string) ([][]byte, error) {
	allKeys, err := c.Keys()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range allKeys {
		if strings.HasPrefix(string(k), prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}


// badgerKV adapts a bare BadgerDB to the KV interface.
type badgerKV struct {
	db *badger.DB
}

func (b *badgerKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (b *badgerKV) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerKV) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerKV) Keys() ([][]byte, error) {
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

// Sync is a no-op; a local store has nothing to sync with.
func (b *badgerKV) Sync() error {
	return nil
}
