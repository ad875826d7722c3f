// internal/adapters/out/localcache/sqlite.go
package localcache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Cache is the synchronous local key-value snapshot store. One row per
// collection ("cart", "wishlist"), JSON payloads.
//
// This is the guest-session source of truth and the offline mirror for a
// signed-in user; every engine mutation lands here first.
type Cache struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	if path == "" {
		path = "atelier-cache.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("localcache: create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("localcache: open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("localcache: create cache table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the stored payload, or (nil, nil) when the key is absent.
func (c *Cache) Get(key string) ([]byte, error) {
	if c == nil || c.db == nil {
		return nil, errors.New("localcache: cache is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var payload []byte
	err := c.db.QueryRow(`SELECT payload FROM cache WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localcache: get %q: %w", key, err)
	}
	return payload, nil
}

// Set stores the payload, replacing any previous value (single writer,
// last write wins).
func (c *Cache) Set(key string, payload []byte) error {
	if c == nil || c.db == nil {
		return errors.New("localcache: cache is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT INTO cache (key, payload) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		key, payload,
	)
	if err != nil {
		return fmt.Errorf("localcache: set %q: %w", key, err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is not an error.
func (c *Cache) Remove(key string) error {
	if c == nil || c.db == nil {
		return errors.New("localcache: cache is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(`DELETE FROM cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("localcache: remove %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
