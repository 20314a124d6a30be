package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Entry is a cached remote catalog document.
type Entry struct {
	Body     []byte    `json:"body"`
	ETag     string    `json:"etag,omitempty"`
	LastMod  string    `json:"last_modified,omitempty"`
	Version  string    `json:"catalog_version,omitempty"`
	CachedAt time.Time `json:"cached_at"`
}

// FileCache stores remote catalog documents on disk with a TTL. Expired
// entries are still returned so callers can revalidate them.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// New creates a file cache rooted at dir.
func New(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Get returns the entry stored under key and whether it is still fresh.
// A stale entry is returned with fresh == false for conditional fetches.
func (c *FileCache) Get(key string) (entry *Entry, fresh bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		os.Remove(path)
		return nil, false
	}

	return &e, c.now().Sub(e.CachedAt) <= c.ttl
}

// Set stores entry under key and stamps it with the current time.
func (c *FileCache) Set(key string, entry *Entry) error {
	entry.CachedAt = c.now()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(c.path(key), data, 0o644)
}

// Touch restamps an existing entry after a successful revalidation.
func (c *FileCache) Touch(key string) error {
	e, _ := c.Get(key)
	if e == nil {
		return fmt.Errorf("touching %s: %w", key, fs.ErrNotExist)
	}
	return c.Set(key, e)
}

// Delete removes the entry stored under key, if any.
func (c *FileCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *FileCache) path(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:])+".json")
}
