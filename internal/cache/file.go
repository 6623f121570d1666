package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry represents a cached artifact.
type Entry struct {
	Key      string    `json:"key"`
	Body     []byte    `json:"body"`
	CachedAt time.Time `json:"cached_at"`
}

// FileCache provides TTL-based file caching for derived artifacts such as
// built vocabularies. A zero TTL never expires entries.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// New creates a new file cache.
func New(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Get retrieves a cached entry if it exists and hasn't expired.
func (c *FileCache) Get(key string) (*Entry, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		os.Remove(path)
		return nil, false
	}

	if c.ttl > 0 && c.now().Sub(entry.CachedAt) > c.ttl {
		return nil, false
	}

	return &entry, true
}

// Set stores body under key.
func (c *FileCache) Set(key string, body []byte) error {
	entry := Entry{Key: key, Body: body, CachedAt: c.now()}
	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *FileCache) path(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
