package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const entryExt = ".json.zst"

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// Entry is one stored backend reply.
type Entry struct {
	Backend  string    `json:"backend"`
	Model    string    `json:"model,omitempty"`
	Text     string    `json:"text"`
	StoredAt time.Time `json:"stored_at"`
}

// Cache stores successful backend replies so a rerun can replay them without calling the
// provider. Failures are never cached.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Request identifies one query for caching purposes.
type Request struct {
	Backend     string
	Model       string
	Temperature float64
	System      string
	User        string
}

// Key hashes every field of req into a hex sha256 digest.
func Key(req Request) (string, error) {
	h := sha256.New()

	for _, s := range []string{
		req.Backend,
		req.Model,
		strconv.FormatFloat(req.Temperature, 'g', -1, 64),
		req.System,
		req.User,
	} {
		if err := writeString(h, s); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached reply if it exists. Unreadable or corrupt entries are misses.
func (c *Cache) Get(key string) (*Entry, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	compressed, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil, false
	}

	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	return &entry, true
}

// Put stores a reply in the cache
func (c *Cache) Put(key string, entry *Entry) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), encoder.EncodeAll(data, nil), 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Clear removes all cached replies. It refuses to touch a directory holding anything other
// than cache entries.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if !strings.HasSuffix(entry.Name(), entryExt) {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

// Len counts stored entries.
func (c *Cache) Len() int {
	if c.dir == "" {
		return 0
	}
	matches, _ := filepath.Glob(filepath.Join(c.dir, "*"+entryExt))
	return len(matches)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+entryExt)
}

func writeString(w io.Writer, s string) error {
	// null byte delimiter prevents ("ab","c") and ("a","bc") from colliding
	_, err := w.Write([]byte(s + "\x00"))
	return err
}
