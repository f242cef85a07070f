package classpath

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/encoding/json"
	"golang.org/x/crypto/blake2b"
)

// Incremental compilation cache: skip recompiling a source file whose
// content hash and set of dependency hashes match a previous run.
// Structurally this is the teacher's own internal/compiler/cache.go
// (index plus JSON persistence; when the index holds MaxCacheEntries,
// Put drops an arbitrary entry, not the least recently used one),
// upgraded to blake2b so the same
// golang.org/x/crypto dependency the runtime's native crypto helpers pull
// in gets a second, build-tooling use.
const (
	CacheVersion    = "1"
	DefaultCacheDir = ".javac8-cache"
	MaxCacheEntries = 2000
)

type CacheEntry struct {
	SourcePath   string            `json:"source_path"`
	SourceHash   string            `json:"source_hash"`
	ClassFiles   []string          `json:"class_files"`
	Dependencies map[string]string `json:"dependencies"` // class name -> hash, at compile time
}

type CacheIndex struct {
	Version string                 `json:"version"`
	Entries map[string]*CacheEntry `json:"entries"`
}

// BuildCache guards a CacheIndex persisted as JSON under dir.
type BuildCache struct {
	mu    sync.Mutex
	dir   string
	index *CacheIndex
}

func OpenBuildCache(dir string) (*BuildCache, error) {
	if dir == "" {
		dir = DefaultCacheDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("classpath: creating cache dir: %w", err)
	}
	idx := &CacheIndex{Version: CacheVersion, Entries: make(map[string]*CacheEntry)}
	data, err := os.ReadFile(filepath.Join(dir, "index.json"))
	if err == nil {
		var loaded CacheIndex
		if jsonErr := json.Unmarshal(data, &loaded); jsonErr == nil && loaded.Version == CacheVersion {
			idx = &loaded
		}
	}
	return &BuildCache{dir: dir, index: idx}, nil
}

// HashSource returns the blake2b-256 content hash of data, hex-encoded.
func HashSource(data []byte) string {
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// Lookup reports whether sourcePath's cached entry is still fresh against
// currentHash and the current hash of every dependency it recorded.
func (c *BuildCache) Lookup(sourcePath, currentHash string, depHashes map[string]string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.index.Entries[sourcePath]
	if !ok || e.SourceHash != currentHash {
		return nil, false
	}
	for dep, hash := range e.Dependencies {
		if depHashes[dep] != hash {
			return nil, false
		}
	}
	return e, true
}

func (c *BuildCache) Put(entry *CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.index.Entries) >= MaxCacheEntries {
		for k := range c.index.Entries {
			delete(c.index.Entries, k)
			break
		}
	}
	c.index.Entries[entry.SourcePath] = entry
}

func (c *BuildCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(c.index)
	if err != nil {
		return fmt.Errorf("classpath: marshaling cache index: %w", err)
	}
	return os.WriteFile(filepath.Join(c.dir, "index.json"), data, 0o644)
}
