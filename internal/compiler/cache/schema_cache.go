package cache

import (
	"sync"
	"time"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// CachedSchema is a compiled schema with the diagnostics it produced
type CachedSchema struct {
	File        *ast.Schema
	Source      *ast.SourceFile
	Config      *schema.Config
	Program     *irgen.Program
	Diagnostics errors.ErrorList
	Hash        string
	Path        string
	CachedAt    time.Time
	LastChecked time.Time
}

// SchemaCache provides in-memory caching of compiled schemas keyed by path
type SchemaCache struct {
	entries map[string]*CachedSchema
	mu      sync.RWMutex
}

// NewSchemaCache creates an empty cache
func NewSchemaCache() *SchemaCache {
	return &SchemaCache{
		entries: make(map[string]*CachedSchema),
	}
}

// Get retrieves a cached schema by file path
func (sc *SchemaCache) Get(path string) (*CachedSchema, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	entry, exists := sc.entries[path]
	return entry, exists
}

// Lookup returns the entry for path only when its content hash matches,
// marking it as checked
func (sc *SchemaCache) Lookup(path, hash string) (*CachedSchema, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, exists := sc.entries[path]
	if !exists || entry.Hash != hash {
		return nil, false
	}
	entry.LastChecked = time.Now()
	return entry, true
}

// GetByHash retrieves any cached schema with the given content hash
func (sc *SchemaCache) GetByHash(hash string) (*CachedSchema, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	for _, entry := range sc.entries {
		if entry.Hash == hash {
			return entry, true
		}
	}
	return nil, false
}

// Set stores an entry, stamping its path and times
func (sc *SchemaCache) Set(path string, entry *CachedSchema) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := time.Now()
	entry.Path = path
	entry.CachedAt = now
	entry.LastChecked = now
	sc.entries[path] = entry
}

// Invalidate removes an entry from the cache
func (sc *SchemaCache) Invalidate(path string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	delete(sc.entries, path)
}

// InvalidateAll clears the entire cache
func (sc *SchemaCache) InvalidateAll() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.entries = make(map[string]*CachedSchema)
}

// Size returns the number of cached entries
func (sc *SchemaCache) Size() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	return len(sc.entries)
}

// Prune removes entries that haven't been checked in the given duration
func (sc *SchemaCache) Prune(maxAge time.Duration) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := time.Now()
	pruned := 0

	for path, entry := range sc.entries {
		if now.Sub(entry.LastChecked) > maxAge {
			delete(sc.entries, path)
			pruned++
		}
	}

	return pruned
}
