// Package stylecache stores, per compiled rule id, the minimal origin tree
// that reproduces the rule. Composition looks ids up here to rebuild the
// declarations a style is being overridden with.
//
// The cache is append-only. Entries are small, deduplicated by id and bounded
// by the number of distinct rules compiled during the process lifetime, so
// nothing is ever evicted.
package stylecache

import (
	"sync"
	"sync/atomic"

	"github.com/conneroisu/stylesync/internal/styletree"
)

// Cache maps rule ids to origin trees.
type Cache struct {
	entries    map[string]*styletree.Tree
	mutex      sync.RWMutex
	collisions int64
}

var (
	defaultCache     *Cache
	defaultCacheOnce sync.Once
)

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*styletree.Tree)}
}

// Default returns the process-scoped cache.
func Default() *Cache {
	defaultCacheOnce.Do(func() {
		defaultCache = New()
	})
	return defaultCache
}

// Record stores origin under id. Recording the same id again keeps the
// first origin; a structurally different origin for an existing id is a
// hash collision and is counted, the two rules keep sharing one id.
func (c *Cache) Record(id string, origin *styletree.Tree) {
	c.mutex.RLock()
	existing, ok := c.entries[id]
	c.mutex.RUnlock()
	if ok {
		if !existing.Equal(origin) {
			atomic.AddInt64(&c.collisions, 1)
		}
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.entries[id]; !ok {
		c.entries[id] = origin.Clone()
	}
}

// Lookup returns a copy of the origin tree recorded for id.
func (c *Cache) Lookup(id string) (*styletree.Tree, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	origin, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return origin.Clone(), true
}

// LookupAndMerge deep-merges the origins of ids in order, later ids winning.
// Unknown ids contribute nothing.
func (c *Cache) LookupAndMerge(ids []string) *styletree.Tree {
	c.mutex.RLock()
	origins := make([]*styletree.Tree, 0, len(ids))
	for _, id := range ids {
		if origin, ok := c.entries[id]; ok {
			origins = append(origins, origin)
		}
	}
	c.mutex.RUnlock()
	return styletree.Merge(origins...)
}

// Len returns the number of recorded ids.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Collisions returns how many conflicting origins were seen for existing ids.
func (c *Cache) Collisions() int64 {
	return atomic.LoadInt64(&c.collisions)
}

// Reset drops every entry. Intended for test isolation.
func (c *Cache) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]*styletree.Tree)
	atomic.StoreInt64(&c.collisions, 0)
}
