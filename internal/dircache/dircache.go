// Package dircache keeps recent directory listings in memory.
//
// Entries expire after a TTL and the least recently used entry is evicted
// once the cache reaches capacity. The cache is owned by the foreground loop
// and does no locking.
package dircache

import (
	"time"

	"github.com/tidwall/btree"

	"github.com/tw93/probe/internal/fsread"
)

const (
	DefaultCapacity = 50
	DefaultTTL      = 30 * time.Second
)

type cacheEntry struct {
	entries []fsread.FileEntry
	created time.Time
	seq     uint64
}

// Cache maps an absolute directory path to its listing.
type Cache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	entries map[string]*cacheEntry
	order   *btree.Map[uint64, string] // access sequence -> path, oldest first
	seq     uint64
}

// New creates a cache. Non-positive capacity or ttl fall back to defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*cacheEntry),
		order:    btree.NewMap[uint64, string](0),
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Cache) touch(path string, e *cacheEntry) {
	if e.seq != 0 {
		c.order.Delete(e.seq)
	}
	c.seq++
	e.seq = c.seq
	c.order.Set(e.seq, path)
}

func (c *Cache) remove(path string) {
	e, ok := c.entries[path]
	if !ok {
		return
	}
	c.order.Delete(e.seq)
	delete(c.entries, path)
}

// Get returns a copy of the cached listing. An expired entry is evicted and
// reported as a miss.
func (c *Cache) Get(path string) ([]fsread.FileEntry, bool) {
	e, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.created) > c.ttl {
		c.remove(path)
		return nil, false
	}
	c.touch(path, e)
	return cloneEntries(e.entries), true
}

// Insert stores a listing, replacing any previous one for path and resetting
// its age. The least recently used entries are evicted while the cache is at
// capacity.
func (c *Cache) Insert(path string, entries []fsread.FileEntry) {
	c.remove(path)
	for len(c.entries) >= c.capacity {
		_, oldest, ok := c.order.PopMin()
		if !ok {
			break
		}
		delete(c.entries, oldest)
	}

	e := &cacheEntry{
		entries: cloneEntries(entries),
		created: c.now(),
	}
	c.entries[path] = e
	c.touch(path, e)
}

// Invalidate drops path unconditionally.
func (c *Cache) Invalidate(path string) {
	c.remove(path)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries = make(map[string]*cacheEntry)
	c.order.Clear()
}

// Len reports the number of stored listings, expired or not.
func (c *Cache) Len() int {
	return len(c.entries)
}

func cloneEntries(entries []fsread.FileEntry) []fsread.FileEntry {
	if entries == nil {
		return nil
	}
	copied := make([]fsread.FileEntry, len(entries))
	copy(copied, entries)
	return copied
}
