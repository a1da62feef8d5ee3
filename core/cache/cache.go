// Package cache provides LRU caching for parsed gabc scores.
package cache

import (
	"container/list"
	"sync"

	"github.com/FocuswithJustin/gabcly/core/cas"
	"github.com/FocuswithJustin/gabcly/core/gabc"
	"github.com/FocuswithJustin/gabcly/core/grammar"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Put stores a value in the cache.
	Put(key K, value V)

	// Remove removes a value from the cache.
	Remove(key K)

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	maxSize   int
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates an LRU cache holding at most maxSize entries.
// A maxSize of zero or less means unlimited.
func NewLRUCache[K comparable, V any](maxSize int) Cache[K, V] {
	if maxSize < 0 {
		maxSize = 0
	}
	return &lruCache[K, V]{
		maxSize:   maxSize,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*entry[K, V]).value, true
}

func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[K, V]).value = value
		return
	}
	c.entries[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value})

	if c.maxSize > 0 && c.evictList.Len() > c.maxSize {
		if oldest := c.evictList.Back(); oldest != nil {
			c.removeElement(oldest)
			c.stats.Evictions++
		}
	}
}

func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.maxSize
	return s
}

func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	delete(c.entries, ent.Value.(*entry[K, V]).key)
}

// Parsed is a score's parse tree and the document built from it.
// Both are shared between callers and must not be modified.
type Parsed struct {
	Tree     *grammar.Node
	Document *gabc.Document
}

// Documents caches parsed scores by the BLAKE3 digest of their source, so
// identical inputs under different names are parsed once.
type Documents struct {
	cache Cache[string, *Parsed]
}

// NewDocuments creates a document cache holding at most maxSize scores.
func NewDocuments(maxSize int) *Documents {
	return &Documents{cache: NewLRUCache[string, *Parsed](maxSize)}
}

// Parse returns the parsed form of src, parsing it under name on a miss.
// Sources that fail to parse are not cached.
func (d *Documents) Parse(name, src string) (p *Parsed, cached bool, err error) {
	key := cas.Blake3Hash([]byte(src))
	if p, ok := d.cache.Get(key); ok {
		return p, true, nil
	}
	tree, err := grammar.ParseFile(name, src)
	if err != nil {
		return nil, false, err
	}
	p = &Parsed{Tree: tree, Document: gabc.Build(tree)}
	d.cache.Put(key, p)
	return p, false, nil
}

// Stats returns cache statistics.
func (d *Documents) Stats() Stats {
	return d.cache.Stats()
}
