// Package routecache implements the bounded LRU mapping (method, path) ->
// (handler, params) described in spec §4.3.
//
// The linked list is index-based over a preallocated node slice rather
// than pointer-linked, per spec §9's cyclic-graph note. This shape is
// grounded directly on other_examples' xDarkicex-liteLRU (entries []entry
// + indices map[key]int + integer prev/next), combined with the
// teacher's internal/middleware/cache.go hit/miss/evict counters — the
// teacher's TTL'd HTTP-response cache semantics are replaced with
// route-match semantics. There are no sentinel nodes: head and tail are
// plain indices, -1 when the list is empty, and the list is maintained
// by unlink, pushFront and moveToFront.
package routecache

import "sync"

// Key identifies a cached route match. Path is always an owned copy —
// Go's string immutability gives the "lookup keys never enter the map"
// guarantee (P5) structurally: Get takes a borrowed Go string for
// comparison only, and Put is the only place that retains one.
type Key struct {
	Method string
	Path   string
}

// Param is a single captured route variable.
type Param struct {
	Name  string
	Value string
}

// Entry is what the cache stores per key: an opaque handler reference,
// captured parameters, and the last access time used only for
// diagnostics (the LRU order itself is tracked by the linked list, not
// by comparing timestamps).
type Entry struct {
	Handler           interface{}
	Params            []Param
	LastAccessUnixNano int64
}

type node struct {
	key    Key
	entry  Entry
	used   bool
	prev   int
	next   int
}

// Stats mirrors spec §6's CacheStats surface.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRatio  float64
	Size      int
	MaxSize   int
}

// Cache is a bounded LRU route-match cache. The zero value is not usable;
// construct with New.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	nodes   []node
	index   map[Key]int
	head    int // most-recently-used index, -1 if empty
	tail    int // least-recently-used index, -1 if empty
	free    []int

	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache with the given capacity. Capacity zero is legal
// and degenerates to always-miss (spec §4.3 edge case (a)).
func New(maxSize int) *Cache {
	if maxSize < 0 {
		maxSize = 0
	}
	c := &Cache{
		maxSize: maxSize,
		nodes:   make([]node, 0, maxSize),
		index:   make(map[Key]int, maxSize),
		head:    -1,
		tail:    -1,
	}
	return c
}

func (c *Cache) unlink(idx int) {
	n := &c.nodes[idx]
	if n.prev != -1 {
		c.nodes[n.prev].next = n.next
	} else {
		c.head = n.next
	}
	if n.next != -1 {
		c.nodes[n.next].prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = -1, -1
}

func (c *Cache) pushFront(idx int) {
	n := &c.nodes[idx]
	n.prev = -1
	n.next = c.head
	if c.head != -1 {
		c.nodes[c.head].prev = idx
	}
	c.head = idx
	if c.tail == -1 {
		c.tail = idx
	}
}

// moveToFront is a no-op when idx is already the head (spec §4.3 edge
// case (c)).
func (c *Cache) moveToFront(idx int) {
	if c.head == idx {
		return
	}
	c.unlink(idx)
	c.pushFront(idx)
}

// Get looks up (method, path) without allocating: the Key built for
// comparison is stack-local and never stored (spec §4.3 edge case (d),
// P5). On hit it updates LastAccessUnixNano, moves the entry to head,
// and increments hits; on miss it increments misses.
func (c *Cache) Get(method, path string, nowUnixNano int64) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[Key{Method: method, Path: path}]
	if !ok {
		c.misses++
		return Entry{}, false
	}
	c.nodes[idx].entry.LastAccessUnixNano = nowUnixNano
	c.moveToFront(idx)
	c.hits++
	return c.nodes[idx].entry, true
}

// Put inserts or updates a cache entry. If the key already exists its
// handler and params are replaced and it is moved to head; otherwise a
// new node is allocated (reusing a freed slot if one exists), evicting
// the LRU tail first if the cache is at capacity.
func (c *Cache) Put(method, path string, handler interface{}, params []Param, nowUnixNano int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize == 0 {
		return
	}

	key := Key{Method: method, Path: path}
	if idx, ok := c.index[key]; ok {
		c.nodes[idx].entry.Handler = handler
		c.nodes[idx].entry.Params = clone(params)
		c.nodes[idx].entry.LastAccessUnixNano = nowUnixNano
		c.moveToFront(idx)
		return
	}

	if len(c.index) >= c.maxSize {
		c.evictTail()
	}

	idx := c.allocSlot()
	c.nodes[idx] = node{
		key:  key,
		entry: Entry{
			Handler:            handler,
			Params:             clone(params),
			LastAccessUnixNano: nowUnixNano,
		},
		used: true,
		prev: -1,
		next: -1,
	}
	c.index[key] = idx
	c.pushFront(idx)
}

func (c *Cache) allocSlot() int {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]
		return idx
	}
	c.nodes = append(c.nodes, node{})
	return len(c.nodes) - 1
}

// evictTail removes the LRU entry, freeing its owned key and params
// (spec §4.3) and incrementing evictions. Evicting the sole entry sets
// head = tail = -1 (edge case (b)).
func (c *Cache) evictTail() {
	if c.tail == -1 {
		return
	}
	idx := c.tail
	key := c.nodes[idx].key
	c.unlink(idx)
	delete(c.index, key)
	c.nodes[idx] = node{}
	c.free = append(c.free, idx)
	c.evictions++
}

func clone(params []Param) []Param {
	if len(params) == 0 {
		return nil
	}
	out := make([]Param, len(params))
	copy(out, params)
	return out
}

// Clear drops all entries and nodes and resets counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = c.nodes[:0]
	c.free = c.free[:0]
	c.index = make(map[Key]int, c.maxSize)
	c.head, c.tail = -1, -1
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Stats reports the cache's current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRatio:  ratio,
		Size:      len(c.index),
		MaxSize:   c.maxSize,
	}
}

// Keys returns the cached keys in MRU-to-LRU order. Intended for tests
// and diagnostics, not the hot path.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.index))
	for i := c.head; i != -1; i = c.nodes[i].next {
		out = append(out, c.nodes[i].key)
	}
	return out
}
