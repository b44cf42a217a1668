package lod

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/banshee-data/oceanview/internal/ocean/points"
)

// DefaultCapacity is the number of sampled frames kept when none is given.
const DefaultCapacity = 100

// Policy selects which entry is evicted when the cache is full.
type Policy int

const (
	// PolicyFIFO evicts the oldest inserted entry. Hits do not refresh it.
	PolicyFIFO Policy = iota
	// PolicyLRU evicts the least recently used entry.
	PolicyLRU
)

func (p Policy) String() string {
	switch p {
	case PolicyFIFO:
		return "fifo"
	case PolicyLRU:
		return "lru"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "fifo":
		return PolicyFIFO, nil
	case "lru":
		return PolicyLRU, nil
	default:
		return PolicyFIFO, fmt.Errorf("unknown cache policy %q", s)
	}
}

// Key identifies a cached frame. Zoom is deliberately not part of it: a hit
// returns the sampling done at insertion time.
type Key struct {
	FrameIndex int
	Identity   points.Identity
}

// Stats counts cache activity since creation or the last Clear.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
	Capacity  int
}

type cacheEntry struct {
	key     Key
	sampled []points.DataPoint
}

// FrameCache maps (frame index, data identity) to the LOD-sampled point list
// computed the first time the key was requested. It is safe for concurrent
// use.
type FrameCache struct {
	mu       sync.Mutex
	capacity int
	policy   Policy
	order    *list.List // front = next to evict
	entries  map[Key]*list.Element
	stats    Stats
}

// NewFrameCache creates a cache holding at most capacity entries.
// A capacity below 1 uses DefaultCapacity.
func NewFrameCache(capacity int, policy Policy) *FrameCache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &FrameCache{
		capacity: capacity,
		policy:   policy,
		order:    list.New(),
		entries:  make(map[Key]*list.Element, capacity),
	}
}

// Get returns the cached sampling for (frameIndex, identity). On a miss it
// samples pts at zoom, stores the result and evicts one entry if the cache
// is over capacity.
func (c *FrameCache) Get(frameIndex int, identity points.Identity, pts []points.DataPoint, zoom float64) []points.DataPoint {
	key := Key{FrameIndex: frameIndex, Identity: identity}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.stats.Hits++
		if c.policy == PolicyLRU {
			c.order.MoveToBack(el)
		}
		return el.Value.(*cacheEntry).sampled
	}

	c.stats.Misses++
	sampled := Sample(pts, zoom)
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, sampled: sampled})
	if c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
		c.stats.Evictions++
	}
	return sampled
}

// GetFrame is Get keyed by the frame's own index and identity.
func (c *FrameCache) GetFrame(f *points.Frame, zoom float64) []points.DataPoint {
	if f == nil {
		return nil
	}
	return c.Get(f.Index, f.Identity(), f.Points, zoom)
}

// Contains reports whether key is cached without touching its recency.
func (c *FrameCache) Contains(frameIndex int, identity points.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[Key{FrameIndex: frameIndex, Identity: identity}]
	return ok
}

// Len returns the number of live entries.
func (c *FrameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the live keys in eviction order, next victim first.
func (c *FrameCache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*cacheEntry).key)
	}
	return keys
}

// Clear drops every entry and resets the counters.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[Key]*list.Element, c.capacity)
	c.stats = Stats{}
}

// Stats returns a snapshot of the cache counters.
func (c *FrameCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	s.Capacity = c.capacity
	return s
}
