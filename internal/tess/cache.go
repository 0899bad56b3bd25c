package tess

import (
	"container/list"
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"

	"github.com/gogpu/quartz"
)

// DefaultCacheCapacity is the default geometry cache entry limit.
const DefaultCacheCapacity = 500

// CacheEntry is one memoized tessellation result.
type CacheEntry struct {
	Vertices VertexBatch
	Bounds   Bounds
	IsFill   bool
}

// VertexCount returns the number of vertices in the entry.
func (e *CacheEntry) VertexCount() int { return len(e.Vertices) }

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// HitRate returns hits/(hits+misses), or 0 when no lookups have occurred.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// GeometryCache memoizes tessellation output keyed by a content hash of
// (path contents, transform, fill-vs-stroke, color, stroke parameters).
// Eviction is strictly least-recently-used: every successful Get moves the
// key to most-recently-used, and inserting beyond capacity evicts from the
// LRU end.
//
// The cache is not safe for concurrent use; it is owned by a single
// renderer recording on one logical thread.
type GeometryCache struct {
	capacity int
	entries  map[uint64]*list.Element
	order    *list.List // front = most recently used
	hits     uint64
	misses   uint64
}

type cacheItem struct {
	key   uint64
	entry *CacheEntry
}

// NewGeometryCache creates a cache holding at most capacity entries.
// Non-positive capacities fall back to DefaultCacheCapacity.
func NewGeometryCache(capacity int) *GeometryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &GeometryCache{
		capacity: capacity,
		entries:  make(map[uint64]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get looks up a cached entry, marking it most-recently-used on a hit.
func (c *GeometryCache) Get(key uint64) (*CacheEntry, bool) {
	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).entry, true
}

// Store inserts or replaces an entry, evicting the least-recently-used
// entry when over capacity.
func (c *GeometryCache) Store(key uint64, entry *CacheEntry) {
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheItem{key: key, entry: entry})
	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheItem).key)
	}
}

// GetOrTessellate returns the cached entry for key, building and storing
// it on a miss. A lookup counts exactly one hit or one miss.
func (c *GeometryCache) GetOrTessellate(key uint64, build func() *CacheEntry) *CacheEntry {
	if e, ok := c.Get(key); ok {
		return e
	}
	e := build()
	if e != nil {
		c.Store(key, e)
	}
	return e
}

// Len returns the number of cached entries.
func (c *GeometryCache) Len() int { return len(c.entries) }

// Clear drops all entries. Hit/miss counters are preserved; they are
// monotonic over the cache's lifetime.
func (c *GeometryCache) Clear() {
	c.entries = make(map[uint64]*list.Element, c.capacity)
	c.order.Init()
}

// Stats returns a snapshot of the cache counters.
func (c *GeometryCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

// FillKey hashes a fill request's contents: path elements, transform and
// color. Identical requests hash identically regardless of which Path
// value carries them.
func FillKey(path *quartz.Path, tm quartz.Matrix, col quartz.Color) uint64 {
	h := newKeyHasher()
	h.writeByte(0x01) // fill
	h.writePath(path)
	h.writeMatrix(tm)
	h.writeColor(col)
	return h.sum()
}

// StrokeKey hashes a stroke request's contents, including the stroke
// parameters that shape the geometry.
func StrokeKey(path *quartz.Path, tm quartz.Matrix, col quartz.Color, style quartz.StrokeStyle) uint64 {
	h := newKeyHasher()
	h.writeByte(0x02) // stroke
	h.writePath(path)
	h.writeMatrix(tm)
	h.writeColor(col)
	h.writeFloat(style.Width)
	h.writeByte(byte(style.Cap))
	h.writeByte(byte(style.Join))
	h.writeFloat(style.MiterLimit)
	return h.sum()
}

type keyHasher struct {
	h   hash.Hash64
	buf [8]byte
}

func newKeyHasher() *keyHasher {
	return &keyHasher{h: fnv.New64a()}
}

func (k *keyHasher) writeByte(b byte) {
	k.buf[0] = b
	k.h.Write(k.buf[:1])
}

func (k *keyHasher) writeFloat(f float64) {
	binary.LittleEndian.PutUint64(k.buf[:], math.Float64bits(f))
	k.h.Write(k.buf[:])
}

func (k *keyHasher) writePoint(p quartz.Point) {
	k.writeFloat(p.X)
	k.writeFloat(p.Y)
}

func (k *keyHasher) writeMatrix(m quartz.Matrix) {
	k.writeFloat(m.A)
	k.writeFloat(m.B)
	k.writeFloat(m.C)
	k.writeFloat(m.D)
	k.writeFloat(m.TX)
	k.writeFloat(m.TY)
}

func (k *keyHasher) writeColor(c quartz.Color) {
	r, g, b, a := c.Resolve()
	k.writeFloat(r)
	k.writeFloat(g)
	k.writeFloat(b)
	k.writeFloat(a)
}

func (k *keyHasher) writePath(p *quartz.Path) {
	if p == nil {
		return
	}
	for _, elem := range p.Elements() {
		switch e := elem.(type) {
		case quartz.MoveTo:
			k.writeByte('M')
			k.writePoint(e.Point)
		case quartz.LineTo:
			k.writeByte('L')
			k.writePoint(e.Point)
		case quartz.QuadTo:
			k.writeByte('Q')
			k.writePoint(e.Control)
			k.writePoint(e.Point)
		case quartz.CubicTo:
			k.writeByte('C')
			k.writePoint(e.Control1)
			k.writePoint(e.Control2)
			k.writePoint(e.Point)
		case quartz.Close:
			k.writeByte('Z')
		}
	}
}

func (k *keyHasher) sum() uint64 {
	return k.h.Sum64()
}
