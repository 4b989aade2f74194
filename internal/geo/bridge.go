package geo

import (
	"sync"

	"cogentcore.org/core/math32"

	"github.com/Ko-stant/estate-visibility-engine/internal/metrics"
)

type cacheKey struct {
	lng, lat, height float64
}

// Bridge memoizes geodetic to world conversions for one projection context.
// Entries are never evicted; ClearCache must be called whenever the
// projection context is torn down or recreated. Growth is bounded only by
// the number of distinct points of the loaded project.
type Bridge struct {
	mu     sync.Mutex
	proj   Projection
	cache  map[cacheKey]math32.Vector3
	hits   uint64
	misses uint64
}

func NewBridge(proj Projection) *Bridge {
	return &Bridge{proj: proj, cache: make(map[cacheKey]math32.Vector3)}
}

// ToWorld returns the world position of ll lifted to height. Identical
// (lng, lat, height) triples are served from the cache.
func (b *Bridge) ToWorld(ll LngLat, height float64) math32.Vector3 {
	k := cacheKey{ll.X(), ll.Y(), height}
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.cache[k]; ok {
		b.hits++
		metrics.CoordinateCacheHitsTotal.Inc()
		return v
	}
	v := b.proj.LngLatToWorld(ll, height)
	b.cache[k] = v
	b.misses++
	metrics.CoordinateCacheMissesTotal.Inc()
	return v
}

// ToGeo is a direct passthrough to the projection.
func (b *Bridge) ToGeo(v math32.Vector3) LngLat {
	return b.proj.WorldToLngLat(v)
}

// Reproject swaps the projection context and drops every cached entry.
func (b *Bridge) Reproject(proj Projection) {
	b.mu.Lock()
	b.proj = proj
	b.cache = make(map[cacheKey]math32.Vector3)
	b.mu.Unlock()
}

func (b *Bridge) ClearCache() {
	b.mu.Lock()
	b.cache = make(map[cacheKey]math32.Vector3)
	b.mu.Unlock()
}

func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cache)
}

func (b *Bridge) Stats() (hits, misses uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits, b.misses
}
