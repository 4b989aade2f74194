package geo

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProjection struct {
	calls int
	inner Projection
}

func (c *countingProjection) LngLatToWorld(ll LngLat, height float64) math32.Vector3 {
	c.calls++
	return c.inner.LngLatToWorld(ll, height)
}

func (c *countingProjection) WorldToLngLat(v math32.Vector3) LngLat {
	c.calls++
	return c.inner.WorldToLngLat(v)
}

func newCounting() *countingProjection {
	return &countingProjection{inner: NewMercatorProjection(LngLat{114.057868, 22.543099})}
}

func TestBridge_ToWorldIsMemoized(t *testing.T) {
	proj := newCounting()
	b := NewBridge(proj)
	ll := LngLat{114.0581, 22.5433}

	first := b.ToWorld(ll, 30)
	second := b.ToWorld(ll, 30)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, proj.calls, "projection must run once for identical inputs")
	hits, misses := b.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestBridge_HeightIsPartOfKey(t *testing.T) {
	proj := newCounting()
	b := NewBridge(proj)
	ll := LngLat{114.0581, 22.5433}

	low := b.ToWorld(ll, 30)
	high := b.ToWorld(ll, 30.01)

	assert.Equal(t, 2, proj.calls)
	assert.Equal(t, low.X, high.X)
	assert.NotEqual(t, low.Z, high.Z)
	assert.Equal(t, 2, b.Len())
}

func TestBridge_ToGeoIsNotCached(t *testing.T) {
	proj := newCounting()
	b := NewBridge(proj)

	b.ToGeo(math32.Vec3(10, 10, 0))
	b.ToGeo(math32.Vec3(10, 10, 0))

	assert.Equal(t, 2, proj.calls)
	assert.Equal(t, 0, b.Len())
}

func TestBridge_ClearCacheForcesReprojection(t *testing.T) {
	proj := newCounting()
	b := NewBridge(proj)
	ll := LngLat{114.06, 22.54}

	b.ToWorld(ll, 0)
	b.ClearCache()
	require.Equal(t, 0, b.Len())
	b.ToWorld(ll, 0)

	assert.Equal(t, 2, proj.calls)
}

func TestBridge_ReprojectDropsStaleEntries(t *testing.T) {
	b := NewBridge(NewMercatorProjection(LngLat{114.05, 22.54}))
	ll := LngLat{114.06, 22.55}
	before := b.ToWorld(ll, 0)

	b.Reproject(NewMercatorProjection(ll))
	after := b.ToWorld(ll, 0)

	assert.NotEqual(t, before, after)
	assert.InDelta(t, 0, after.X, 1e-3)
	assert.InDelta(t, 0, after.Y, 1e-3)
}

func TestMercatorProjection_RoundTrip(t *testing.T) {
	p := NewMercatorProjection(LngLat{114.057868, 22.543099})
	ll := LngLat{114.0612, 22.5401}

	back := p.WorldToLngLat(p.LngLatToWorld(ll, 12))

	assert.InDelta(t, ll.X(), back.X(), 1e-6)
	assert.InDelta(t, ll.Y(), back.Y(), 1e-6)
}

func TestRingContains(t *testing.T) {
	ring := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	assert.True(t, RingContains(ring, LngLat{5, 5}))
	assert.False(t, RingContains(ring, LngLat{15, 5}))
	assert.False(t, RingContains(orb.Ring{{0, 0}, {1, 1}}, LngLat{0.5, 0.5}))
}

func TestRingCenterAndClosed(t *testing.T) {
	ring := orb.Ring{{0, 0}, {4, 0}, {4, 2}, {0, 2}}

	assert.Equal(t, LngLat{2, 1}, RingCenter(ring))
	closed := Closed(ring)
	assert.Len(t, closed, 5)
	assert.Equal(t, closed[0], closed[4])
	assert.Len(t, ring, 4, "input must not be mutated")
	assert.Len(t, Closed(closed), 5)
}
