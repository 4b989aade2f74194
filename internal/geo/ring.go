package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RingContains reports whether pt lies inside ring. Rings with fewer than
// three points contain nothing.
func RingContains(ring orb.Ring, pt LngLat) bool {
	if len(ring) < 3 {
		return false
	}
	if !ring.Bound().Contains(pt) {
		return false
	}
	return planar.RingContains(ring, pt)
}

// RingCenter is the vertex average of ring, used to anchor labels when the
// data set carries no explicit center.
func RingCenter(ring orb.Ring) LngLat {
	if len(ring) == 0 {
		return LngLat{}
	}
	var sx, sy float64
	for _, p := range ring {
		sx += p.X()
		sy += p.Y()
	}
	n := float64(len(ring))
	return LngLat{sx / n, sy / n}
}

// Closed returns ring with its first point repeated at the end when the
// input is not already closed.
func Closed(ring orb.Ring) orb.Ring {
	if len(ring) == 0 || ring.Closed() {
		return ring
	}
	out := make(orb.Ring, len(ring), len(ring)+1)
	copy(out, ring)
	return append(out, ring[0])
}
