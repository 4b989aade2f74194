package geo

import (
	"math"

	"cogentcore.org/core/math32"
	"github.com/paulmach/orb"
)

// LngLat is a geodetic position, X is longitude and Y is latitude.
type LngLat = orb.Point

// Projection converts between geodetic coordinates and the renderer's
// local world space.
type Projection interface {
	LngLatToWorld(ll LngLat, height float64) math32.Vector3
	WorldToLngLat(v math32.Vector3) LngLat
}

const earthRadius = 6378137.0

// MercatorProjection is a spherical web-mercator projection expressed in
// metres relative to Origin. Height passes through as Z.
type MercatorProjection struct {
	Origin LngLat
	ox, oy float64
}

func NewMercatorProjection(origin LngLat) *MercatorProjection {
	ox, oy := mercator(origin)
	return &MercatorProjection{Origin: origin, ox: ox, oy: oy}
}

func mercator(ll LngLat) (float64, float64) {
	x := earthRadius * ll.X() * math.Pi / 180
	lat := math.Max(math.Min(ll.Y(), 85.05112878), -85.05112878)
	y := earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

func (p *MercatorProjection) LngLatToWorld(ll LngLat, height float64) math32.Vector3 {
	x, y := mercator(ll)
	return math32.Vec3(float32(x-p.ox), float32(y-p.oy), float32(height))
}

func (p *MercatorProjection) WorldToLngLat(v math32.Vector3) LngLat {
	x := float64(v.X) + p.ox
	y := float64(v.Y) + p.oy
	lng := x / earthRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return LngLat{lng, lat}
}
