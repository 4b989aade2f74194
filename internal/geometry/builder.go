package geometry

import (
	"errors"
	"fmt"
	"math"

	"cogentcore.org/core/math32"

	"github.com/Ko-stant/estate-visibility-engine/internal/geo"
	"github.com/Ko-stant/estate-visibility-engine/internal/metrics"
)

// ErrGeometry marks a building or unit whose geometry cannot be built.
var ErrGeometry = errors.New("geometry build failure")

const (
	// UnitRoofOffset lifts unit polygons off the roof plane to avoid
	// z-fighting. It carries no semantic height.
	UnitRoofOffset    = 0.01
	BuildingLabelRise = 8.0
	UnitLabelRise     = 6.0
)

// Extrusion is a footprint shape extruded along +Z. Shape is relative to
// Origin, whose Z is the base height.
type Extrusion struct {
	Origin math32.Vector3
	Shape  []math32.Vector2
	Depth  float32
	Bounds math32.Box3
}

// Polyline is a closed ring of world points at a fixed height.
type Polyline struct {
	Floor  int
	Height float64
	Points []math32.Vector3
}

// LabelLine is the vertical leader from a roof to its floating label.
type LabelLine struct {
	From math32.Vector3
	To   math32.Vector3
}

type BuildingGeometry struct {
	Name           string
	TotalHeight    float64
	BaseHeight     float64
	ModelingHeight float64
	FacadeColor    string
	FloorLineColor string
	Volume         Extrusion
	FloorLines     []Polyline
	Label          LabelLine
	Units          []UnitGeometry
}

type UnitGeometry struct {
	ID      string
	Name    string
	Color   string
	Height  float64
	Fill    []math32.Vector3
	Outline Polyline
	Label   LabelLine
}

// Skipped records a building left out of a batch build.
type Skipped struct {
	Name string
	Err  error
}

// Builder turns footprints and heights into world-space geometry.
type Builder struct {
	bridge *geo.Bridge
	logger Logger
}

type Logger interface {
	Printf(format string, v ...interface{})
}

func NewBuilder(bridge *geo.Bridge, logger Logger) *Builder {
	return &Builder{bridge: bridge, logger: logger}
}

// BuildBuilding extrudes the footprint from baseHeight up to the total height
// and adds one floor line per whole floor. Units that fail to build are
// dropped without failing the building.
func (b *Builder) BuildBuilding(bld Building) (*BuildingGeometry, error) {
	bld = bld.WithDefaults()
	if len(bld.Polygon) < 3 {
		return nil, fmt.Errorf("building %q footprint has %d points: %w", bld.Name, len(bld.Polygon), ErrGeometry)
	}
	modeling := bld.Height - bld.BaseHeight
	if modeling <= 0 {
		return nil, fmt.Errorf("building %q modeling height %.2f: %w", bld.Name, modeling, ErrGeometry)
	}
	if bld.FloorHeight <= 0 {
		return nil, fmt.Errorf("building %q floor height %.2f: %w", bld.Name, bld.FloorHeight, ErrGeometry)
	}

	center := b.bridge.ToWorld(bld.CenterPoint(), 0)
	origin := math32.Vec3(center.X, center.Y, float32(bld.BaseHeight))

	shape := make([]math32.Vector2, 0, len(bld.Polygon))
	bounds := math32.B3Empty()
	for _, pt := range bld.Polygon {
		w := b.bridge.ToWorld(pt, 0)
		shape = append(shape, math32.Vec2(w.X-center.X, w.Y-center.Y))
		bounds.ExpandByPoint(math32.Vec3(w.X, w.Y, float32(bld.BaseHeight)))
		bounds.ExpandByPoint(math32.Vec3(w.X, w.Y, float32(bld.Height)))
	}

	g := &BuildingGeometry{
		Name:           bld.Name,
		TotalHeight:    bld.Height,
		BaseHeight:     bld.BaseHeight,
		ModelingHeight: modeling,
		FacadeColor:    bld.FacadeColor,
		FloorLineColor: bld.FloorLineColor,
		Volume: Extrusion{
			Origin: origin,
			Shape:  shape,
			Depth:  float32(modeling),
			Bounds: bounds,
		},
		FloorLines: b.floorLines(bld, modeling),
		Label: LabelLine{
			From: math32.Vec3(center.X, center.Y, float32(bld.Height)),
			To:   math32.Vec3(center.X, center.Y, float32(bld.Height+BuildingLabelRise)),
		},
	}

	for _, u := range bld.Units {
		ug, err := b.BuildUnit(u, bld.Height)
		if err != nil {
			b.logf("building %s: skipping unit: %v", bld.Name, err)
			continue
		}
		ug.ID = UnitID(bld.Name, u.Name)
		g.Units = append(g.Units, *ug)
	}
	return g, nil
}

// floorLines emits floors 1..floor(modeling/floorHeight). A line above the
// total height ends generation.
func (b *Builder) floorLines(bld Building, modeling float64) []Polyline {
	floors := int(math.Floor(modeling / bld.FloorHeight))
	lines := make([]Polyline, 0, floors)
	for n := 1; n <= floors; n++ {
		h := bld.BaseHeight + float64(n)*bld.FloorHeight
		if h > bld.Height {
			break
		}
		lines = append(lines, Polyline{Floor: n, Height: h, Points: b.ring(bld.Polygon, h)})
	}
	return lines
}

// ring projects a footprint at height h and closes it.
func (b *Builder) ring(polygon []geo.LngLat, h float64) []math32.Vector3 {
	closed := geo.Closed(polygon)
	pts := make([]math32.Vector3, 0, len(closed))
	for _, p := range closed {
		w := b.bridge.ToWorld(p, 0)
		w.Z = float32(h)
		pts = append(pts, w)
	}
	return pts
}

// BuildUnit lays the unit footprint flat just above roofHeight.
func (b *Builder) BuildUnit(u Unit, roofHeight float64) (*UnitGeometry, error) {
	if len(u.Polygon) < 3 {
		return nil, fmt.Errorf("unit %q footprint has %d points: %w", u.Name, len(u.Polygon), ErrGeometry)
	}
	h := roofHeight + UnitRoofOffset
	color := u.Color
	if color == "" {
		color = DefaultUnitColor
	}

	fill := make([]math32.Vector3, 0, len(u.Polygon))
	for _, p := range u.Polygon {
		w := b.bridge.ToWorld(p, 0)
		w.Z = float32(h)
		fill = append(fill, w)
	}
	c := b.bridge.ToWorld(u.CenterPoint(), 0)

	return &UnitGeometry{
		Name:    u.Name,
		Color:   color,
		Height:  h,
		Fill:    fill,
		Outline: Polyline{Height: h, Points: b.ring(u.Polygon, h)},
		Label: LabelLine{
			From: math32.Vec3(c.X, c.Y, float32(h)),
			To:   math32.Vec3(c.X, c.Y, float32(h+UnitLabelRise)),
		},
	}, nil
}

// BuildAll builds every building it can. A failing building is logged and
// skipped; the rest are still built.
func (b *Builder) BuildAll(buildings []Building) ([]*BuildingGeometry, []Skipped) {
	built := make([]*BuildingGeometry, 0, len(buildings))
	var skipped []Skipped
	for _, bld := range buildings {
		g, err := b.BuildBuilding(bld)
		if err != nil {
			metrics.BuildingsSkippedTotal.Inc()
			b.logf("skipping building %s: %v", bld.Name, err)
			skipped = append(skipped, Skipped{Name: bld.Name, Err: err})
			continue
		}
		built = append(built, g)
	}
	b.logf("built %d buildings, skipped %d", len(built), len(skipped))
	return built, skipped
}

func (b *Builder) logf(format string, v ...interface{}) {
	if b.logger != nil {
		b.logger.Printf(format, v...)
	}
}
