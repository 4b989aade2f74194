package scene

import "github.com/Ko-stant/estate-visibility-engine/internal/visibility"

// Renderable is anything the engine can show or hide: a mesh node, a line,
// an html label, a screen marker.
type Renderable interface {
	SetVisible(visible bool)
}

// PartKind tags one renderable part of a scene entry.
type PartKind int

const (
	PartMesh PartKind = iota
	PartFloorLine
	PartLabel
	PartLabelLine
	PartUnitPolygon
	PartUnitOutline
	PartUnitLabel
	PartMarker
)

var partKindNames = map[PartKind]string{
	PartMesh:        "mesh",
	PartFloorLine:   "floor-line",
	PartLabel:       "label",
	PartLabelLine:   "label-line",
	PartUnitPolygon: "unit-polygon",
	PartUnitOutline: "unit-outline",
	PartUnitLabel:   "unit-label",
	PartMarker:      "marker",
}

func (k PartKind) String() string {
	if s, ok := partKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Part is a tagged renderable.
type Part struct {
	Kind   PartKind
	Handle Renderable
}

// layerFor selects the layer flag that governs a part kind when a whole
// layer decision is fanned out.
var layerFor = map[PartKind]func(visibility.LayerVisibility) bool{
	PartMesh:        func(v visibility.LayerVisibility) bool { return v.BuildingVolumes },
	PartFloorLine:   func(v visibility.LayerVisibility) bool { return v.FloorLines },
	PartLabel:       func(v visibility.LayerVisibility) bool { return v.BuildingLabels },
	PartLabelLine:   func(v visibility.LayerVisibility) bool { return v.BuildingLabels },
	PartMarker:      func(v visibility.LayerVisibility) bool { return v.BuildingLabels },
	PartUnitPolygon: func(v visibility.LayerVisibility) bool { return v.UnitPolygons },
	PartUnitOutline: func(v visibility.LayerVisibility) bool { return v.UnitPolygons },
	PartUnitLabel:   func(v visibility.LayerVisibility) bool { return v.UnitLabels },
}
