package protocol

import "github.com/paulmach/orb"

const ProtocolVersion = "v1"

// Vec3 is a world-space position in metres.
type Vec3 [3]float32

type Vec2 [2]float32

type UnitLite struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Color     string   `json:"color"`
	Height    float64  `json:"height"`
	Footprint orb.Ring `json:"footprint"`
	Fill      []Vec3   `json:"fill"`
	LabelAt   Vec3     `json:"labelAt"`
	LabelHTML string   `json:"labelHtml"`
	Images    []string `json:"images,omitempty"`
}

type BuildingLite struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	TotalHeight    float64    `json:"totalHeight"`
	BaseHeight     float64    `json:"baseHeight"`
	FacadeColor    string     `json:"facadeColor"`
	FloorLineColor string     `json:"floorLineColor"`
	Footprint      orb.Ring   `json:"footprint"`
	Origin         Vec3       `json:"origin"`
	Shape          []Vec2     `json:"shape"`
	Depth          float32    `json:"depth"`
	FloorHeights   []float64  `json:"floorHeights"`
	LabelAt        Vec3       `json:"labelAt"`
	LabelHTML      string     `json:"labelHtml"`
	Units          []UnitLite `json:"units,omitempty"`
}

type MarkerLite struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Position orb.Point `json:"position"`
	MinZoom  float64   `json:"minZoom"`
	MaxZoom  float64   `json:"maxZoom"`
	MinOpen  bool      `json:"minOpen,omitempty"`
	MaxOpen  bool      `json:"maxOpen,omitempty"`
	HTML     string    `json:"html"`
}

type BlockLite struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Ring   orb.Ring  `json:"ring"`
	Center orb.Point `json:"center"`
	Color  string    `json:"color,omitempty"`
}

// SceneSnapshot is sent once per load; later changes arrive as patches.
type SceneSnapshot struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Project         string         `json:"project"`
	Center          orb.Point      `json:"center"`
	DataAvailable   bool           `json:"dataAvailable"`
	Preset          string         `json:"preset"`
	Buildings       []BuildingLite `json:"buildings"`
	Markers         []MarkerLite   `json:"markers"`
	Blocks          []BlockLite    `json:"blocks"`
	Skipped         []string       `json:"skipped,omitempty"`
}
