package geometry

import (
	"github.com/paulmach/orb"

	"github.com/Ko-stant/estate-visibility-engine/internal/geo"
)

// Unit is one apartment layout on a building's roof plan.
type Unit struct {
	Name        string     `json:"name"`
	Polygon     orb.Ring   `json:"polygon"`
	Center      *orb.Point `json:"center,omitempty"`
	Area        float64    `json:"area,omitempty"`
	Orientation string     `json:"orientation,omitempty"`
	Color       string     `json:"color,omitempty"`
	Images      []string   `json:"images,omitempty"`
}

// Building is immutable after load; its scene objects are rebuilt whenever
// the project reloads.
type Building struct {
	Name           string     `json:"name"`
	Polygon        orb.Ring   `json:"polygon"`
	Center         *orb.Point `json:"center,omitempty"`
	Height         float64    `json:"height,omitempty"`
	BaseHeight     float64    `json:"baseHeight,omitempty"`
	FloorCount     int        `json:"floorCount,omitempty"`
	FloorHeight    float64    `json:"floorHeight,omitempty"`
	FacadeColor    string     `json:"facadeColor,omitempty"`
	FloorLineColor string     `json:"floorLineColor,omitempty"`
	Units          []Unit     `json:"units,omitempty"`
}

// POI is a named point of interest shown as a screen marker.
type POI struct {
	Name     string    `json:"name"`
	Location orb.Point `json:"location"`
}

// Project is the per-page data set of one community.
type Project struct {
	Name       string     `json:"name"`
	Center     *orb.Point `json:"center,omitempty"`
	Buildings  []Building `json:"buildings,omitempty"`
	Facilities []POI      `json:"facilities,omitempty"`
	Points     []POI      `json:"points,omitempty"`
}

const (
	DefaultHeight         = 30.0
	DefaultFloorHeight    = 3.0
	DefaultFloorCount     = 10
	DefaultFacadeColor    = "#6699cc"
	DefaultFloorLineColor = "#ffffff"
	DefaultUnitColor      = "#ff9999"
	DefaultUnitLabelColor = "#007BFF"
)

// WithDefaults fills the optional fields the way the data files expect.
func (b Building) WithDefaults() Building {
	if b.Height == 0 {
		b.Height = DefaultHeight
	}
	if b.FloorHeight == 0 {
		b.FloorHeight = DefaultFloorHeight
	}
	if b.FloorCount == 0 {
		b.FloorCount = DefaultFloorCount
	}
	if b.FacadeColor == "" {
		b.FacadeColor = DefaultFacadeColor
	}
	if b.FloorLineColor == "" {
		b.FloorLineColor = DefaultFloorLineColor
	}
	return b
}

// CenterPoint returns the explicit center or the footprint vertex average.
func (b Building) CenterPoint() orb.Point {
	if b.Center != nil {
		return *b.Center
	}
	return geo.RingCenter(b.Polygon)
}

func (u Unit) CenterPoint() orb.Point {
	if u.Center != nil {
		return *u.Center
	}
	return geo.RingCenter(u.Polygon)
}
