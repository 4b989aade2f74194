package visibility

import (
	"fmt"
	"sort"
)

// Bands is the per-layer threshold configuration supplied at construction.
// Each layer kind has its own band; bands may overlap or leave gaps.
type Bands struct {
	BlockPolygon    Band
	BlockCountLabel Band
	BlockNameLabel  Band
	ProjectMarker   Band
	Building        Band
	Unit            Band
}

// Validate checks the invariants every configuration must hold.
func (b Bands) Validate() error {
	if !b.Unit.Within(b.Building) {
		return fmt.Errorf("%w: unit band %s is not inside building band %s", ErrInvalidBands, b.Unit, b.Building)
	}
	return nil
}

// Presets are the calibrated variants found across the viewer pages. None
// of them is canonical; callers pick one by name.
var Presets = map[string]Bands{
	// district map with block counts plus the 3D building page
	"newhouse": {
		BlockPolygon:    Closed(9, 16.5),
		BlockCountLabel: HalfOpen(11.5, 14),
		BlockNameLabel:  Closed(14, 16.5),
		ProjectMarker:   Closed(14, 20),
		Building:        Closed(18, 21),
		Unit:            Closed(19.5, 21),
	},
	"district": {
		BlockPolygon:    Closed(10.8, 18.5),
		BlockCountLabel: HalfOpen(11.5, 14),
		BlockNameLabel:  Closed(14, 18.5),
		ProjectMarker:   Closed(14, 20),
		Building:        Closed(18, 21),
		Unit:            Closed(19.5, 21),
	},
	// the html label system of the 3D page
	"labels": {
		BlockPolygon:    Closed(9, 16.5),
		BlockCountLabel: HalfOpen(11.5, 14),
		BlockNameLabel:  Closed(14, 16.5),
		ProjectMarker:   Closed(14, 20),
		Building:        Closed(18, 20),
		Unit:            Closed(19.5, 20),
	},
	"compact": {
		BlockPolygon:    Closed(9, 16.5),
		BlockCountLabel: HalfOpen(11.5, 14),
		BlockNameLabel:  Closed(14, 16.5),
		ProjectMarker:   Closed(14, 20),
		Building:        Closed(18.4, 20),
		Unit:            Closed(19, 20),
	},
	// agent project page: markers only
	"agent": {
		BlockPolygon:    Never,
		BlockCountLabel: Never,
		BlockNameLabel:  Never,
		ProjectMarker:   AtLeast(12),
		Building:        Never,
		Unit:            Never,
	},
}

// Preset looks up a named configuration.
func Preset(name string) (Bands, error) {
	b, ok := Presets[name]
	if !ok {
		return Bands{}, fmt.Errorf("%w: unknown preset %q (have %v)", ErrInvalidBands, name, PresetNames())
	}
	return b, nil
}

func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
