package visibility

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPolicy(t *testing.T, preset string) *Policy {
	t.Helper()
	bands, err := Preset(preset)
	require.NoError(t, err)
	p, err := NewPolicy(bands)
	require.NoError(t, err)
	return p
}

func TestBand_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		band Band
		z    float64
		want bool
	}{
		{"closed lower", Closed(18, 21), 18, true},
		{"closed upper", Closed(18, 21), 21, true},
		{"below", Closed(18, 21), 17.999, false},
		{"half open upper excluded", HalfOpen(11.5, 14), 14, false},
		{"half open lower included", HalfOpen(11.5, 14), 11.5, true},
		{"left open lower excluded", LeftOpen(16.5, 20), 16.5, false},
		{"left open upper included", LeftOpen(16.5, 20), 20, true},
		{"never", Never, 15, false},
		{"at least", AtLeast(12), 40, true},
		{"nan", Closed(0, 30), math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.band.Contains(tt.z))
		})
	}
}

func TestBand_Within(t *testing.T) {
	assert.True(t, Closed(19.5, 21).Within(Closed(18, 21)))
	assert.False(t, Closed(17, 21).Within(Closed(18, 21)))
	assert.False(t, Closed(19, 21).Within(HalfOpen(18, 21)))
	assert.True(t, Never.Within(Closed(18, 21)))
	assert.False(t, Closed(1, 2).Within(Never))
}

func TestNewPolicy_RejectsUnitBandWiderThanBuilding(t *testing.T) {
	bands := Presets["newhouse"]
	bands.Unit = Closed(17, 21)

	_, err := NewPolicy(bands)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBands))
}

func TestPresets_AllValid(t *testing.T) {
	for _, name := range PresetNames() {
		bands, err := Preset(name)
		require.NoError(t, err)
		assert.NoError(t, bands.Validate(), name)
	}
	_, err := Preset("missing")
	assert.ErrorIs(t, err, ErrInvalidBands)
}

func TestDecide_BlockCountScenario(t *testing.T) {
	p := mustPolicy(t, "newhouse")

	v := p.Decide(13)

	assert.True(t, v.BlockPolygons)
	assert.True(t, v.BlockCountLabels)
	assert.False(t, v.BlockNameLabels)
	assert.False(t, v.ProjectMarkers)
	assert.False(t, v.BuildingVolumes)
	assert.False(t, v.UnitPolygons)
	assert.Equal(t, TierNameCount, v.BlockTier())
}

func TestDecide_BuildingVisibleUnitsHiddenBelowUnitBand(t *testing.T) {
	p := mustPolicy(t, "newhouse")

	v := p.Decide(19.2)

	assert.True(t, v.BuildingVolumes)
	assert.True(t, v.FloorLines)
	assert.True(t, v.BuildingLabels)
	assert.False(t, v.UnitPolygons)
	assert.False(t, v.UnitLabels)
}

func TestDecide_BlockTiers(t *testing.T) {
	p := mustPolicy(t, "district")

	assert.Equal(t, TierHidden, p.BlockTier(10))
	assert.Equal(t, TierPolygonOnly, p.BlockTier(11))
	assert.Equal(t, TierNameCount, p.BlockTier(11.5))
	assert.Equal(t, TierNameOnly, p.BlockTier(14))
	assert.Equal(t, TierNameOnly, p.BlockTier(18.5))
	assert.Equal(t, TierHidden, p.BlockTier(18.6))
}

func TestDecide_GapHidesEveryLayer(t *testing.T) {
	p := mustPolicy(t, "newhouse")

	// between the block polygon band and the project/building bands
	for _, z := range []float64{3, 8.99, 21.01, 30, math.NaN()} {
		assert.Equal(t, LayerVisibility{}, p.Decide(z), "zoom %v", z)
	}
}

func TestDecide_UnitsNeverVisibleWithoutBuildings(t *testing.T) {
	for _, name := range PresetNames() {
		p := mustPolicy(t, name)
		for z := 0.0; z <= 23; z += 0.05 {
			v := p.Decide(z)
			if !v.BuildingVolumes {
				assert.False(t, v.UnitPolygons, "%s at %v", name, z)
				assert.False(t, v.UnitLabels, "%s at %v", name, z)
			}
		}
	}
}

func TestMarkerEntry_RangeMembership(t *testing.T) {
	p := mustPolicy(t, "newhouse")
	facility := p.NewMarker("f1", MarkerFacility, nil)

	assert.False(t, facility.Visible(15))
	assert.True(t, facility.Visible(15.1))
	assert.True(t, facility.Visible(18))
	assert.False(t, facility.Visible(18.01))

	unit := p.NewMarker("u1", MarkerUnit, nil)
	assert.Equal(t, 19.5, unit.Range.Min)
	assert.Equal(t, 21.0, unit.Range.Max)
}

func TestMarkerEntry_OpenBandEdgeMatchesDecide(t *testing.T) {
	b, err := ParseBands([]byte(`
preset = "newhouse"

[project_marker]
min = 14
max = 20
max_open = true
`))
	require.NoError(t, err)
	p, err := NewPolicy(b)
	require.NoError(t, err)
	marker := p.NewMarker("project:bay", MarkerProject, nil)

	for _, z := range []float64{13.99, 14, 19.99, 20, 20.01} {
		assert.Equal(t, p.Decide(z).ProjectMarkers, marker.Visible(z), "zoom %v", z)
	}
	assert.True(t, marker.Visible(14))
	assert.False(t, marker.Visible(20))
}

func TestParseBands_PresetWithOverride(t *testing.T) {
	doc := `
preset = "newhouse"

[unit]
min = 19
max = 21
`
	b, err := ParseBands([]byte(doc))

	require.NoError(t, err)
	assert.Equal(t, Closed(19, 21), b.Unit)
	assert.Equal(t, Closed(18, 21), b.Building)
	assert.Equal(t, HalfOpen(11.5, 14), b.BlockCountLabel)
}

func TestParseBands_StandaloneAndInvalid(t *testing.T) {
	b, err := ParseBands([]byte(`
[building]
min = 18
max = 20

[unit]
min = 19
max = 20
max_open = true
`))
	require.NoError(t, err)
	assert.False(t, b.Unit.Contains(20))
	assert.False(t, b.BlockPolygon.Contains(12), "absent bands never match")

	_, err = ParseBands([]byte("preset = \"newhouse\"\n[unit]\nmin = 17\nmax = 21\n"))
	assert.ErrorIs(t, err, ErrInvalidBands)

	_, err = ParseBands([]byte("preset = \"nope\""))
	assert.ErrorIs(t, err, ErrInvalidBands)

	_, err = ParseBands([]byte("[unit\n"))
	assert.ErrorIs(t, err, ErrInvalidBands)
}
