package visibility

// LayerVisibility is one decision for every layer kind.
type LayerVisibility struct {
	BlockPolygons    bool `json:"blockPolygons"`
	BlockCountLabels bool `json:"blockCountLabels"`
	BlockNameLabels  bool `json:"blockNameLabels"`
	ProjectMarkers   bool `json:"projectMarkers"`
	BuildingVolumes  bool `json:"buildingVolumes"`
	FloorLines       bool `json:"floorLines"`
	BuildingLabels   bool `json:"buildingLabels"`
	UnitPolygons     bool `json:"unitPolygons"`
	UnitLabels       bool `json:"unitLabels"`
}

// BlockTier is the block label representation selected by zoom.
type BlockTier int

const (
	TierHidden BlockTier = iota
	TierPolygonOnly
	TierNameCount
	TierNameOnly
)

func (t BlockTier) String() string {
	switch t {
	case TierPolygonOnly:
		return "polygon-only"
	case TierNameCount:
		return "name-count"
	case TierNameOnly:
		return "name-only"
	default:
		return "hidden"
	}
}

// Policy maps a zoom level to layer visibility. It holds no state beyond
// its bands and is safe to share.
type Policy struct {
	bands Bands
}

func NewPolicy(bands Bands) (*Policy, error) {
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	return &Policy{bands: bands}, nil
}

func (p *Policy) Bands() Bands { return p.bands }

// Decide evaluates every layer band independently. Zoom levels outside a
// layer's band, including NaN, hide that layer.
func (p *Policy) Decide(z float64) LayerVisibility {
	b := p.bands
	building := b.Building.Contains(z)
	unit := building && b.Unit.Contains(z)
	polygon := b.BlockPolygon.Contains(z)
	return LayerVisibility{
		BlockPolygons:    polygon,
		BlockCountLabels: polygon && b.BlockCountLabel.Contains(z),
		BlockNameLabels:  polygon && b.BlockNameLabel.Contains(z) && !b.BlockCountLabel.Contains(z),
		ProjectMarkers:   b.ProjectMarker.Contains(z),
		BuildingVolumes:  building,
		FloorLines:       building,
		BuildingLabels:   building,
		UnitPolygons:     unit,
		UnitLabels:       unit,
	}
}

// BlockTier picks the block label tier for z.
func (p *Policy) BlockTier(z float64) BlockTier {
	return p.Decide(z).BlockTier()
}

func (v LayerVisibility) BlockTier() BlockTier {
	switch {
	case !v.BlockPolygons:
		return TierHidden
	case v.BlockCountLabels:
		return TierNameCount
	case v.BlockNameLabels:
		return TierNameOnly
	default:
		return TierPolygonOnly
	}
}
