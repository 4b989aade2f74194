package visibility

// MarkerKind tags a screen-anchored marker.
type MarkerKind string

const (
	MarkerCommunity     MarkerKind = "community"
	MarkerFacility      MarkerKind = "facility"
	MarkerPoint         MarkerKind = "point"
	MarkerSchoolPrimary MarkerKind = "school-primary"
	MarkerSchoolMiddle  MarkerKind = "school-middle"
	MarkerBuilding      MarkerKind = "building"
	MarkerUnit          MarkerKind = "unit"
	MarkerProject       MarkerKind = "project"
)

// MarkerEntry carries its own zoom range fixed at creation time.
type MarkerEntry struct {
	ID     string
	Handle any
	Kind   MarkerKind
	Range  Band
}

// Visible tests z against the marker's range; nothing else about the marker
// matters.
func (m MarkerEntry) Visible(z float64) bool {
	return m.Range.Contains(z)
}

// DefaultRange returns the creation-time range for kind. Building, unit and
// project markers take the policy's band as is, open bounds included.
func (p *Policy) DefaultRange(kind MarkerKind) Band {
	switch kind {
	case MarkerCommunity:
		return Closed(15, 18)
	case MarkerFacility:
		return Closed(15.1, 18)
	case MarkerPoint:
		return Closed(18, 20)
	case MarkerSchoolPrimary, MarkerSchoolMiddle:
		return Closed(13.5, 22)
	case MarkerBuilding:
		return p.bands.Building
	case MarkerUnit:
		return p.bands.Unit
	case MarkerProject:
		return p.bands.ProjectMarker
	}
	return Never
}

// NewMarker builds an entry using DefaultRange for kind.
func (p *Policy) NewMarker(id string, kind MarkerKind, handle any) MarkerEntry {
	return MarkerEntry{ID: id, Handle: handle, Kind: kind, Range: p.DefaultRange(kind)}
}
