package scene

import (
	"fmt"
	"sort"

	"github.com/Ko-stant/estate-visibility-engine/internal/visibility"
)

type EntryKind int

const (
	EntryBuilding EntryKind = iota
	EntryUnit
)

// Entry groups the renderable parts of one building or unit so that one
// visibility decision reaches all of them together.
type Entry struct {
	ID       string
	Kind     EntryKind
	Parent   string
	Children []string
	Parts    []Part
	Visible  bool

	// last unit-tier decision, buildings only
	unitsVisible bool
}

// Registry holds scene entries and markers for one viewer session.
// It is not safe for concurrent use; the owning controller serializes
// access.
type Registry struct {
	entries map[string]*Entry
	order   []string
	markers []visibility.MarkerEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds a building entry. Parts start hidden.
func (r *Registry) Register(id string, parts ...Part) error {
	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("scene entry %q already registered", id)
	}
	r.entries[id] = &Entry{ID: id, Kind: EntryBuilding, Parts: parts}
	r.order = append(r.order, id)
	return nil
}

// RegisterUnit adds a unit entry nested under buildingID.
func (r *Registry) RegisterUnit(buildingID, unitID string, parts ...Part) error {
	parent, ok := r.entries[buildingID]
	if !ok || parent.Kind != EntryBuilding {
		return fmt.Errorf("scene entry %q: unknown building %q", unitID, buildingID)
	}
	if _, exists := r.entries[unitID]; exists {
		return fmt.Errorf("scene entry %q already registered", unitID)
	}
	r.entries[unitID] = &Entry{ID: unitID, Kind: EntryUnit, Parent: buildingID, Parts: parts}
	parent.Children = append(parent.Children, unitID)
	r.order = append(r.order, unitID)
	return nil
}

// RegisterMarker adds a screen marker whose handle must be Renderable.
func (r *Registry) RegisterMarker(m visibility.MarkerEntry) error {
	if _, ok := m.Handle.(Renderable); !ok {
		return fmt.Errorf("marker %q: handle %T is not renderable", m.ID, m.Handle)
	}
	r.markers = append(r.markers, m)
	return nil
}

// SetVisible shows or hides an entry. Showing a building shows its direct
// parts while its units keep their last unit-tier decision. Hiding a
// building hides every descendant. A unit can only be shown while its
// building is visible.
func (r *Registry) SetVisible(id string, visible bool) error {
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("scene entry %q not registered", id)
	}
	if e.Kind == EntryUnit {
		parent := r.entries[e.Parent]
		r.assert(e, visible && parent.Visible, nil)
		return nil
	}
	r.assertBuilding(e, visible, e.unitsVisible, nil)
	return nil
}

// SetVisibleWithUnits applies a building decision together with the unit
// tier decision for the same pass.
func (r *Registry) SetVisibleWithUnits(id string, visible, unitsVisible bool) error {
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("scene entry %q not registered", id)
	}
	if e.Kind != EntryBuilding {
		return fmt.Errorf("scene entry %q is not a building", id)
	}
	r.assertBuilding(e, visible, unitsVisible, nil)
	return nil
}

// Apply fans one layer decision out to every building, unit and marker.
func (r *Registry) Apply(v visibility.LayerVisibility, zoom float64) {
	filter := func(k PartKind) bool {
		if f, ok := layerFor[k]; ok {
			return f(v)
		}
		return true
	}
	for _, id := range r.order {
		e := r.entries[id]
		if e.Kind == EntryBuilding {
			r.assertBuilding(e, v.BuildingVolumes, v.UnitPolygons, filter)
		}
	}
	r.ApplyMarkers(zoom)
}

// ApplyMarkers runs the range test of every marker.
func (r *Registry) ApplyMarkers(zoom float64) {
	for _, m := range r.markers {
		m.Handle.(Renderable).SetVisible(m.Visible(zoom))
	}
}

func (r *Registry) assertBuilding(e *Entry, visible, unitsVisible bool, filter func(PartKind) bool) {
	e.unitsVisible = unitsVisible
	r.assert(e, visible, filter)
	for _, cid := range e.Children {
		r.assert(r.entries[cid], visible && unitsVisible, filter)
	}
}

func (r *Registry) assert(e *Entry, visible bool, filter func(PartKind) bool) {
	e.Visible = visible
	for _, p := range e.Parts {
		if p.Handle == nil {
			continue
		}
		show := visible
		if show && filter != nil {
			show = filter(p.Kind)
		}
		p.Handle.SetVisible(show)
	}
}

func (r *Registry) Visible(id string) bool {
	e, ok := r.entries[id]
	return ok && e.Visible
}

func (r *Registry) Entry(id string) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// VisibleSet returns the sorted ids of visible entries.
func (r *Registry) VisibleSet() []string {
	out := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		if e.Visible {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int { return len(r.entries) }

func (r *Registry) Markers() []visibility.MarkerEntry { return r.markers }

// Reset drops every entry and marker, hiding them first.
func (r *Registry) Reset() {
	for _, id := range r.order {
		r.assert(r.entries[id], false, nil)
	}
	for _, m := range r.markers {
		m.Handle.(Renderable).SetVisible(false)
	}
	r.entries = make(map[string]*Entry)
	r.order = nil
	r.markers = nil
}
