package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"cogentcore.org/core/math32"
	"github.com/paulmach/orb"

	"github.com/Ko-stant/estate-visibility-engine/internal/geo"
	"github.com/Ko-stant/estate-visibility-engine/internal/geometry"
	"github.com/Ko-stant/estate-visibility-engine/internal/labels"
	"github.com/Ko-stant/estate-visibility-engine/internal/metrics"
	"github.com/Ko-stant/estate-visibility-engine/internal/project"
	"github.com/Ko-stant/estate-visibility-engine/internal/protocol"
	"github.com/Ko-stant/estate-visibility-engine/internal/scene"
	"github.com/Ko-stant/estate-visibility-engine/internal/stabilizer"
	"github.com/Ko-stant/estate-visibility-engine/internal/visibility"
)

var ErrDisposed = errors.New("scene controller disposed")

// maxWireZoom stands in for an unbounded marker range on the wire.
const maxWireZoom = 24.0

// ControllerDeps are the collaborators of one SceneController.
type ControllerDeps struct {
	Policy     *visibility.Policy
	Preset     string
	Catalog    *project.Catalog
	Status     string
	Stabilizer stabilizer.Config
	Scheduler  stabilizer.Scheduler
	Sink       EventSink
	Logger     Logger
}

// SceneController owns the scene of one map session: it is constructed on
// map-ready and disposed on teardown. Camera events are serialized by mu;
// the stabilizer is always called with mu released.
type SceneController struct {
	mu       sync.Mutex
	policy   *visibility.Policy
	preset   string
	registry *scene.Registry
	bridge   *geo.Bridge
	builder  *geometry.Builder
	stab     *stabilizer.Stabilizer
	sink     EventSink
	logger   Logger

	parts   *PartBatch
	markers *PartBatch

	catalog *project.Catalog
	status  string

	document      string
	current       *geometry.Project
	dataAvailable bool

	zoom       float64
	layers     visibility.LayerVisibility
	layersSent bool
	tier       visibility.BlockTier
	labelsSent bool
	disposed   bool
}

func NewSceneController(d ControllerDeps) *SceneController {
	c := &SceneController{
		policy:   d.Policy,
		preset:   d.Preset,
		registry: scene.NewRegistry(),
		bridge:   geo.NewBridge(geo.NewMercatorProjection(project.DefaultCenter)),
		sink:     d.Sink,
		logger:   d.Logger,
		parts:    NewPartBatch(),
		markers:  NewPartBatch(),
		catalog:  d.Catalog,
		status:   d.Status,
		zoom:     math.NaN(),
	}
	if c.catalog == nil {
		c.catalog = &project.Catalog{}
	}
	if c.status == "" {
		c.status = project.StatusOnSale
	}
	c.builder = geometry.NewBuilder(c.bridge, d.Logger)
	c.stab = stabilizer.New(d.Stabilizer, d.Scheduler, c.ForceRender, d.Logger)
	return c
}

// Load replaces the scene with p, fetched as document. Buildings that fail
// to build are left out and listed in the snapshot; the rest of the scene
// is still built.
func (c *SceneController) Load(document string, p *geometry.Project, dataAvailable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	c.document = document
	return c.loadLocked(p, dataAvailable)
}

func (c *SceneController) loadLocked(p *geometry.Project, dataAvailable bool) error {
	if p == nil {
		p = project.Empty("")
		dataAvailable = false
	}
	center := project.DefaultCenter
	if p.Center != nil {
		center = *p.Center
	}

	c.registry.Reset()
	c.parts.Reset()
	c.markers.Reset()
	c.bridge.Reproject(geo.NewMercatorProjection(center))
	c.current = p
	c.dataAvailable = dataAvailable
	c.layersSent = false
	c.labelsSent = false

	snap := protocol.SceneSnapshot{
		ProtocolVersion: protocol.ProtocolVersion,
		Project:         p.Name,
		Center:          center,
		DataAvailable:   dataAvailable,
		Preset:          c.preset,
		Buildings:       []protocol.BuildingLite{},
		Markers:         []protocol.MarkerLite{},
		Blocks:          []protocol.BlockLite{},
	}

	sources := make(map[string]geometry.Building, len(p.Buildings))
	for _, b := range p.Buildings {
		sources[b.Name] = b
	}
	built, skipped := c.builder.BuildAll(p.Buildings)
	for _, s := range skipped {
		snap.Skipped = append(snap.Skipped, s.Name)
	}
	for _, bg := range built {
		lite, err := c.registerBuilding(sources[bg.Name], bg)
		if err != nil {
			c.logger.Printf("building %s not registered: %v", bg.Name, err)
			snap.Skipped = append(snap.Skipped, bg.Name)
			continue
		}
		snap.Buildings = append(snap.Buildings, lite)
	}

	snap.Markers = c.registerMarkers(p, center, dataAvailable)

	for _, b := range c.catalog.Blocks {
		snap.Blocks = append(snap.Blocks, protocol.BlockLite{
			ID:     blockID(b.Name),
			Name:   b.Name,
			Ring:   b.Coordinates,
			Center: b.CenterPoint(),
			Color:  b.Color,
		})
	}

	c.logger.Printf("scene %s loaded: %d buildings, %d skipped, %d markers, %d blocks",
		p.Name, len(snap.Buildings), len(snap.Skipped), len(snap.Markers), len(snap.Blocks))

	errs := []error{c.sink.SendEvent(protocol.PatchSceneSnapshot, snap)}
	if !dataAvailable {
		errs = append(errs, c.sink.SendEvent(protocol.PatchError, protocol.ErrorPatch{
			Code:    CodeDataUnavailable,
			Message: fmt.Sprintf("project %q unavailable, showing the default center", p.Name),
		}))
	}
	if len(skipped) > 0 {
		errs = append(errs, c.sink.SendEvent(protocol.PatchError, protocol.ErrorPatch{
			Code:    CodeGeometryBuild,
			Message: fmt.Sprintf("%d buildings could not be built", len(skipped)),
		}))
	}
	// Until the widget reports a zoom every layer stays hidden.
	if !math.IsNaN(c.zoom) {
		errs = append(errs, c.refreshLocked())
	}
	return errors.Join(errs...)
}

func (c *SceneController) registerBuilding(src geometry.Building, bg *geometry.BuildingGeometry) (protocol.BuildingLite, error) {
	id := bg.Name
	parts := []scene.Part{
		c.part(id, scene.PartMesh),
		c.part(id, scene.PartLabel),
		c.part(id, scene.PartLabelLine),
	}
	floorHeights := make([]float64, 0, len(bg.FloorLines))
	for _, fl := range bg.FloorLines {
		parts = append(parts, scene.Part{
			Kind:   scene.PartFloorLine,
			Handle: c.parts.Handle(fmt.Sprintf("%s:%s:%d", id, scene.PartFloorLine, fl.Floor)),
		})
		floorHeights = append(floorHeights, fl.Height)
	}
	if err := c.registry.Register(id, parts...); err != nil {
		return protocol.BuildingLite{}, err
	}

	html, err := labelHTML(labels.KindBuilding, labels.Data{Name: bg.Name})
	if err != nil {
		c.logger.Printf("building %s label: %v", id, err)
	}
	shape := make([]protocol.Vec2, 0, len(bg.Volume.Shape))
	for _, v := range bg.Volume.Shape {
		shape = append(shape, protocol.Vec2{v.X, v.Y})
	}
	lite := protocol.BuildingLite{
		ID:             id,
		Name:           bg.Name,
		TotalHeight:    bg.TotalHeight,
		BaseHeight:     bg.BaseHeight,
		FacadeColor:    bg.FacadeColor,
		FloorLineColor: bg.FloorLineColor,
		Footprint:      src.Polygon,
		Origin:         vec3(bg.Volume.Origin),
		Shape:          shape,
		Depth:          bg.Volume.Depth,
		FloorHeights:   floorHeights,
		LabelAt:        vec3(bg.Label.To),
		LabelHTML:      html,
	}

	units := make(map[string]geometry.Unit, len(src.Units))
	for _, u := range src.Units {
		units[geometry.UnitID(src.Name, u.Name)] = u
	}
	for _, ug := range bg.Units {
		err := c.registry.RegisterUnit(id, ug.ID,
			c.part(ug.ID, scene.PartUnitPolygon),
			c.part(ug.ID, scene.PartUnitOutline),
			c.part(ug.ID, scene.PartUnitLabel),
		)
		if err != nil {
			c.logger.Printf("unit %s not registered: %v", ug.ID, err)
			continue
		}
		u := units[ug.ID]
		html, err := labelHTML(labels.KindUnit, labels.Data{Name: u.Name, Area: u.Area, Orientation: u.Orientation})
		if err != nil {
			c.logger.Printf("unit %s label: %v", ug.ID, err)
		}
		fill := make([]protocol.Vec3, 0, len(ug.Fill))
		for _, v := range ug.Fill {
			fill = append(fill, vec3(v))
		}
		lite.Units = append(lite.Units, protocol.UnitLite{
			ID:        ug.ID,
			Name:      ug.Name,
			Color:     ug.Color,
			Height:    ug.Height,
			Footprint: u.Polygon,
			Fill:      fill,
			LabelAt:   vec3(ug.Label.To),
			LabelHTML: html,
			Images:    u.Images,
		})
	}
	return lite, nil
}

func (c *SceneController) registerMarkers(p *geometry.Project, center orb.Point, dataAvailable bool) []protocol.MarkerLite {
	out := []protocol.MarkerLite{}
	add := func(id string, kind visibility.MarkerKind, labelKind labels.Kind, pos orb.Point, d labels.Data, handle scene.Renderable) {
		m := c.policy.NewMarker(id, kind, handle)
		if err := c.registry.RegisterMarker(m); err != nil {
			c.logger.Printf("marker %s not registered: %v", id, err)
			return
		}
		html, err := labelHTML(labelKind, d)
		if err != nil {
			c.logger.Printf("marker %s label: %v", id, err)
		}
		out = append(out, protocol.MarkerLite{
			ID:       id,
			Kind:     string(kind),
			Position: pos,
			MinZoom:  wireZoom(m.Range.Min),
			MaxZoom:  wireZoom(m.Range.Max),
			MinOpen:  m.Range.MinOpen,
			MaxOpen:  m.Range.MaxOpen,
			HTML:     html,
		})
	}
	plain := func(kind visibility.MarkerKind, labelKind labels.Kind, name string, pos orb.Point) {
		id := markerID(kind, name)
		add(id, kind, labelKind, pos, labels.Data{Name: name}, c.markers.Handle(id))
	}

	if dataAvailable && p.Name != "" {
		plain(visibility.MarkerCommunity, labels.KindCommunity, p.Name, center)
	}
	for _, f := range p.Facilities {
		plain(visibility.MarkerFacility, labels.KindFacility, f.Name, f.Location)
	}
	for _, pt := range p.Points {
		plain(visibility.MarkerPoint, labels.KindPoint, pt.Name, pt.Location)
	}
	for _, s := range c.catalog.Schools.Primary {
		plain(visibility.MarkerSchoolPrimary, labels.KindSchoolPrimary, s.Name, s.Coordinates)
	}
	for _, s := range c.catalog.Schools.Middle {
		plain(visibility.MarkerSchoolMiddle, labels.KindSchoolMiddle, s.Name, s.Coordinates)
	}
	for i, l := range c.catalog.Listings {
		id := listingID(i, l.Name)
		status := l.Status
		handle := gatedHandle{
			target: c.markers.Handle(id),
			open:   func() bool { return c.status == project.StatusAll || c.status == status },
		}
		add(id, visibility.MarkerProject, labels.KindProject, l.Coordinates,
			labels.Data{Name: l.Name, Status: l.Status}, handle)
	}
	return out
}

func (c *SceneController) part(entryID string, kind scene.PartKind) scene.Part {
	return scene.Part{Kind: kind, Handle: c.parts.Handle(entryID + ":" + kind.String())}
}

func (c *SceneController) OnZoomStart() { c.stab.ZoomStart() }
func (c *SceneController) OnMoveStart() { c.stab.MoveStart() }

// OnZoomEnd records z, recomputes visibility for it and then schedules the
// settle burst.
func (c *SceneController) OnZoomEnd(z float64) error {
	err := c.setZoom(z)
	c.stab.ZoomEnd()
	return err
}

func (c *SceneController) OnMoveEnd(z float64) error {
	err := c.setZoom(z)
	c.stab.MoveEnd()
	return err
}

func (c *SceneController) setZoom(z float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	c.zoom = z
	return c.refreshLocked()
}

// Refresh recomputes visibility for the current zoom.
func (c *SceneController) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	return c.refreshLocked()
}

func (c *SceneController) refreshLocked() error {
	v := c.policy.Decide(c.zoom)
	metrics.ZoomUpdatesTotal.Inc()
	c.registry.Apply(v, c.zoom)

	errs := []error{c.flushLocked()}
	if !c.layersSent || v != c.layers {
		c.layers = v
		c.layersSent = true
		errs = append(errs, c.sink.SendEvent(protocol.PatchLayersChanged, protocol.LayersChanged{
			Zoom:   wireZoom(c.zoom),
			Tier:   v.BlockTier().String(),
			Layers: v,
		}))
	}
	if tier := v.BlockTier(); !c.labelsSent || tier != c.tier {
		c.tier = tier
		c.labelsSent = true
		errs = append(errs, c.sendBlockLabelsLocked())
	}
	return errors.Join(errs...)
}

func (c *SceneController) flushLocked() error {
	var errs []error
	if parts := c.parts.Flush(); len(parts) > 0 {
		errs = append(errs, c.sink.SendEvent(protocol.PatchPartsVisibility, protocol.PartsVisibility{Parts: parts}))
	}
	if markers := c.markers.Flush(); len(markers) > 0 {
		errs = append(errs, c.sink.SendEvent(protocol.PatchMarkersVisibility, protocol.MarkersVisibility{Markers: markers}))
	}
	return errors.Join(errs...)
}

// sendBlockLabelsLocked swaps every block label to the representation of
// the current tier.
func (c *SceneController) sendBlockLabelsLocked() error {
	out := make([]protocol.BlockLabel, 0, len(c.catalog.Blocks))
	for _, b := range c.catalog.Blocks {
		bl := protocol.BlockLabel{Block: b.Name, Tier: c.tier.String()}
		var kind labels.Kind
		switch c.tier {
		case visibility.TierNameCount:
			kind = labels.KindBlockCount
		case visibility.TierNameOnly:
			kind = labels.KindBlockName
		}
		if kind != "" {
			n, err := labels.For(kind, labels.Data{Name: b.Name, Count: c.catalog.CountInBlock(b, c.status)})
			if err != nil {
				return err
			}
			bl.Text = n.PlainText()
			if bl.HTML, err = labels.HTML(context.Background(), n); err != nil {
				return err
			}
		}
		out = append(out, bl)
	}
	if len(out) == 0 {
		return nil
	}
	return c.sink.SendEvent(protocol.PatchBlockLabelsChanged, protocol.BlockLabelsChanged{Labels: out})
}

// ForceRender is the stabilizer's render callback. It re-asserts the
// current visibility and asks the client for one more frame.
func (c *SceneController) ForceRender(frame int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	c.registry.Apply(c.layers, c.zoom)
	if err := c.flushLocked(); err != nil {
		return &EngineError{Code: CodeRenderCallback, Message: err.Error()}
	}
	if err := c.sink.SendEvent(protocol.PatchRenderRequested, protocol.RenderRequested{Frame: frame}); err != nil {
		return &EngineError{Code: CodeRenderCallback, Message: fmt.Sprintf("frame %d: %v", frame, err)}
	}
	return nil
}

// SetStatusFilter changes which listings count toward block labels and
// which project markers may show.
func (c *SceneController) SetStatusFilter(status string) error {
	if status == "" {
		status = project.StatusOnSale
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	if status == c.status {
		return nil
	}
	c.status = status
	if math.IsNaN(c.zoom) {
		return nil
	}
	c.registry.ApplyMarkers(c.zoom)
	return errors.Join(c.flushLocked(), c.sendBlockLabelsLocked())
}

// SetCatalog swaps the city layers and rebuilds the current scene.
func (c *SceneController) SetCatalog(cat *project.Catalog) error {
	if cat == nil {
		cat = &project.Catalog{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	c.catalog = cat
	if c.current == nil {
		return nil
	}
	return c.loadLocked(c.current, c.dataAvailable)
}

// PickLocation reports the school districts covering pt.
func (c *SceneController) PickLocation(pt orb.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	primary, middle := c.catalog.SchoolsAt(pt)
	if primary == nil {
		primary = []string{}
	}
	if middle == nil {
		middle = []string{}
	}
	return c.sink.SendEvent(protocol.PatchSchoolsAtPoint, protocol.SchoolsAtPoint{Primary: primary, Middle: middle})
}

// Dispose stops pending renders and drops the scene and coordinate cache.
// Later calls are ignored.
func (c *SceneController) Dispose() {
	c.stab.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.registry.Reset()
	c.parts.Reset()
	c.markers.Reset()
	c.bridge.ClearCache()
	c.current = nil
	c.document = ""
}

func (c *SceneController) Zoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *SceneController) Layers() visibility.LayerVisibility {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layers
}

// VisibleSet returns the sorted ids of visible buildings and units.
func (c *SceneController) VisibleSet() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.VisibleSet()
}

// PartVisible reports what the client was last told about a part or marker.
func (c *SceneController) PartVisible(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parts.Visible(id) || c.markers.Visible(id)
}

// Document is the project key the scene was requested under. It can differ
// from the project's display name.
func (c *SceneController) Document() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

func (c *SceneController) ProjectName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.Name
}

// Stats summarises the session for the debug endpoints.
func (c *SceneController) Stats() map[string]any {
	rendered, failed := c.stab.Stats()
	state := c.stab.State()
	c.mu.Lock()
	defer c.mu.Unlock()
	hits, misses := c.bridge.Stats()
	return map[string]any{
		"zoom":          wireZoom(c.zoom),
		"tier":          c.tier.String(),
		"entries":       c.registry.Len(),
		"visible":       len(c.registry.VisibleSet()),
		"markers":       len(c.registry.Markers()),
		"status":        c.status,
		"stabilizer":    state.String(),
		"framesForced":  rendered,
		"framesFailed":  failed,
		"cacheEntries":  c.bridge.Len(),
		"cacheHits":     hits,
		"cacheMisses":   misses,
		"dataAvailable": c.dataAvailable,
	}
}

func labelHTML(kind labels.Kind, d labels.Data) (string, error) {
	n, err := labels.For(kind, d)
	if err != nil {
		return "", err
	}
	return labels.HTML(context.Background(), n)
}

func markerID(kind visibility.MarkerKind, name string) string {
	return "marker:" + string(kind) + ":" + name
}

// listingID keys a listing by catalog position; names repeat across phases
// of one development.
func listingID(i int, name string) string {
	return fmt.Sprintf("marker:%s:%d:%s", visibility.MarkerProject, i, name)
}

func blockID(name string) string { return "block:" + name }

func vec3(v math32.Vector3) protocol.Vec3 { return protocol.Vec3{v.X, v.Y, v.Z} }

// wireZoom keeps zoom values JSON-encodable. Unknown zoom is reported as 0.
func wireZoom(z float64) float64 {
	switch {
	case math.IsNaN(z):
		return 0
	case math.IsInf(z, 1):
		return maxWireZoom
	case math.IsInf(z, -1):
		return 0
	}
	return z
}
