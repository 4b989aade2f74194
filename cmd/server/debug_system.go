package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/Ko-stant/estate-visibility-engine/internal/config"
	"github.com/Ko-stant/estate-visibility-engine/internal/project"
	"github.com/Ko-stant/estate-visibility-engine/internal/visibility"
)

// DebugSystem provides development and testing utilities
type DebugSystem struct {
	config   config.DebugConfig
	sessions *SessionManager
	catalog  func() *project.Catalog
	policy   *visibility.Policy
	logger   Logger
}

func NewDebugSystem(cfg config.DebugConfig, sessions *SessionManager, catalog func() *project.Catalog, policy *visibility.Policy, logger Logger) *DebugSystem {
	return &DebugSystem{
		config:   cfg,
		sessions: sessions,
		catalog:  catalog,
		policy:   policy,
		logger:   logger,
	}
}

func (ds *DebugSystem) RegisterDebugRoutes(mux *http.ServeMux) {
	if !ds.config.Enabled {
		return
	}

	// Session inspection
	mux.HandleFunc("/debug/info/sessions", ds.handleSessions)
	mux.HandleFunc("/debug/info/bands", ds.handleBands)

	// Camera manipulation
	mux.HandleFunc("/debug/zoom", ds.handleForceZoom)

	// Catalog queries
	mux.HandleFunc("/debug/schools", ds.handleSchoolsAt)
}

func (ds *DebugSystem) handleSessions(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}

	out := make([]map[string]any, 0, ds.sessions.Count())
	for _, s := range ds.sessions.All() {
		info := s.Controller.Stats()
		info["id"] = s.ID.String()
		info["project"] = s.Controller.ProjectName()
		info["document"] = s.Controller.Document()
		out = append(out, info)
	}
	writeJSON(w, map[string]any{"sessions": out})
}

func (ds *DebugSystem) handleBands(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}

	b := ds.policy.Bands()
	writeJSON(w, map[string]any{
		"blockPolygon":    b.BlockPolygon.String(),
		"blockCountLabel": b.BlockCountLabel.String(),
		"blockNameLabel":  b.BlockNameLabel.String(),
		"projectMarker":   b.ProjectMarker.String(),
		"building":        b.Building.String(),
		"unit":            b.Unit.String(),
		"presets":         visibility.PresetNames(),
	})
}

// handleForceZoom applies a zoom-end to one session as if the widget had
// reported it.
func (ds *DebugSystem) handleForceZoom(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}
	if !ds.config.AllowZoomForce {
		http.Error(w, "Zoom override not enabled", http.StatusForbidden)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Session string  `json:"session"`
		Zoom    float64 `json:"zoom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(req.Session)
	if err != nil {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return
	}
	s, ok := ds.sessions.Get(id)
	if !ok {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}

	from := s.Controller.Zoom()
	if err := s.Controller.OnZoomEnd(req.Zoom); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ds.logDebugAction("force_zoom", map[string]any{
		"session": id.String(),
		"from":    wireZoom(from),
		"to":      req.Zoom,
	})

	writeJSON(w, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Session %s zoomed to %.2f", id, req.Zoom),
		"layers":  s.Controller.Layers(),
	})
}

func (ds *DebugSystem) handleSchoolsAt(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}

	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if errLng != nil || errLat != nil || math.IsNaN(lng) || math.IsNaN(lat) {
		http.Error(w, "lng and lat are required", http.StatusBadRequest)
		return
	}

	primary, middle := ds.catalog().SchoolsAt(orb.Point{lng, lat})
	writeJSON(w, map[string]any{"primary": primary, "middle": middle})
}

func (ds *DebugSystem) checkDebugEnabled(w http.ResponseWriter) bool {
	if !ds.config.Enabled {
		http.Error(w, "Debug mode not enabled", http.StatusForbidden)
		return false
	}
	return true
}

func (ds *DebugSystem) logDebugAction(actionType string, params map[string]any) {
	if ds.config.LogActions {
		ds.logger.Printf("DEBUG ACTION: %s - %+v", actionType, params)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
