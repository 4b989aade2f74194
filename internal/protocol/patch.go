package protocol

import "github.com/Ko-stant/estate-visibility-engine/internal/visibility"

const (
	PatchLayersChanged      = "LayersChanged"
	PatchPartsVisibility    = "PartsVisibility"
	PatchMarkersVisibility  = "MarkersVisibility"
	PatchBlockLabelsChanged = "BlockLabelsChanged"
	PatchRenderRequested    = "RenderRequested"
	PatchSceneSnapshot      = "SceneSnapshot"
	PatchSchoolsAtPoint     = "SchoolsAtPoint"
	PatchError              = "Error"
)

type PatchEnvelope struct {
	Sequence uint64 `json:"seq"`
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
}

type LayersChanged struct {
	Zoom   float64                    `json:"zoom"`
	Tier   string                     `json:"tier"`
	Layers visibility.LayerVisibility `json:"layers"`
}

// PartState is the visibility of one renderable on the client.
type PartState struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
}

type PartsVisibility struct {
	Parts []PartState `json:"parts"`
}

type MarkersVisibility struct {
	Markers []PartState `json:"markers"`
}

type BlockLabel struct {
	Block string `json:"block"`
	Tier  string `json:"tier"`
	Text  string `json:"text,omitempty"`
	HTML  string `json:"html,omitempty"`
}

type BlockLabelsChanged struct {
	Labels []BlockLabel `json:"labels"`
}

type RenderRequested struct {
	Frame int `json:"frame"`
}

type SchoolsAtPoint struct {
	Primary []string `json:"primary"`
	Middle  []string `json:"middle"`
}

type ErrorPatch struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
