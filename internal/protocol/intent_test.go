package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Ko-stant/estate-visibility-engine/internal/visibility"
)

func TestDecodeIntent_ZoomEnd(t *testing.T) {
	env, err := DecodeIntent([]byte(`{"type":"ZoomEnd","payload":{"zoom":19.2}}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if env.Type != IntentZoomEnd {
		t.Errorf("Expected type %s, got %s", IntentZoomEnd, env.Type)
	}

	var p CameraEnd
	if err := DecodePayload(env, &p); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if p.Zoom != 19.2 {
		t.Errorf("Expected zoom 19.2, got %v", p.Zoom)
	}
}

func TestDecodeIntent_Rejects(t *testing.T) {
	for _, raw := range []string{`{`, `{"payload":{}}`, `[]`} {
		if _, err := DecodeIntent([]byte(raw)); err == nil {
			t.Errorf("Expected error for %s", raw)
		}
	}
}

func TestDecodePayload_EmptyAndInvalid(t *testing.T) {
	p := CameraEnd{Zoom: 7}
	if err := DecodePayload(IntentEnvelope{Type: IntentMoveStart}, &p); err != nil {
		t.Fatalf("Empty payload should be accepted: %v", err)
	}
	if err := DecodePayload(IntentEnvelope{Type: IntentMoveStart, Payload: json.RawMessage("null")}, &p); err != nil {
		t.Fatalf("Null payload should be accepted: %v", err)
	}
	if p.Zoom != 7 {
		t.Errorf("Empty payload must leave the target untouched, got %v", p.Zoom)
	}

	err := DecodePayload(IntentEnvelope{Type: IntentZoomEnd, Payload: json.RawMessage(`{"zoom":"high"}`)}, &p)
	if err == nil || !strings.Contains(err.Error(), IntentZoomEnd) {
		t.Errorf("Expected error naming the intent, got %v", err)
	}
}

func TestPatchEnvelope_LayersWireNames(t *testing.T) {
	env := PatchEnvelope{
		Sequence: 3,
		Type:     PatchLayersChanged,
		Payload: LayersChanged{
			Zoom:   13,
			Tier:   "name-count",
			Layers: visibility.LayerVisibility{BlockPolygons: true, BlockCountLabels: true},
		},
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	payload := decoded["payload"].(map[string]any)
	layers := payload["layers"].(map[string]any)
	if decoded["seq"] != float64(3) || decoded["type"] != PatchLayersChanged {
		t.Errorf("Unexpected envelope %v", decoded)
	}
	if layers["blockCountLabels"] != true || layers["unitPolygons"] != false {
		t.Errorf("Unexpected layers %v", layers)
	}
}
