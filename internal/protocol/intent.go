package protocol

import (
	"encoding/json"
	"fmt"
)

const (
	IntentMapReady        = "MapReady"
	IntentZoomStart       = "ZoomStart"
	IntentZoomEnd         = "ZoomEnd"
	IntentMoveStart       = "MoveStart"
	IntentMoveEnd         = "MoveEnd"
	IntentSetStatusFilter = "SetStatusFilter"
	IntentPickLocation    = "PickLocation"
)

type IntentEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type MapReady struct {
	Project string  `json:"project"`
	Zoom    float64 `json:"zoom"`
}

// CameraEnd carries the zoom reported when a move or zoom gesture ends.
type CameraEnd struct {
	Zoom float64 `json:"zoom"`
}

type SetStatusFilter struct {
	Status string `json:"status"`
}

type PickLocation struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// DecodeIntent parses an envelope. Payload decoding is left to the handler.
func DecodeIntent(data []byte) (IntentEnvelope, error) {
	var env IntentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return IntentEnvelope{}, fmt.Errorf("failed to parse intent: %w", err)
	}
	if env.Type == "" {
		return IntentEnvelope{}, fmt.Errorf("intent has no type")
	}
	return env, nil
}

// DecodePayload unmarshals env's payload into v. An empty payload leaves v
// untouched.
func DecodePayload(env IntentEnvelope, v any) error {
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", env.Type, err)
	}
	return nil
}
