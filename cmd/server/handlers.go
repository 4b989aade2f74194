package main

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/Ko-stant/estate-visibility-engine/internal/protocol"
)

// IntentHandlers dispatches websocket intents of one session to its scene
type IntentHandlers struct {
	engine SceneEngine
	load   ProjectLoader
	sink   EventSink
	logger Logger
}

func NewIntentHandlers(engine SceneEngine, load ProjectLoader, sink EventSink, logger Logger) *IntentHandlers {
	return &IntentHandlers{
		engine: engine,
		load:   load,
		sink:   sink,
		logger: logger,
	}
}

// HandleMapReady loads the requested project, then applies the widget's
// initial zoom.
func (h *IntentHandlers) HandleMapReady(ctx context.Context, req protocol.MapReady) error {
	p, ok := h.load(ctx, req.Project)
	if err := h.engine.Load(req.Project, p, ok); err != nil {
		h.logger.Printf("Load %s failed: %v", req.Project, err)
		return err
	}
	return h.engine.OnZoomEnd(req.Zoom)
}

func (h *IntentHandlers) HandleWebSocketMessage(ctx context.Context, data []byte) error {
	env, err := protocol.DecodeIntent(data)
	if err != nil {
		return h.reject(err)
	}

	switch env.Type {
	case protocol.IntentMapReady:
		var req protocol.MapReady
		if err := protocol.DecodePayload(env, &req); err != nil {
			return h.reject(err)
		}
		return h.HandleMapReady(ctx, req)

	case protocol.IntentZoomStart:
		h.engine.OnZoomStart()
		return nil

	case protocol.IntentMoveStart:
		h.engine.OnMoveStart()
		return nil

	case protocol.IntentZoomEnd, protocol.IntentMoveEnd:
		req := protocol.CameraEnd{Zoom: h.engine.Zoom()}
		if err := protocol.DecodePayload(env, &req); err != nil {
			return h.reject(err)
		}
		if env.Type == protocol.IntentZoomEnd {
			return h.engine.OnZoomEnd(req.Zoom)
		}
		return h.engine.OnMoveEnd(req.Zoom)

	case protocol.IntentSetStatusFilter:
		var req protocol.SetStatusFilter
		if err := protocol.DecodePayload(env, &req); err != nil {
			return h.reject(err)
		}
		return h.engine.SetStatusFilter(req.Status)

	case protocol.IntentPickLocation:
		var req protocol.PickLocation
		if err := protocol.DecodePayload(env, &req); err != nil {
			return h.reject(err)
		}
		return h.engine.PickLocation(orb.Point{req.Lng, req.Lat})

	default:
		h.logger.Printf("Unknown message type: %s", env.Type)
		return nil
	}
}

// reject reports a malformed intent to the client and returns it as an
// EngineError.
func (h *IntentHandlers) reject(err error) error {
	e := &EngineError{Code: CodeInvalidIntent, Message: err.Error()}
	if sendErr := h.sink.SendEvent(protocol.PatchError, protocol.ErrorPatch{Code: e.Code, Message: e.Message}); sendErr != nil {
		return fmt.Errorf("%w (report failed: %v)", e, sendErr)
	}
	return e
}
