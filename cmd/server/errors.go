package main

import "fmt"

const (
	CodeDataUnavailable = "data_unavailable"
	CodeGeometryBuild   = "geometry_build_failure"
	CodeRenderCallback  = "render_callback_failure"
	CodeInvalidIntent   = "invalid_intent"
)

// EngineError represents a recovered engine failure reported to the client
type EngineError struct {
	Code    string
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}
