package main

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/Ko-stant/estate-visibility-engine/internal/geometry"
)

// EventSink delivers patches to one viewer session
type EventSink interface {
	SendEvent(eventType string, payload interface{}) error
}

// Logger interface for logging abstraction
type Logger interface {
	Printf(format string, v ...interface{})
}

// SequenceGenerator interface for sequence number generation
type SequenceGenerator interface {
	Next() uint64
}

// SceneEngine is the per-session scene the intent handlers drive
type SceneEngine interface {
	Load(document string, p *geometry.Project, dataAvailable bool) error
	OnZoomStart()
	OnZoomEnd(zoom float64) error
	OnMoveStart()
	OnMoveEnd(zoom float64) error
	SetStatusFilter(status string) error
	PickLocation(pt orb.Point) error
	Zoom() float64
}

// ProjectLoader resolves a project name to its data set. ok is false when
// the fallback data set was used.
type ProjectLoader func(ctx context.Context, name string) (p *geometry.Project, ok bool)
