package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"time"

	"github.com/paulmach/orb"

	"github.com/Ko-stant/estate-visibility-engine/internal/geometry"
	"github.com/Ko-stant/estate-visibility-engine/internal/metrics"
	"github.com/Ko-stant/estate-visibility-engine/internal/protocol"
)

// ProfilingConfig holds configuration for profiling
type ProfilingConfig struct {
	Enabled bool
	Port    string
}

// StartProfiling starts the profiling server and sets up profiling
func StartProfiling(config ProfilingConfig) {
	if !config.Enabled {
		return
	}

	// Set up runtime profiling parameters
	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)

	if config.Port != "" {
		go func() {
			log.Printf("Starting pprof server on :%s", config.Port)
			log.Printf("CPU profile: http://localhost:%s/debug/pprof/profile", config.Port)
			log.Printf("Heap profile: http://localhost:%s/debug/pprof/heap", config.Port)
			log.Printf("Mutex profile: http://localhost:%s/debug/pprof/mutex", config.Port)

			if err := http.ListenAndServe(":"+config.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}
}

// GetProfilingConfigFromEnv creates profiling config from environment variables
func GetProfilingConfigFromEnv() ProfilingConfig {
	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = "42069"
	}
	return ProfilingConfig{
		Enabled: os.Getenv("ENABLE_PROFILING") == "true",
		Port:    port,
	}
}

// InstrumentedSceneEngine wraps SceneEngine with per-intent timing
type InstrumentedSceneEngine struct {
	engine SceneEngine
}

func NewInstrumentedSceneEngine(engine SceneEngine) *InstrumentedSceneEngine {
	return &InstrumentedSceneEngine{engine: engine}
}

func observe(intent string, start time.Time) {
	metrics.IntentDuration.WithLabelValues(intent).Observe(time.Since(start).Seconds())
}

func (ie *InstrumentedSceneEngine) Load(document string, p *geometry.Project, dataAvailable bool) error {
	defer observe(protocol.IntentMapReady, time.Now())
	return ie.engine.Load(document, p, dataAvailable)
}

func (ie *InstrumentedSceneEngine) OnZoomStart() {
	defer observe(protocol.IntentZoomStart, time.Now())
	ie.engine.OnZoomStart()
}

func (ie *InstrumentedSceneEngine) OnZoomEnd(zoom float64) error {
	defer observe(protocol.IntentZoomEnd, time.Now())
	return ie.engine.OnZoomEnd(zoom)
}

func (ie *InstrumentedSceneEngine) OnMoveStart() {
	defer observe(protocol.IntentMoveStart, time.Now())
	ie.engine.OnMoveStart()
}

func (ie *InstrumentedSceneEngine) OnMoveEnd(zoom float64) error {
	defer observe(protocol.IntentMoveEnd, time.Now())
	return ie.engine.OnMoveEnd(zoom)
}

func (ie *InstrumentedSceneEngine) SetStatusFilter(status string) error {
	defer observe(protocol.IntentSetStatusFilter, time.Now())
	return ie.engine.SetStatusFilter(status)
}

func (ie *InstrumentedSceneEngine) PickLocation(pt orb.Point) error {
	defer observe(protocol.IntentPickLocation, time.Now())
	return ie.engine.PickLocation(pt)
}

func (ie *InstrumentedSceneEngine) Zoom() float64 {
	return ie.engine.Zoom()
}
