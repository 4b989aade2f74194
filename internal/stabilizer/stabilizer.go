package stabilizer

import (
	"fmt"
	"sync"
	"time"

	"github.com/Ko-stant/estate-visibility-engine/internal/metrics"
)

// State of the settle machine.
type State int

const (
	Idle State = iota
	Moving
	Stabilizing
)

func (s State) String() string {
	switch s {
	case Moving:
		return "moving"
	case Stabilizing:
		return "stabilizing"
	default:
		return "idle"
	}
}

// RenderFunc performs one forced render pass. frame counts from 0 within a
// burst.
type RenderFunc func(frame int) error

type Logger interface {
	Printf(format string, v ...interface{})
}

type Config struct {
	SettleDelay   time.Duration
	BurstFrames   int
	FrameInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		SettleDelay:   100 * time.Millisecond,
		BurstFrames:   5,
		FrameInterval: 16670 * time.Microsecond,
	}
}

// Stabilizer issues a short burst of forced renders once a camera gesture
// ends so that the html label layer catches up with the 3D camera. A new
// gesture cancels any pending settle wait or burst.
type Stabilizer struct {
	mu      sync.Mutex
	cfg     Config
	sched   Scheduler
	render  RenderFunc
	logger  Logger
	state   State
	gen     uint64
	pending []Timer
	done    int
	stopped bool

	rendered uint64
	failed   uint64
}

func New(cfg Config, sched Scheduler, render RenderFunc, logger Logger) *Stabilizer {
	if cfg.BurstFrames <= 0 {
		cfg.BurstFrames = DefaultConfig().BurstFrames
	}
	if sched == nil {
		sched = RealScheduler{}
	}
	return &Stabilizer{cfg: cfg, sched: sched, render: render, logger: logger}
}

func (s *Stabilizer) MoveStart() { s.start("move") }
func (s *Stabilizer) ZoomStart() { s.start("zoom") }
func (s *Stabilizer) MoveEnd()   { s.end("move") }
func (s *Stabilizer) ZoomEnd()   { s.end("zoom") }

func (s *Stabilizer) start(cause string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.state == Stabilizing {
		s.logger.Printf("%s start during settle, cancelling %d pending timers", cause, len(s.pending))
	}
	s.cancelLocked()
	s.state = Moving
}

func (s *Stabilizer) end(cause string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelLocked()
	s.state = Stabilizing
	gen := s.gen
	s.pending = append(s.pending, s.sched.AfterFunc(s.cfg.SettleDelay, func() { s.settle(gen) }))
	s.logger.Printf("%s end, settling in %s", cause, s.cfg.SettleDelay)
}

// cancelLocked invalidates every outstanding callback. Stopping a timer can
// race with its firing, so callbacks also compare generations.
func (s *Stabilizer) cancelLocked() {
	for _, t := range s.pending {
		t.Stop()
	}
	s.pending = nil
	s.done = 0
	s.gen++
}

func (s *Stabilizer) settle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.pending = s.pending[:0]
	for i := 0; i < s.cfg.BurstFrames; i++ {
		frame := i
		d := time.Duration(i) * s.cfg.FrameInterval
		s.pending = append(s.pending, s.sched.AfterFunc(d, func() { s.frame(gen, frame) }))
	}
}

func (s *Stabilizer) frame(gen uint64, frame int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	err := s.safeRender(frame)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered++
	metrics.ForcedRendersTotal.Inc()
	if err != nil {
		s.failed++
		metrics.RenderFailuresTotal.Inc()
		s.logger.Printf("settle frame %d failed: %v", frame, err)
	}
	if gen != s.gen {
		return
	}
	s.done++
	if s.done >= s.cfg.BurstFrames {
		s.pending = nil
		s.done = 0
		s.state = Idle
	}
}

func (s *Stabilizer) safeRender(frame int) (err error) {
	if s.render == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()
	return s.render(frame)
}

func (s *Stabilizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns the number of forced frames run and how many failed.
func (s *Stabilizer) Stats() (rendered, failed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered, s.failed
}

// Stop cancels pending work and ignores later events.
func (s *Stabilizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.state = Idle
	s.stopped = true
}
