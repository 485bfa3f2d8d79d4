// Package sched drives the chart frame loop and collects frame metrics.
package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// defaultFPS is used when no target rate is configured.
const defaultFPS = 60

// Config configures a Scheduler.
type Config struct {
	// TargetFPS is the frame rate the loop ticks at. Zero means 60.
	TargetFPS int
	// Render produces one frame and returns the GPU wait time.
	// Called on the loop goroutine, or on the caller's goroutine for
	// TickOnce. Never called concurrently with itself.
	Render func() (time.Duration, error)
	// OnError receives render errors from the loop. Optional.
	OnError func(error)
}

// Scheduler runs the frame loop for one chart.
//
// While the loop is running, a frame is rendered only when the chart has
// been marked dirty since the last frame; clean ticks are skipped.
// TickOnce renders unconditionally, whether or not the loop is running.
type Scheduler struct {
	render  func() (time.Duration, error)
	onError func(error)

	mu       sync.Mutex
	interval time.Duration
	running  bool
	quit     chan struct{}
	rateCh   chan time.Duration
	wg       sync.WaitGroup

	dirty atomic.Bool

	// frameMu serializes renders and guards the metrics ring.
	frameMu   sync.Mutex
	lastFrame time.Time
	hasLast   bool
	ring      frameRing
}

// New creates a stopped scheduler.
func New(cfg Config) *Scheduler {
	fps := cfg.TargetFPS
	if fps <= 0 {
		fps = defaultFPS
	}
	return &Scheduler{
		render:   cfg.Render,
		onError:  cfg.OnError,
		interval: time.Second / time.Duration(fps),
		rateCh:   make(chan time.Duration, 1),
	}
}

// Start launches the loop goroutine. Starting a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.quit = make(chan struct{})
	s.wg.Add(1)
	go s.loop(s.quit, s.interval)
	slogger().Debug("sched: loop started", "interval", s.interval)
}

// Stop halts the loop and waits for the goroutine to exit. Stopping a
// stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.quit)
	s.mu.Unlock()

	s.wg.Wait()
	slogger().Debug("sched: loop stopped")
}

// Running reports whether the loop goroutine is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// MarkDirty requests a render on the next tick. Multiple marks between
// ticks coalesce into a single frame.
func (s *Scheduler) MarkDirty() {
	s.dirty.Store(true)
}

// Dirty reports whether a render is pending.
func (s *Scheduler) Dirty() bool {
	return s.dirty.Load()
}

// TickOnce renders one frame immediately on the calling goroutine,
// regardless of the dirty flag, and returns the render error.
func (s *Scheduler) TickOnce() error {
	return s.renderFrame()
}

// SetTargetFPS changes the loop rate. Takes effect on the next tick when
// the loop is running.
func (s *Scheduler) SetTargetFPS(fps int) {
	if fps <= 0 {
		fps = defaultFPS
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = time.Second / time.Duration(fps)
	if s.running {
		select {
		case <-s.rateCh:
		default:
		}
		s.rateCh <- s.interval
	}
}

// Metrics returns a snapshot of frame statistics.
func (s *Scheduler) Metrics() Metrics {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.ring.snapshot()
}

func (s *Scheduler) loop(quit chan struct{}, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case newInterval := <-s.rateCh:
			ticker.Reset(newInterval)
		case <-ticker.C:
			if !s.dirty.Load() {
				continue
			}
			if err := s.renderFrame(); err != nil {
				if s.onError != nil {
					s.onError(err)
				} else {
					slogger().Error("sched: render failed", "err", err)
				}
			}
		}
	}
}

// renderFrame runs one render and records its timing. The dirty flag is
// cleared before rendering so marks made during the render schedule the
// next frame instead of being lost.
func (s *Scheduler) renderFrame() error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if s.render == nil {
		s.dirty.Store(false)
		return nil
	}
	s.dirty.Store(false)

	now := time.Now()
	var delta time.Duration
	if s.hasLast {
		delta = now.Sub(s.lastFrame)
	}
	s.lastFrame = now
	s.hasLast = true

	gpuTime, err := s.render()
	if err != nil {
		return err
	}

	s.mu.Lock()
	interval := s.interval
	s.mu.Unlock()
	dropped := delta > interval*3/2
	s.ring.record(delta, gpuTime, dropped)
	return nil
}
