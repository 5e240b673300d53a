// Package driver runs the per-frame loop: poll events, advance the
// transform, refresh the texture, clear, draw and present.
package driver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/engine/debug"
	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/engine/input"
	"github.com/Faultbox/gltour/internal/engine/transform"
	"github.com/Faultbox/gltour/internal/logger"
)

// ErrNotIdle is returned by Run when the driver has already been started
// or stopped.
var ErrNotIdle = errors.New("driver: not idle")

// State is the lifecycle state of a driver.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Surface is the window the driver presents to.
type Surface interface {
	// Size returns the logical size used for the aspect ratio.
	Size() (width, height int)
	// DrawableSize returns the backing size in pixels used for the viewport.
	DrawableSize() (width, height int)
	// PollEvents fills in and reports whether the surface was asked to close.
	PollEvents(in *input.Input) bool
	SwapBuffers()
}

// Scene is the drawable content of a frame.
type Scene interface {
	Refresh()
	Draw(dev gpu.Device, f transform.Frame)
}

// Options configures a driver.
type Options struct {
	Clear gpu.Color
	// FPSLogInterval is how often frame rate is logged at debug level.
	// Zero disables it.
	FPSLogInterval time.Duration
	// Screenshots receives F12 captures; nil disables them.
	Screenshots *debug.Screenshotter
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Driver owns the frame loop of one session.
type Driver struct {
	dev       gpu.Device
	surface   Surface
	scene     Scene
	transform *transform.Transformer
	opts      Options
	input     *input.Input
	log       *zap.Logger

	mu       sync.Mutex
	state    State
	stop     chan struct{}
	stopOnce sync.Once

	last         time.Time
	paused       atomic.Bool
	viewW, viewH int
	frames       atomic.Uint64

	fpsStart  time.Time
	fpsFrames int
}

// New returns an idle driver.
func New(dev gpu.Device, surface Surface, scene Scene, tr *transform.Transformer, opts Options) *Driver {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Driver{
		dev:       dev,
		surface:   surface,
		scene:     scene,
		transform: tr,
		opts:      opts,
		input:     input.New(),
		log:       logger.Named("driver"),
		stop:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Frames returns the number of frames presented.
func (d *Driver) Frames() uint64 {
	return d.frames.Load()
}

// Paused reports whether rotation is frozen.
func (d *Driver) Paused() bool {
	return d.paused.Load()
}

// Run moves the driver from Idle to Running and renders frames until Stop
// is called, ctx is done or the surface asks to close. It returns nil once
// stopped. Run must be called on the thread that owns the graphics context.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.state != Idle {
		d.mu.Unlock()
		return ErrNotIdle
	}
	d.state = Running
	d.mu.Unlock()

	d.log.Info("Frame loop started")
	defer func() {
		d.Stop()
		d.log.Info("Frame loop stopped", zap.Uint64("frames", d.frames.Load()))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.stop:
			return nil
		default:
		}
		if !d.Frame(d.opts.Clock()) {
			return nil
		}
	}
}

// Stop requests the loop to end. It is safe to call from any goroutine
// and more than once. A driver that was never run goes straight to Stopped.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.state = Stopped
		d.mu.Unlock()
		close(d.stop)
	})
}

// Frame runs one loop iteration at time now. It reports false, without
// drawing, once the driver is stopped or the frame's events asked to quit.
func (d *Driver) Frame(now time.Time) bool {
	if d.State() == Stopped {
		return false
	}

	d.input.Reset()
	closing := d.surface.PollEvents(d.input)
	if closing || d.input.QuitRequested() || d.input.KeyPressed(input.KeyEscape) {
		d.Stop()
		return false
	}
	if d.input.KeyPressed(input.KeySpace) {
		paused := !d.paused.Load()
		d.paused.Store(paused)
		d.log.Info("Rotation toggled", zap.Bool("paused", paused))
	}
	if w, h, ok := d.input.Resized(); ok {
		d.log.Debug("Window resized", zap.Int("width", w), zap.Int("height", h))
	}

	var elapsed time.Duration
	if !d.last.IsZero() && !d.paused.Load() {
		elapsed = now.Sub(d.last)
	}
	d.last = now

	d.resync()
	f := d.transform.Step(elapsed, d.aspect())

	d.scene.Refresh()
	d.dev.Clear(d.opts.Clear, 1.0)
	d.dev.EnableDepthTest(gpu.DepthLessEqual)
	d.scene.Draw(d.dev, f)

	if d.input.KeyPressed(input.KeyF12) {
		d.screenshot()
	}

	d.surface.SwapBuffers()
	d.frames.Add(1)
	d.countFPS(now)
	return true
}

// resync updates the viewport when the backing size changed since the
// last applied one.
func (d *Driver) resync() {
	w, h := d.surface.DrawableSize()
	if w == d.viewW && h == d.viewH {
		return
	}
	d.dev.Viewport(0, 0, int32(w), int32(h))
	d.viewW, d.viewH = w, h
	d.log.Debug("Viewport resized", zap.Int("width", w), zap.Int("height", h))
}

// aspect is computed from the logical size so it is independent of the
// display's pixel density.
func (d *Driver) aspect() float32 {
	w, h := d.surface.Size()
	if w <= 0 || h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}

func (d *Driver) screenshot() {
	if d.opts.Screenshots == nil {
		return
	}
	name, err := d.opts.Screenshots.Capture(d.dev, d.viewW, d.viewH)
	if err != nil {
		d.log.Warn("Screenshot failed", zap.Error(err))
		return
	}
	d.log.Info("Screenshot saved", zap.String("file", name))
}

func (d *Driver) countFPS(now time.Time) {
	if d.opts.FPSLogInterval <= 0 {
		return
	}
	if d.fpsStart.IsZero() {
		d.fpsStart = now
		return
	}
	d.fpsFrames++
	if span := now.Sub(d.fpsStart); span >= d.opts.FPSLogInterval {
		d.log.Debug("Frame rate",
			zap.Float64("fps", float64(d.fpsFrames)/span.Seconds()),
			zap.Float64("rotation", d.transform.Rotation()),
		)
		d.fpsStart = now
		d.fpsFrames = 0
	}
}
