package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gltour/internal/engine/debug"
	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/engine/gpu/gputest"
	"github.com/Faultbox/gltour/internal/engine/input"
	"github.com/Faultbox/gltour/internal/engine/transform"
)

// fakeSurface replays scripted events, one slice per frame.
type fakeSurface struct {
	mu        sync.Mutex
	width     int
	height    int
	drawW     int
	drawH     int
	script    [][]input.Event
	quitAfter int // frames before asking to close; 0 never
	polls     int
	swapDelay time.Duration
	swaps     atomic.Int64
}

func newFakeSurface(w, h int) *fakeSurface {
	return &fakeSurface{width: w, height: h, drawW: w, drawH: h}
}

func (s *fakeSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *fakeSurface) DrawableSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawW, s.drawH
}

func (s *fakeSurface) PollEvents(in *input.Input) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if len(s.script) > 0 {
		for _, e := range s.script[0] {
			in.Push(e)
		}
		s.script = s.script[1:]
	}
	return s.quitAfter > 0 && s.polls > s.quitAfter
}

func (s *fakeSurface) SwapBuffers() {
	time.Sleep(s.swapDelay)
	s.swaps.Add(1)
}

func (s *fakeSurface) resize(w, h, drawW, drawH int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height, s.drawW, s.drawH = w, h, drawW, drawH
}

// fakeScene records the frames it was asked to draw.
type fakeScene struct {
	refreshes int
	frames    []transform.Frame
	dev       *gputest.Device
}

func (s *fakeScene) Refresh() {
	s.refreshes++
}

func (s *fakeScene) Draw(dev gpu.Device, f transform.Frame) {
	s.frames = append(s.frames, f)
	// The clear must already have happened when drawing.
	if s.dev != nil && len(s.dev.Clears) != len(s.frames) {
		panic("draw before clear")
	}
}

func newDriver(surface Surface) (*Driver, *gputest.Device, *fakeScene) {
	dev := gputest.New()
	scn := &fakeScene{dev: dev}
	d := New(dev, surface, scn, transform.New(transform.Options{MultiAxis: true}), Options{
		Clear: gpu.Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
	})
	return d, dev, scn
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFrameSequence(t *testing.T) {
	surface := newFakeSurface(800, 600)
	d, dev, scn := newDriver(surface)

	require.True(t, d.Frame(t0))
	require.True(t, d.Frame(t0.Add(16*time.Millisecond)))

	require.Len(t, dev.Clears, 2)
	assert.Equal(t, gputest.ClearCall{Color: gpu.Color{R: 0.2, G: 0.2, B: 0.2, A: 1}, Depth: 1}, dev.Clears[0])
	assert.True(t, dev.DepthTest)
	assert.Equal(t, gpu.DepthLessEqual, dev.Depth)
	assert.Equal(t, 2, scn.refreshes)
	assert.Equal(t, int64(2), surface.swaps.Load())
	assert.Equal(t, uint64(2), d.Frames())

	// The first frame has no previous timestamp.
	assert.Zero(t, scn.frames[0].Rotation)
	assert.InDelta(t, 0.016, scn.frames[1].Rotation, 1e-9)
	assert.Equal(t, transform.Projection(800.0/600.0), scn.frames[1].Projection)
}

func TestViewportResyncsOnlyOnChange(t *testing.T) {
	surface := newFakeSurface(800, 600)
	d, dev, _ := newDriver(surface)

	now := t0
	for i := 0; i < 3; i++ {
		d.Frame(now)
		now = now.Add(16 * time.Millisecond)
	}
	assert.Equal(t, 1, dev.ViewportCalls)
	assert.Equal(t, [4]int32{0, 0, 800, 600}, dev.ViewportRect)

	// HiDPI: logical size unchanged, backing doubled.
	surface.resize(800, 600, 1600, 1200)
	d.Frame(now)
	d.Frame(now.Add(16 * time.Millisecond))
	assert.Equal(t, 2, dev.ViewportCalls)
	assert.Equal(t, [4]int32{0, 0, 1600, 1200}, dev.ViewportRect)
}

func TestAspectUsesLogicalSize(t *testing.T) {
	surface := newFakeSurface(1000, 500)
	surface.resize(1000, 500, 2000, 1000)
	d, _, scn := newDriver(surface)

	d.Frame(t0)
	assert.Equal(t, transform.Projection(2), scn.frames[0].Projection)

	surface.resize(0, 0, 0, 0) // minimized
	d.Frame(t0.Add(time.Millisecond))
	assert.Equal(t, transform.Projection(1), scn.frames[1].Projection)
}

func TestRotationNeverDecreases(t *testing.T) {
	d, _, scn := newDriver(newFakeSurface(640, 480))

	times := []time.Duration{0, 10, 20, 15, 40} // clock steps back once
	for _, ms := range times {
		d.Frame(t0.Add(ms * time.Millisecond))
	}
	for i := 1; i < len(scn.frames); i++ {
		assert.GreaterOrEqual(t, scn.frames[i].Rotation, scn.frames[i-1].Rotation)
	}
}

func TestEscapeStops(t *testing.T) {
	surface := newFakeSurface(640, 480)
	surface.script = [][]input.Event{
		nil,
		{{Type: input.EventKeyDown, Key: input.KeyEscape}},
	}
	d, dev, _ := newDriver(surface)

	assert.True(t, d.Frame(t0))
	assert.False(t, d.Frame(t0.Add(time.Millisecond)))
	assert.Equal(t, Stopped, d.State())
	assert.Len(t, dev.Clears, 1, "no drawing on the quitting frame")

	assert.False(t, d.Frame(t0.Add(2*time.Millisecond)))
	assert.Len(t, dev.Clears, 1)
}

func TestQuitEventStops(t *testing.T) {
	surface := newFakeSurface(640, 480)
	surface.script = [][]input.Event{
		{{Type: input.EventWindowResize, Width: 320, Height: 240}},
		{{Type: input.EventQuit}},
	}
	d, dev, _ := newDriver(surface)

	assert.True(t, d.Frame(t0), "a resize alone keeps running")
	assert.False(t, d.Frame(t0.Add(time.Millisecond)))
	assert.Equal(t, Stopped, d.State())
	assert.Len(t, dev.Clears, 1)
}

func TestPausedReadableWhileRunning(t *testing.T) {
	surface := newFakeSurface(640, 480)
	surface.swapDelay = time.Millisecond
	space := []input.Event{{Type: input.EventKeyDown, Key: input.KeySpace}}
	surface.script = [][]input.Event{space, nil, space, nil, space}
	d, _, _ := newDriver(surface)

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	for d.Frames() < 6 {
		_ = d.Paused()
		time.Sleep(time.Millisecond)
	}
	assert.True(t, d.Paused(), "three toggles leave rotation paused")

	d.Stop()
	require.NoError(t, <-done)
}

func TestSpacePausesRotation(t *testing.T) {
	surface := newFakeSurface(640, 480)
	space := []input.Event{{Type: input.EventKeyDown, Key: input.KeySpace}}
	surface.script = [][]input.Event{nil, nil, space, nil, space, nil}
	d, _, scn := newDriver(surface)

	for i := 0; i < 6; i++ {
		d.Frame(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	rot := func(i int) float64 { return scn.frames[i].Rotation }
	assert.InDelta(t, 0.1, rot(1), 1e-9)
	assert.Equal(t, rot(1), rot(2), "paused")
	assert.Equal(t, rot(2), rot(3))
	assert.InDelta(t, rot(3)+0.1, rot(4), 1e-9, "resumed without a jump")
	assert.InDelta(t, rot(3)+0.2, rot(5), 1e-9)
	assert.False(t, d.Paused())
}

func TestScreenshotOnF12(t *testing.T) {
	surface := newFakeSurface(2, 1)
	surface.script = [][]input.Event{{{Type: input.EventKeyDown, Key: input.KeyF12}}}

	dir := t.TempDir()
	dev := gputest.New()
	d := New(dev, surface, &fakeScene{}, transform.New(transform.Options{}), Options{
		Screenshots: debug.NewScreenshotter(dir, "shot"),
	})
	require.True(t, d.Frame(t0))

	matches, err := filepath.Glob(filepath.Join(dir, "shot_*.png"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	info, err := os.Stat(matches[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunStopsWhenSurfaceCloses(t *testing.T) {
	surface := newFakeSurface(640, 480)
	surface.quitAfter = 5
	d, _, _ := newDriver(surface)
	assert.Equal(t, Idle, d.State())

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, Stopped, d.State())
	assert.Equal(t, uint64(5), d.Frames())

	assert.ErrorIs(t, d.Run(context.Background()), ErrNotIdle)
}

func TestStopFromAnotherGoroutine(t *testing.T) {
	surface := newFakeSurface(640, 480)
	surface.swapDelay = time.Millisecond
	d, _, _ := newDriver(surface)

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	require.Eventually(t, func() bool { return d.Frames() > 3 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, Running, d.State())
	assert.ErrorIs(t, d.Run(context.Background()), ErrNotIdle)

	d.Stop()
	d.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, Stopped, d.State())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	d, _, _ := newDriver(newFakeSurface(640, 480))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, d.Run(ctx))
	assert.Equal(t, Stopped, d.State())
	assert.Zero(t, d.Frames())
}

func TestStopBeforeRun(t *testing.T) {
	d, _, _ := newDriver(newFakeSurface(640, 480))
	d.Stop()
	assert.Equal(t, Stopped, d.State())
	assert.ErrorIs(t, d.Run(context.Background()), ErrNotIdle)
	assert.False(t, d.Frame(t0))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopped", Stopped.String())
}
