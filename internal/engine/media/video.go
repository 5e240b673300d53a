package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/logger"
)

// Video is a looping frame source.
type Video interface {
	// Ready is closed once playback has started and the playback clock has
	// advanced at least once.
	Ready() <-chan struct{}
	// Frame returns the current frame and a counter that increases every
	// time the frame changes. The image must not be modified.
	Frame() (*image.RGBA, uint64)
	Close() error
}

// Playback notifications.
type event int

const (
	eventPlaying event = iota
	eventTimeUpdate
)

// readiness closes its channel exactly once, after both playback
// notifications have been seen in any order.
type readiness struct {
	mu          sync.Mutex
	playing     bool
	timeUpdated bool
	once        sync.Once
	ch          chan struct{}
}

func newReadiness() *readiness {
	return &readiness{ch: make(chan struct{})}
}

func (r *readiness) notify(ev event) {
	r.mu.Lock()
	switch ev {
	case eventPlaying:
		r.playing = true
	case eventTimeUpdate:
		r.timeUpdated = true
	}
	ready := r.playing && r.timeUpdated
	r.mu.Unlock()

	if ready {
		r.once.Do(func() { close(r.ch) })
	}
}

// Browsers play GIF delays of 0 or 1 centiseconds at this rate.
const defaultFrameDelay = 100 * time.Millisecond

var errNoFrames = errors.New("gif has no frames")

// GIFPlayer plays an animated GIF in a loop on its own goroutine.
type GIFPlayer struct {
	ready  *readiness
	cancel context.CancelFunc
	done   chan struct{}
	log    *zap.Logger

	frames []*image.RGBA
	delays []time.Duration

	mu      sync.Mutex
	current *image.RGBA
	seq     uint64
	err     error
}

// OpenVideo starts loading src and returns immediately. Playback begins
// once the file is fetched and decoded; a failure is logged and the player
// never becomes ready.
func OpenVideo(ctx context.Context, src string) *GIFPlayer {
	ctx, cancel := context.WithCancel(ctx)
	p := newPlayer(cancel)

	go func() {
		defer close(p.done)
		g, err := loadGIF(ctx, src)
		if err == nil {
			err = p.prepare(g)
		}
		if err != nil {
			p.fail(fmt.Errorf("opening video %s: %w", src, err))
			return
		}
		p.log.Info("Video opened",
			zap.String("src", src),
			zap.Int("frames", len(p.frames)),
		)
		p.play(ctx)
	}()
	return p
}

// NewGIFPlayer starts playing an already decoded GIF.
func NewGIFPlayer(ctx context.Context, g *gif.GIF) (*GIFPlayer, error) {
	ctx, cancel := context.WithCancel(ctx)
	p := newPlayer(cancel)
	if err := p.prepare(g); err != nil {
		cancel()
		return nil, err
	}
	go func() {
		defer close(p.done)
		p.play(ctx)
	}()
	return p, nil
}

func newPlayer(cancel context.CancelFunc) *GIFPlayer {
	return &GIFPlayer{
		ready:  newReadiness(),
		cancel: cancel,
		done:   make(chan struct{}),
		log:    logger.Named("video"),
	}
}

func loadGIF(ctx context.Context, src string) (*gif.GIF, error) {
	rc, err := open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return gif.DecodeAll(rc)
}

func (p *GIFPlayer) prepare(g *gif.GIF) error {
	if len(g.Image) == 0 {
		return errNoFrames
	}
	p.frames = composite(g)
	p.delays = make([]time.Duration, len(g.Image))
	for i := range p.delays {
		p.delays[i] = defaultFrameDelay
		if i < len(g.Delay) && g.Delay[i] > 1 {
			p.delays[i] = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
	}
	return nil
}

func (p *GIFPlayer) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	p.log.Warn("Video unavailable", zap.Error(err))
}

func (p *GIFPlayer) play(ctx context.Context) {
	i := 0
	p.publish(i)
	p.ready.notify(eventPlaying)

	timer := time.NewTimer(p.delays[i])
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		i = (i + 1) % len(p.frames)
		p.publish(i)
		p.ready.notify(eventTimeUpdate)
		timer.Reset(p.delays[i])
	}
}

func (p *GIFPlayer) publish(i int) {
	p.mu.Lock()
	p.current = p.frames[i]
	p.seq++
	p.mu.Unlock()
}

// Ready implements Video.
func (p *GIFPlayer) Ready() <-chan struct{} {
	return p.ready.ch
}

// Frame implements Video.
func (p *GIFPlayer) Frame() (*image.RGBA, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.seq
}

// Err returns the load error, if loading failed.
func (p *GIFPlayer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close stops playback and waits for the player goroutine to exit.
func (p *GIFPlayer) Close() error {
	p.cancel()
	<-p.done
	return nil
}

// composite renders every GIF frame onto a full-size canvas, honoring the
// frame disposal methods.
func composite(g *gif.GIF) []*image.RGBA {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = image.Rectangle{}
		for _, pm := range g.Image {
			bounds = bounds.Union(pm.Bounds())
		}
	}

	canvas := image.NewRGBA(bounds)
	frames := make([]*image.RGBA, 0, len(g.Image))
	for i, pm := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var saved *image.RGBA
		if disposal == gif.DisposalPrevious {
			saved = clone(canvas)
		}

		draw.Draw(canvas, pm.Bounds(), pm, pm.Bounds().Min, draw.Over)
		frames = append(frames, ToRGBA(clone(canvas)))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, pm.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return frames
}

func clone(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
