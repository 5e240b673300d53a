// Package app wires one rendering session together: window, device, scene
// and frame driver. Nothing is global; every session owns its resources.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/config"
	"github.com/Faultbox/gltour/internal/demo"
	"github.com/Faultbox/gltour/internal/engine/debug"
	"github.com/Faultbox/gltour/internal/engine/driver"
	"github.com/Faultbox/gltour/internal/engine/gpu"
	"github.com/Faultbox/gltour/internal/engine/gpu/glgpu"
	"github.com/Faultbox/gltour/internal/engine/scene"
	"github.com/Faultbox/gltour/internal/engine/window"
	"github.com/Faultbox/gltour/internal/logger"
)

// Device is a graphics device owned by the session.
type Device interface {
	gpu.Device
	Close()
}

// Backends opens the platform resources of a session.
type Backends struct {
	OpenWindow func(window.Config) (window.Window, error)
	OpenDevice func() (Device, error)
}

// DefaultBackends opens a native window and an OpenGL device.
func DefaultBackends() Backends {
	return Backends{
		OpenWindow: window.New,
		OpenDevice: func() (Device, error) {
			d, err := glgpu.New()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", window.ErrGraphicsUnsupported, err)
			}
			return d, nil
		},
	}
}

// App is one rendering session.
type App struct {
	cfg     *config.Config
	variant demo.Variant
	window  window.Window
	device  Device
	scene   *scene.Scene
	driver  *driver.Driver
	log     *zap.Logger
}

// New builds a session with the native backends.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return NewWithBackends(ctx, cfg, DefaultBackends())
}

// NewWithBackends builds a session in dependency order: window and
// context, device, scene, driver. Anything built before a failure is
// released before returning.
func NewWithBackends(ctx context.Context, cfg *config.Config, b Backends) (*App, error) {
	variant, err := demo.Lookup(cfg.Demo.Variant)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		variant: variant,
		log:     logger.Named("app"),
	}
	a.log.Info("Initializing session",
		zap.String("demo", variant.Name),
		zap.String("backend", cfg.Graphics.Backend),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	a.window, err = b.OpenWindow(window.Config{
		Title:      fmt.Sprintf("%s - %s", cfg.Graphics.Title, variant.Title),
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Backend:    cfg.Graphics.Backend,
	})
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}
	a.log.Info("Graphics context ready", zap.Stringer("profile", a.window.Profile()))

	// Device after window, since the GL context must exist
	a.device, err = b.OpenDevice()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating device: %w", err)
	}

	a.scene, err = scene.Build(ctx, a.device, variant, scene.Assets{
		Image: cfg.Demo.Image,
		Video: cfg.Demo.Video,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("building scene: %w", err)
	}

	a.driver = driver.New(a.device, a.window, a.scene, a.scene.Transform(), driver.Options{
		Clear:          variant.Clear,
		FPSLogInterval: cfg.Demo.FPSLogInterval,
		Screenshots:    debug.NewScreenshotter(cfg.Demo.ScreenshotDir, "gltour"),
	})

	a.log.Info("Session initialized")
	return a, nil
}

// Variant returns the demo being shown.
func (a *App) Variant() demo.Variant {
	return a.variant
}

// Driver returns the session's frame driver.
func (a *App) Driver() *driver.Driver {
	return a.driver
}

// Run renders until the session is stopped.
func (a *App) Run(ctx context.Context) error {
	return a.driver.Run(ctx)
}

// Stop ends Run. Safe from any goroutine.
func (a *App) Stop() {
	if a.driver != nil {
		a.driver.Stop()
	}
}

// Close releases everything in reverse creation order.
func (a *App) Close() {
	a.log.Info("Closing session")

	if a.driver != nil {
		a.driver.Stop()
	}
	if a.scene != nil {
		a.scene.Release(a.device)
		a.scene = nil
	}
	if a.device != nil {
		a.device.Close()
		a.device = nil
	}
	if a.window != nil {
		a.window.Close()
		a.window = nil
	}
}
