// Package window creates the native window and OpenGL context the tour
// renders into. Two backends are available: SDL2 and GLFW.
package window

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/engine/input"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Backend names.
const (
	BackendSDL  = "sdl"
	BackendGLFW = "glfw"
)

var (
	// ErrGraphicsDisabled means the video subsystem is present but could not
	// be initialized, e.g. no display or a disabled video driver.
	ErrGraphicsDisabled = errors.New("graphics disabled: video subsystem could not be initialized")
	// ErrGraphicsUnsupported means no OpenGL profile could be created.
	ErrGraphicsUnsupported = errors.New("graphics unsupported: no OpenGL context could be created")
)

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Backend    string
}

// Profile is an OpenGL context version. Only core profiles are requested.
type Profile struct {
	Major, Minor int
}

func (p Profile) String() string {
	return fmt.Sprintf("%d.%d core", p.Major, p.Minor)
}

// Profiles is the ordered list of contexts tried; the first one that can
// be created wins.
var Profiles = []Profile{
	{4, 1},
	{4, 0},
	{3, 3},
}

// Window is a native window with a current OpenGL context.
type Window interface {
	// Size returns the logical window size.
	Size() (width, height int)
	// DrawableSize returns the backing framebuffer size in pixels.
	DrawableSize() (width, height int)
	// PollEvents translates pending native events into in and reports
	// whether the window was asked to close.
	PollEvents(in *input.Input) bool
	SwapBuffers()
	// Profile returns the context version that was created.
	Profile() Profile
	Close()
}

// New opens a window with the configured backend.
func New(cfg Config) (Window, error) {
	switch cfg.Backend {
	case "", BackendSDL:
		w, err := newSDL(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	case BackendGLFW:
		w, err := newGLFW(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown window backend %q", cfg.Backend)
	}
}

// acquire calls create for each profile in order and returns the first
// that succeeds. When all fail the error wraps ErrGraphicsUnsupported and
// the last backend error.
func acquire(profiles []Profile, log *zap.Logger, create func(Profile) error) (Profile, error) {
	var last error
	for _, p := range profiles {
		err := create(p)
		if err == nil {
			return p, nil
		}
		log.Debug("Context profile unavailable",
			zap.Stringer("profile", p),
			zap.Error(err),
		)
		last = err
	}
	if last == nil {
		return Profile{}, ErrGraphicsUnsupported
	}
	return Profile{}, fmt.Errorf("%w: %v", ErrGraphicsUnsupported, last)
}
