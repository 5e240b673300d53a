package window

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/Faultbox/gltour/internal/engine/input"
	"github.com/Faultbox/gltour/internal/logger"
)

// glfwWindow wraps a GLFW window. GLFW reports events through callbacks,
// which are queued here until the next PollEvents.
type glfwWindow struct {
	config  Config
	profile Profile
	win     *glfw.Window
	queued  []input.Event
	log     *zap.Logger
}

func newGLFW(cfg Config) (*glfwWindow, error) {
	w := &glfwWindow{
		config: cfg,
		log:    logger.Named("window"),
	}

	w.log.Info("Initializing GLFW")
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: glfw.Init: %v", ErrGraphicsDisabled, err)
	}

	var monitor *glfw.Monitor
	if cfg.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	profile, err := acquire(Profiles, w.log, func(p Profile) error {
		glfw.DefaultWindowHints()
		glfw.WindowHint(glfw.ContextVersionMajor, p.Major)
		glfw.WindowHint(glfw.ContextVersionMinor, p.Minor)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		glfw.WindowHint(glfw.Resizable, glfw.True)
		glfw.WindowHint(glfw.DoubleBuffer, glfw.True)
		glfw.WindowHint(glfw.DepthBits, 24)

		win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, monitor, nil)
		if err != nil {
			return err
		}
		w.win = win
		return nil
	})
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	w.profile = profile

	w.win.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w.win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		w.queued = append(w.queued, input.Event{
			Type:   input.EventWindowResize,
			Width:  width,
			Height: height,
		})
	})
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			w.queued = append(w.queued, input.Event{Type: input.EventKeyDown, Key: glfwKey(key)})
		case glfw.Release:
			w.queued = append(w.queued, input.Event{Type: input.EventKeyUp, Key: glfwKey(key)})
		}
	})

	w.log.Info("Window created",
		zap.String("backend", BackendGLFW),
		zap.Stringer("profile", profile),
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

func glfwKey(k glfw.Key) input.Key {
	switch k {
	case glfw.KeyEscape:
		return input.KeyEscape
	case glfw.KeyF12:
		return input.KeyF12
	case glfw.KeySpace:
		return input.KeySpace
	default:
		return input.KeyUnknown
	}
}

func (w *glfwWindow) Size() (int, int) {
	return w.win.GetSize()
}

func (w *glfwWindow) DrawableSize() (int, int) {
	return w.win.GetFramebufferSize()
}

func (w *glfwWindow) PollEvents(in *input.Input) bool {
	glfw.PollEvents()
	for _, e := range w.queued {
		in.Push(e)
	}
	w.queued = w.queued[:0]

	if w.win.ShouldClose() {
		in.Push(input.Event{Type: input.EventQuit})
		return true
	}
	return false
}

func (w *glfwWindow) SwapBuffers() {
	w.win.SwapBuffers()
}

func (w *glfwWindow) Profile() Profile {
	return w.profile
}

func (w *glfwWindow) Close() {
	w.log.Info("Closing window")
	if w.win != nil {
		w.win.Destroy()
	}
	glfw.Terminate()
}
