// Package window handles SDL2 window and OpenGL context creation.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/config"
	"github.com/Faultbox/scenebatch/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
}

// Window wraps SDL2 window and OpenGL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
}

// FromConfig builds a window Config from the window section.
func FromConfig(title string, c config.WindowConfig) Config {
	return Config{
		Title:      title,
		Width:      c.Width,
		Height:     c.Height,
		Fullscreen: c.Fullscreen,
		VSync:      c.VSync,
	}
}

// glAttributes requests a 4.1 core context, the newest macOS provides,
// with a double-buffered 24-bit depth surface.
var glAttributes = []struct {
	attr  sdl.GLattr
	value int
}{
	{sdl.GL_CONTEXT_MAJOR_VERSION, 4},
	{sdl.GL_CONTEXT_MINOR_VERSION, 1},
	{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
	{sdl.GL_DOUBLEBUFFER, 1},
	{sdl.GL_DEPTH_SIZE, 24},
}

// New opens an SDL window and makes a GL context current on it.
func New(cfg Config) (*Window, error) {
	logger.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}
	// Attributes only apply to windows created after they are set.
	for _, a := range glAttributes {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			sdl.Quit()
			return nil, fmt.Errorf("SDL_GL_SetAttribute(%d): %w", a.attr, err)
		}
	}

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}
	win, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}
	ctx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		logger.Warn("failed to set swap interval", zap.Int("interval", interval), zap.Error(err))
	}

	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return &Window{config: cfg, sdlWindow: win, glContext: ctx}, nil
}

// Close destroys the window and cleans up SDL2.
func (w *Window) Close() {
	logger.Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}

	sdl.Quit()
}

// SwapBuffers swaps the OpenGL buffers.
func (w *Window) SwapBuffers() {
	w.sdlWindow.GLSwap()
}

// GetSize returns the current window size.
func (w *Window) GetSize() (int, int) {
	width, height := w.sdlWindow.GetSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// Event is what PollEvents reports for one frame.
type Event struct {
	Quit    bool
	Resized bool
	Width   int
	Height  int
	// Key is the last key pressed this frame, 0 if none.
	Key sdl.Keycode
	// Clicked is set with the cursor position of a left click.
	Clicked bool
	X, Y    int
	// DragX and DragY accumulate motion while the right button is held.
	DragX, DragY float64
	// Wheel is the net vertical scroll.
	Wheel float64
}

// PollEvents drains the SDL event queue.
func (w *Window) PollEvents() Event {
	var ev Event
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e := e.(type) {
		case *sdl.QuitEvent:
			ev.Quit = true
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				ev.Resized = true
				ev.Width, ev.Height = int(e.Data1), int(e.Data2)
			}
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN {
				ev.Key = e.Keysym.Sym
				if e.Keysym.Sym == sdl.K_ESCAPE {
					ev.Quit = true
				}
			}
		case *sdl.MouseButtonEvent:
			if e.Type == sdl.MOUSEBUTTONDOWN && e.Button == sdl.BUTTON_LEFT {
				ev.Clicked = true
				ev.X, ev.Y = int(e.X), int(e.Y)
			}
		case *sdl.MouseMotionEvent:
			if e.State&sdl.ButtonRMask() != 0 {
				ev.DragX += float64(e.XRel)
				ev.DragY += float64(e.YRel)
			}
		case *sdl.MouseWheelEvent:
			ev.Wheel += float64(e.Y)
		}
	}
	return ev
}
