// Package renderer owns the OpenGL state of a window and implements the
// gpu.Driver that layers upload through.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/framebuffer"
	"github.com/Faultbox/scenebatch/internal/engine/picking"
	"github.com/Faultbox/scenebatch/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	VSync  bool
}

// Renderer handles frame setup and owns the GL driver.
type Renderer struct {
	config Config
	driver *Driver
	// pick holds pick colors, one id per pixel. Begin clears it; drawing
	// into it is left to a pick pass outside this package.
	pick *framebuffer.Framebuffer
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	pick, err := framebuffer.New(int32(cfg.Width), int32(cfg.Height))
	if err != nil {
		return nil, fmt.Errorf("pick target: %w", err)
	}

	return &Renderer{
		config: cfg,
		driver: NewDriver(),
		pick:   pick,
	}, nil
}

// Driver returns the GL implementation of gpu.Driver.
func (r *Renderer) Driver() *Driver { return r.driver }

// Close reports resources still alive. Models own their buffers and
// destroy them themselves.
func (r *Renderer) Close() {
	r.pick.Destroy()
	buffers, textures := r.driver.Live()
	if buffers > 0 || textures > 0 {
		logger.Warn("closing renderer with live GPU resources",
			zap.Int("buffers", buffers),
			zap.Int("textures", textures),
		)
		return
	}
	logger.Info("closing renderer")
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.pick.Resize(int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	r.pick.Clear()
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.Flush()
}

// ReadPickID reads the pick id rendered at window pixel (x, y), y down.
// Zero means nothing was drawn there, or no pick pass ran this frame.
func (r *Renderer) ReadPickID(x, y int) uint32 {
	return picking.IDFromColor(r.pick.ReadPixel(int32(x), int32(r.config.Height-1-y)))
}

// ReadPickBuffer returns the pick target's pixels, bottom row first. It is
// all zero unless a pick pass drew into the target.
func (r *Renderer) ReadPickBuffer() (pixels []byte, width, height int) {
	w, h := r.pick.Size()
	return r.pick.ReadPixels(), int(w), int(h)
}

// ReadFramebuffer returns the RGBA pixels of the current framebuffer,
// bottom row first.
func (r *Renderer) ReadFramebuffer() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}
