// Package main is an interactive harness that builds a scene on the GL
// driver and times state changes against it.
//
// Keys: x x-ray, h highlight, s select, e edges, v visibility. p saves
// the frame and o the pick buffer. A left click selects the object under
// the cursor. Right drag orbits and the wheel zooms.
//
// The harness draws no pick pass of its own, so the pick buffer stays
// clear and clicks resolve by casting a ray through the model. When a
// pick pass has drawn under the cursor the hit is refined on that mesh
// instead.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/config"
	"github.com/Faultbox/scenebatch/internal/engine/camera"
	"github.com/Faultbox/scenebatch/internal/engine/debug"
	"github.com/Faultbox/scenebatch/internal/engine/renderer"
	"github.com/Faultbox/scenebatch/internal/engine/scene"
	"github.com/Faultbox/scenebatch/internal/engine/window"
	"github.com/Faultbox/scenebatch/internal/logger"
	"github.com/Faultbox/scenebatch/internal/scenefile"
)

var (
	flagScene     = flag.String("scene", "", "Scene file to load instead of a grid")
	flagGrid      = flag.Int("grid", 64, "Boxes per side of the generated grid")
	flagInstanced = flag.Bool("instanced", false, "Share one box geometry across the grid")
	flagBounds    = flag.Bool("bounds", false, "Add a bounding box overlay per object")
	flagShots     = flag.String("screenshots", "screenshots", "Directory for saved frames")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("scenebench failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("scenebench closed normally")
}

func loadScene() (*scenefile.File, error) {
	if *flagScene != "" {
		return scenefile.Load(*flagScene)
	}
	return scenefile.Grid(*flagGrid, 2, *flagInstanced), nil
}

func run(cfg *config.Config) error {
	win, err := window.New(window.FromConfig("scenebench", cfg.Window))
	if err != nil {
		return err
	}
	defer win.Close()

	width, height := win.GetSize()
	r, err := renderer.New(renderer.Config{Width: width, Height: height, VSync: cfg.Window.VSync})
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := loadScene()
	if err != nil {
		return err
	}

	start := time.Now()
	m, err := scene.New(f.Options(scene.OptionsFromConfig(r.Driver(), cfg.Render)))
	if err != nil {
		return err
	}
	defer m.Destroy()
	if err := f.Apply(m); err != nil {
		return err
	}
	if *flagBounds {
		if _, err := debug.AddBoundsOverlay(m, m.Objects(), [3]float32{1, 1, 0}, 0.05); err != nil {
			return err
		}
	}
	if err := m.Build(); err != nil {
		return err
	}
	logger.Info("scene built",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("objects", m.NumObjects()),
		zap.Int("layers", m.NumLayers()),
		zap.Int("triangles", m.NumTriangles()),
	)

	cam := camera.NewOrbitCamera()
	cam.FitToBounds(m.AABB())

	b := &bench{
		model:    m,
		renderer: r,
		camera:   cam,
		shots:    debug.NewScreenshotCapture(*flagShots, "scenebench"),
		width:    width,
		height:   height,
	}
	for {
		ev := win.PollEvents()
		if ev.Quit {
			return nil
		}
		if ev.Resized {
			r.Resize(ev.Width, ev.Height)
			b.width, b.height = ev.Width, ev.Height
		}

		r.Begin()
		r.End()

		if ev.Key != 0 {
			b.key(ev.Key)
		}
		if ev.Clicked {
			b.click(ev.X, ev.Y)
		}
		if ev.Key != 0 || ev.Clicked {
			win.SetTitle(b.title())
		}
		if ev.DragX != 0 || ev.DragY != 0 {
			cam.HandleDrag(ev.DragX, ev.DragY)
		}
		if ev.Wheel != 0 {
			cam.HandleZoom(ev.Wheel)
		}
		win.SwapBuffers()
	}
}

// bench tracks the toggles applied to the whole model.
type bench struct {
	model         *scene.Model
	renderer      *renderer.Renderer
	camera        *camera.OrbitCamera
	shots         *debug.ScreenshotCapture
	width, height int

	xrayed, highlighted, selected, edges bool
	hidden                               bool
}

func (b *bench) title() string {
	c := b.model.Counters()
	return fmt.Sprintf("scenebench: %d visible, %d selected, %d x-rayed of %d",
		c.Visible, c.Selected, c.XRayed, c.Portions)
}

func (b *bench) toggle(name string, state *bool, set func(bool) error) {
	*state = !*state
	start := time.Now()
	if err := set(*state); err != nil {
		logger.Warn("toggle failed", zap.String("state", name), zap.Error(err))
		return
	}
	flags := b.model.RenderFlags()
	logger.Info("toggled",
		zap.String("state", name),
		zap.Bool("on", *state),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("visibleLayers", len(flags.VisibleLayerIndices())),
	)
}

func (b *bench) key(k sdl.Keycode) {
	m := b.model
	switch k {
	case sdl.K_x:
		b.toggle("xrayed", &b.xrayed, m.SetXRayed)
	case sdl.K_h:
		b.toggle("highlighted", &b.highlighted, m.SetHighlighted)
	case sdl.K_s:
		b.toggle("selected", &b.selected, m.SetSelected)
	case sdl.K_e:
		b.toggle("edges", &b.edges, m.SetEdges)
	case sdl.K_v:
		b.toggle("hidden", &b.hidden, func(on bool) error { return m.SetVisible(!on) })
	case sdl.K_p:
		b.save(debug.FramebufferImage(b.renderer.ReadFramebuffer()))
	case sdl.K_o:
		b.save(debug.PickImage(b.renderer.ReadPickBuffer()))
	}
}

func (b *bench) save(img *image.RGBA, err error) {
	if err == nil {
		var path string
		if path, err = b.shots.Capture(img); err == nil {
			logger.Info("saved frame", zap.String("path", path))
			return
		}
	}
	logger.Warn("screenshot failed", zap.Error(err))
}

// click resolves the pick buffer first and falls back to casting a ray
// through the scene.
func (b *bench) click(x, y int) {
	ray := b.camera.Ray(x, y, b.width, b.height)
	start := time.Now()
	res, ok := b.model.Pick(b.renderer.ReadPickID(x, y), ray)
	if !ok || res.Mesh.Object() == nil {
		logger.Debug("nothing picked", zap.Int("x", x), zap.Int("y", y))
		return
	}
	mesh, obj := res.Mesh, res.Mesh.Object()
	if err := obj.SetSelected(!obj.Selected()); err != nil {
		logger.Warn("select failed", zap.String("object", obj.ID()), zap.Error(err))
		return
	}
	logger.Info("picked",
		zap.String("object", obj.ID()),
		zap.String("mesh", mesh.ID()),
		zap.Bool("surface", res.Surface),
		zap.Float64s("point", res.Point[:]),
		zap.Bool("selected", obj.Selected()),
		zap.Duration("elapsed", time.Since(start)),
	)
}
