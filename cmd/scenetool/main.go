// scenetool is a CLI utility for building scene files and reporting how
// they batch into layers.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Faultbox/scenebatch/internal/config"
	"github.com/Faultbox/scenebatch/internal/engine/debug"
	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	"github.com/Faultbox/scenebatch/internal/engine/scene"
	"github.com/Faultbox/scenebatch/internal/logger"
	"github.com/Faultbox/scenebatch/internal/scenefile"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "stats", "info":
		cmdStats(args)
	case "grid":
		cmdGrid(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - scene batching utility

Usage:
  scenetool <command> [options]

Commands:
  stats <scene.yaml>        Build a scene file and show layer statistics
  grid <n>                  Generate an n×n grid of boxes

Examples:
  scenetool stats -layers scene.yaml
  scenetool grid -instanced -o grid.yaml 32
  scenetool grid -bounds 8`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// setup loads the config and starts a quiet logger.
func setup() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fail("config: %v", err)
	}
	if err := logger.Init("warn", cfg.Logging.LogFile); err != nil {
		fail("logger: %v", err)
	}
	return cfg
}

// build replays f into a model backed by a memory driver.
func build(cfg *config.Config, f *scenefile.File, bounds bool) (*scene.Model, error) {
	opts := f.Options(scene.OptionsFromConfig(gpu.NewMemoryDriver(), cfg.Render))
	m, err := scene.New(opts)
	if err != nil {
		return nil, err
	}
	if err := f.Apply(m); err != nil {
		return nil, err
	}
	if bounds {
		if _, err := debug.AddBoundsOverlay(m, m.Objects(), [3]float32{1, 1, 0}, 0.05); err != nil {
			return nil, err
		}
	}
	if err := m.Build(); err != nil {
		return nil, err
	}
	return m, nil
}

func cmdStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	layers := fs.Bool("layers", false, "List every layer")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool stats [-layers] <scene.yaml>")
		os.Exit(1)
	}

	cfg := setup()
	defer logger.Sync()

	f, err := scenefile.Load(fs.Arg(0))
	if err != nil {
		fail("%v", err)
	}
	start := time.Now()
	m, err := build(cfg, f, false)
	if err != nil {
		fail("%v", err)
	}
	defer m.Destroy()

	fmt.Printf("Scene:   %s\n", fs.Arg(0))
	fmt.Printf("Built:   %s\n", time.Since(start).Round(time.Microsecond))
	printStats(os.Stdout, m, *layers)
}

func cmdGrid(args []string) {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	instanced := fs.Bool("instanced", false, "Share one box geometry")
	spacing := fs.Float64("spacing", 2, "Distance between boxes")
	bounds := fs.Bool("bounds", false, "Add a bounding box overlay per object")
	output := fs.String("o", "", "Write the scene file instead of building it")
	layers := fs.Bool("layers", false, "List every layer")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool grid [options] <n>")
		os.Exit(1)
	}
	n, err := strconv.Atoi(fs.Arg(0))
	if err != nil || n <= 0 {
		fail("grid size must be a positive integer, got %q", fs.Arg(0))
	}

	f := scenefile.Grid(n, *spacing, *instanced)
	if *output != "" {
		data, err := f.Marshal()
		if err != nil {
			fail("%v", err)
		}
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fail("writing %s: %v", *output, err)
		}
		fmt.Printf("Wrote: %s (%d objects)\n", *output, len(f.Objects))
		return
	}

	cfg := setup()
	defer logger.Sync()

	start := time.Now()
	m, err := build(cfg, f, *bounds)
	if err != nil {
		fail("%v", err)
	}
	defer m.Destroy()

	fmt.Printf("Grid:    %d×%d\n", n, n)
	fmt.Printf("Built:   %s\n", time.Since(start).Round(time.Microsecond))
	printStats(os.Stdout, m, *layers)
}

func printStats(w io.Writer, m *scene.Model, layers bool) {
	box := m.AABB()
	fmt.Fprintf(w, "Objects: %d\n", m.NumObjects())
	fmt.Fprintf(w, "Meshes:  %d\n", m.NumMeshes())
	fmt.Fprintf(w, "Layers:  %d\n", m.NumLayers())
	fmt.Fprintf(w, "Prims:   %d triangles, %d lines, %d points\n", m.NumTriangles(), m.NumLines(), m.NumPoints())
	fmt.Fprintf(w, "Bounds:  %.3f → %.3f\n", box.Min(), box.Max())

	if !layers {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  #    kind        primitive  portions  vertices  indices  texture set")
	for _, l := range m.Layers() {
		kind := "batching"
		if l.Instancing() {
			kind = "instancing"
		}
		ts := l.TextureSetID()
		if ts == "" {
			ts = "-"
		}
		fmt.Fprintf(w, "  %-4d %-11s %-10s %8d  %8d  %7d  %s\n",
			l.Index(), kind, l.Primitive(), l.NumPortions(), l.NumVertices(), l.NumIndices(), ts)
	}
}
