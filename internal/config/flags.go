package config

import "flag"

var (
	flagConfig           = flag.String("config", "", "Path to config file")
	flagDebug            = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed         = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen       = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth            = flag.Int("width", 0, "Window width")
	flagHeight           = flag.Int("height", 0, "Window height")
	flagMaxBatchVertices = flag.Int("max-batch-vertices", 0, "Vertices per batching layer")
	flagIndexBits        = flag.Int("index-bits", 0, "Index width of batching layers, 16 or 32")
	flagPrecisionPicking = flag.Bool("precision-picking", false, "Keep geometry for precise picking")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagMaxBatchVertices > 0 {
		cfg.Render.MaxBatchVertices = *flagMaxBatchVertices
	}
	if *flagIndexBits == 16 || *flagIndexBits == 32 {
		cfg.Render.IndexBits = *flagIndexBits
	}
	if *flagPrecisionPicking {
		cfg.Render.PrecisionPicking = true
	}
}
