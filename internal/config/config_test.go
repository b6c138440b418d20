package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Render defaults
	if cfg.Render.MaxBatchVertices != 5_000_000 {
		t.Errorf("expected 5000000 batch vertices, got %d", cfg.Render.MaxBatchVertices)
	}
	if cfg.Render.IndexBits != 32 {
		t.Errorf("expected 32-bit indices, got %d", cfg.Render.IndexBits)
	}
	if cfg.Render.EdgeThreshold != 10 {
		t.Errorf("expected edge threshold 10, got %f", cfg.Render.EdgeThreshold)
	}
	if cfg.Render.RTCCellSize != 200 {
		t.Errorf("expected rtc cell size 200, got %f", cfg.Render.RTCCellSize)
	}
	if !cfg.Render.Highlight.GlowThrough {
		t.Error("expected highlight to glow through by default")
	}
	if cfg.Render.XRay.FillAlpha != 0.1 {
		t.Errorf("expected xray fill alpha 0.1, got %f", cfg.Render.XRay.FillAlpha)
	}

	// Window defaults
	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
render:
  max_batch_vertices: 65536
  index_bits: 16
  edge_threshold: 20
  precision_picking: true
  highlight:
    fill: true
    fill_alpha: 0.5
    glow_through: false

window:
  width: 1920
  height: 1080
  vsync: false

logging:
  level: "debug"
  log_file: "scenebatch.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Render.MaxBatchVertices != 65536 {
		t.Errorf("expected 65536 batch vertices, got %d", cfg.Render.MaxBatchVertices)
	}
	if cfg.Render.IndexBits != 16 {
		t.Errorf("expected 16-bit indices, got %d", cfg.Render.IndexBits)
	}
	if cfg.Render.EdgeThreshold != 20 {
		t.Errorf("expected edge threshold 20, got %f", cfg.Render.EdgeThreshold)
	}
	if !cfg.Render.PrecisionPicking {
		t.Error("expected precision picking to be enabled")
	}
	if cfg.Render.MaxInstances != 100_000 {
		t.Errorf("unset keys keep defaults, got max instances %d", cfg.Render.MaxInstances)
	}

	mats := cfg.Render.Materials()
	if mats.Highlight.FillAlpha != 0.5 || mats.Highlight.GlowThrough {
		t.Errorf("unexpected highlight material %+v", mats.Highlight)
	}
	if !mats.Selected.GlowThrough {
		t.Error("selected material should keep its default")
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.VSync {
		t.Error("expected vsync to be false")
	}
	if cfg.Logging.LogFile != "scenebatch.log" {
		t.Errorf("expected log file 'scenebatch.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
render:
  max_batch_vertices: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"16-bit indices", func(c *Config) { c.Render.IndexBits = 16 }, false},
		{"bad index width", func(c *Config) { c.Render.IndexBits = 24 }, true},
		{"zero capacity", func(c *Config) { c.Render.MaxInstances = 0 }, true},
		{"edge threshold too large", func(c *Config) { c.Render.EdgeThreshold = 181 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" && filepath.Dir(path) == "." {
		t.Errorf("expected no config in an empty directory, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path != "./config.yaml" {
		t.Errorf("expected ./config.yaml, got %q", path)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Render.IndexBits = 16
	cfg.Window.Width = 640
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if loaded.Render.IndexBits != 16 || loaded.Window.Width != 640 {
		t.Errorf("saved values not restored: %+v", loaded)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "index bits flag",
			setup: func() { *flagIndexBits = 16 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.IndexBits != 16 {
					t.Errorf("expected 16-bit indices, got %d", cfg.Render.IndexBits)
				}
			},
			teardown: func() { *flagIndexBits = 0 },
		},
		{
			name:  "ignored index bits",
			setup: func() { *flagIndexBits = 8 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.IndexBits != 32 {
					t.Errorf("expected default 32-bit indices, got %d", cfg.Render.IndexBits)
				}
			},
			teardown: func() { *flagIndexBits = 0 },
		},
		{
			name: "render flags",
			setup: func() {
				*flagMaxBatchVertices = 1000
				*flagPrecisionPicking = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.MaxBatchVertices != 1000 {
					t.Errorf("expected 1000 batch vertices, got %d", cfg.Render.MaxBatchVertices)
				}
				if !cfg.Render.PrecisionPicking {
					t.Error("expected precision picking")
				}
			},
			teardown: func() {
				*flagMaxBatchVertices = 0
				*flagPrecisionPicking = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from the flag, height from the file
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  index_bits: 12\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected invalid index bits to be rejected")
	}
}
