package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "scenebatch")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "scenebatch")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "scenebatch")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "scenebatch")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate rejects settings the layers cannot honour.
func (c *Config) Validate() error {
	r := &c.Render
	if r.IndexBits != 16 && r.IndexBits != 32 {
		return fmt.Errorf("render.index_bits must be 16 or 32, got %d", r.IndexBits)
	}
	if r.MaxBatchVertices <= 0 || r.MaxBatchIndices <= 0 || r.MaxInstances <= 0 {
		return fmt.Errorf("render capacities must be positive")
	}
	if r.EdgeThreshold < 0 || r.EdgeThreshold > 180 {
		return fmt.Errorf("render.edge_threshold must be within 0..180 degrees, got %g", r.EdgeThreshold)
	}
	return nil
}
