// Package config handles scenebatch configuration loading and management.
package config

import (
	"github.com/Faultbox/scenebatch/internal/engine/layer"
)

// Config holds all settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Window  WindowConfig  `yaml:"window"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds layer capacities and geometry processing settings.
type RenderConfig struct {
	MaxBatchVertices int     `yaml:"max_batch_vertices"`
	MaxBatchIndices  int     `yaml:"max_batch_indices"`
	MaxInstances     int     `yaml:"max_instances"`
	IndexBits        int     `yaml:"index_bits"`       // 16 or 32
	EdgeThreshold    float64 `yaml:"edge_threshold"`   // Degrees
	OriginTolerance  float64 `yaml:"origin_tolerance"` // World units
	RTCCellSize      float64 `yaml:"rtc_cell_size"`    // Negative disables re-centring
	PrecisionPicking bool    `yaml:"precision_picking"`
	EntityOffsets    bool    `yaml:"entity_offsets"`
	AutoNormals      bool    `yaml:"auto_normals"`

	XRay      EmphasisConfig `yaml:"xray"`
	Highlight EmphasisConfig `yaml:"highlight"`
	Selected  EmphasisConfig `yaml:"selected"`
	// EdgesVisible enables the edges pass.
	EdgesVisible bool `yaml:"edges_visible"`
}

// EmphasisConfig configures the look of one emphasis state.
type EmphasisConfig struct {
	Fill        bool    `yaml:"fill"`
	FillAlpha   float32 `yaml:"fill_alpha"`
	Edges       bool    `yaml:"edges"`
	EdgeAlpha   float32 `yaml:"edge_alpha"`
	GlowThrough bool    `yaml:"glow_through"`
}

// WindowConfig holds display settings for the interactive bench.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	mats := layer.DefaultMaterials()
	return &Config{
		Render: RenderConfig{
			MaxBatchVertices: layer.DefaultMaxVertices,
			MaxBatchIndices:  layer.DefaultMaxIndices,
			MaxInstances:     layer.DefaultMaxInstances,
			IndexBits:        32,
			EdgeThreshold:    10,
			OriginTolerance:  1e-3,
			RTCCellSize:      200,
			XRay:             emphasisConfig(mats.XRay),
			Highlight:        emphasisConfig(mats.Highlight),
			Selected:         emphasisConfig(mats.Selected),
			EdgesVisible:     mats.EdgesVisible,
		},
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

func emphasisConfig(m layer.EmphasisMaterial) EmphasisConfig {
	return EmphasisConfig(m)
}

// Materials converts the emphasis settings for the layers.
func (r RenderConfig) Materials() *layer.Materials {
	return &layer.Materials{
		XRay:         layer.EmphasisMaterial(r.XRay),
		Highlight:    layer.EmphasisMaterial(r.Highlight),
		Selected:     layer.EmphasisMaterial(r.Selected),
		EdgesVisible: r.EdgesVisible,
	}
}
