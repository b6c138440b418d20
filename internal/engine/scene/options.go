package scene

import (
	"github.com/Faultbox/scenebatch/internal/config"
	"github.com/Faultbox/scenebatch/internal/engine/gpu"
)

// OptionsFromConfig maps the render section of the config onto model
// options. The caller sets the remaining fields.
func OptionsFromConfig(d gpu.Driver, r config.RenderConfig) Options {
	return Options{
		Driver:           d,
		Materials:        r.Materials(),
		MaxBatchVertices: r.MaxBatchVertices,
		MaxBatchIndices:  r.MaxBatchIndices,
		MaxInstances:     r.MaxInstances,
		IndexBits:        r.IndexBits,
		EdgeThreshold:    r.EdgeThreshold,
		OriginTolerance:  r.OriginTolerance,
		RTCCellSize:      r.RTCCellSize,
		PrecisionPicking: r.PrecisionPicking,
		EntityOffsets:    r.EntityOffsets,
		AutoNormals:      r.AutoNormals,
	}
}
