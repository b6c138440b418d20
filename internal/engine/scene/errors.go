package scene

import (
	"errors"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
)

// Errors reported by the creation calls. Each aborts only the call that
// returned it.
var (
	ErrMissingID            = errors.New("scene: id required")
	ErrDuplicateID          = errors.New("scene: duplicate id")
	ErrUnknownGeometry      = errors.New("scene: unknown geometry")
	ErrUnknownTexture       = errors.New("scene: unknown texture")
	ErrUnknownTextureSet    = errors.New("scene: unknown texture set")
	ErrUnknownMesh          = errors.New("scene: unknown mesh")
	ErrUnknownObject        = errors.New("scene: unknown object")
	ErrMeshInUse            = errors.New("scene: mesh already belongs to an object")
	ErrUnsupportedPrimitive = layer.ErrUnsupportedPrimitive
	ErrMissingIndices       = errors.New("scene: primitive requires indices")
	ErrMissingPositions     = errors.New("scene: positions required")
	ErrMissingDecodeMatrix  = errors.New("scene: compressed positions need a decode matrix")
	ErrIndexOutOfRange      = errors.New("scene: index out of range")
	ErrGeometryTooLarge     = errors.New("scene: geometry larger than an empty layer")
	ErrBadTextureData       = errors.New("scene: texture data does not match its size")
	ErrAlreadyBuilt         = errors.New("scene: model already built")
	ErrDestroyed            = errors.New("scene: model destroyed")
)
