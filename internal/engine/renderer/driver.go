package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	"github.com/Faultbox/scenebatch/internal/logger"
)

type glBuffer struct {
	target uint32
	size   int
}

// Driver implements gpu.Driver on the current OpenGL context. It must be
// used from the thread that owns the context.
type Driver struct {
	buffers  map[gpu.BufferID]glBuffer
	textures map[gpu.TextureID]struct{}
	log      *zap.Logger
}

// NewDriver returns a driver for the current context. The context must be
// initialized already.
func NewDriver() *Driver {
	return &Driver{
		buffers:  make(map[gpu.BufferID]glBuffer),
		textures: make(map[gpu.TextureID]struct{}),
		log:      logger.Named("gl"),
	}
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}

func glTarget(t gpu.Target) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func glUsage(u gpu.Usage) uint32 {
	if u == gpu.DynamicDraw {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

// checkError drains the GL error queue and reports the first error.
func checkError(op string) error {
	var first uint32
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		if first == 0 {
			first = e
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: GL error 0x%04x", op, first)
	}
	return nil
}

// CreateBuffer implements gpu.Driver.
func (d *Driver) CreateBuffer(target gpu.Target, data []byte, usage gpu.Usage) (gpu.BufferID, error) {
	var name uint32
	gl.GenBuffers(1, &name)
	t := glTarget(target)
	gl.BindBuffer(t, name)
	gl.BufferData(t, len(data), ptr(data), glUsage(usage))
	gl.BindBuffer(t, 0)
	if err := checkError("create buffer"); err != nil {
		gl.DeleteBuffers(1, &name)
		return 0, err
	}

	id := gpu.BufferID(name)
	d.buffers[id] = glBuffer{target: t, size: len(data)}
	return id, nil
}

// UpdateBuffer implements gpu.Driver.
func (d *Driver) UpdateBuffer(id gpu.BufferID, byteOffset int, data []byte) error {
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", gpu.ErrUnknownBuffer, id)
	}
	if byteOffset < 0 || byteOffset+len(data) > b.size {
		return fmt.Errorf("%w: buffer %d, offset %d, length %d, size %d",
			gpu.ErrOutOfRange, id, byteOffset, len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(b.target, uint32(id))
	gl.BufferSubData(b.target, byteOffset, len(data), ptr(data))
	gl.BindBuffer(b.target, 0)
	return checkError("update buffer")
}

// DestroyBuffer implements gpu.Driver.
func (d *Driver) DestroyBuffer(id gpu.BufferID) error {
	if _, ok := d.buffers[id]; !ok {
		return fmt.Errorf("%w: %d", gpu.ErrUnknownBuffer, id)
	}
	name := uint32(id)
	gl.DeleteBuffers(1, &name)
	delete(d.buffers, id)
	return nil
}

func glFilter(f gpu.Filter) int32 {
	switch f {
	case gpu.NearestFilter:
		return gl.NEAREST
	case gpu.NearestMipmapNearestFilter:
		return gl.NEAREST_MIPMAP_NEAREST
	case gpu.NearestMipmapLinearFilter:
		return gl.NEAREST_MIPMAP_LINEAR
	case gpu.LinearMipmapNearestFilter:
		return gl.LINEAR_MIPMAP_NEAREST
	case gpu.LinearMipmapLinearFilter:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}

func glWrap(w gpu.Wrap) int32 {
	switch w {
	case gpu.ClampToEdgeWrapping:
		return gl.CLAMP_TO_EDGE
	case gpu.MirroredRepeatWrapping:
		return gl.MIRRORED_REPEAT
	default:
		return gl.REPEAT
	}
}

// flipRows returns a copy of RGBA8 pixels with the rows reversed.
func flipRows(data []byte, width, height int) []byte {
	stride := width * 4
	out := make([]byte, len(data))
	for y := 0; y < height; y++ {
		copy(out[(height-1-y)*stride:(height-y)*stride], data[y*stride:(y+1)*stride])
	}
	return out
}

// CreateTexture implements gpu.Driver. The data is RGBA8.
func (d *Driver) CreateTexture(desc gpu.TextureDesc) (gpu.TextureID, error) {
	data := desc.Data
	if desc.FlipY {
		data = flipRows(data, desc.Width, desc.Height)
	}
	internal := int32(gl.RGBA8)
	if desc.Encoding == gpu.SRGBEncoding {
		internal = gl.SRGB8_ALPHA8
	}

	var name uint32
	gl.GenTextures(1, &name)
	gl.BindTexture(gl.TEXTURE_2D, name)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, ptr(data))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(desc.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(desc.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(desc.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(desc.WrapT))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_R, glWrap(desc.WrapR))
	if desc.MinFilter.Mipmapped() {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := checkError("create texture"); err != nil {
		gl.DeleteTextures(1, &name)
		return 0, err
	}

	id := gpu.TextureID(name)
	d.textures[id] = struct{}{}
	d.log.Debug("texture uploaded",
		zap.Uint32("texture", name),
		zap.Int("width", desc.Width),
		zap.Int("height", desc.Height),
		zap.Stringer("minFilter", desc.MinFilter),
	)
	return id, nil
}

// DestroyTexture implements gpu.Driver.
func (d *Driver) DestroyTexture(id gpu.TextureID) error {
	if _, ok := d.textures[id]; !ok {
		return fmt.Errorf("%w: %d", gpu.ErrUnknownTexture, id)
	}
	name := uint32(id)
	gl.DeleteTextures(1, &name)
	delete(d.textures, id)
	return nil
}

// Live returns the number of buffers and textures not yet destroyed.
func (d *Driver) Live() (buffers, textures int) {
	return len(d.buffers), len(d.textures)
}
