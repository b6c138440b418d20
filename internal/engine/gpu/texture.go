package gpu

// Filter is a texture sampling filter. Values match the codes used by
// common model formats so they can pass through scene files unchanged.
type Filter int

const (
	NearestFilter              Filter = 1003
	NearestMipmapNearestFilter Filter = 1004
	NearestMipmapLinearFilter  Filter = 1005
	LinearFilter               Filter = 1006
	LinearMipmapNearestFilter  Filter = 1007
	LinearMipmapLinearFilter   Filter = 1008
)

// Wrap is a texture coordinate wrapping mode.
type Wrap int

const (
	RepeatWrapping         Wrap = 1000
	ClampToEdgeWrapping    Wrap = 1001
	MirroredRepeatWrapping Wrap = 1002
)

// Encoding is the color space of texture data.
type Encoding int

const (
	LinearEncoding Encoding = 3000
	SRGBEncoding   Encoding = 3001
)

// Defaults substituted for unrecognized values.
const (
	DefaultMinFilter = LinearMipmapLinearFilter
	DefaultMagFilter = LinearFilter
	DefaultWrap      = RepeatWrapping
	DefaultEncoding  = LinearEncoding
)

// ValidMin reports whether f can be used as a minification filter.
func (f Filter) ValidMin() bool {
	return f >= NearestFilter && f <= LinearMipmapLinearFilter
}

// ValidMag reports whether f can be used as a magnification filter.
func (f Filter) ValidMag() bool {
	return f == NearestFilter || f == LinearFilter
}

// Mipmapped reports whether f samples mipmap levels.
func (f Filter) Mipmapped() bool {
	return f != NearestFilter && f != LinearFilter
}

func (f Filter) String() string {
	switch f {
	case NearestFilter:
		return "nearest"
	case NearestMipmapNearestFilter:
		return "nearest_mipmap_nearest"
	case NearestMipmapLinearFilter:
		return "nearest_mipmap_linear"
	case LinearFilter:
		return "linear"
	case LinearMipmapNearestFilter:
		return "linear_mipmap_nearest"
	case LinearMipmapLinearFilter:
		return "linear_mipmap_linear"
	}
	return "unknown"
}

// Valid reports whether w is a known wrapping mode.
func (w Wrap) Valid() bool {
	return w >= RepeatWrapping && w <= MirroredRepeatWrapping
}

func (w Wrap) String() string {
	switch w {
	case RepeatWrapping:
		return "repeat"
	case ClampToEdgeWrapping:
		return "clamp_to_edge"
	case MirroredRepeatWrapping:
		return "mirrored_repeat"
	}
	return "unknown"
}

// Valid reports whether e is a known encoding.
func (e Encoding) Valid() bool {
	return e == LinearEncoding || e == SRGBEncoding
}

// TextureDesc describes RGBA8 texture data to upload.
type TextureDesc struct {
	Width     int
	Height    int
	Data      []byte
	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap
	WrapR     Wrap
	Encoding  Encoding
	FlipY     bool
}
