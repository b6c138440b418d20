package scene

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
)

// DefaultTextureSetID names the texture set given to textured meshes that
// do not name one.
const DefaultTextureSetID = "default.textureSet"

// TextureParams describes decoded RGBA8 texture data. Zero filter, wrap
// and encoding values select the defaults.
type TextureParams struct {
	ID        string
	Width     int
	Height    int
	Data      []byte
	MinFilter gpu.Filter
	MagFilter gpu.Filter
	WrapS     gpu.Wrap
	WrapT     gpu.Wrap
	WrapR     gpu.Wrap
	Encoding  gpu.Encoding
	FlipY     bool
}

// Texture is an uploaded texture.
type Texture struct {
	ID     string
	Desc   gpu.TextureDesc
	Handle gpu.TextureID
}

// TextureSetParams names up to five textures by id. Empty ids leave the
// slot unused.
type TextureSetParams struct {
	ID                         string
	ColorTextureID             string
	MetallicRoughnessTextureID string
	NormalsTextureID           string
	EmissiveTextureID          string
	OcclusionTextureID         string
}

// TextureSet groups the textures one material samples.
type TextureSet struct {
	ID                string
	Color             *Texture
	MetallicRoughness *Texture
	Normals           *Texture
	Emissive          *Texture
	Occlusion         *Texture
}

// CreateTexture uploads a texture. Unrecognized filter or wrap values are
// logged and replaced by the defaults.
func (m *Model) CreateTexture(p TextureParams) (*Texture, error) {
	if err := m.checkCreate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errors.Wrap(ErrMissingID, "texture")
	}
	if _, ok := m.textures[p.ID]; ok {
		m.log.Warn("duplicate texture id", zap.String("texture", p.ID))
		return nil, errors.Wrapf(ErrDuplicateID, "texture %q", p.ID)
	}
	if p.Width <= 0 || p.Height <= 0 || len(p.Data) != p.Width*p.Height*4 {
		return nil, errors.Wrapf(ErrBadTextureData, "texture %q: %dx%d with %d bytes", p.ID, p.Width, p.Height, len(p.Data))
	}

	desc := gpu.TextureDesc{
		Width:     p.Width,
		Height:    p.Height,
		Data:      p.Data,
		MinFilter: m.minFilter(p.ID, p.MinFilter),
		MagFilter: m.magFilter(p.ID, p.MagFilter),
		WrapS:     m.wrap(p.ID, "wrap_s", p.WrapS),
		WrapT:     m.wrap(p.ID, "wrap_t", p.WrapT),
		WrapR:     m.wrap(p.ID, "wrap_r", p.WrapR),
		Encoding:  p.Encoding,
		FlipY:     p.FlipY,
	}
	if !desc.Encoding.Valid() {
		if desc.Encoding != 0 {
			m.log.Warn("unsupported texture encoding, using linear",
				zap.String("texture", p.ID), zap.Int("encoding", int(desc.Encoding)))
		}
		desc.Encoding = gpu.DefaultEncoding
	}

	handle, err := m.opts.Driver.CreateTexture(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "texture %q", p.ID)
	}
	t := &Texture{ID: p.ID, Desc: desc, Handle: handle}
	m.textures[p.ID] = t
	return t, nil
}

func (m *Model) minFilter(id string, f gpu.Filter) gpu.Filter {
	if f.ValidMin() {
		return f
	}
	if f != 0 {
		m.log.Warn("unsupported min filter, using default",
			zap.String("texture", id), zap.Int("filter", int(f)), zap.Stringer("default", gpu.DefaultMinFilter))
	}
	return gpu.DefaultMinFilter
}

func (m *Model) magFilter(id string, f gpu.Filter) gpu.Filter {
	if f.ValidMag() {
		return f
	}
	if f != 0 {
		m.log.Warn("unsupported mag filter, using default",
			zap.String("texture", id), zap.Int("filter", int(f)), zap.Stringer("default", gpu.DefaultMagFilter))
	}
	return gpu.DefaultMagFilter
}

func (m *Model) wrap(id, axis string, w gpu.Wrap) gpu.Wrap {
	if w.Valid() {
		return w
	}
	if w != 0 {
		m.log.Warn("unsupported wrap mode, using default",
			zap.String("texture", id), zap.String("axis", axis), zap.Int("wrap", int(w)), zap.Stringer("default", gpu.DefaultWrap))
	}
	return gpu.DefaultWrap
}

// CreateTextureSet groups existing textures. Every named texture must
// exist.
func (m *Model) CreateTextureSet(p TextureSetParams) (*TextureSet, error) {
	if err := m.checkCreate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errors.Wrap(ErrMissingID, "texture set")
	}
	if _, ok := m.textureSets[p.ID]; ok {
		m.log.Warn("duplicate texture set id", zap.String("textureSet", p.ID))
		return nil, errors.Wrapf(ErrDuplicateID, "texture set %q", p.ID)
	}

	ts := &TextureSet{ID: p.ID}
	slots := []struct {
		id  string
		dst **Texture
	}{
		{p.ColorTextureID, &ts.Color},
		{p.MetallicRoughnessTextureID, &ts.MetallicRoughness},
		{p.NormalsTextureID, &ts.Normals},
		{p.EmissiveTextureID, &ts.Emissive},
		{p.OcclusionTextureID, &ts.Occlusion},
	}
	for _, s := range slots {
		if s.id == "" {
			continue
		}
		t, ok := m.textures[s.id]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownTexture, "texture set %q: texture %q", p.ID, s.id)
		}
		*s.dst = t
	}
	m.textureSets[p.ID] = ts
	return ts, nil
}

// defaultTextureSet returns the texture set for textured meshes without
// one, creating its 1x1 textures on first use.
func (m *Model) defaultTextureSet() (*TextureSet, error) {
	if ts, ok := m.textureSets[DefaultTextureSetID]; ok {
		return ts, nil
	}
	pixels := []struct {
		id   string
		rgba []byte
	}{
		{"default.colorTexture", []byte{255, 255, 255, 255}},
		{"default.metalRoughTexture", []byte{0, 255, 255, 255}},
		{"default.normalsTexture", []byte{128, 128, 255, 255}},
		{"default.emissiveTexture", []byte{0, 0, 0, 255}},
		{"default.occlusionTexture", []byte{255, 255, 255, 255}},
	}
	for _, px := range pixels {
		if _, ok := m.textures[px.id]; ok {
			continue
		}
		if _, err := m.CreateTexture(TextureParams{ID: px.id, Width: 1, Height: 1, Data: px.rgba}); err != nil {
			return nil, err
		}
	}
	return m.CreateTextureSet(TextureSetParams{
		ID:                         DefaultTextureSetID,
		ColorTextureID:             pixels[0].id,
		MetallicRoughnessTextureID: pixels[1].id,
		NormalsTextureID:           pixels[2].id,
		EmissiveTextureID:          pixels[3].id,
		OcclusionTextureID:         pixels[4].id,
	})
}
