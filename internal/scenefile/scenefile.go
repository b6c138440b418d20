// Package scenefile reads YAML scene descriptions and replays them into a
// scene.Model.
package scenefile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	"github.com/Faultbox/scenebatch/internal/engine/layer"
	"github.com/Faultbox/scenebatch/internal/engine/scene"
	"github.com/Faultbox/scenebatch/internal/engine/texture"
)

// File is a scene description. Entries are created in the order
// geometries, textures, texture sets, meshes, objects.
type File struct {
	Model       ModelSpec        `yaml:"model"`
	Geometries  []GeometrySpec   `yaml:"geometries"`
	Textures    []TextureSpec    `yaml:"textures"`
	TextureSets []TextureSetSpec `yaml:"texture_sets"`
	Meshes      []MeshSpec       `yaml:"meshes"`
	Objects     []ObjectSpec     `yaml:"objects"`

	// dir resolves relative texture paths.
	dir string
}

// ModelSpec holds model-wide settings.
type ModelSpec struct {
	ID     string     `yaml:"id"`
	Origin [3]float64 `yaml:"origin"`
}

// GeometrySpec is reusable geometry for instancing.
type GeometrySpec struct {
	ID     string `yaml:"id"`
	Arrays `yaml:",inline"`
}

// Arrays is geometry given either as explicit arrays or as a named shape.
type Arrays struct {
	Primitive string     `yaml:"primitive"`
	Shape     string     `yaml:"shape"` // "box"
	Size      [3]float64 `yaml:"size"`
	Positions []float64  `yaml:"positions"`
	Normals   []float32  `yaml:"normals"`
	UVs       []float32  `yaml:"uvs"`
	Indices   []uint32   `yaml:"indices"`
	// EdgeThreshold in degrees; zero uses the model's.
	EdgeThreshold float64 `yaml:"edge_threshold"`
}

// TextureSpec is an image file, or a small RGBA8 texture given inline.
type TextureSpec struct {
	ID        string `yaml:"id"`
	File      string `yaml:"file"`
	ColorKey  bool   `yaml:"color_key"` // Magenta pixels of File become transparent
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	RGBA      []byte `yaml:"rgba"`
	MinFilter string `yaml:"min_filter"`
	MagFilter string `yaml:"mag_filter"`
	WrapS     string `yaml:"wrap_s"`
	WrapT     string `yaml:"wrap_t"`
	Encoding  string `yaml:"encoding"`
	FlipY     bool   `yaml:"flip_y"`
}

// TextureSetSpec names the textures of a material.
type TextureSetSpec struct {
	ID                string `yaml:"id"`
	Color             string `yaml:"color"`
	MetallicRoughness string `yaml:"metallic_roughness"`
	Normals           string `yaml:"normals"`
	Emissive          string `yaml:"emissive"`
	Occlusion         string `yaml:"occlusion"`
}

// MeshSpec instances a geometry, or carries inline geometry when Geometry
// is empty.
type MeshSpec struct {
	ID         string `yaml:"id"`
	Geometry   string `yaml:"geometry"`
	TextureSet string `yaml:"texture_set"`

	Arrays `yaml:",inline"`

	Origin   [3]float64  `yaml:"origin"`
	Matrix   []float64   `yaml:"matrix"` // 16 values, column major
	Position [3]float64  `yaml:"position"`
	Rotation [3]float64  `yaml:"rotation"` // Degrees
	Scale    *[3]float64 `yaml:"scale"`
	Color    *[3]float32 `yaml:"color"`
	Opacity  *float32    `yaml:"opacity"`
}

// ObjectSpec groups meshes. Unset flags keep the model defaults.
type ObjectSpec struct {
	ID          string      `yaml:"id"`
	Meshes      []string    `yaml:"meshes"`
	Visible     *bool       `yaml:"visible"`
	Pickable    *bool       `yaml:"pickable"`
	Clippable   *bool       `yaml:"clippable"`
	Collidable  *bool       `yaml:"collidable"`
	XRayed      bool        `yaml:"xrayed"`
	Highlighted bool        `yaml:"highlighted"`
	Selected    bool        `yaml:"selected"`
	Edges       bool        `yaml:"edges"`
	Colorize    *[3]float32 `yaml:"colorize"`
	Opacity     *float32    `yaml:"opacity"`
	Offset      *[3]float64 `yaml:"offset"`
}

// Load reads a scene file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scene file %s", path)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse decodes a scene description.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal encodes f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Options returns opts with the file's model settings applied.
func (f *File) Options(opts scene.Options) scene.Options {
	if f.Model.ID != "" {
		opts.ID = f.Model.ID
	}
	opts.Origin = mgl64.Vec3(f.Model.Origin)
	return opts
}

// Apply creates every entry of f in m. A failed entry is skipped and its
// error collected, so siblings still load; entries that refer to it then
// fail in turn. m is not built.
func (f *File) Apply(m *scene.Model) error {
	var errs error
	for _, g := range f.Geometries {
		p, err := g.params()
		if err == nil {
			_, err = m.CreateGeometry(p)
		}
		errs = multierr.Append(errs, err)
	}
	for _, t := range f.Textures {
		p, err := t.params(f.dir)
		if err == nil {
			_, err = m.CreateTexture(p)
		}
		errs = multierr.Append(errs, err)
	}
	for _, ts := range f.TextureSets {
		_, err := m.CreateTextureSet(scene.TextureSetParams{
			ID:                         ts.ID,
			ColorTextureID:             ts.Color,
			MetallicRoughnessTextureID: ts.MetallicRoughness,
			NormalsTextureID:           ts.Normals,
			EmissiveTextureID:          ts.Emissive,
			OcclusionTextureID:         ts.Occlusion,
		})
		errs = multierr.Append(errs, err)
	}
	for _, ms := range f.Meshes {
		p, err := ms.params()
		if err == nil {
			_, err = m.CreateMesh(p)
		}
		errs = multierr.Append(errs, err)
	}
	for _, o := range f.Objects {
		_, err := m.CreateObject(o.params())
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (g *GeometrySpec) params() (scene.GeometryParams, error) {
	return g.Arrays.params(g.ID)
}

func (g *Arrays) params(id string) (scene.GeometryParams, error) {
	p := scene.GeometryParams{
		ID:            id,
		Primitive:     g.Primitive,
		Positions:     g.Positions,
		Normals:       g.Normals,
		UVs:           g.UVs,
		Indices:       g.Indices,
		EdgeThreshold: g.EdgeThreshold,
	}
	switch strings.ToLower(g.Shape) {
	case "":
	case "box":
		p.Primitive = layer.Triangles.String()
		p.Positions, p.Normals, p.Indices = Box(mgl64.Vec3(g.Size))
	default:
		return p, errors.Errorf("%q: unknown shape %q", id, g.Shape)
	}
	return p, nil
}

func (ms *MeshSpec) params() (scene.MeshParams, error) {
	g, err := ms.Arrays.params(ms.ID)
	if err != nil {
		return scene.MeshParams{}, err
	}
	p := scene.MeshParams{
		ID:            ms.ID,
		GeometryID:    ms.Geometry,
		TextureSetID:  ms.TextureSet,
		Primitive:     g.Primitive,
		Positions:     g.Positions,
		Normals:       g.Normals,
		UVs:           g.UVs,
		Indices:       g.Indices,
		EdgeThreshold: g.EdgeThreshold,
		Origin:        mgl64.Vec3(ms.Origin),
		Position:      mgl64.Vec3(ms.Position),
		Rotation:      mgl64.Vec3(ms.Rotation),
		Color:         ms.Color,
		Opacity:       ms.Opacity,
	}
	if ms.Scale != nil {
		p.Scale = mgl64.Vec3(*ms.Scale)
	}
	if len(ms.Matrix) > 0 {
		if len(ms.Matrix) != 16 {
			return p, errors.Errorf("mesh %q: matrix needs 16 values, got %d", ms.ID, len(ms.Matrix))
		}
		var mat mgl64.Mat4
		copy(mat[:], ms.Matrix)
		p.Matrix = &mat
	}
	return p, nil
}

func (o *ObjectSpec) params() scene.ObjectParams {
	flags := scene.DefaultObjectFlags
	set := func(bit layer.EntityFlags, v *bool) {
		if v != nil {
			flags = flags.With(bit, *v)
		}
	}
	set(layer.Visible, o.Visible)
	set(layer.Pickable, o.Pickable)
	set(layer.Clippable, o.Clippable)
	set(layer.Collidable, o.Collidable)
	flags = flags.With(layer.XRayed, o.XRayed).
		With(layer.Highlighted, o.Highlighted).
		With(layer.Selected, o.Selected).
		With(layer.Edges, o.Edges)

	p := scene.ObjectParams{
		ID:       o.ID,
		MeshIDs:  o.Meshes,
		Flags:    &flags,
		Colorize: o.Colorize,
		Opacity:  o.Opacity,
	}
	if o.Offset != nil {
		off := mgl64.Vec3(*o.Offset)
		p.Offset = &off
	}
	return p
}

var filterNames = map[string]gpu.Filter{
	"nearest":                gpu.NearestFilter,
	"nearest_mipmap_nearest": gpu.NearestMipmapNearestFilter,
	"nearest_mipmap_linear":  gpu.NearestMipmapLinearFilter,
	"linear":                 gpu.LinearFilter,
	"linear_mipmap_nearest":  gpu.LinearMipmapNearestFilter,
	"linear_mipmap_linear":   gpu.LinearMipmapLinearFilter,
}

var wrapNames = map[string]gpu.Wrap{
	"repeat":          gpu.RepeatWrapping,
	"clamp_to_edge":   gpu.ClampToEdgeWrapping,
	"mirrored_repeat": gpu.MirroredRepeatWrapping,
}

// Unknown names map to -1 so the model reports them and substitutes its
// default; empty names map to 0, the silent default.
func filterByName(s string) gpu.Filter {
	if s == "" {
		return 0
	}
	if f, ok := filterNames[strings.ToLower(s)]; ok {
		return f
	}
	return -1
}

func wrapByName(s string) gpu.Wrap {
	if s == "" {
		return 0
	}
	if w, ok := wrapNames[strings.ToLower(s)]; ok {
		return w
	}
	return -1
}

func (t *TextureSpec) params(dir string) (scene.TextureParams, error) {
	p := scene.TextureParams{
		ID:        t.ID,
		Width:     t.Width,
		Height:    t.Height,
		Data:      t.RGBA,
		MinFilter: filterByName(t.MinFilter),
		MagFilter: filterByName(t.MagFilter),
		WrapS:     wrapByName(t.WrapS),
		WrapT:     wrapByName(t.WrapT),
		FlipY:     t.FlipY,
	}
	if strings.EqualFold(t.Encoding, "srgb") {
		p.Encoding = gpu.SRGBEncoding
	}
	if t.File != "" {
		path := t.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		img, err := texture.Load(path, t.ColorKey)
		if err != nil {
			return p, errors.Wrapf(err, "texture %q", t.ID)
		}
		p.Width, p.Height, p.Data = img.Width, img.Height, img.Pix
	}
	return p, nil
}
