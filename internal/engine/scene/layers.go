package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/layer"
	"github.com/Faultbox/scenebatch/internal/engine/picking"
	"github.com/Faultbox/scenebatch/pkg/compress"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// MeshParams describes a mesh. A mesh either instances a stored geometry
// (GeometryID) or carries its own geometry, which is batched with other
// meshes sharing its origin, texture set and primitive.
type MeshParams struct {
	// ID is generated when empty.
	ID           string
	GeometryID   string
	TextureSetID string

	// Inline geometry.
	Primitive             string
	Positions             []float64
	PositionsCompressed   []uint16
	PositionsDecodeMatrix *mgl64.Mat4
	Normals               []float32
	NormalsCompressed     []int8
	UVs                   []float32
	// Colors are per-vertex RGB or RGBA channels in 0..1.
	Colors []float32
	// ColorsCompressed are per-vertex RGB or RGBA bytes.
	ColorsCompressed []uint8
	Indices          []uint32
	EdgeIndices      []uint32
	EdgeThreshold    float64

	// Origin is added to the model origin.
	Origin mgl64.Vec3
	// Matrix places the mesh. When nil it is composed from Position,
	// Rotation (degrees) and Scale; a zero Scale means 1.
	Matrix   *mgl64.Mat4
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3

	// Color defaults to white, Opacity to 1.
	Color   *[3]float32
	Opacity *float32
}

func (p *MeshParams) matrix() mgl64.Mat4 {
	if p.Matrix != nil {
		return *p.Matrix
	}
	scale := p.Scale
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}
	return smath.Compose(p.Position, p.Rotation, scale)
}

// CreateMesh places a mesh into a layer. When the matching open layer is
// full it is finalized and a new one is opened.
func (m *Model) CreateMesh(p MeshParams) (*Mesh, error) {
	if err := m.checkCreate(); err != nil {
		return nil, err
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := m.meshes[id]; ok {
		m.log.Warn("duplicate mesh id", zap.String("mesh", id))
		return nil, errors.Wrapf(ErrDuplicateID, "mesh %q", id)
	}

	mesh := &Mesh{
		id:    id,
		model: m,
		color: [4]uint8{255, 255, 255, 255},
		aabb:  smath.CollapsedAABB(),
	}
	if p.Color != nil {
		rgb := rgbBytes(*p.Color)
		copy(mesh.color[:3], rgb[:])
	}
	if p.Opacity != nil {
		mesh.color[3] = compress.ColorByte(*p.Opacity)
	}
	mesh.colorize[3] = mesh.color[3]
	mesh.transparent = mesh.color[3] < 255

	pickID, err := m.opts.Registry.Allocate(mesh)
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %q", id)
	}
	mesh.pickID = pickID

	if p.GeometryID != "" {
		err = m.placeInstance(mesh, &p)
	} else {
		err = m.placeBatched(mesh, &p)
	}
	if err != nil {
		_ = m.opts.Registry.Release(pickID)
		return nil, errors.Wrapf(err, "mesh %q", id)
	}

	m.meshes[id] = mesh
	m.meshOrder = append(m.meshOrder, mesh)
	return mesh, nil
}

func (m *Model) textureSetFor(id string, textured bool) (string, error) {
	if id != "" {
		if _, ok := m.textureSets[id]; !ok {
			return "", errors.Wrapf(ErrUnknownTextureSet, "%q", id)
		}
		return id, nil
	}
	if !textured {
		return "", nil
	}
	ts, err := m.defaultTextureSet()
	if err != nil {
		return "", err
	}
	return ts.ID, nil
}

// recenter moves a large translation of matrix into origin, so the layer
// stores small coordinates. center is the mesh's centre in origin space.
func (m *Model) recenter(origin mgl64.Vec3, matrix mgl64.Mat4, center mgl64.Vec3) (mgl64.Vec3, mgl64.Mat4) {
	if m.opts.RTCCellSize < 0 {
		return origin, matrix
	}
	rtc, needed := smath.RTCCenter(center[:], m.opts.RTCCellSize)
	if !needed {
		return origin, matrix
	}
	return origin.Add(rtc), mgl64.Translate3D(-rtc[0], -rtc[1], -rtc[2]).Mul4(matrix)
}

func (m *Model) placeInstance(mesh *Mesh, p *MeshParams) error {
	g, ok := m.geometries[p.GeometryID]
	if !ok {
		return errors.Wrapf(ErrUnknownGeometry, "%q", p.GeometryID)
	}
	tsID, err := m.textureSetFor(p.TextureSetID, len(g.UVsCompressed) > 0)
	if err != nil {
		return err
	}

	matrix := p.matrix()
	origin := m.opts.Origin.Add(p.Origin)
	origin, matrix = m.recenter(origin, matrix, matrix.Col(3).Vec3())

	key := instanceKey{
		origin:       smath.OriginKey(origin, m.opts.OriginTolerance),
		textureSetID: tsID,
		geometryID:   g.ID,
	}
	l, ok := m.openInstancing[key]
	if ok && !l.CanCreatePortion(0, 0) {
		if err := m.rotate(l); err != nil {
			return err
		}
		delete(m.openInstancing, key)
		ok = false
	}
	if !ok {
		if l, err = m.newLayer(layer.Config{
			Origin:       origin,
			TextureSetID: tsID,
			Primitive:    g.Primitive,
			MaxInstances: m.opts.MaxInstances,
			Geometry:     g.layerGeometry(),
		}); err != nil {
			return err
		}
		m.openInstancing[key] = l
	}

	shift := shiftTo(origin, l.Origin(), matrix)
	portionID, err := l.CreatePortion(layer.PortionConfig{
		Color:      mesh.color,
		PickColor:  picking.Color(mesh.pickID),
		MeshMatrix: &shift,
		AABB:       &mesh.aabb,
	})
	if err != nil {
		return err
	}
	mesh.layer, mesh.portionID = l, portionID
	mesh.origin = l.Origin()
	mesh.primitive = g.Primitive
	mesh.numPrimitives = g.NumPrimitives()
	return nil
}

// shiftTo re-expresses matrix, given relative to origin, relative to the
// layer origin it was grouped under.
func shiftTo(origin, layerOrigin mgl64.Vec3, matrix mgl64.Mat4) mgl64.Mat4 {
	d := origin.Sub(layerOrigin)
	if d == (mgl64.Vec3{}) {
		return matrix
	}
	return mgl64.Translate3D(d[0], d[1], d[2]).Mul4(matrix)
}

func (m *Model) placeBatched(mesh *Mesh, p *MeshParams) error {
	prim, err := parsePrimitive(p.Primitive)
	if err != nil {
		return err
	}
	tsID, err := m.textureSetFor(p.TextureSetID, len(p.UVs) > 0)
	if err != nil {
		return err
	}

	matrix := p.matrix()
	origin := m.opts.Origin.Add(p.Origin)

	var decode mgl64.Mat4
	positions := p.Positions
	quantized := false
	if len(p.PositionsCompressed) > 0 {
		if p.PositionsDecodeMatrix == nil {
			return ErrMissingDecodeMatrix
		}
		decode = *p.PositionsDecodeMatrix
		if smath.IsIdentity(matrix) {
			quantized = true
		} else {
			positions = compress.DecompressPositions(p.PositionsCompressed, decode)
		}
	}
	if !quantized && len(positions) == 0 {
		return ErrMissingPositions
	}
	if prim.NeedsIndices() && len(p.Indices) == 0 {
		return errors.Wrapf(ErrMissingIndices, "%s", prim)
	}

	numVerts := len(positions) / 3
	if quantized {
		numVerts = len(p.PositionsCompressed) / 3
	}
	if err := checkIndices(numVerts, p.Indices, p.EdgeIndices); err != nil {
		return err
	}
	local := func() []float64 {
		if positions == nil {
			positions = compress.DecompressPositions(p.PositionsCompressed, decode)
		}
		return positions
	}

	cfg := layer.PortionConfig{
		NormalsCompressed: p.NormalsCompressed,
		Normals:           p.Normals,
		UVs:               p.UVs,
		Indices:           p.Indices,
		EdgeIndices:       p.EdgeIndices,
		Color:             mesh.color,
		PickColor:         picking.Color(mesh.pickID),
		AABB:              &mesh.aabb,
	}
	if prim.Family() == layer.TrianglesFamily {
		if len(cfg.Normals) == 0 && len(cfg.NormalsCompressed) == 0 && m.opts.AutoNormals {
			cfg.Normals = compress.BuildNormals(local(), p.Indices)
		}
		if len(cfg.EdgeIndices) == 0 {
			threshold := m.edgeThreshold(p.EdgeThreshold)
			if quantized {
				cfg.EdgeIndices = compress.BuildEdgeIndicesCompressed(p.PositionsCompressed, decode, p.Indices, threshold)
			} else {
				cfg.EdgeIndices = compress.BuildEdgeIndices(positions, p.Indices, threshold)
			}
		}
	}
	cfg.Colors = vertexColors(p, numVerts)

	tolerance := m.opts.OriginTolerance
	if quantized {
		// Pre-quantized positions cannot be shifted, so only an exact
		// origin match may share the layer.
		tolerance = 0
		cfg.PositionsCompressed = p.PositionsCompressed
	} else {
		c := smath.PositionsCenter(positions)
		origin, matrix = m.recenter(origin, matrix, matrix.Mul4x1(c.Vec4(1)).Vec3())
		cfg.Positions = positions
	}

	key := batchKey{
		origin:       smath.OriginKey(origin, tolerance),
		textureSetID: tsID,
		primitive:    prim,
		quantized:    quantized,
	}
	if quantized {
		key.decode = decode
	}

	l, err := m.batchingLayer(key, origin, numVerts, len(p.Indices))
	if err != nil {
		return err
	}
	shift := shiftTo(origin, l.Origin(), matrix)
	cfg.MeshMatrix = &shift

	portionID, err := l.CreatePortion(cfg)
	if err != nil {
		return err
	}
	mesh.layer, mesh.portionID = l, portionID
	mesh.origin = l.Origin()
	mesh.primitive = prim
	mesh.numPrimitives = numPrimitives(prim, numVerts, len(p.Indices))
	return nil
}

func vertexColors(p *MeshParams, numVerts int) []uint8 {
	colors := p.ColorsCompressed
	if len(colors) == 0 && len(p.Colors) > 0 {
		colors = compress.CompressRGBColors(p.Colors)
	}
	if len(colors) == numVerts*3 && numVerts > 0 {
		colors = compress.ExpandRGBToRGBA(colors)
	}
	return colors
}

// batchingLayer returns the open layer for key with room for the portion,
// rotating a full one. A portion larger than the configured capacity gets
// a layer of its own.
func (m *Model) batchingLayer(key batchKey, origin mgl64.Vec3, numVerts, numIndices int) (layer.Layer, error) {
	l, ok := m.openBatching[key]
	if ok && l.CanCreatePortion(numVerts, numIndices) {
		return l, nil
	}
	if ok {
		if err := m.rotate(l); err != nil {
			return nil, err
		}
		delete(m.openBatching, key)
	}

	maxVerts, maxIndices := m.opts.MaxBatchVertices, m.opts.MaxBatchIndices
	if numVerts > maxVerts || numIndices > maxIndices {
		if m.opts.IndexBits == 16 && numVerts > layer.MaxVertices16 {
			return nil, errors.Wrapf(ErrGeometryTooLarge, "%d vertices with 16-bit indices", numVerts)
		}
		m.log.Warn("portion exceeds batch capacity, giving it its own layer",
			zap.Int("vertices", numVerts), zap.Int("indices", numIndices),
			zap.Int("maxVertices", maxVerts), zap.Int("maxIndices", maxIndices))
		maxVerts, maxIndices = max(maxVerts, numVerts), max(maxIndices, numIndices)
	}

	cfg := layer.Config{
		Origin:       origin,
		TextureSetID: key.textureSetID,
		Primitive:    key.primitive,
		MaxVertices:  maxVerts,
		MaxIndices:   maxIndices,
	}
	if key.quantized {
		decode := key.decode
		cfg.PositionsDecodeMatrix = &decode
	}
	l, err := m.newLayer(cfg)
	if err != nil {
		return nil, err
	}
	m.openBatching[key] = l
	return l, nil
}

func (m *Model) newLayer(cfg layer.Config) (layer.Layer, error) {
	cfg.Driver = m.opts.Driver
	cfg.Materials = m.opts.Materials
	cfg.Model = &m.counters
	cfg.Log = m.log.Named("layer")
	cfg.PrecisionPicking = m.opts.PrecisionPicking
	cfg.EntityOffsets = m.opts.EntityOffsets
	l, err := layer.New(cfg)
	if err != nil {
		return nil, err
	}
	l.SetIndex(len(m.layers))
	m.layers = append(m.layers, l)
	return l, nil
}

func (m *Model) rotate(l layer.Layer) error {
	m.log.Debug("layer full, opening another",
		zap.Int("layer", l.Index()),
		zap.Stringer("primitive", l.Primitive()),
		zap.Bool("instancing", l.Instancing()),
		zap.Int("portions", l.NumPortions()),
		zap.Int("vertices", l.NumVertices()),
	)
	return l.Finalize()
}
