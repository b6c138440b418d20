package layer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebatch/internal/engine/gpu"
	"github.com/Faultbox/scenebatch/internal/logger"
	smath "github.com/Faultbox/scenebatch/pkg/math"
)

// common is the state and flag logic shared by every layer variant. A
// portion's flag rows are VertexBase..VertexBase+VertexCount of the flags,
// colors and offsets arrays.
type common struct {
	cfg       Config
	log       *zap.Logger
	withEdges bool

	portions  []Portion
	counters  Counters
	aabb      smath.AABB
	index     int
	finalized bool
	destroyed bool

	bufs    Buffers
	numRows int

	// Deferred InitFlags writes, uploaded by FlushInitFlags.
	flagsShadow  []byte
	flags2Shadow []byte
}

func newCommon(cfg Config) common {
	if cfg.Materials == nil {
		cfg.Materials = DefaultMaterials()
	}
	log := cfg.Log
	if log == nil {
		log = logger.Named("layer")
	}
	return common{
		cfg:       cfg,
		log:       log,
		withEdges: cfg.Primitive.Family() == TrianglesFamily,
		aabb:      smath.CollapsedAABB(),
		index:     -1,
	}
}

func (c *common) Primitive() Primitive { return c.cfg.Primitive }
func (c *common) Origin() mgl64.Vec3   { return c.cfg.Origin }
func (c *common) TextureSetID() string { return c.cfg.TextureSetID }
func (c *common) Index() int           { return c.index }
func (c *common) SetIndex(i int)       { c.index = i }
func (c *common) Finalized() bool      { return c.finalized }
func (c *common) NumPortions() int     { return len(c.portions) }
func (c *common) Counters() Counters   { return c.counters }
func (c *common) Buffers() *Buffers    { return &c.bufs }
func (c *common) Draw() DrawFlags      { return computeDrawFlags(&c.counters, c.withEdges) }

// AABB returns the world box of the layer.
func (c *common) AABB() smath.AABB {
	if c.aabb.IsEmpty() {
		return c.aabb
	}
	return c.aabb.Translate(c.cfg.Origin)
}

// Portion returns a copy of a portion.
func (c *common) Portion(id int) (Portion, bool) {
	if id < 0 || id >= len(c.portions) {
		return Portion{}, false
	}
	return c.portions[id], true
}

func (c *common) mustBeOpen() {
	if c.destroyed {
		panic(ErrLayerDestroyed)
	}
	if c.finalized {
		panic(ErrLayerFinalized)
	}
}

func (c *common) mustBeFinalized() {
	if c.destroyed {
		panic(ErrLayerDestroyed)
	}
	if !c.finalized {
		panic(ErrLayerNotFinalized)
	}
}

func (c *common) portion(id int) (*Portion, error) {
	if id < 0 || id >= len(c.portions) {
		return nil, fmt.Errorf("%w: %d of %d", ErrUnknownPortion, id, len(c.portions))
	}
	return &c.portions[id], nil
}

func (c *common) addPortion(p Portion) int {
	c.portions = append(c.portions, p)
	c.counters.Portions++
	if c.cfg.Model != nil {
		c.cfg.Model.Portions++
	}
	return len(c.portions) - 1
}

func (c *common) bump(bit EntityFlags, delta int) {
	c.counters.add(bit, delta)
	if c.cfg.Model != nil {
		c.cfg.Model.add(bit, delta)
	}
}

// apply stores a portion's new state and moves the counters of every bit
// that changed.
func (c *common) apply(p *Portion, flags EntityFlags) {
	flags &^= CastShadow | ReceiveShadow
	changed := p.flags ^ flags
	for _, bit := range trackedFlags {
		if changed&bit == 0 {
			continue
		}
		if flags&bit != 0 {
			c.bump(bit, 1)
		} else {
			c.bump(bit, -1)
		}
	}
	p.flags = flags
	p.initialized = true
}

func withTransparency(flags EntityFlags, transparent bool) EntityFlags {
	return flags.With(Transparent, transparent)
}

func repeat(pattern []byte, n int) []byte {
	out := make([]byte, 0, len(pattern)*n)
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

func (c *common) passBytes(p *Portion) []byte {
	passes := ComputePasses(p.flags, p.flags.Has(Transparent), c.cfg.Materials, c.withEdges)
	b := passes.Bytes()
	return repeat(b[:], p.VertexCount)
}

func (c *common) clippableBytes(p *Portion) []byte {
	return repeat([]byte{ClippableByte(p.flags), 0, 0, 0}, p.VertexCount)
}

// ensureShadow allocates the deferred arrays, seeded with every portion
// already written so a flush never clobbers immediate writes.
func (c *common) ensureShadow() {
	if c.flagsShadow != nil {
		return
	}
	c.flagsShadow = make([]byte, c.numRows*4)
	c.flags2Shadow = make([]byte, c.numRows*4)
	for i := range c.portions {
		p := &c.portions[i]
		if p.initialized {
			copy(c.flagsShadow[p.VertexBase*4:], c.passBytes(p))
			copy(c.flags2Shadow[p.VertexBase*4:], c.clippableBytes(p))
		}
	}
}

// InitFlags records a portion's first state into the deferred arrays.
func (c *common) InitFlags(portionID int, flags EntityFlags, transparent bool) error {
	c.mustBeFinalized()
	p, err := c.portion(portionID)
	if err != nil {
		return err
	}
	c.ensureShadow()
	c.apply(p, withTransparency(flags, transparent))
	copy(c.flagsShadow[p.VertexBase*4:], c.passBytes(p))
	copy(c.flags2Shadow[p.VertexBase*4:], c.clippableBytes(p))
	return nil
}

// FlushInitFlags uploads the deferred arrays in one write per buffer.
func (c *common) FlushInitFlags() error {
	c.mustBeFinalized()
	if c.flagsShadow == nil {
		return nil
	}
	defer func() {
		c.flagsShadow = nil
		c.flags2Shadow = nil
	}()
	if c.numRows == 0 {
		return nil
	}
	if err := gpu.Update(c.bufs.Flags, 0, c.flagsShadow); err != nil {
		return fmt.Errorf("flush flags: %w", err)
	}
	if err := gpu.Update(c.bufs.Flags2, 0, c.flags2Shadow); err != nil {
		return fmt.Errorf("flush flags2: %w", err)
	}
	c.log.Debug("flushed deferred flags",
		zap.Int("layer", c.index),
		zap.Int("rows", c.numRows),
	)
	return nil
}

func (c *common) writeFlags(p *Portion) error {
	data := c.passBytes(p)
	if c.flagsShadow != nil {
		copy(c.flagsShadow[p.VertexBase*4:], data)
	}
	return gpu.Update(c.bufs.Flags, p.VertexBase*4, data)
}

func (c *common) writeFlags2(p *Portion) error {
	data := c.clippableBytes(p)
	if c.flags2Shadow != nil {
		copy(c.flags2Shadow[p.VertexBase*4:], data)
	}
	return gpu.Update(c.bufs.Flags2, p.VertexBase*4, data)
}

// setState is the immediate path shared by every pass-affecting setter.
func (c *common) setState(portionID int, flags EntityFlags, transparent bool) error {
	c.mustBeFinalized()
	p, err := c.portion(portionID)
	if err != nil {
		return err
	}
	c.apply(p, withTransparency(flags, transparent))
	return c.writeFlags(p)
}

// Every setter applies the whole state it is given. Counters move only for
// bits that differ from the portion's stored state, so a setter called
// with a consistent state changes exactly one counter.

func (c *common) SetVisible(portionID int, flags EntityFlags, transparent bool) error {
	return c.setState(portionID, flags, transparent)
}

func (c *common) SetHighlighted(portionID int, flags EntityFlags, transparent bool) error {
	return c.setState(portionID, flags, transparent)
}

func (c *common) SetXRayed(portionID int, flags EntityFlags, transparent bool) error {
	return c.setState(portionID, flags, transparent)
}

func (c *common) SetSelected(portionID int, flags EntityFlags, transparent bool) error {
	return c.setState(portionID, flags, transparent)
}

func (c *common) SetEdges(portionID int, flags EntityFlags, transparent bool) error {
	return c.setState(portionID, flags, transparent)
}

func (c *common) SetCulled(portionID int, flags EntityFlags, transparent bool) error {
	return c.setState(portionID, flags, transparent)
}

func (c *common) SetPickable(portionID int, flags EntityFlags, transparent bool) error {
	return c.setState(portionID, flags, transparent)
}

func (c *common) SetTransparent(portionID int, flags EntityFlags, transparent bool) error {
	return c.setState(portionID, flags, transparent)
}

// SetCollidable only moves the collidable counter; no pass reads it.
func (c *common) SetCollidable(portionID int, flags EntityFlags) error {
	c.mustBeFinalized()
	p, err := c.portion(portionID)
	if err != nil {
		return err
	}
	c.apply(p, withTransparency(flags, p.flags.Has(Transparent)))
	return nil
}

// SetClippable rewrites the portion's flags2 rows.
func (c *common) SetClippable(portionID int, flags EntityFlags) error {
	c.mustBeFinalized()
	p, err := c.portion(portionID)
	if err != nil {
		return err
	}
	c.apply(p, withTransparency(flags, p.flags.Has(Transparent)))
	return c.writeFlags2(p)
}

// SetColor rewrites the portion's color rows.
func (c *common) SetColor(portionID int, color [4]uint8) error {
	c.mustBeFinalized()
	p, err := c.portion(portionID)
	if err != nil {
		return err
	}
	return gpu.Update(c.bufs.Colors, p.VertexBase*4, repeat(color[:], p.VertexCount))
}

// SetOffset moves the portion by offset. It does nothing when the layer
// was created without entity offsets.
func (c *common) SetOffset(portionID int, offset mgl64.Vec3) error {
	c.mustBeFinalized()
	p, err := c.portion(portionID)
	if err != nil {
		return err
	}
	p.offset = [3]float32{float32(offset[0]), float32(offset[1]), float32(offset[2])}
	if c.bufs.Offsets == nil {
		return nil
	}
	data := make([]float32, 0, p.VertexCount*3)
	for i := 0; i < p.VertexCount; i++ {
		data = append(data, p.offset[:]...)
	}
	return gpu.Update(c.bufs.Offsets, p.VertexBase*3, data)
}

func (c *common) createFlagBuffers() error {
	var err error
	zeros := make([]uint8, c.numRows*4)
	if c.bufs.Flags, err = gpu.NewBuffer(c.cfg.Driver, gpu.ArrayBuffer, zeros, 4, false, gpu.DynamicDraw); err != nil {
		return fmt.Errorf("flags buffer: %w", err)
	}
	if c.bufs.Flags2, err = gpu.NewBuffer(c.cfg.Driver, gpu.ArrayBuffer, zeros, 4, false, gpu.DynamicDraw); err != nil {
		return fmt.Errorf("flags2 buffer: %w", err)
	}
	if c.cfg.EntityOffsets {
		offsets := make([]float32, c.numRows*3)
		if c.bufs.Offsets, err = gpu.NewBuffer(c.cfg.Driver, gpu.ArrayBuffer, offsets, 3, false, gpu.DynamicDraw); err != nil {
			return fmt.Errorf("offsets buffer: %w", err)
		}
	}
	return nil
}

// Destroy releases every buffer and removes the layer's counts from the
// model. A second call does nothing.
func (c *common) Destroy() error {
	if c.destroyed {
		return nil
	}
	c.destroyed = true
	var firstErr error
	for _, b := range c.bufs.all() {
		if err := b.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.cfg.Model != nil {
		c.cfg.Model.Sub(c.counters)
	}
	c.counters = Counters{}
	c.flagsShadow = nil
	c.flags2Shadow = nil
	return firstErr
}
