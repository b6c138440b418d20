package gpu

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"
)

// ComponentType is the element type of a vertex attribute buffer.
type ComponentType uint8

const (
	Byte ComponentType = iota
	UnsignedByte
	Short
	UnsignedShort
	Int
	UnsignedInt
	Float
)

// Size returns the component size in bytes.
func (c ComponentType) Size() int {
	switch c {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	default:
		return 4
	}
}

// Number is any element type a buffer can hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// Bytes packs a typed array into little-endian bytes.
func Bytes[T Number](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	out, err := binary.Append(nil, binary.LittleEndian, data)
	if err != nil {
		// only reachable for int/uint/uintptr, which have no fixed size
		panic(fmt.Sprintf("gpu: cannot pack %T: %v", data, err))
	}
	return out
}

func componentTypeOf[T Number]() ComponentType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Byte
	case uint8:
		return UnsignedByte
	case int16:
		return Short
	case uint16:
		return UnsignedShort
	case int32:
		return Int
	case uint32:
		return UnsignedInt
	default:
		return Float
	}
}

// Buffer is a GPU buffer owned by exactly one layer. Destroy releases it
// once; further calls do nothing.
type Buffer struct {
	driver    Driver
	id        BufferID
	target    Target
	component ComponentType
	itemSize  int
	numItems  int
	normalize bool
	destroyed bool
}

// NewBuffer uploads data as a new buffer of itemSize components per item.
func NewBuffer[T Number](d Driver, target Target, data []T, itemSize int, normalize bool, usage Usage) (*Buffer, error) {
	id, err := d.CreateBuffer(target, Bytes(data), usage)
	if err != nil {
		return nil, err
	}
	if itemSize <= 0 {
		itemSize = 1
	}
	return &Buffer{
		driver:    d,
		id:        id,
		target:    target,
		component: componentTypeOf[T](),
		itemSize:  itemSize,
		numItems:  len(data) / itemSize,
		normalize: normalize,
	}, nil
}

// ID returns the driver handle.
func (b *Buffer) ID() BufferID { return b.id }

// Target returns the binding point.
func (b *Buffer) Target() Target { return b.target }

// ComponentType returns the element type.
func (b *Buffer) ComponentType() ComponentType { return b.component }

// ItemSize returns components per item.
func (b *Buffer) ItemSize() int { return b.itemSize }

// NumItems returns the number of items uploaded.
func (b *Buffer) NumItems() int { return b.numItems }

// Normalized reports whether integer components read as normalized floats.
func (b *Buffer) Normalized() bool { return b.normalize }

// Destroyed reports whether Destroy has run.
func (b *Buffer) Destroyed() bool { return b.destroyed }

// Update overwrites components starting at element index elemOffset.
func Update[T Number](b *Buffer, elemOffset int, data []T) error {
	if b.destroyed {
		return ErrDestroyed
	}
	return b.driver.UpdateBuffer(b.id, elemOffset*b.component.Size(), Bytes(data))
}

// Destroy releases the buffer.
func (b *Buffer) Destroy() error {
	if b == nil || b.destroyed {
		return nil
	}
	b.destroyed = true
	return b.driver.DestroyBuffer(b.id)
}
