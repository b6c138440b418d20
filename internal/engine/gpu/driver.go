// Package gpu defines the buffer and texture contract that layers upload
// through, and an in-memory implementation of it.
package gpu

import "errors"

var (
	ErrUnknownBuffer  = errors.New("gpu: unknown buffer")
	ErrUnknownTexture = errors.New("gpu: unknown texture")
	ErrOutOfRange     = errors.New("gpu: update out of range")
	ErrDestroyed      = errors.New("gpu: buffer destroyed")
)

// Target is the binding point of a buffer.
type Target uint8

const (
	ArrayBuffer Target = iota
	ElementArrayBuffer
)

// Usage hints how often a buffer is rewritten.
type Usage uint8

const (
	StaticDraw Usage = iota
	DynamicDraw
)

// BufferID identifies a buffer created by a Driver. Zero is never valid.
type BufferID uint32

// TextureID identifies a texture created by a Driver. Zero is never valid.
type TextureID uint32

// Driver creates, updates and destroys GPU resources from typed byte
// arrays. Layers never issue draw calls through it.
type Driver interface {
	CreateBuffer(target Target, data []byte, usage Usage) (BufferID, error)
	UpdateBuffer(id BufferID, byteOffset int, data []byte) error
	DestroyBuffer(id BufferID) error
	CreateTexture(desc TextureDesc) (TextureID, error)
	DestroyTexture(id TextureID) error
}
