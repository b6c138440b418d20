package gpu

import (
	"fmt"
	"sync"
)

type memBuffer struct {
	target Target
	usage  Usage
	data   []byte
}

// MemoryDriver keeps every resource in host memory. It backs headless
// tools and lets tests read back exactly what a layer uploaded.
type MemoryDriver struct {
	mu       sync.Mutex
	nextID   uint32
	buffers  map[BufferID]*memBuffer
	textures map[TextureID]TextureDesc

	Creates  int
	Updates  int
	Destroys int
	Uploaded int // bytes
}

// NewMemoryDriver returns an empty driver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		buffers:  make(map[BufferID]*memBuffer),
		textures: make(map[TextureID]TextureDesc),
	}
}

// CreateBuffer implements Driver.
func (d *MemoryDriver) CreateBuffer(target Target, data []byte, usage Usage) (BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := BufferID(d.nextID)
	d.buffers[id] = &memBuffer{
		target: target,
		usage:  usage,
		data:   append([]byte(nil), data...),
	}
	d.Creates++
	d.Uploaded += len(data)
	return id, nil
}

// UpdateBuffer implements Driver.
func (d *MemoryDriver) UpdateBuffer(id BufferID, byteOffset int, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if byteOffset < 0 || byteOffset+len(data) > len(b.data) {
		return fmt.Errorf("%w: buffer %d, offset %d, length %d, size %d",
			ErrOutOfRange, id, byteOffset, len(data), len(b.data))
	}
	copy(b.data[byteOffset:], data)
	d.Updates++
	d.Uploaded += len(data)
	return nil
}

// DestroyBuffer implements Driver.
func (d *MemoryDriver) DestroyBuffer(id BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.buffers[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	delete(d.buffers, id)
	d.Destroys++
	return nil
}

// CreateTexture implements Driver.
func (d *MemoryDriver) CreateTexture(desc TextureDesc) (TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := TextureID(d.nextID)
	desc.Data = append([]byte(nil), desc.Data...)
	d.textures[id] = desc
	d.Uploaded += len(desc.Data)
	return id, nil
}

// DestroyTexture implements Driver.
func (d *MemoryDriver) DestroyTexture(id TextureID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.textures[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	delete(d.textures, id)
	return nil
}

// BufferData returns a copy of a buffer's current contents, or nil if the
// buffer does not exist.
func (d *MemoryDriver) BufferData(id BufferID) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.buffers[id]
	if !ok {
		return nil
	}
	return append([]byte(nil), b.data...)
}

// Texture returns the description a texture was created with.
func (d *MemoryDriver) Texture(id TextureID) (TextureDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	desc, ok := d.textures[id]
	return desc, ok
}

// LiveBuffers returns how many buffers exist.
func (d *MemoryDriver) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// LiveTextures returns how many textures exist.
func (d *MemoryDriver) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}
