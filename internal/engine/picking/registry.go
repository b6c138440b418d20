// Package picking allocates the ids that identify meshes in the pick pass
// and intersects rays with scene geometry.
package picking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID = errors.New("picking: id 0 is reserved")
	ErrUnknownID = errors.New("picking: id not allocated")
	ErrNilOwner  = errors.New("picking: owner must not be nil")
	ErrExhausted = errors.New("picking: id space exhausted")
)

// Registry hands out pick ids. Id 0 is never allocated, so a cleared pick
// buffer reads as "nothing". A released id is reused only after release.
// One Registry is shared by every model rendered into the same pick
// buffer; it is not safe for concurrent use.
type Registry struct {
	owners []any // owners[0] is the reserved slot
	free   []uint32
	live   int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{owners: make([]any, 1, 128)}
}

// Allocate assigns a new id to owner.
func (r *Registry) Allocate(owner any) (uint32, error) {
	if owner == nil {
		return 0, ErrNilOwner
	}
	if n := len(r.free); n > 0 {
		id := r.free[n-1]
		r.free = r.free[:n-1]
		r.owners[id] = owner
		r.live++
		return id, nil
	}
	if uint64(len(r.owners)) > uint64(^uint32(0)) {
		return 0, ErrExhausted
	}
	r.owners = append(r.owners, owner)
	r.live++
	return uint32(len(r.owners) - 1), nil
}

// Release frees id for reuse.
func (r *Registry) Release(id uint32) error {
	if id == 0 {
		return ErrInvalidID
	}
	if int(id) >= len(r.owners) || r.owners[id] == nil {
		return fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	r.owners[id] = nil
	r.free = append(r.free, id)
	r.live--
	return nil
}

// Lookup returns the owner of id.
func (r *Registry) Lookup(id uint32) (any, bool) {
	if id == 0 || int(id) >= len(r.owners) {
		return nil, false
	}
	owner := r.owners[id]
	return owner, owner != nil
}

// Len returns the number of live ids.
func (r *Registry) Len() int {
	return r.live
}

// Color packs id into the RGBA bytes written to the pick buffer.
func Color(id uint32) [4]uint8 {
	return [4]uint8{
		uint8(id & 0xff),
		uint8((id >> 8) & 0xff),
		uint8((id >> 16) & 0xff),
		uint8((id >> 24) & 0xff),
	}
}

// IDFromColor reverses Color for a pixel read back from the pick buffer.
func IDFromColor(c [4]uint8) uint32 {
	return uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16 | uint32(c[3])<<24
}
