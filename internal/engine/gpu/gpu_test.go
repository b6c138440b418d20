package gpu

import (
	"errors"
	"testing"
)

func TestBytesLittleEndian(t *testing.T) {
	got := Bytes([]uint16{0x0102, 0xA0B0})
	want := []byte{0x02, 0x01, 0xB0, 0xA0}
	if string(got) != string(want) {
		t.Errorf("Bytes: got %v, want %v", got, want)
	}

	if Bytes([]float32{}) != nil {
		t.Error("empty input should pack to nil")
	}
}

func TestComponentTypeOf(t *testing.T) {
	tests := []struct {
		name string
		got  ComponentType
		want ComponentType
		size int
	}{
		{"int8", componentTypeOf[int8](), Byte, 1},
		{"uint8", componentTypeOf[uint8](), UnsignedByte, 1},
		{"uint16", componentTypeOf[uint16](), UnsignedShort, 2},
		{"uint32", componentTypeOf[uint32](), UnsignedInt, 4},
		{"float32", componentTypeOf[float32](), Float, 4},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, tt.got, tt.want)
		}
		if tt.got.Size() != tt.size {
			t.Errorf("%s size: got %d, want %d", tt.name, tt.got.Size(), tt.size)
		}
	}
}

func TestBufferLifecycle(t *testing.T) {
	d := NewMemoryDriver()
	b, err := NewBuffer(d, ArrayBuffer, []uint16{1, 2, 3, 4, 5, 6}, 3, false, StaticDraw)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if b.NumItems() != 2 || b.ItemSize() != 3 || b.ComponentType() != UnsignedShort {
		t.Errorf("buffer meta: items %d, size %d, type %d", b.NumItems(), b.ItemSize(), b.ComponentType())
	}

	if err := Update(b, 3, []uint16{40, 50}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := d.BufferData(b.ID())
	want := Bytes([]uint16{1, 2, 3, 40, 50, 6})
	if string(got) != string(want) {
		t.Errorf("after update: got %v, want %v", got, want)
	}

	if err := b.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := b.Destroy(); err != nil {
		t.Errorf("second Destroy should be a no-op, got %v", err)
	}
	if d.Destroys != 1 {
		t.Errorf("Destroys: got %d, want 1", d.Destroys)
	}
	if d.LiveBuffers() != 0 {
		t.Errorf("LiveBuffers: got %d, want 0", d.LiveBuffers())
	}
	if err := Update(b, 0, []uint16{1}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("update after destroy: got %v, want ErrDestroyed", err)
	}
}

func TestMemoryDriverErrors(t *testing.T) {
	d := NewMemoryDriver()
	id, _ := d.CreateBuffer(ArrayBuffer, make([]byte, 4), DynamicDraw)

	if err := d.UpdateBuffer(id, 2, make([]byte, 4)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("overflowing update: got %v, want ErrOutOfRange", err)
	}
	if err := d.UpdateBuffer(id+100, 0, nil); !errors.Is(err, ErrUnknownBuffer) {
		t.Errorf("unknown buffer: got %v, want ErrUnknownBuffer", err)
	}
	if err := d.DestroyTexture(99); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("unknown texture: got %v, want ErrUnknownTexture", err)
	}
}

func TestFilterValidity(t *testing.T) {
	tests := []struct {
		f        Filter
		min, mag bool
		mip      bool
	}{
		{NearestFilter, true, true, false},
		{LinearFilter, true, true, false},
		{LinearMipmapLinearFilter, true, false, true},
		{NearestMipmapNearestFilter, true, false, true},
		{Filter(42), false, false, true},
	}
	for _, tt := range tests {
		if tt.f.ValidMin() != tt.min {
			t.Errorf("%v ValidMin: got %v, want %v", tt.f, !tt.min, tt.min)
		}
		if tt.f.ValidMag() != tt.mag {
			t.Errorf("%v ValidMag: got %v, want %v", tt.f, !tt.mag, tt.mag)
		}
		if tt.f.Mipmapped() != tt.mip {
			t.Errorf("%v Mipmapped: got %v, want %v", tt.f, !tt.mip, tt.mip)
		}
	}

	if Wrap(7).Valid() || !ClampToEdgeWrapping.Valid() {
		t.Error("wrap validity wrong")
	}
}
