package instanced

import (
	"fmt"
	"slices"

	"github.com/gogpu/instanced/gpucore"
)

// AttributeBuffer is a fixed-length array of per-instance attributes with
// a device-side mirror.
//
// The CPU array is the source of truth. The device buffer is only written
// by Sync and must be considered stale until then. Both have the same
// length for the lifetime of the buffer.
//
// AttributeBuffer is not safe for concurrent use, except that disjoint
// elements may be mutated through Ptr from different goroutines.
type AttributeBuffer struct {
	dev     gpucore.Device
	attrs   []Attribute
	buffer  gpucore.BufferID
	staging []byte
	syncs   uint64
}

// NewAttributeBuffer copies initial into a new buffer and allocates a
// device buffer of the same length. The device buffer holds zeros until
// the first Sync.
func NewAttributeBuffer(dev gpucore.Device, initial []Attribute) (*AttributeBuffer, error) {
	if len(initial) == 0 {
		return nil, ErrEmptyBuffer
	}
	size := uint64(len(initial) * AttributeSize)
	buf, err := dev.CreateBuffer("attributes", size, gpucore.BufferUsageVertex|gpucore.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("%w: %d attributes (%d bytes): %w", ErrDeviceAllocation, len(initial), size, err)
	}
	Logger().Debug("attribute buffer created", "instances", len(initial), "bytes", size)
	return &AttributeBuffer{
		dev:     dev,
		attrs:   slices.Clone(initial),
		buffer:  buf,
		staging: make([]byte, size),
	}, nil
}

// Len returns the number of attributes in the CPU array.
func (b *AttributeBuffer) Len() int { return len(b.attrs) }

// DeviceLen returns the number of attributes the device buffer holds.
func (b *AttributeBuffer) DeviceLen() int {
	return int(b.dev.BufferSize(b.buffer) / AttributeSize)
}

// At returns a copy of attribute i. It panics if i is out of range.
func (b *AttributeBuffer) At(i int) Attribute {
	return b.attrs[b.check(i)]
}

// Ptr returns a pointer to attribute i. It panics if i is out of range.
func (b *AttributeBuffer) Ptr(i int) *Attribute {
	return &b.attrs[b.check(i)]
}

func (b *AttributeBuffer) check(i int) int {
	if i < 0 || i >= len(b.attrs) {
		panic(fmt.Sprintf("instanced: attribute index %d out of range [0, %d)", i, len(b.attrs)))
	}
	return i
}

// Sync overwrites the device buffer with the CPU array.
//
// Sync must run at most once per frame, before the buffer is drawn, and
// only after every concurrent mutation of the buffer has returned.
func (b *AttributeBuffer) Sync() error {
	for i := range b.attrs {
		b.attrs[i].put(b.staging[i*AttributeSize:])
	}
	if err := b.dev.WriteBuffer(b.buffer, 0, b.staging); err != nil {
		return fmt.Errorf("instanced: sync attributes: %w", err)
	}
	b.syncs++
	return nil
}

// Syncs returns how many times Sync succeeded.
func (b *AttributeBuffer) Syncs() uint64 { return b.syncs }

// Rotate composes a rotation of angle radians about axis into every
// attribute. See [Attribute.Rotate] for the convention.
func (b *AttributeBuffer) Rotate(axis int, angle float32) {
	for i := range b.attrs {
		b.attrs[i].Rotate(axis, angle)
	}
}

// Buffer returns the device buffer.
func (b *AttributeBuffer) Buffer() gpucore.BufferID { return b.buffer }

// Release frees the device buffer. The buffer must not be used afterwards.
func (b *AttributeBuffer) Release() {
	if b.buffer != gpucore.InvalidID {
		b.dev.DestroyBuffer(b.buffer)
		b.buffer = gpucore.InvalidID
	}
}

// slice exposes the CPU array to the fan-out in this package.
func (b *AttributeBuffer) slice() []Attribute { return b.attrs }
