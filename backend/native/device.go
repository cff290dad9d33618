// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native runs the instanced render loop on a gogpu/wgpu HAL device.
//
// Device implements both gpucore.Device and gpucore.Surface. Frames are
// recorded on the CPU and encoded into a single render pass on Finish,
// which submits and waits for the GPU before returning.
package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Option configures a Device during creation.
type Option func(*Device)

// WithFormat sets the color target format pipelines are built for.
// The default is BGRA8Unorm.
func WithFormat(format gputypes.TextureFormat) Option {
	return func(d *Device) {
		d.format = format
	}
}

// WithShaderValidation makes CreateProgram run both stages through the
// naga compiler before handing them to the driver.
func WithShaderValidation(enabled bool) Option {
	return func(d *Device) {
		d.validate = enabled
	}
}

type buffer struct {
	hal  hal.Buffer
	size uint64
}

// Device wraps a HAL device and queue.
//
// Thread Safety: resource creation and destruction are safe for concurrent
// use. Frames must be recorded and finished from one goroutine at a time.
type Device struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	format   gputypes.TextureFormat
	validate bool

	// Set when the device was opened by Open and must be destroyed by Release.
	instance hal.Instance
	owned    bool

	// ID generation
	nextID atomic.Uint64

	buffers  map[gpucore.BufferID]*buffer
	programs map[gpucore.ProgramID]*program

	target   target
	depth    depthTarget
	onRedraw atomic.Pointer[func()]
}

var (
	_ gpucore.Device  = (*Device)(nil)
	_ gpucore.Surface = (*Device)(nil)
)

// NewDevice wraps an already opened HAL device and queue. The caller keeps
// ownership of both.
func NewDevice(device hal.Device, queue hal.Queue, opts ...Option) *Device {
	d := &Device{
		device:   device,
		queue:    queue,
		format:   gputypes.TextureFormatBGRA8Unorm,
		buffers:  make(map[gpucore.BufferID]*buffer),
		programs: make(map[gpucore.ProgramID]*program),
	}
	for _, opt := range opts {
		opt(d)
	}

	// Start ID generation at 1 (0 is invalid)
	d.nextID.Store(1)
	return d
}

func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// Format returns the color target format.
func (d *Device) Format() gputypes.TextureFormat { return d.format }

// CreateBuffer creates a GPU buffer.
func (d *Device) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size == 0 {
		return gpucore.InvalidID, fmt.Errorf("native: buffer %q: size must be positive", label)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w", label, err)
	}

	id := gpucore.BufferID(d.newID())
	d.mu.Lock()
	d.buffers[id] = &buffer{hal: buf, size: size}
	d.mu.Unlock()

	instanced.Logger().Debug("native: buffer created", "label", label, "id", id, "size", size)
	return id, nil
}

// WriteBuffer queues a write of data into the buffer at offset.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.RLock()
	buf, ok := d.buffers[id]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %d", gpucore.ErrUnknownBuffer, id)
	}
	if offset+uint64(len(data)) > buf.size {
		return fmt.Errorf("%w: %d+%d > %d", gpucore.ErrOutOfRange, offset, len(data), buf.size)
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.queue.WriteBuffer(buf.hal, offset, data); err != nil {
		return fmt.Errorf("native: write buffer %d: %w", id, err)
	}
	return nil
}

// BufferSize returns the buffer size, or 0 for unknown buffers.
func (d *Device) BufferSize(id gpucore.BufferID) uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if buf, ok := d.buffers[id]; ok {
		return buf.size
	}
	return 0
}

// DestroyBuffer releases a GPU buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	buf, ok := d.buffers[id]
	if ok {
		delete(d.buffers, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBuffer(buf.hal)
	}
}

// SetRedrawHandler installs the function RequestRedraw calls. Platforms
// use it to turn redraw requests into redraw events.
func (d *Device) SetRedrawHandler(fn func()) {
	if fn == nil {
		d.onRedraw.Store(nil)
		return
	}
	d.onRedraw.Store(&fn)
}

// RequestRedraw forwards to the redraw handler, if any.
func (d *Device) RequestRedraw() {
	if fn := d.onRedraw.Load(); fn != nil {
		(*fn)()
	}
}

// Release destroys every resource the device created, and the device
// itself when it was opened by Open.
func (d *Device) Release() {
	d.mu.Lock()
	buffers := d.buffers
	programs := d.programs
	d.buffers = make(map[gpucore.BufferID]*buffer)
	d.programs = make(map[gpucore.ProgramID]*program)
	d.mu.Unlock()

	for _, p := range programs {
		p.destroy(d.device)
	}
	for _, b := range buffers {
		d.device.DestroyBuffer(b.hal)
	}
	d.depth.destroy(d.device)
	d.target.destroy(d.device)

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
		d.owned = false
	}
}

// convertBufferUsage maps gpucore usage flags to HAL usage flags.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if usage&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageVertex != 0 {
		out |= gputypes.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	return out
}
