// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// Recorder is a null backend that keeps buffer contents in memory and
// records every frame instead of rendering it. It implements both
// [Device] and [Surface].
//
// Recorder is safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	width, height int

	nextID   atomic.Uint64
	buffers  map[BufferID][]byte
	writes   map[BufferID]int
	programs map[ProgramID]ProgramDescriptor
	frames   []RecordedFrame
	redraws  int

	// MaxBufferSize makes CreateBuffer fail above this size when non-zero.
	MaxBufferSize uint64

	// AcquireErr and FinishErr, when set, are returned by Acquire and
	// Finish to simulate device loss.
	AcquireErr error
	FinishErr  error

	// OnRedraw is called (outside the lock) by RequestRedraw.
	OnRedraw func()
}

// RecordedFrame is everything one frame did.
type RecordedFrame struct {
	Clear    Color
	Depth    float32
	Uniforms Uniforms
	Calls    []DrawCall
}

var (
	_ Device  = (*Recorder)(nil)
	_ Surface = (*Recorder)(nil)
)

// NewRecorder creates a recorder whose frames report the given size.
func NewRecorder(width, height int) *Recorder {
	r := &Recorder{
		width:    width,
		height:   height,
		buffers:  make(map[BufferID][]byte),
		writes:   make(map[BufferID]int),
		programs: make(map[ProgramID]ProgramDescriptor),
	}
	r.nextID.Store(1)
	return r
}

func (r *Recorder) newID() uint64 {
	return r.nextID.Add(1) - 1
}

// CreateBuffer allocates zeroed host memory standing in for a device buffer.
func (r *Recorder) CreateBuffer(label string, size uint64, _ BufferUsage) (BufferID, error) {
	if r.MaxBufferSize != 0 && size > r.MaxBufferSize {
		return InvalidID, fmt.Errorf("create buffer %q: %d bytes exceeds limit %d", label, size, r.MaxBufferSize)
	}
	id := BufferID(r.newID())
	r.mu.Lock()
	r.buffers[id] = make([]byte, size)
	r.mu.Unlock()
	return id, nil
}

// WriteBuffer copies data into the buffer.
func (r *Recorder) WriteBuffer(id BufferID, offset uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("%w: %d+%d > %d", ErrOutOfRange, offset, len(data), len(buf))
	}
	copy(buf[offset:], data)
	r.writes[id]++
	return nil
}

// BufferSize returns the buffer size, or 0 for unknown buffers.
func (r *Recorder) BufferSize(id BufferID) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.buffers[id]))
}

// DestroyBuffer releases the buffer.
func (r *Recorder) DestroyBuffer(id BufferID) {
	r.mu.Lock()
	delete(r.buffers, id)
	r.mu.Unlock()
}

// CreateProgram stores the descriptor. Sources are not compiled.
func (r *Recorder) CreateProgram(desc *ProgramDescriptor) (ProgramID, error) {
	if desc.VertexStride == 0 || desc.InstanceStride == 0 {
		return InvalidID, fmt.Errorf("create program %q: zero stream stride", desc.Label)
	}
	id := ProgramID(r.newID())
	r.mu.Lock()
	r.programs[id] = *desc
	r.mu.Unlock()
	return id, nil
}

// DestroyProgram forgets the program.
func (r *Recorder) DestroyProgram(id ProgramID) {
	r.mu.Lock()
	delete(r.programs, id)
	r.mu.Unlock()
}

// Acquire starts a new recorded frame.
func (r *Recorder) Acquire() (Frame, error) {
	if r.AcquireErr != nil {
		return nil, r.AcquireErr
	}
	return &recordedFrame{r: r}, nil
}

// RequestRedraw counts the request and calls OnRedraw.
func (r *Recorder) RequestRedraw() {
	r.mu.Lock()
	r.redraws++
	fn := r.OnRedraw
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Contents returns a copy of the buffer's current bytes.
func (r *Recorder) Contents(id BufferID) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.buffers[id])
}

// Writes returns how many times the buffer was written.
func (r *Recorder) Writes(id BufferID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes[id]
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (r *Recorder) LiveBuffers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffers)
}

// Frames returns the finished frames in order.
func (r *Recorder) Frames() []RecordedFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames)
}

// Calls returns every draw call of every finished frame in order.
func (r *Recorder) Calls() []DrawCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var calls []DrawCall
	for _, f := range r.frames {
		calls = append(calls, f.Calls...)
	}
	return calls
}

// Redraws returns the number of RequestRedraw calls.
func (r *Recorder) Redraws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redraws
}

type recordedFrame struct {
	r        *Recorder
	frame    RecordedFrame
	finished bool
}

func (f *recordedFrame) Size() (int, int) { return f.r.width, f.r.height }

func (f *recordedFrame) Clear(color Color, depth float32) {
	f.frame.Clear = color
	f.frame.Depth = depth
}

func (f *recordedFrame) SetUniforms(u Uniforms) error {
	if f.finished {
		return ErrFrameFinished
	}
	f.frame.Uniforms = u
	return nil
}

func (f *recordedFrame) Draw(call DrawCall) error {
	if f.finished {
		return ErrFrameFinished
	}
	r := f.r
	r.mu.Lock()
	desc, ok := r.programs[call.Program]
	vb, vok := r.buffers[call.Vertices]
	ib, iok := r.buffers[call.Instances]
	r.mu.Unlock()
	switch {
	case !ok:
		return fmt.Errorf("%w: %d", ErrUnknownProgram, call.Program)
	case !vok:
		return fmt.Errorf("%w: vertices %d", ErrUnknownBuffer, call.Vertices)
	case !iok:
		return fmt.Errorf("%w: instances %d", ErrUnknownBuffer, call.Instances)
	}
	if err := ValidateDraw(call, &desc, uint64(len(vb)), uint64(len(ib))); err != nil {
		return err
	}
	f.frame.Calls = append(f.frame.Calls, call)
	return nil
}

func (f *recordedFrame) Finish() error {
	if f.finished {
		return ErrFrameFinished
	}
	f.finished = true
	if f.r.FinishErr != nil {
		return f.r.FinishErr
	}
	f.r.mu.Lock()
	f.r.frames = append(f.r.frames, f.frame)
	f.r.mu.Unlock()
	return nil
}
