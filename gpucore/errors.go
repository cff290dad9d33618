package gpucore

import (
	"errors"
	"fmt"
)

// Package errors shared by every backend.
var (
	// ErrUnknownBuffer is returned when a buffer ID does not name a live buffer.
	ErrUnknownBuffer = errors.New("gpucore: unknown buffer")

	// ErrUnknownProgram is returned when a program ID does not name a live program.
	ErrUnknownProgram = errors.New("gpucore: unknown program")

	// ErrLayoutMismatch is returned when a draw call's buffers do not match
	// the stream layout the program was created with.
	ErrLayoutMismatch = errors.New("gpucore: stream layout mismatch")

	// ErrOutOfRange is returned when a write exceeds the buffer size.
	ErrOutOfRange = errors.New("gpucore: write out of range")

	// ErrFrameFinished is returned when a frame is used after Finish.
	ErrFrameFinished = errors.New("gpucore: frame already finished")
)

// ValidateDraw checks call against the program descriptor and the sizes
// of the two bound buffers.
func ValidateDraw(call DrawCall, desc *ProgramDescriptor, vertexBytes, instanceBytes uint64) error {
	if !call.Topology.Compatible(int(call.VertexCount)) {
		return fmt.Errorf("%w: %d vertices cannot form %s", ErrLayoutMismatch, call.VertexCount, call.Topology)
	}
	if want := uint64(call.VertexCount) * desc.VertexStride; vertexBytes != want {
		return fmt.Errorf("%w: vertex buffer is %d bytes, program %q expects %d",
			ErrLayoutMismatch, vertexBytes, desc.Label, want)
	}
	if want := uint64(call.InstanceCount) * desc.InstanceStride; instanceBytes != want {
		return fmt.Errorf("%w: instance buffer is %d bytes, program %q expects %d",
			ErrLayoutMismatch, instanceBytes, desc.Label, want)
	}
	return nil
}
