package instanced

import "errors"

// Package errors.
var (
	// ErrEventSourceTaken is returned when the event source of an
	// [EventLoop] is handed off a second time.
	ErrEventSourceTaken = errors.New("instanced: event source already taken")

	// ErrNoDevice is returned when a scheduler is built without a device.
	ErrNoDevice = errors.New("instanced: nil device")

	// ErrNoSurface is returned when a scheduler is built without a surface.
	ErrNoSurface = errors.New("instanced: nil surface")

	// ErrNoEvents is returned when a scheduler is built without an event loop.
	ErrNoEvents = errors.New("instanced: nil event loop")

	// ErrTopologyMismatch is returned when a vertex count cannot form the
	// requested primitive topology.
	ErrTopologyMismatch = errors.New("instanced: vertex count incompatible with topology")

	// ErrEmptyBuffer is returned when an attribute buffer would hold no elements.
	ErrEmptyBuffer = errors.New("instanced: empty attribute buffer")

	// ErrDeviceAllocation wraps device buffer allocation failures.
	ErrDeviceAllocation = errors.New("instanced: device allocation failed")

	// ErrProgramMismatch is returned at draw time when a shape selects a
	// program that does not exist or cannot consume its streams.
	ErrProgramMismatch = errors.New("instanced: program incompatible with draw")

	// ErrFrameAcquire wraps failures to acquire a frame target.
	ErrFrameAcquire = errors.New("instanced: acquire frame")

	// ErrFrameFinish wraps failures to present a frame.
	ErrFrameFinish = errors.New("instanced: finish frame")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("instanced: invalid config")
)
