package native

import "errors"

// Backend errors.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoBackend is returned when the HAL backend is not compiled in.
	ErrNoBackend = errors.New("native: HAL backend not available")

	// ErrNoTarget is returned by Acquire before a render target was set.
	ErrNoTarget = errors.New("native: no render target")

	// ErrProvider is returned when a device provider does not expose HAL types.
	ErrProvider = errors.New("native: provider does not expose HAL device")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("native: invalid dimensions")

	// ErrGPUTimeout is returned when a submitted frame did not complete in time.
	ErrGPUTimeout = errors.New("native: timed out waiting for GPU")
)
