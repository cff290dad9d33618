package gpucore

// Device abstracts the device-side resources the render loop needs.
//
// Implementations must be safe for concurrent use.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and must not be reused
type Device interface {
	// CreateBuffer allocates a device buffer of size bytes.
	CreateBuffer(label string, size uint64, usage BufferUsage) (BufferID, error)

	// WriteBuffer copies data into the buffer at offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// BufferSize returns the allocated size of the buffer, or 0 if the
	// buffer is unknown.
	BufferSize(id BufferID) uint64

	// DestroyBuffer releases a device buffer.
	DestroyBuffer(id BufferID)

	// CreateProgram compiles a vertex+fragment program.
	CreateProgram(desc *ProgramDescriptor) (ProgramID, error)

	// DestroyProgram releases a program and every pipeline derived from it.
	DestroyProgram(id ProgramID)
}

// Frame is one acquired render target. Draw calls are recorded in order
// and executed by Finish in a single render pass.
type Frame interface {
	// Size returns the target size in pixels.
	Size() (width, height int)

	// Clear sets the clear color and depth the pass starts from.
	Clear(color Color, depth float32)

	// SetUniforms sets the per-frame uniforms for every program.
	SetUniforms(u Uniforms) error

	// Draw records an instanced draw call. It fails if the program is
	// unknown or the buffers do not match the program's stream layout.
	Draw(call DrawCall) error

	// Finish executes the recorded pass and presents the target.
	Finish() error
}

// Surface produces frames for a window or an offscreen target.
type Surface interface {
	// Acquire returns the next frame target.
	Acquire() (Frame, error)

	// RequestRedraw asks the platform to deliver a redraw event.
	RequestRedraw()
}
