// Package gpucore provides the backend-neutral device abstractions used by
// the instanced render loop.
//
// The loop only needs three things from a GPU: buffers it can overwrite,
// programs that consume a per-vertex stream plus a per-instance stream, and
// frames it can clear, draw into, and present. [Device], [Frame] and
// [Surface] capture exactly that, so the same groups and scheduler run on:
//
//   - gogpu/wgpu (Pure Go WebGPU via HAL), see backend/native
//   - [Recorder], an in-memory null backend used for tests and dry runs
//
// Layering:
//
//	               +-----------------+
//	               |    instanced    |
//	               | (groups, loop)  |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               |     gpucore     |
//	               | Device / Frame  |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  native (hal)   |          |    Recorder     |
//	+-----------------+          +-----------------+
//
// # Resource Management
//
// Resources are managed via opaque IDs ([BufferID], [ProgramID]).
// Backends are responsible for tracking the mapping between IDs and their
// own handles. [InvalidID] is never returned for a live resource.
package gpucore
