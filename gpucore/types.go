package gpucore

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Resource IDs
//
// These opaque IDs represent device resources. Each backend maintains a
// mapping between IDs and its own handles.

// BufferID is an opaque handle to a device buffer.
type BufferID uint64

// ProgramID is an opaque handle to a compiled vertex+fragment program.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 0

	// BufferUsageCopyDst indicates the buffer can be written by the queue.
	BufferUsageCopyDst BufferUsage = 1 << 1

	// BufferUsageVertex indicates the buffer can be bound as a vertex stream.
	BufferUsageVertex BufferUsage = 1 << 2

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 3
)

// Topology is the primitive topology a vertex stream is assembled with.
type Topology uint8

// Primitive topologies.
const (
	TopologyPointList Topology = iota
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleList
	TopologyTriangleStrip
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case TopologyPointList:
		return "PointList"
	case TopologyLineList:
		return "LineList"
	case TopologyLineStrip:
		return "LineStrip"
	case TopologyTriangleList:
		return "TriangleList"
	case TopologyTriangleStrip:
		return "TriangleStrip"
	default:
		return "Unknown"
	}
}

// Compatible reports whether n vertices form at least one complete
// primitive and no dangling partial primitive.
func (t Topology) Compatible(n int) bool {
	switch t {
	case TopologyPointList:
		return n >= 1
	case TopologyLineList:
		return n >= 2 && n%2 == 0
	case TopologyLineStrip:
		return n >= 2
	case TopologyTriangleList:
		return n >= 3 && n%3 == 0
	case TopologyTriangleStrip:
		return n >= 3
	default:
		return false
	}
}

// Color is a linear RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// ProgramDescriptor describes a vertex+fragment program and the two vertex
// streams it consumes: a per-vertex stream and a per-instance stream.
type ProgramDescriptor struct {
	// Label is an optional debug label.
	Label string

	// VertexSource and FragmentSource are WGSL sources.
	VertexSource   string
	FragmentSource string

	// VertexEntry and FragmentEntry name the entry points.
	// Empty means "vs_main" and "fs_main".
	VertexEntry   string
	FragmentEntry string

	// VertexStride is the byte size of one element of the per-vertex stream.
	VertexStride uint64

	// InstanceStride is the byte size of one element of the per-instance stream.
	InstanceStride uint64
}

// Entries returns the entry point names with defaults applied.
func (d *ProgramDescriptor) Entries() (vertex, fragment string) {
	vertex, fragment = d.VertexEntry, d.FragmentEntry
	if vertex == "" {
		vertex = "vs_main"
	}
	if fragment == "" {
		fragment = "fs_main"
	}
	return vertex, fragment
}

// DrawCall is one instanced draw: VertexCount vertices from Vertices,
// repeated InstanceCount times with attributes from Instances.
type DrawCall struct {
	Program       ProgramID
	Topology      Topology
	Vertices      BufferID
	Instances     BufferID
	VertexCount   uint32
	InstanceCount uint32
}

// UniformsSize is the device size of [Uniforms] in bytes.
const UniformsSize = 80

// Uniforms are the per-frame values shared by every program.
// Layout matches the WGSL struct: mat4x4<f32> followed by vec4<f32>.
type Uniforms struct {
	// ViewProjection maps world space to clip space.
	ViewProjection mgl32.Mat4

	// Light is the direction towards the light source.
	Light mgl32.Vec3
}

// Bytes encodes u in the device layout.
func (u Uniforms) Bytes() []byte {
	buf := make([]byte, UniformsSize)
	for i, f := range u.ViewProjection {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	for i, f := range u.Light {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(f))
	}
	return buf
}
