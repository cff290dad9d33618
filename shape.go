package instanced

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/gogpu/instanced/gpucore"
)

// Topology is the primitive topology of a shape's vertex stream.
type Topology = gpucore.Topology

// Primitive topologies.
const (
	PointList     = gpucore.TopologyPointList
	LineList      = gpucore.TopologyLineList
	LineStrip     = gpucore.TopologyLineStrip
	TriangleList  = gpucore.TopologyTriangleList
	TriangleStrip = gpucore.TopologyTriangleStrip
)

// ShapeOption configures a Shape during creation.
type ShapeOption func(*shapeOptions)

type shapeOptions struct {
	drawID int
	label  string
}

// WithDrawID selects the program the shape is drawn with.
// The default is 0.
func WithDrawID(id int) ShapeOption {
	return func(o *shapeOptions) {
		o.drawID = id
	}
}

// WithLabel sets the debug label of the device buffer.
func WithLabel(label string) ShapeOption {
	return func(o *shapeOptions) {
		o.label = label
	}
}

// Shape is static geometry: a vertex list with a fixed length, the
// topology it is assembled with, and the id of the program that draws it.
// The vertex list is mirrored in a device buffer written by Sync.
type Shape struct {
	dev      gpucore.Device
	vertices []Vertex
	topology Topology
	drawID   int
	buffer   gpucore.BufferID
}

// NewShape copies vertices into a new shape and uploads them.
// It fails with ErrTopologyMismatch if the vertex count cannot form the
// topology and with ErrDeviceAllocation if the device buffer cannot be
// created.
func NewShape(dev gpucore.Device, vertices []Vertex, topology Topology, opts ...ShapeOption) (*Shape, error) {
	o := shapeOptions{label: "shape"}
	for _, opt := range opts {
		opt(&o)
	}
	if !topology.Compatible(len(vertices)) {
		return nil, fmt.Errorf("%w: %d vertices as %s", ErrTopologyMismatch, len(vertices), topology)
	}

	size := uint64(len(vertices) * VertexSize)
	buf, err := dev.CreateBuffer(o.label, size, gpucore.BufferUsageVertex|gpucore.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("%w: shape %q (%d bytes): %w", ErrDeviceAllocation, o.label, size, err)
	}

	s := &Shape{
		dev:      dev,
		vertices: slices.Clone(vertices),
		topology: topology,
		drawID:   o.drawID,
		buffer:   buf,
	}
	if err := s.Sync(); err != nil {
		dev.DestroyBuffer(buf)
		return nil, err
	}
	return s, nil
}

// Triangle returns a small upward-pointing triangle.
func Triangle(dev gpucore.Device, opts ...ShapeOption) (*Shape, error) {
	return NewShape(dev, []Vertex{
		V(0.1, -0.1, 0),
		V(-0.1, -0.1, 0),
		V(0, 0.1, 0),
	}, TriangleList, opts...)
}

// Quad returns a square of half-size scale drawn as two triangles in a
// four-vertex strip.
func Quad(dev gpucore.Device, scale float32, opts ...ShapeOption) (*Shape, error) {
	return NewShape(dev, []Vertex{
		V(-scale, scale, 0),
		V(scale, scale, 0),
		V(-scale, -scale, 0),
		V(scale, -scale, 0),
	}, TriangleStrip, opts...)
}

// Circle returns a closed line strip of segments pieces around the origin.
// The first vertex is repeated at the end.
func Circle(dev gpucore.Device, radius float32, segments int, opts ...ShapeOption) (*Shape, error) {
	if segments < 1 {
		return nil, fmt.Errorf("%w: circle with %d segments", ErrTopologyMismatch, segments)
	}
	vertices := make([]Vertex, segments+1)
	step := 2 * math32.Pi / float32(segments)
	for k := range segments {
		sin, cos := math32.Sincos(step * float32(k))
		vertices[k] = V(cos*radius, sin*radius, 0)
	}
	vertices[segments] = vertices[0]
	return NewShape(dev, vertices, LineStrip, opts...)
}

// Vertices returns a copy of the vertex list.
func (s *Shape) Vertices() []Vertex {
	return slices.Clone(s.vertices)
}

// MutVertices returns the vertex list itself for in-place edits. Edits
// reach the device on the next Sync.
func (s *Shape) MutVertices() []Vertex {
	return s.vertices
}

// Len returns the number of vertices.
func (s *Shape) Len() int { return len(s.vertices) }

// Topology returns the primitive topology.
func (s *Shape) Topology() Topology { return s.topology }

// DrawID returns the id of the program the shape is drawn with.
func (s *Shape) DrawID() int { return s.drawID }

// Buffer returns the device vertex buffer.
func (s *Shape) Buffer() gpucore.BufferID { return s.buffer }

// Sync uploads the whole vertex list, whether or not it changed.
func (s *Shape) Sync() error {
	if err := s.dev.WriteBuffer(s.buffer, 0, encodeVertices(s.vertices)); err != nil {
		return fmt.Errorf("instanced: sync shape: %w", err)
	}
	return nil
}

// Release frees the device buffer. The shape must not be used afterwards.
func (s *Shape) Release() {
	if s.buffer != gpucore.InvalidID {
		s.dev.DestroyBuffer(s.buffer)
		s.buffer = gpucore.InvalidID
	}
}
