package instanced

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexSize is the device size of a [Vertex] in bytes.
const VertexSize = 24

// Vertex is one element of a shape's per-vertex stream.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// V is shorthand for a vertex facing +z.
func V(x, y, z float32) Vertex {
	return Vertex{Position: mgl32.Vec3{x, y, z}, Normal: mgl32.Vec3{0, 0, 1}}
}

func putVec(b []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
}

func encodeVertices(vs []Vertex) []byte {
	b := make([]byte, len(vs)*VertexSize)
	for i := range vs {
		off := i * VertexSize
		putVec(b[off:], vs[i].Position[:])
		putVec(b[off+12:], vs[i].Normal[:])
	}
	return b
}
