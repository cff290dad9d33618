package instanced

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// AttributeSize is the device size of an [Attribute] in bytes:
// vec3 world position, mat4 rotation (column-major), vec4 color.
const AttributeSize = 92

// Rotation axes for [Attribute.Rotate].
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Attribute is the per-instance state of one draw repetition.
//
// Rotation is identity at creation and only changes through Rotate, so it
// stays a proper rotation for the lifetime of the instance.
type Attribute struct {
	WorldPosition mgl32.Vec3
	Rotation      mgl32.Mat4
	Color         mgl32.Vec4
}

// DefaultAttribute returns an instance at the origin with identity
// rotation and opaque red color.
func DefaultAttribute() Attribute {
	return Attribute{
		Rotation: mgl32.Ident4(),
		Color:    mgl32.Vec4{1, 0, 0, 1},
	}
}

// pcgStream derives the second PCG word from the seed.
const pcgStream = 0x9e3779b97f4a7c15

// NewRand returns a generator seeded with seed. Seed 0 picks a random
// seed, so every run differs.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

// RandomAttribute returns an instance with each position component in
// [-2, 2) and each color component in [0, 1).
func RandomAttribute(rng *rand.Rand) Attribute {
	a := DefaultAttribute()
	for k := range a.WorldPosition {
		a.WorldPosition[k] = rng.Float32()*4 - 2
	}
	for k := range a.Color {
		a.Color[k] = rng.Float32()
	}
	return a
}

// Rotate composes a rotation of angle radians about axis (AxisX, AxisY or
// AxisZ) into the current rotation: R' = R_axis(angle) · R.
//
// Only the two rows of the 3x3 rotation block that R_axis mixes are
// touched: for axis a they are i = (a+1)%3 and j = (a+2)%3, and
//
//	row_i' = cos·row_i − sin·row_j
//	row_j' = sin·row_i + cos·row_j
//
// Each axis follows the right-hand rule independently: a positive angle
// about z turns +x towards +y. The blend runs in float64 and both rows are
// renormalized, which keeps row norms at 1 across long compositions.
// A zero angle leaves the matrix untouched bit for bit.
//
// Rotate panics if axis is not 0, 1 or 2.
func (a *Attribute) Rotate(axis int, angle float32) {
	if axis < AxisX || axis > AxisZ {
		panic(fmt.Sprintf("instanced: rotation axis %d out of range [0, 2]", axis))
	}
	if angle == 0 {
		return
	}
	i, j := (axis+1)%3, (axis+2)%3
	s, c := math.Sincos(float64(angle))

	m := &a.Rotation
	var ri, rj [3]float64
	for k := range 3 {
		x, y := float64(m.At(i, k)), float64(m.At(j, k))
		ri[k] = c*x - s*y
		rj[k] = s*x + c*y
	}
	normalize3(&ri)
	normalize3(&rj)
	for k := range 3 {
		m.Set(i, k, float32(ri[k]))
		m.Set(j, k, float32(rj[k]))
	}
}

func normalize3(v *[3]float64) {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n == 0 {
		return
	}
	v[0] /= n
	v[1] /= n
	v[2] /= n
}

// put encodes a into b, which must hold AttributeSize bytes.
func (a *Attribute) put(b []byte) {
	putVec(b, a.WorldPosition[:])
	putVec(b[12:], a.Rotation[:])
	putVec(b[76:], a.Color[:])
}
