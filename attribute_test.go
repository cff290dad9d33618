package instanced

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const roundTripEps = 1e-4

func maxDiff3(a, b mgl32.Mat4) float64 {
	var d float64
	for r := range 3 {
		for c := range 3 {
			d = max(d, math.Abs(float64(a.At(r, c)-b.At(r, c))))
		}
	}
	return d
}

func rowNorm(m mgl32.Mat4, r int) float64 {
	var s float64
	for c := range 3 {
		v := float64(m.At(r, c))
		s += v * v
	}
	return math.Sqrt(s)
}

func TestRotateRoundTrip(t *testing.T) {
	for _, n := range []int{4, 8, 360} {
		for axis := AxisX; axis <= AxisZ; axis++ {
			a := DefaultAttribute()
			theta := float32(2 * math.Pi / float64(n))
			for range n {
				a.Rotate(axis, theta)
			}
			if d := maxDiff3(a.Rotation, mgl32.Ident4()); d > roundTripEps {
				t.Errorf("N=%d axis=%d: max deviation from identity %g > %g", n, axis, d, roundTripEps)
			}
		}
	}
}

func TestRotateDriftBound(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	a := DefaultAttribute()
	for range 10000 {
		a.Rotate(rng.IntN(3), (rng.Float32()-0.5)*0.2)
	}
	for r := range 3 {
		if n := rowNorm(a.Rotation, r); math.Abs(n-1) > 1e-3 {
			t.Errorf("row %d norm = %v after 10000 compositions", r, n)
		}
	}
}

func TestRotateZeroIsExact(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	a := RandomAttribute(rng)
	a.Rotate(AxisX, 0.3)
	a.Rotate(AxisY, -1.1)
	before := a
	for axis := AxisX; axis <= AxisZ; axis++ {
		a.Rotate(axis, 0)
	}
	if a != before {
		t.Errorf("zero rotation changed the attribute:\n got %v\nwant %v", a.Rotation, before.Rotation)
	}
}

func TestRotateRightHandRule(t *testing.T) {
	tests := []struct {
		axis     int
		from, to mgl32.Vec3
	}{
		{AxisX, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{AxisY, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{AxisZ, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		a := DefaultAttribute()
		a.Rotate(tt.axis, math.Pi/2)
		got := a.Rotation.Mul4x1(tt.from.Vec4(0)).Vec3()
		for k := range got {
			if math.Abs(float64(got[k]-tt.to[k])) > 1e-6 {
				t.Errorf("axis %d: %v rotated to %v, want %v", tt.axis, tt.from, got, tt.to)
				break
			}
		}
	}
}

func TestRotateComposesOnTheLeft(t *testing.T) {
	a := DefaultAttribute()
	a.Rotate(AxisX, 0.4)
	a.Rotate(AxisZ, 0.7)
	want := mgl32.HomogRotate3DZ(0.7).Mul4(mgl32.HomogRotate3DX(0.4))
	if d := maxDiff3(a.Rotation, want); d > 1e-6 {
		t.Errorf("R = %v, want Rz·Rx = %v", a.Rotation, want)
	}
}

func TestRotateInvalidAxisPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Rotate(3, ...) did not panic")
		}
	}()
	a := DefaultAttribute()
	a.Rotate(3, 0)
}

func TestRandomAttributeBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for range 1000 {
		a := RandomAttribute(rng)
		for _, p := range a.WorldPosition {
			if p < -2 || p >= 2 {
				t.Fatalf("position component %v outside [-2, 2)", p)
			}
		}
		for _, c := range a.Color {
			if c < 0 || c >= 1 {
				t.Fatalf("color component %v outside [0, 1)", c)
			}
		}
		if a.Rotation != mgl32.Ident4() {
			t.Fatal("random attribute does not start at identity rotation")
		}
	}
}

func TestAttributeEncoding(t *testing.T) {
	a := DefaultAttribute()
	a.WorldPosition = mgl32.Vec3{1, 2, 3}
	b := make([]byte, AttributeSize)
	a.put(b)
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }

	if f(0) != 1 || f(4) != 2 || f(8) != 3 {
		t.Errorf("world position = (%v, %v, %v)", f(0), f(4), f(8))
	}
	if f(12) != 1 || f(12+5*4) != 1 || f(12+4) != 0 {
		t.Error("rotation not encoded column-major after position")
	}
	if f(76) != 1 || f(80) != 0 || f(88) != 1 {
		t.Errorf("color = (%v, %v, %v, %v)", f(76), f(80), f(84), f(88))
	}
}

// decodeAttribute reads one attribute back from device bytes.
func decodeAttribute(b []byte) Attribute {
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	var a Attribute
	for k := range a.WorldPosition {
		a.WorldPosition[k] = f(k * 4)
	}
	for k := range a.Rotation {
		a.Rotation[k] = f(12 + k*4)
	}
	for k := range a.Color {
		a.Color[k] = f(76 + k*4)
	}
	return a
}

func TestNewRandSeeds(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for range 8 {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("seed 42 diverged: %d != %d", x, y)
		}
	}
	if NewRand(42).Uint64() == NewRand(43).Uint64() {
		t.Error("seeds 42 and 43 start with the same value")
	}
	if NewRand(0).Uint64() == NewRand(0).Uint64() {
		t.Error("seed 0 repeated a value; it should pick a random seed")
	}
	if got, want := RandomAttribute(NewRand(7)), RandomAttribute(NewRand(7)); got != want {
		t.Errorf("RandomAttribute differs for one seed: %v != %v", got, want)
	}
}
