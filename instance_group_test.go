package instanced

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/instanced/gpucore"
)

// newPrograms creates the default program on dev.
func newPrograms(t *testing.T, dev gpucore.Device) Programs {
	t.Helper()
	id, err := dev.CreateProgram(&gpucore.ProgramDescriptor{
		Label:          "test",
		VertexStride:   VertexSize,
		InstanceStride: AttributeSize,
	})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	return Programs{id}
}

// drift is a per-element step with no cross-element reads.
func drift(i int, a *Attribute) {
	a.WorldPosition = a.WorldPosition.Mul(0.99).Add(mgl32.Vec3{0.001 * float32(i%5), 0, -0.002})
	a.Rotate(i%3, 0.01*float32(i%7))
	a.Color[3] = float32(i%11) / 10
}

func TestUpdateDeterminismAcrossWorkers(t *testing.T) {
	dev := newRecorder(t)
	const n = 4096

	run := func(workers int) []Attribute {
		shape, err := Triangle(dev)
		if err != nil {
			t.Fatal(err)
		}
		g, err := NewInstanceGroup(dev, shape, n, WithSeed(42), WithWorkers(workers), WithSimulation(StepFunc(drift)))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(g.Release)
		for range 5 {
			if err := g.Update(); err != nil {
				t.Fatal(err)
			}
		}
		out := make([]Attribute, g.Len())
		for i := range out {
			out[i] = g.Attributes().At(i)
		}
		return out
	}

	serial := run(1)
	for _, workers := range []int{2, 8} {
		par := run(workers)
		for i := range serial {
			if serial[i] != par[i] {
				t.Fatalf("workers=%d: attribute %d differs from serial run", workers, i)
			}
		}
	}
}

func TestForEachAttributeVisitsEveryIndexOnce(t *testing.T) {
	dev := newRecorder(t)
	shape, _ := Triangle(dev)
	g, err := NewInstanceGroup(dev, shape, 1000, WithSeed(1), WithWorkers(4))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()

	g.ForEachAttribute(func(i int, a *Attribute) {
		a.Color[0] += float32(i)
	})
	before, _ := NewInstanceGroup(dev, shape, 1000, WithSeed(1), WithWorkers(1))
	for i := range g.Len() {
		want := before.Attributes().At(i).Color[0] + float32(i)
		if got := g.Attributes().At(i).Color[0]; got != want {
			t.Fatalf("index %d: color %v, want %v", i, got, want)
		}
	}
}

type tickSim struct {
	begins, ends int
	steps        [8]int
}

func (s *tickSim) BeginTick()               { s.begins++ }
func (s *tickSim) Step(i int, _ *Attribute) { s.steps[i]++ }
func (s *tickSim) EndTick() error           { s.ends++; return nil }

func TestUpdateRunsTickHooks(t *testing.T) {
	dev := newRecorder(t)
	shape, _ := Triangle(dev)
	sim := &tickSim{}
	g, err := NewInstanceGroup(dev, shape, 8, WithSimulation(sim))
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Update(); err != nil {
		t.Fatal(err)
	}
	if sim.begins != 1 || sim.ends != 1 {
		t.Errorf("begins = %d, ends = %d, want 1/1", sim.begins, sim.ends)
	}
	for i, n := range sim.steps {
		if n != 1 {
			t.Errorf("index %d stepped %d times", i, n)
		}
	}
}

func TestInstanceGroupDraw(t *testing.T) {
	dev := newRecorder(t)
	programs := newPrograms(t, dev)
	shape, _ := Quad(dev, 0.1)
	g, err := NewInstanceGroup(dev, shape, 7)
	if err != nil {
		t.Fatal(err)
	}

	frame, _ := dev.Acquire()
	if err := g.Draw(frame, programs); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := frame.Finish(); err != nil {
		t.Fatal(err)
	}

	if dev.Writes(g.Attributes().Buffer()) != 1 {
		t.Errorf("attribute buffer synced %d times, want 1", dev.Writes(g.Attributes().Buffer()))
	}
	want := gpucore.DrawCall{
		Program:       programs[0],
		Topology:      TriangleStrip,
		Vertices:      shape.Buffer(),
		Instances:     g.Attributes().Buffer(),
		VertexCount:   4,
		InstanceCount: 7,
	}
	calls := dev.Calls()
	if len(calls) != 1 || calls[0] != want {
		t.Errorf("calls = %+v, want [%+v]", calls, want)
	}
}

func TestInstanceGroupProgramMismatch(t *testing.T) {
	dev := newRecorder(t)
	shape, _ := Triangle(dev, WithDrawID(3))
	g, _ := NewInstanceGroup(dev, shape, 2)
	frame, _ := dev.Acquire()

	if err := g.Draw(frame, newPrograms(t, dev)); !errors.Is(err, ErrProgramMismatch) {
		t.Errorf("missing program: err = %v, want ErrProgramMismatch", err)
	}

	narrow, err := dev.CreateProgram(&gpucore.ProgramDescriptor{Label: "narrow", VertexStride: 12, InstanceStride: AttributeSize})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Draw(frame, Programs{0, 0, 0, narrow}); !errors.Is(err, ErrProgramMismatch) {
		t.Errorf("layout mismatch: err = %v, want ErrProgramMismatch", err)
	}
}

func TestInstanceGroupExplicitAttributes(t *testing.T) {
	dev := newRecorder(t)
	shape, _ := Triangle(dev)
	attrs := randomAttributes(3, 8)

	g, err := NewInstanceGroup(dev, shape, 0, WithAttributes(attrs))
	if err != nil {
		t.Fatal(err)
	}
	for i := range attrs {
		if g.Attributes().At(i) != attrs[i] {
			t.Errorf("attribute %d not taken from WithAttributes", i)
		}
	}
	if _, err := NewInstanceGroup(dev, shape, 5, WithAttributes(attrs)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("count mismatch: err = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewInstanceGroup(dev, shape, 0); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("zero count: err = %v, want ErrEmptyBuffer", err)
	}
}

func TestSingleInstanceHalfTurn(t *testing.T) {
	for axis := AxisX; axis <= AxisZ; axis++ {
		dev := newRecorder(t)
		quad, err := Quad(dev, 0.5)
		if err != nil {
			t.Fatal(err)
		}
		g, err := NewInstanceGroup(dev, quad, 1, WithAttributes([]Attribute{DefaultAttribute()}))
		if err != nil {
			t.Fatal(err)
		}
		g.RotateAxis(axis, math.Pi)

		want := mgl32.Ident4()
		for _, r := range []int{(axis + 1) % 3, (axis + 2) % 3} {
			want.Set(r, r, -1)
		}
		if d := maxDiff3(g.Attributes().At(0).Rotation, want); d > 1e-6 {
			t.Errorf("axis %d: rotation %v, want %v", axis, g.Attributes().At(0).Rotation, want)
		}

		// The rotated normal of the quad faces away from the viewer unless
		// the turn is about z.
		n := g.Attributes().At(0).Rotation.Mul4x1(quad.Vertices()[0].Normal.Vec4(0)).Vec3()
		wantZ := float32(-1)
		if axis == AxisZ {
			wantZ = 1
		}
		if math.Abs(float64(n[2]-wantZ)) > 1e-6 {
			t.Errorf("axis %d: rotated normal %v, want z = %v", axis, n, wantZ)
		}
	}
}
