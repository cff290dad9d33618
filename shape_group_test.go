package instanced

import (
	"math"
	"testing"

	"github.com/gogpu/instanced/gpucore"
)

// threePairs builds P1 (triangle), P2 (quad), P3 (circle) in that order.
func threePairs(t *testing.T, dev gpucore.Device) (*ShapeGroup, []gpucore.BufferID) {
	t.Helper()
	g := NewShapeGroup()
	var order []gpucore.BufferID
	builders := []func() (*Shape, error){
		func() (*Shape, error) { return Triangle(dev) },
		func() (*Shape, error) { return Quad(dev, 0.2) },
		func() (*Shape, error) { return Circle(dev, 0.1, 12) },
	}
	for i, build := range builders {
		shape, err := build()
		if err != nil {
			t.Fatal(err)
		}
		buf, err := NewAttributeBuffer(dev, randomAttributes(i+2, uint64(i)))
		if err != nil {
			t.Fatal(err)
		}
		g.Push(shape, buf)
		order = append(order, buf.Buffer())
	}
	return g, order
}

func TestShapeGroupDrawOrder(t *testing.T) {
	dev := newRecorder(t)
	programs := newPrograms(t, dev)
	g, order := threePairs(t, dev)

	const frames = 4
	for range frames {
		if err := g.Update(); err != nil {
			t.Fatal(err)
		}
		frame, _ := dev.Acquire()
		if err := g.Draw(frame, programs); err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if err := frame.Finish(); err != nil {
			t.Fatal(err)
		}
	}

	recorded := dev.Frames()
	if len(recorded) != frames {
		t.Fatalf("frames = %d, want %d", len(recorded), frames)
	}
	for f, rf := range recorded {
		if len(rf.Calls) != len(order) {
			t.Fatalf("frame %d: %d calls, want %d", f, len(rf.Calls), len(order))
		}
		for i, call := range rf.Calls {
			if call.Instances != order[i] {
				t.Errorf("frame %d call %d drew buffer %d, want %d", f, i, call.Instances, order[i])
			}
			if want := uint32(i + 2); call.InstanceCount != want {
				t.Errorf("frame %d call %d: %d instances, want %d", f, i, call.InstanceCount, want)
			}
		}
	}
}

func TestShapeGroupSyncsOncePerFrame(t *testing.T) {
	dev := newRecorder(t)
	programs := newPrograms(t, dev)
	g, order := threePairs(t, dev)

	if err := g.Update(); err != nil {
		t.Fatal(err)
	}
	frame, _ := dev.Acquire()
	if err := g.Draw(frame, programs); err != nil {
		t.Fatal(err)
	}
	for i, id := range order {
		if n := dev.Writes(id); n != 1 {
			t.Errorf("member %d synced %d times in one frame, want 1", i, n)
		}
	}
}

func TestShapeGroupRotateBroadcast(t *testing.T) {
	dev := newRecorder(t)
	g, _ := threePairs(t, dev)
	g.RotateAxis(AxisZ, math.Pi/2)
	for i := range g.Len() {
		b := g.Member(i).Attributes()
		for k := range b.Len() {
			m := b.At(k).Rotation
			if math.Abs(float64(m.At(1, 0)-1)) > 1e-6 {
				t.Errorf("member %d attribute %d not rotated: %v", i, k, m)
			}
		}
	}
}

func TestShapeGroupUpdateStepsMembers(t *testing.T) {
	dev := newRecorder(t)
	g, _ := threePairs(t, dev)
	steps := 0
	g.Member(1).SetSimulation(StepFunc(func(int, *Attribute) { steps++ }))
	if err := g.Update(); err != nil {
		t.Fatal(err)
	}
	if steps != 3 {
		t.Errorf("steps = %d, want 3", steps)
	}
}

func TestShapeGroupRelease(t *testing.T) {
	dev := newRecorder(t)
	g, _ := threePairs(t, dev)
	g.Release()
	if dev.LiveBuffers() != 0 {
		t.Errorf("LiveBuffers = %d after Release", dev.LiveBuffers())
	}
	if g.Len() != 0 {
		t.Errorf("Len = %d after Release", g.Len())
	}
}
