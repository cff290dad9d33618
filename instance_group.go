package instanced

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/gogpu/instanced/gpucore"
	"github.com/gogpu/instanced/internal/parallel"
)

// sharedPool serves groups that did not ask for a worker count.
var sharedPool = sync.OnceValue(func() *parallel.WorkerPool {
	return parallel.NewWorkerPool(0)
})

// GroupOption configures an InstanceGroup during creation.
type GroupOption func(*groupOptions)

type groupOptions struct {
	attrs   []Attribute
	rng     *rand.Rand
	workers int
	sim     Simulation
}

// WithAttributes supplies the initial attributes instead of random ones.
func WithAttributes(attrs []Attribute) GroupOption {
	return func(o *groupOptions) {
		o.attrs = attrs
	}
}

// WithRand sets the generator used for random initial attributes.
func WithRand(rng *rand.Rand) GroupOption {
	return func(o *groupOptions) {
		o.rng = rng
	}
}

// WithSeed seeds the generator used for random initial attributes, see
// [NewRand].
func WithSeed(seed uint64) GroupOption {
	return WithRand(NewRand(seed))
}

// WithWorkers bounds the per-tick fan-out to n workers. 1 runs every step
// on the calling goroutine; 0 (the default) shares a GOMAXPROCS-sized pool.
func WithWorkers(n int) GroupOption {
	return func(o *groupOptions) {
		o.workers = n
	}
}

// WithSimulation attaches the collaborator that mutates the group's
// attributes on every Update.
func WithSimulation(sim Simulation) GroupOption {
	return func(o *groupOptions) {
		o.sim = sim
	}
}

// InstanceGroup draws one Shape once per attribute of one AttributeBuffer.
type InstanceGroup struct {
	shape    *Shape
	attrs    *AttributeBuffer
	sim      Simulation
	pool     *parallel.WorkerPool
	ownsPool bool
}

// NewInstanceGroup creates count instances of shape. Attributes are
// randomized (see [RandomAttribute]) unless WithAttributes supplies them,
// in which case count must be 0 or match their length.
func NewInstanceGroup(dev gpucore.Device, shape *Shape, count int, opts ...GroupOption) (*InstanceGroup, error) {
	var o groupOptions
	for _, opt := range opts {
		opt(&o)
	}

	attrs := o.attrs
	switch {
	case attrs != nil && count != 0 && count != len(attrs):
		return nil, fmt.Errorf("%w: count %d but %d attributes supplied", ErrInvalidConfig, count, len(attrs))
	case attrs == nil:
		if count <= 0 {
			return nil, ErrEmptyBuffer
		}
		rng := o.rng
		if rng == nil {
			rng = NewRand(0)
		}
		attrs = make([]Attribute, count)
		for i := range attrs {
			attrs[i] = RandomAttribute(rng)
		}
	}

	buf, err := NewAttributeBuffer(dev, attrs)
	if err != nil {
		return nil, err
	}
	g := NewInstanceGroupFromBuffer(shape, buf)
	g.sim = o.sim
	g.setWorkers(o.workers)
	return g, nil
}

// NewInstanceGroupFromBuffer pairs an existing shape and buffer.
func NewInstanceGroupFromBuffer(shape *Shape, buf *AttributeBuffer) *InstanceGroup {
	return &InstanceGroup{shape: shape, attrs: buf, pool: sharedPool()}
}

func (g *InstanceGroup) setWorkers(n int) {
	switch {
	case n == 1:
		g.pool = nil
	case n > 1:
		g.pool = parallel.NewWorkerPool(n)
		g.ownsPool = true
	}
}

// SetSimulation replaces the attached simulation.
func (g *InstanceGroup) SetSimulation(sim Simulation) { g.sim = sim }

// Shape returns the group's geometry.
func (g *InstanceGroup) Shape() *Shape { return g.shape }

// Attributes returns the group's attribute buffer.
func (g *InstanceGroup) Attributes() *AttributeBuffer { return g.attrs }

// Len returns the number of instances.
func (g *InstanceGroup) Len() int { return g.attrs.Len() }

// ForEachAttribute calls fn for every attribute and returns once all calls
// returned. Calls for different indices run concurrently on disjoint index
// ranges, so fn must not read or write other elements.
func (g *InstanceGroup) ForEachAttribute(fn func(i int, a *Attribute)) {
	attrs := g.attrs.slice()
	parallel.ForRange(g.pool, len(attrs), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i, &attrs[i])
		}
	})
}

// Update runs the attached simulation for one tick.
func (g *InstanceGroup) Update() error {
	if g.sim == nil {
		return nil
	}
	if b, ok := g.sim.(TickBeginner); ok {
		b.BeginTick()
	}
	g.ForEachAttribute(g.sim.Step)
	if e, ok := g.sim.(TickEnder); ok {
		return e.EndTick()
	}
	return nil
}

// RotateAxis composes a rotation into every instance.
func (g *InstanceGroup) RotateAxis(axis int, angle float32) {
	g.attrs.Rotate(axis, angle)
}

// Draw syncs the attribute buffer and issues one instanced draw call.
func (g *InstanceGroup) Draw(frame gpucore.Frame, programs Programs) error {
	if err := g.attrs.Sync(); err != nil {
		return err
	}
	return g.drawSynced(frame, programs)
}

// drawSynced issues the draw call without syncing.
func (g *InstanceGroup) drawSynced(frame gpucore.Frame, programs Programs) error {
	id := g.shape.DrawID()
	prog, ok := programs.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: no program for draw id %d", ErrProgramMismatch, id)
	}
	err := frame.Draw(gpucore.DrawCall{
		Program:       prog,
		Topology:      g.shape.Topology(),
		Vertices:      g.shape.Buffer(),
		Instances:     g.attrs.Buffer(),
		VertexCount:   uint32(g.shape.Len()),
		InstanceCount: uint32(g.attrs.Len()),
	})
	if errors.Is(err, gpucore.ErrLayoutMismatch) || errors.Is(err, gpucore.ErrUnknownProgram) {
		return fmt.Errorf("%w: draw id %d: %w", ErrProgramMismatch, id, err)
	}
	return err
}

// Release frees the shape, the attribute buffer and a private worker pool.
func (g *InstanceGroup) Release() {
	g.shape.Release()
	g.attrs.Release()
	if g.ownsPool {
		g.pool.Close()
	}
}

var (
	_ Object  = (*InstanceGroup)(nil)
	_ Rotator = (*InstanceGroup)(nil)
)
