package instanced

import "github.com/gogpu/instanced/gpucore"

// Programs maps draw ids (see [Shape.DrawID]) to device programs.
type Programs []gpucore.ProgramID

// Lookup returns the program for a draw id.
func (p Programs) Lookup(id int) (gpucore.ProgramID, bool) {
	if id < 0 || id >= len(p) || p[id] == gpucore.InvalidID {
		return gpucore.InvalidID, false
	}
	return p[id], true
}

// Drawable is anything the scheduler can draw into a frame.
type Drawable interface {
	Draw(frame gpucore.Frame, programs Programs) error
}

// Updatable advances simulation state by one tick.
type Updatable interface {
	Update() error
}

// Rotator accepts group-wide incremental rotations.
type Rotator interface {
	RotateAxis(axis int, angle float32)
}

// Object is a group the scheduler both updates and draws.
type Object interface {
	Drawable
	Updatable
}

// Simulation mutates one attribute for one tick. Step is called for
// every index of a group, concurrently for different indices, so it must
// only write to a and to state owned by index i.
type Simulation interface {
	Step(i int, a *Attribute)
}

// TickBeginner is implemented by simulations that need to prepare shared
// read-only state (for example a snapshot of the previous generation)
// before Step runs. BeginTick runs on the scheduler goroutine.
type TickBeginner interface {
	BeginTick()
}

// TickEnder is implemented by simulations that finish a tick after every
// Step returned, for example to upload mutated geometry.
type TickEnder interface {
	EndTick() error
}

// StepFunc adapts a function to [Simulation].
type StepFunc func(i int, a *Attribute)

// Step calls f(i, a).
func (f StepFunc) Step(i int, a *Attribute) { f(i, a) }
