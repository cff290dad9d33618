package instanced

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/instanced/gpucore"
)

// State is the lifecycle state of a Scheduler.
type State int32

// Scheduler states.
const (
	StateInit State = iota
	StateRunning
	StateExit
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateRunning:
		return "Running"
	case StateExit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// KeyHandler receives key events. It runs on the loop goroutine.
type KeyHandler func(s *Scheduler, ev KeyEvent)

// SchedulerOption configures a Scheduler during creation.
type SchedulerOption func(*Scheduler)

// WithKeyHandler replaces the default key handler, which toggles the
// group spin on Space.
func WithKeyHandler(h KeyHandler) SchedulerOption {
	return func(s *Scheduler) {
		s.onKey = h
	}
}

// Scheduler runs the frame loop: on "events cleared" it updates every
// object and requests a redraw; on "redraw" it draws every object into a
// fresh frame; on "close" it stops for good.
//
// Update and draw never overlap: both run on the goroutine that called Run.
type Scheduler struct {
	cfg      Config
	dev      gpucore.Device
	surface  gpucore.Surface
	loop     *EventLoop
	programs Programs
	objects  []Object

	onKey       KeyHandler
	spinPaused  bool
	state       atomic.Int32
	stats       Stats
	lastUpdate  time.Duration
	lastFrame   time.Duration
	initElapsed time.Duration
}

// NewScheduler compiles the configured programs on dev and returns a
// running scheduler that owns surface and loop. Program creation failures
// are returned; nothing is retried.
func NewScheduler(dev gpucore.Device, surface gpucore.Surface, loop *EventLoop, cfg Config, opts ...SchedulerOption) (*Scheduler, error) {
	start := time.Now()
	switch {
	case dev == nil:
		return nil, ErrNoDevice
	case surface == nil:
		return nil, ErrNoSurface
	case loop == nil:
		return nil, ErrNoEvents
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		cfg:     cfg,
		dev:     dev,
		surface: surface,
		loop:    loop,
		onKey:   toggleSpin,
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, src := range cfg.Programs {
		label := src.Label
		if label == "" {
			label = fmt.Sprintf("program%d", i)
		}
		id, err := dev.CreateProgram(&gpucore.ProgramDescriptor{
			Label:          label,
			VertexSource:   src.Vertex,
			FragmentSource: src.Fragment,
			VertexStride:   VertexSize,
			InstanceStride: AttributeSize,
		})
		if err != nil {
			s.releasePrograms()
			return nil, fmt.Errorf("instanced: create program %q: %w", label, err)
		}
		s.programs = append(s.programs, id)
	}

	s.state.Store(int32(StateRunning))
	s.initElapsed = time.Since(start)
	Logger().Info("scheduler ready", "programs", len(s.programs), "init", s.initElapsed)
	return s, nil
}

func toggleSpin(s *Scheduler, ev KeyEvent) {
	if ev.Down && ev.Key == gpucontext.KeySpace {
		s.spinPaused = !s.spinPaused
		Logger().Info("spin toggled", "paused", s.spinPaused)
	}
}

// Add registers objects. Objects are updated and drawn in registration order.
func (s *Scheduler) Add(objs ...Object) {
	s.objects = append(s.objects, objs...)
}

// Programs returns the compiled programs indexed by draw id.
func (s *Scheduler) Programs() Programs { return s.programs }

// State returns the current state. Safe to call from any goroutine.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Stats returns the accumulated timings. Call it after Run returned.
func (s *Scheduler) Stats() Stats { return s.stats }

// InitTime returns how long NewScheduler took.
func (s *Scheduler) InitTime() time.Duration { return s.initElapsed }

// SpinPaused reports whether the per-tick spin is paused.
func (s *Scheduler) SpinPaused() bool { return s.spinPaused }

// SetSpinPaused pauses or resumes the per-tick spin.
func (s *Scheduler) SetSpinPaused(paused bool) { s.spinPaused = paused }

// Run takes the event source and processes events until a close event,
// the end of the event stream, or cancellation of ctx. It returns the
// first update or draw failure; frame failures are not retried.
//
// Run fails with ErrEventSourceTaken if the source was already taken.
func (s *Scheduler) Run(ctx context.Context) error {
	stream, err := s.loop.Take()
	if err != nil {
		return err
	}
	defer s.exit()

	for s.State() == StateRunning {
		ev, ok := stream.Next(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			Logger().Info("event stream closed")
			return nil
		}
		if err := s.handle(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) exit() {
	if State(s.state.Swap(int32(StateExit))) != StateExit {
		Logger().Info("scheduler exit", "updates", s.stats.Updates, "frames", s.stats.Frames)
	}
}

// handle processes one event. Nothing happens once the scheduler exited.
func (s *Scheduler) handle(ev Event) error {
	if s.State() != StateRunning {
		return nil
	}
	switch ev := ev.(type) {
	case CloseEvent:
		s.exit()
	case KeyEvent:
		if s.onKey != nil {
			s.onKey(s, ev)
		}
	case EventsClearedEvent:
		if err := s.update(); err != nil {
			return err
		}
		s.surface.RequestRedraw()
	case RedrawEvent:
		return s.draw()
	case ResizeEvent:
		Logger().Debug("surface resized", "width", ev.Width, "height", ev.Height)
	}
	return nil
}

// update applies the spin to every Rotator and steps every object.
func (s *Scheduler) update() error {
	start := time.Now()
	if spin := s.cfg.Spin; spin.Angle != 0 && !s.spinPaused {
		for _, obj := range s.objects {
			if r, ok := obj.(Rotator); ok {
				r.RotateAxis(spin.Axis, spin.Angle)
			}
		}
	}
	for i, obj := range s.objects {
		if err := obj.Update(); err != nil {
			return fmt.Errorf("instanced: update object %d: %w", i, err)
		}
	}
	s.lastUpdate = time.Since(start)
	s.stats.observeUpdate(s.lastUpdate)
	Logger().Debug("update", "elapsed", s.lastUpdate)
	return nil
}

// draw renders one frame: acquire, clear, draw every object, finish.
func (s *Scheduler) draw() error {
	start := time.Now()
	frame, err := s.surface.Acquire()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFrameAcquire, err)
	}
	frame.Clear(s.cfg.Clear(), 1)
	w, h := frame.Size()
	if err := frame.SetUniforms(s.cfg.Uniforms(w, h)); err != nil {
		return fmt.Errorf("instanced: set uniforms: %w", err)
	}
	for i, obj := range s.objects {
		if err := obj.Draw(frame, s.programs); err != nil {
			return fmt.Errorf("instanced: draw object %d: %w", i, err)
		}
	}
	if err := frame.Finish(); err != nil {
		return fmt.Errorf("%w: %w", ErrFrameFinish, err)
	}
	s.lastFrame = time.Since(start)
	s.stats.observeFrame(s.lastFrame)
	Logger().Debug("frame", "elapsed", s.lastFrame)
	return nil
}

// Release destroys the programs and releases every object that owns
// device resources.
func (s *Scheduler) Release() {
	for _, obj := range s.objects {
		if r, ok := obj.(interface{ Release() }); ok {
			r.Release()
		}
	}
	s.objects = nil
	s.releasePrograms()
}

func (s *Scheduler) releasePrograms() {
	for _, id := range s.programs {
		s.dev.DestroyProgram(id)
	}
	s.programs = nil
}
