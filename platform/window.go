//go:build !nogpu

package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/backend/native"
	"github.com/gogpu/instanced/gpucore"
)

// ErrWindowClosed is returned when the window closed before it produced
// a device or a frame.
var ErrWindowClosed = errors.New("platform: window closed")

// Window drives a scheduler from a gogpu window.
//
// Every OnDraw of the window is one tick: the window delivers an
// events-cleared event, waits for the scheduler to request a redraw,
// points the device at the surface texture of this draw and delivers the
// redraw. OnDraw returns once the scheduler finished the frame, so the
// surface texture is never used after the window presents it.
type Window struct {
	app *gogpu.App

	events chan instanced.Event
	loop   *instanced.EventLoop

	redraw   chan struct{}
	finished chan struct{}
	closing  chan struct{}
	done     chan struct{}
	close    sync.Once
	quit     sync.Once
	shutdown []func()

	validate  bool
	ready     chan struct{}
	dev       *native.Device
	devErr    error
	animation *gogpu.AnimationToken

	width, height int
}

// NewWindow creates the window described by cfg. Nothing is shown until
// Run.
func NewWindow(cfg instanced.Config) *Window {
	events := make(chan instanced.Event, 64)
	w := &Window{
		app:      gogpu.NewApp(appConfig(cfg)),
		validate: cfg.ValidateShaders,
		events:   events,
		loop:     instanced.NewEventLoop(events),
		redraw:   make(chan struct{}, 1),
		finished: make(chan struct{}, 1),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
	w.app.OnDraw(w.draw)
	w.app.EventSource().OnKeyPress(func(key gpucontext.Key, mods gpucontext.Modifiers) {
		w.send(instanced.KeyEvent{Key: key, Mods: mods, Down: true})
	})
	w.app.OnClose(w.onClose)
	return w
}

// appConfig maps cfg onto the gogpu window settings. Draws are paced by
// the animation token, not by continuous rendering.
func appConfig(cfg instanced.Config) gogpu.Config {
	return gogpu.DefaultConfig().
		WithTitle(cfg.Title).
		WithSize(cfg.Width, cfg.Height).
		WithVSync(cfg.VSync).
		WithContinuousRender(false)
}

// OnShutdown registers fn to run on the window goroutine when the window
// closes, after the close event was delivered and before the window
// destroys its device. Callers use it to wait until everything created on
// the device has been released.
func (w *Window) OnShutdown(fn func()) {
	w.shutdown = append(w.shutdown, fn)
}

func (w *Window) onClose() {
	if w.animation != nil {
		w.animation.Stop()
	}
	w.close.Do(func() { close(w.closing) })
	w.send(instanced.CloseEvent{})
	for _, fn := range w.shutdown {
		fn()
	}
	w.stop()
}

// Events returns the event loop the scheduler consumes.
func (w *Window) Events() *instanced.EventLoop { return w.loop }

// Device blocks until the window created its GPU device, which happens on
// the first draw after Run started.
func (w *Window) Device(ctx context.Context) (*native.Device, error) {
	select {
	case <-w.ready:
		return w.dev, w.devErr
	case <-w.closing:
		return nil, ErrWindowClosed
	case <-w.done:
		return nil, ErrWindowClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run shows the window and blocks until it closes. It must be called
// from the main goroutine.
func (w *Window) Run() error {
	defer w.stop()
	if err := w.app.Run(); err != nil {
		return fmt.Errorf("platform: window: %w", err)
	}
	return nil
}

// Quit closes the window from any goroutine.
func (w *Window) Quit() {
	w.stop()
	w.app.Quit()
}

func (w *Window) stop() {
	w.quit.Do(func() { close(w.done) })
}

// send delivers ev unless the window is shutting down.
func (w *Window) send(ev instanced.Event) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

// RequestRedraw lets the pending draw deliver its redraw event.
func (w *Window) RequestRedraw() {
	select {
	case w.redraw <- struct{}{}:
	default:
	}
}

// Acquire returns a frame rendering into the surface texture of the
// current draw.
func (w *Window) Acquire() (gpucore.Frame, error) {
	if w.dev == nil {
		return nil, native.ErrNoTarget
	}
	f, err := w.dev.Acquire()
	if err != nil {
		return nil, err
	}
	return &windowFrame{Frame: f, w: w}, nil
}

// windowFrame tells the pending draw when the frame is finished.
type windowFrame struct {
	gpucore.Frame
	w *Window
}

func (f *windowFrame) Finish() error {
	err := f.Frame.Finish()
	select {
	case f.w.finished <- struct{}{}:
	default:
	}
	return err
}

func (w *Window) draw(dc *gogpu.Context) {
	select {
	case <-w.done:
		return
	default:
	}
	if w.dev == nil && !w.open(dc) {
		return
	}

	width, height := dc.Width(), dc.Height()
	if width <= 0 || height <= 0 {
		return
	}
	if width != w.width || height != w.height {
		w.width, w.height = width, height
		w.send(instanced.ResizeEvent{Width: width, Height: height})
	}

	w.send(instanced.EventsClearedEvent{})
	select {
	case <-w.redraw:
	case <-w.done:
		return
	}

	sv := dc.SurfaceView()
	if sv == nil {
		instanced.Logger().Warn("platform: no surface view for this draw")
		return
	}
	view := sv.HalTextureView()
	if err := w.dev.SetSurfaceView(view, width, height); err != nil {
		instanced.Logger().Warn("platform: set surface view", "err", err)
		return
	}

	w.send(instanced.RedrawEvent{})
	select {
	case <-w.finished:
	case <-w.done:
	}
}

// open creates the device on the first draw and starts the animation
// that keeps draws coming.
func (w *Window) open(dc *gogpu.Context) bool {
	provider := w.app.GPUContextProvider()
	if provider == nil {
		return false
	}
	w.dev, w.devErr = native.NewDeviceFromProvider(provider, native.WithShaderValidation(w.validate))
	close(w.ready)
	if w.devErr != nil {
		w.Quit()
		return false
	}
	instanced.Logger().Info("platform: window device ready", "backend", dc.Backend(), "format", w.dev.Format())
	w.animation = w.app.StartAnimation()
	return true
}

var _ gpucore.Surface = (*Window)(nil)
