//go:build !nogpu

package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/gpucore"
)

func TestWindowFrameSignalsFinish(t *testing.T) {
	w := &Window{finished: make(chan struct{}, 1)}
	f, err := gpucore.NewRecorder(4, 4).Acquire()
	if err != nil {
		t.Fatal(err)
	}
	wf := &windowFrame{Frame: f, w: w}
	if err := wf.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	select {
	case <-w.finished:
	default:
		t.Fatal("Finish did not signal the pending draw")
	}

	// A second Finish fails but still releases the draw.
	if err := wf.Finish(); !errors.Is(err, gpucore.ErrFrameFinished) {
		t.Errorf("second Finish = %v, want ErrFrameFinished", err)
	}
	if len(w.finished) != 1 {
		t.Error("second Finish did not signal")
	}
}

func TestWindowSendAfterStop(t *testing.T) {
	w := &Window{events: make(chan instanced.Event), done: make(chan struct{})}
	w.stop()
	w.stop()
	w.send(instanced.CloseEvent{}) // must not block
}

func TestWindowDeviceAfterStop(t *testing.T) {
	w := &Window{done: make(chan struct{}), ready: make(chan struct{})}
	w.stop()
	if _, err := w.Device(context.Background()); !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("Device = %v, want ErrWindowClosed", err)
	}
}

func TestWindowAcquireWithoutDevice(t *testing.T) {
	var w Window
	if _, err := w.Acquire(); err == nil {
		t.Fatal("Acquire without a device succeeded")
	}
}

func TestAppConfigForwardsSettings(t *testing.T) {
	for _, vsync := range []bool{true, false} {
		cfg := instanced.DefaultConfig().WithTitle("flock").WithSize(320, 200)
		cfg.VSync = vsync
		got := appConfig(cfg)
		if got.VSync != vsync {
			t.Errorf("VSync = %v, want %v", got.VSync, vsync)
		}
		if got.Title != "flock" || got.Width != 320 || got.Height != 200 {
			t.Errorf("window %q %dx%d", got.Title, got.Width, got.Height)
		}
		if got.ContinuousRender {
			t.Error("continuous rendering enabled")
		}
	}
}
