// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package platform

import (
	"context"
	"io"
	"time"

	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/gpucore"
	"github.com/schollz/progressbar/v3"
)

// Headless defaults.
const (
	DefaultRate  = 60
	DefaultTicks = 600
)

// Target hands out frames to render into.
type Target interface {
	Acquire() (gpucore.Frame, error)
}

// HeadlessOption configures a Headless platform.
type HeadlessOption func(*Headless)

// WithRate sets the tick rate in Hz. 0 ticks as fast as frames finish.
func WithRate(hz int) HeadlessOption {
	return func(h *Headless) {
		h.hz = hz
	}
}

// WithTicks sets the number of ticks before the platform closes the loop.
// 0 runs until the context is cancelled.
func WithTicks(n int) HeadlessOption {
	return func(h *Headless) {
		h.ticks = n
	}
}

// WithProgress draws a progress bar of the ticks on w.
func WithProgress(w io.Writer) HeadlessOption {
	return func(h *Headless) {
		h.progress = w
	}
}

// Headless drives a scheduler without a window. Each tick delivers an
// events-cleared event, waits for the scheduler to request a redraw and
// then delivers the redraw. After the last tick it delivers a close event
// and closes the event channel.
type Headless struct {
	target   Target
	hz       int
	ticks    int
	progress io.Writer

	events chan instanced.Event
	loop   *instanced.EventLoop
	redraw chan struct{}
	done   int
}

// NewHeadless returns a platform rendering into target.
func NewHeadless(target Target, opts ...HeadlessOption) *Headless {
	events := make(chan instanced.Event)
	h := &Headless{
		target: target,
		hz:     DefaultRate,
		ticks:  DefaultTicks,
		events: events,
		loop:   instanced.NewEventLoop(events),
		redraw: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Events returns the event loop the scheduler consumes.
func (h *Headless) Events() *instanced.EventLoop { return h.loop }

// Acquire returns a frame of the target.
func (h *Headless) Acquire() (gpucore.Frame, error) { return h.target.Acquire() }

// RequestRedraw lets the current tick deliver its redraw event. It never
// blocks.
func (h *Headless) RequestRedraw() {
	select {
	case h.redraw <- struct{}{}:
	default:
	}
}

// Ticks returns the number of completed ticks. It is only meaningful
// after Run returned.
func (h *Headless) Ticks() int { return h.done }

// Run delivers ticks until the configured count is reached or ctx is
// done. It returns ctx.Err() on cancellation and nil otherwise.
func (h *Headless) Run(ctx context.Context) error {
	defer close(h.events)

	var tick <-chan time.Time
	if h.hz > 0 {
		t := time.NewTicker(time.Second / time.Duration(h.hz))
		defer t.Stop()
		tick = t.C
	}
	bar := h.newBar()
	if bar != nil {
		defer bar.Close()
	}

	start := time.Now()
	for h.ticks <= 0 || h.done < h.ticks {
		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := h.send(ctx, instanced.EventsClearedEvent{}); err != nil {
			return err
		}
		select {
		case <-h.redraw:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := h.send(ctx, instanced.RedrawEvent{}); err != nil {
			return err
		}
		h.done++
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	instanced.Logger().Info("headless run complete", "ticks", h.done, "elapsed", time.Since(start))
	return h.send(ctx, instanced.CloseEvent{})
}

func (h *Headless) send(ctx context.Context, ev instanced.Event) error {
	select {
	case h.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Headless) newBar() *progressbar.ProgressBar {
	if h.progress == nil {
		return nil
	}
	total := int64(h.ticks)
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(h.progress),
		progressbar.OptionSetDescription("ticks"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

var _ gpucore.Surface = (*Headless)(nil)
