//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// target is the color attachment frames render into: either an owned
// offscreen texture or a view borrowed from a window surface.
type target struct {
	tex           hal.Texture // nil when the view is borrowed
	view          hal.TextureView
	width, height int
}

func (t *target) destroy(device hal.Device) {
	if t.tex != nil {
		if t.view != nil {
			device.DestroyTextureView(t.view)
		}
		device.DestroyTexture(t.tex)
	}
	*t = target{}
}

// depthTarget is recreated whenever the color target changes size.
type depthTarget struct {
	tex           hal.Texture
	view          hal.TextureView
	width, height int
}

func (t *depthTarget) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
	}
	*t = depthTarget{}
}

// ensure creates or recreates the depth texture for the given size.
func (t *depthTarget) ensure(device hal.Device, w, h int) error {
	if t.tex != nil && t.width == w && t.height == h {
		return nil
	}
	t.destroy(device)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "instanced_depth",
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // validated positive
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	t.tex = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "instanced_depth_view",
		Format:        depthFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("create depth view: %w", err)
	}
	t.view = view
	t.width, t.height = w, h
	return nil
}

// SetOffscreen makes frames render into an owned texture of the given
// size. It replaces any previous target.
func (d *Device) SetOffscreen(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target.destroy(d.device)

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "instanced_offscreen",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}, //nolint:gosec // validated positive
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        d.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("native: create offscreen texture: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "instanced_offscreen_view",
		Format:        d.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("native: create offscreen view: %w", err)
	}
	d.target = target{tex: tex, view: view, width: width, height: height}
	return nil
}

// SetSurfaceView makes the next frames render into a view owned by a
// window surface. The caller keeps ownership of view and must call it
// again whenever the surface hands out a new texture.
func (d *Device) SetSurfaceView(view hal.TextureView, width, height int) error {
	if view == nil {
		return ErrNoTarget
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target.destroy(d.device)
	d.target = target{view: view, width: width, height: height}
	return nil
}
