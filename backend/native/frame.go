//go:build !nogpu

package native

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/gpucore"
	"github.com/gogpu/wgpu/hal"
)

const (
	// gpuTimeout bounds how long Finish waits for a submitted frame.
	gpuTimeout = 5 * time.Second

	// pollInterval is the longest sleep between completion polls.
	pollInterval = 2 * time.Millisecond
)

// Acquire returns a frame for the current target.
func (d *Device) Acquire() (gpucore.Frame, error) {
	d.mu.RLock()
	t := d.target
	d.mu.RUnlock()
	if t.view == nil {
		return nil, ErrNoTarget
	}
	return &frame{d: d, view: t.view, width: t.width, height: t.height, depth: 1}, nil
}

// frame records draw calls and encodes them on Finish.
type frame struct {
	d             *Device
	view          hal.TextureView
	width, height int

	clear    gpucore.Color
	depth    float32
	uniforms gpucore.Uniforms
	calls    []gpucore.DrawCall
	finished bool
}

func (f *frame) Size() (int, int) { return f.width, f.height }

func (f *frame) Clear(color gpucore.Color, depth float32) {
	f.clear = color
	f.depth = depth
}

func (f *frame) SetUniforms(u gpucore.Uniforms) error {
	if f.finished {
		return gpucore.ErrFrameFinished
	}
	f.uniforms = u
	return nil
}

// Draw validates the call against the program's stream layout and
// records it.
func (f *frame) Draw(call gpucore.DrawCall) error {
	if f.finished {
		return gpucore.ErrFrameFinished
	}
	d := f.d
	d.mu.RLock()
	p, ok := d.programs[call.Program]
	vb, vok := d.buffers[call.Vertices]
	ib, iok := d.buffers[call.Instances]
	d.mu.RUnlock()
	switch {
	case !ok:
		return fmt.Errorf("%w: %d", gpucore.ErrUnknownProgram, call.Program)
	case !vok:
		return fmt.Errorf("%w: vertices %d", gpucore.ErrUnknownBuffer, call.Vertices)
	case !iok:
		return fmt.Errorf("%w: instances %d", gpucore.ErrUnknownBuffer, call.Instances)
	}
	if err := gpucore.ValidateDraw(call, &p.desc, vb.size, ib.size); err != nil {
		return err
	}
	f.calls = append(f.calls, call)
	return nil
}

// encodedDraw is a draw call resolved to HAL objects.
type encodedDraw struct {
	pipeline  hal.RenderPipeline
	bindGroup hal.BindGroup
	vertices  hal.Buffer
	instances hal.Buffer
	call      gpucore.DrawCall
}

// Finish encodes one render pass with every recorded call, submits it and
// waits for the GPU.
func (f *frame) Finish() error {
	if f.finished {
		return gpucore.ErrFrameFinished
	}
	f.finished = true
	start := time.Now()

	draws, err := f.resolve()
	if err != nil {
		return err
	}
	d := f.d
	if err := d.depth.ensure(d.device, f.width, f.height); err != nil {
		return fmt.Errorf("native: %w", err)
	}
	if err := f.submit(draws); err != nil {
		return fmt.Errorf("native: %w", err)
	}
	instanced.Logger().Debug("native: frame submitted", "draws", len(draws), "elapsed", time.Since(start))
	return nil
}

// resolve looks up pipelines and buffers for the recorded calls and
// uploads the uniforms of every program in use.
func (f *frame) resolve() ([]encodedDraw, error) {
	d := f.d
	d.mu.Lock()
	defer d.mu.Unlock()

	uniforms := f.uniforms.Bytes()
	written := make(map[gpucore.ProgramID]bool)
	draws := make([]encodedDraw, 0, len(f.calls))
	for _, call := range f.calls {
		p, ok := d.programs[call.Program]
		if !ok {
			return nil, fmt.Errorf("%w: %d", gpucore.ErrUnknownProgram, call.Program)
		}
		vb, vok := d.buffers[call.Vertices]
		ib, iok := d.buffers[call.Instances]
		if !vok || !iok {
			return nil, fmt.Errorf("%w: destroyed before Finish", gpucore.ErrUnknownBuffer)
		}
		pl, err := p.pipeline(d.device, call.Topology, d.format)
		if err != nil {
			return nil, fmt.Errorf("native: program %q: %w", p.desc.Label, err)
		}
		if !written[call.Program] {
			if err := d.queue.WriteBuffer(p.uniforms, 0, uniforms); err != nil {
				return nil, fmt.Errorf("native: program %q uniforms: %w", p.desc.Label, err)
			}
			written[call.Program] = true
		}
		draws = append(draws, encodedDraw{
			pipeline:  pl,
			bindGroup: p.bindGroup,
			vertices:  vb.hal,
			instances: ib.hal,
			call:      call,
		})
	}
	return draws, nil
}

func (f *frame) submit(draws []encodedDraw) error {
	d := f.d
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "instanced_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("instanced_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "instanced_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       f.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: f.clear.R, G: f.clear.G, B: f.clear.B, A: f.clear.A},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              d.depth.view,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   f.depth,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})
	for _, dr := range draws {
		rp.SetPipeline(dr.pipeline)
		rp.SetBindGroup(0, dr.bindGroup, nil)
		rp.SetVertexBuffer(0, dr.vertices, 0)
		rp.SetVertexBuffer(1, dr.instances, 0)
		rp.Draw(dr.call.VertexCount, dr.call.InstanceCount, 0, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return d.waitSubmission(index, gpuTimeout)
}

// waitSubmission polls the queue until the submission index completes or
// timeout elapses.
func (d *Device) waitSubmission(index uint64, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	backoff := 50 * time.Microsecond
	for d.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d", ErrGPUTimeout, index)
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, pollInterval)
	}
	return nil
}
