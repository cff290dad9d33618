// Package instanced is a small real-time render loop for instanced
// geometry.
//
// # Overview
//
// A scene is a list of groups. Each group pairs one static [Shape] with an
// [AttributeBuffer]: a CPU array of per-instance attributes (world
// position, rotation, color) mirrored in a device buffer. Every frame the
// [Scheduler] runs
//
//	events cleared -> Update (parallel per-instance mutation)
//	               -> RequestRedraw
//	redraw         -> Sync each buffer -> one instanced draw per group
//
// and stops for good on a close event.
//
// # Quick Start
//
//	dev := gpucore.NewRecorder(800, 800) // or native.NewDevice(...)
//	events := make(chan instanced.Event)
//	sched, err := instanced.NewScheduler(dev, dev, instanced.NewEventLoop(events), instanced.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	quad, _ := instanced.Quad(dev, 0.05)
//	group, _ := instanced.NewInstanceGroup(dev, quad, 1000)
//	sched.Add(group)
//	err = sched.Run(ctx)
//
// # Synchronization Contract
//
// The CPU array of an AttributeBuffer is the only source of truth. Device
// memory is overwritten by Sync, which runs once per buffer per frame,
// after every parallel mutation of that buffer has joined and before the
// draw call that reads it.
//
// # Rotation
//
// Rotations are composed incrementally, R' = R_axis(θ) · R, by blending
// the two rows of R that the axis rotation mixes. Axis 0 is x, 1 is y and
// 2 is z; each follows the right-hand rule. See [Attribute.Rotate].
//
// # Errors
//
// Setup and device failures are returned and are meant to be fatal: the
// loop never retries. Index out of range and a second hand-off of the
// event source are programming errors.
package instanced
