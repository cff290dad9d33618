// Package platform delivers events to an instanced scheduler and hands it
// frames.
//
// [Headless] ticks at a fixed rate for a fixed number of ticks and renders
// into any [Target], typically an offscreen native device or a
// gpucore.Recorder. [Window] drives the loop from a gogpu window and
// renders into its surface.
//
// Both implement gpucore.Surface and expose their events through an
// instanced.EventLoop, so a run looks the same either way:
//
//	h := platform.NewHeadless(dev, platform.WithRate(60), platform.WithTicks(600))
//	sched, err := instanced.NewScheduler(dev, h, h.Events(), cfg)
//	...
//	g.Go(func() error { return h.Run(ctx) })
//	g.Go(func() error { return sched.Run(ctx) })
package platform
