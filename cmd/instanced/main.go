// Command instanced runs an instanced simulation scene in a window or
// headless.
//
// Usage:
//
//	instanced [-config file.yaml] [-scene boids|life|terrain|spin|mixed]
//	          [-count N] [-workers N] [-seed N]
//	          [-headless] [-hz 60] [-ticks 600] [-backend wgpu|null]
//	          [-validate=false] [-debug]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/backend/native"
	"github.com/gogpu/instanced/gpucore"
	"github.com/gogpu/instanced/platform"
	"github.com/gogpu/instanced/sim"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		scene      = flag.String("scene", "", "scene to run (overrides config)")
		count      = flag.Int("count", 0, "number of instances (overrides config)")
		workers    = flag.Int("workers", 0, "update workers, 1 for serial (overrides config)")
		seed       = flag.Uint64("seed", 0, "random seed, 0 for a random one (overrides config)")
		headless   = flag.Bool("headless", false, "run without a window")
		hz         = flag.Int("hz", platform.DefaultRate, "headless tick rate, 0 for unpaced")
		ticks      = flag.Int("ticks", platform.DefaultTicks, "headless tick count, 0 to run until interrupted")
		backend    = flag.String("backend", "wgpu", "headless device: wgpu or null")
		validate   = flag.Bool("validate", true, "check shaders with naga before the driver sees them (overrides config)")
		debug      = flag.Bool("debug", false, "log per-frame timings")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	instanced.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := instanced.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = instanced.LoadConfig(*configPath); err != nil {
			log.Fatalf("instanced: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg = cfg.WithScene(*scene)
		case "count":
			cfg = cfg.WithInstances(*count)
		case "workers":
			cfg = cfg.WithWorkers(*workers)
		case "seed":
			cfg.Seed = *seed
		case "validate":
			cfg.ValidateShaders = *validate
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		stats instanced.Stats
		err   error
	)
	if *headless {
		stats, err = runHeadless(ctx, cfg, *backend, *hz, *ticks)
	} else {
		stats, err = runWindow(ctx, cfg)
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, platform.ErrWindowClosed) {
		stop()
		log.Fatalf("instanced: %v", err)
	}
	log.Print(stats.Summary(language.English))
}

// headlessDevice is a device that also hands out offscreen frames.
type headlessDevice interface {
	gpucore.Device
	platform.Target
}

func runHeadless(ctx context.Context, cfg instanced.Config, backend string, hz, ticks int) (instanced.Stats, error) {
	var dev headlessDevice
	switch backend {
	case "null":
		dev = gpucore.NewRecorder(cfg.Width, cfg.Height)
	case "wgpu":
		nd, err := native.Open(native.WithShaderValidation(cfg.ValidateShaders))
		if err != nil {
			return instanced.Stats{}, err
		}
		defer nd.Release()
		if err := nd.SetOffscreen(cfg.Width, cfg.Height); err != nil {
			return instanced.Stats{}, err
		}
		dev = nd
	default:
		return instanced.Stats{}, fmt.Errorf("unknown backend %q", backend)
	}

	h := platform.NewHeadless(dev,
		platform.WithRate(hz),
		platform.WithTicks(ticks),
		platform.WithProgress(os.Stderr))
	sched, err := setup(dev, h, h.Events(), cfg)
	if err != nil {
		return instanced.Stats{}, err
	}
	defer sched.Release()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	err = g.Wait()
	return sched.Stats(), err
}

func runWindow(ctx context.Context, cfg instanced.Config) (instanced.Stats, error) {
	w := platform.NewWindow(cfg)
	released := make(chan struct{})
	w.OnShutdown(func() { <-released })

	var stats instanced.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer w.Quit()
		defer close(released)

		dev, err := w.Device(gctx)
		if err != nil {
			return err
		}
		defer dev.Release()
		sched, err := setup(dev, w, w.Events(), cfg)
		if err != nil {
			return err
		}
		defer sched.Release()
		err = sched.Run(gctx)
		stats = sched.Stats()
		return err
	})

	runErr := w.Run()
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, runErr
}

// setup compiles the programs and builds the configured scene.
func setup(dev gpucore.Device, surface gpucore.Surface, loop *instanced.EventLoop, cfg instanced.Config) (*instanced.Scheduler, error) {
	sched, err := instanced.NewScheduler(dev, surface, loop, cfg)
	if err != nil {
		return nil, err
	}
	objs, err := sim.Build(cfg.Scene, dev, cfg)
	if err != nil {
		sched.Release()
		return nil, err
	}
	sched.Add(objs...)
	instanced.Logger().Info("init", "scene", cfg.Scene, "elapsed", sched.InitTime())
	return sched, nil
}
