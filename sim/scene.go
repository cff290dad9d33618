package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/gpucore"
)

// Builder creates the objects of one scene on dev.
type Builder func(dev gpucore.Device, cfg instanced.Config) ([]instanced.Object, error)

var (
	scenesMu sync.RWMutex
	scenes   = map[string]Builder{
		"boids":   buildBoids,
		"life":    buildLife,
		"terrain": buildTerrain,
		"spin":    buildSpin,
		"mixed":   buildMixed,
	}
)

// Register adds or replaces the builder for name.
func Register(name string, b Builder) {
	scenesMu.Lock()
	defer scenesMu.Unlock()
	scenes[name] = b
}

// Names returns the registered scene names in sorted order.
func Names() []string {
	scenesMu.RLock()
	defer scenesMu.RUnlock()
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the objects of the named scene. Instance count, worker
// count and seed come from cfg.
func Build(name string, dev gpucore.Device, cfg instanced.Config) ([]instanced.Object, error) {
	scenesMu.RLock()
	b, ok := scenes[name]
	scenesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownScene, name, Names())
	}
	objs, err := b(dev, cfg)
	if err != nil {
		return nil, fmt.Errorf("sim: build %s: %w", name, err)
	}
	instanced.Logger().Info("scene built", "scene", name, "objects", len(objs), "instances", cfg.Instances)
	return objs, nil
}

func buildBoids(dev gpucore.Device, cfg instanced.Config) ([]instanced.Object, error) {
	circle, err := instanced.Circle(dev, BoidRadius, BoidSegments, instanced.WithLabel("boid"))
	if err != nil {
		return nil, err
	}
	rng := instanced.NewRand(cfg.Seed)
	g, err := instanced.NewInstanceGroup(dev, circle, cfg.Instances,
		instanced.WithRand(rng), instanced.WithWorkers(cfg.Workers))
	if err != nil {
		circle.Release()
		return nil, err
	}
	g.SetSimulation(NewBoids(g.Len(), rng))
	return []instanced.Object{g}, nil
}

func buildLife(dev gpucore.Device, cfg instanced.Config) ([]instanced.Object, error) {
	life, err := NewLife(LifeSize, LifeSize)
	if err != nil {
		return nil, err
	}
	life.Randomize(instanced.NewRand(cfg.Seed))

	quad, err := instanced.Quad(dev, life.CellHalfSize(), instanced.WithLabel("cell"))
	if err != nil {
		return nil, err
	}
	buf, err := instanced.NewAttributeBuffer(dev, life.Attributes())
	if err != nil {
		quad.Release()
		return nil, err
	}
	sg := instanced.NewShapeGroup()
	sg.Push(quad, buf).SetSimulation(life)
	return []instanced.Object{sg}, nil
}

func buildTerrain(dev gpucore.Device, cfg instanced.Config) ([]instanced.Object, error) {
	tr, err := NewTerrain(dev,
		WithNoiseSeed(int64(cfg.Seed)), //nolint:gosec // seed bits only
		WithTerrainWorkers(cfg.Workers))
	if err != nil {
		return nil, err
	}
	return []instanced.Object{tr}, nil
}

func buildSpin(dev gpucore.Device, cfg instanced.Config) ([]instanced.Object, error) {
	tri, err := instanced.Triangle(dev, instanced.WithLabel("triangle"))
	if err != nil {
		return nil, err
	}
	g, err := instanced.NewInstanceGroup(dev, tri, cfg.Instances,
		instanced.WithRand(instanced.NewRand(cfg.Seed)), instanced.WithWorkers(cfg.Workers))
	if err != nil {
		tri.Release()
		return nil, err
	}
	return []instanced.Object{g}, nil
}

// buildMixed splits the instances over triangles, quads and a flock of
// circles drawn from one shape group. Each shape gets at least one
// instance, so it needs three.
func buildMixed(dev gpucore.Device, cfg instanced.Config) (_ []instanced.Object, err error) {
	if cfg.Instances < 3 {
		return nil, fmt.Errorf("%w: mixed scene needs 3 instances, got %d", instanced.ErrInvalidConfig, cfg.Instances)
	}
	rng := instanced.NewRand(cfg.Seed)
	third := cfg.Instances / 3
	counts := []int{third, third, cfg.Instances - 2*third}

	sg := instanced.NewShapeGroup()
	defer func() {
		if err != nil {
			sg.Release()
		}
	}()

	makers := []func() (*instanced.Shape, error){
		func() (*instanced.Shape, error) { return instanced.Triangle(dev, instanced.WithLabel("triangle")) },
		func() (*instanced.Shape, error) { return instanced.Quad(dev, 0.02, instanced.WithLabel("quad")) },
		func() (*instanced.Shape, error) {
			return instanced.Circle(dev, BoidRadius, BoidSegments, instanced.WithLabel("boid"))
		},
	}
	for k, mk := range makers {
		shape, err := mk()
		if err != nil {
			return nil, err
		}
		attrs := make([]instanced.Attribute, counts[k])
		for i := range attrs {
			attrs[i] = instanced.RandomAttribute(rng)
		}
		buf, err := instanced.NewAttributeBuffer(dev, attrs)
		if err != nil {
			shape.Release()
			return nil, err
		}
		sg.Push(shape, buf)
	}
	sg.Member(sg.Len() - 1).SetSimulation(NewBoids(counts[2], rng))
	return []instanced.Object{sg}, nil
}
