package sim

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/gpucore"
	"github.com/gogpu/instanced/internal/parallel"
)

// Terrain grid defaults.
const (
	TerrainCols = 100
	TerrainRows = 100

	terrainRes    = 0.01
	terrainHeight = 1.0
	terrainSpeed  = 0.01
	terrainTilt   = -math.Pi / 3

	perlinAlpha = 2
	perlinBeta  = 2
	perlinOct   = 3
)

// TerrainOption configures a Terrain.
type TerrainOption func(*terrainOptions)

type terrainOptions struct {
	cols, rows int
	seed       int64
	workers    int
	drawID     int
}

// WithGrid sets the number of columns and rows.
func WithGrid(cols, rows int) TerrainOption {
	return func(o *terrainOptions) {
		o.cols, o.rows = cols, rows
	}
}

// WithNoiseSeed seeds the noise generator.
func WithNoiseSeed(seed int64) TerrainOption {
	return func(o *terrainOptions) {
		o.seed = seed
	}
}

// WithTerrainWorkers bounds the fan-out of the per-tick height update.
// 1 runs it on the calling goroutine; 0 uses GOMAXPROCS workers.
func WithTerrainWorkers(n int) TerrainOption {
	return func(o *terrainOptions) {
		o.workers = n
	}
}

// WithTerrainDrawID selects the program the terrain is drawn with.
func WithTerrainDrawID(id int) TerrainOption {
	return func(o *terrainOptions) {
		o.drawID = id
	}
}

// Terrain is a perlin height field drawn as one line strip of vertex
// pairs, tilted back about x. Every Update advances the noise in time and
// uploads the new heights.
type Terrain struct {
	group *instanced.InstanceGroup
	noise *perlin.Perlin
	pool  *parallel.WorkerPool
	t     float64
}

// NewTerrain builds the height field at time 0.
func NewTerrain(dev gpucore.Device, opts ...TerrainOption) (*Terrain, error) {
	o := terrainOptions{cols: TerrainCols, rows: TerrainRows, seed: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cols <= 0 || o.rows <= 0 {
		return nil, fmt.Errorf("%w: terrain grid %dx%d", instanced.ErrInvalidConfig, o.cols, o.rows)
	}

	tr := &Terrain{noise: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOct, o.seed)}
	vertices := make([]instanced.Vertex, 2*o.cols*o.rows)
	for j := range o.rows {
		for i := range o.cols {
			x := float32(i-o.cols/2) * terrainRes
			y := float32(j-o.rows/2) * terrainRes
			k := 2 * (j*o.cols + i)
			vertices[k] = instanced.V(x, y, 0)
			vertices[k+1] = instanced.V(x, y+terrainRes, 0)
		}
	}
	tr.raise(vertices, 0, len(vertices))

	shape, err := instanced.NewShape(dev, vertices, instanced.LineStrip,
		instanced.WithLabel("terrain"), instanced.WithDrawID(o.drawID))
	if err != nil {
		return nil, err
	}
	attr := instanced.DefaultAttribute()
	attr.Rotate(instanced.AxisX, terrainTilt)
	group, err := instanced.NewInstanceGroup(dev, shape, 1, instanced.WithAttributes([]instanced.Attribute{attr}))
	if err != nil {
		shape.Release()
		return nil, err
	}
	tr.group = group
	if o.workers != 1 {
		tr.pool = parallel.NewWorkerPool(o.workers)
	}
	return tr, nil
}

// raise sets the height of vertices[lo:hi] from the noise at the current
// time.
func (tr *Terrain) raise(vertices []instanced.Vertex, lo, hi int) {
	for k := lo; k < hi; k++ {
		p := &vertices[k].Position
		p[2] = terrainHeight * float32(tr.noise.Noise3D(float64(p[0]), float64(p[1]), tr.t))
	}
}

// Time returns the current noise time.
func (tr *Terrain) Time() float64 { return tr.t }

// Group returns the instance group drawing the terrain.
func (tr *Terrain) Group() *instanced.InstanceGroup { return tr.group }

// Update advances the noise time and uploads the new heights.
func (tr *Terrain) Update() error {
	tr.t += terrainSpeed
	shape := tr.group.Shape()
	vertices := shape.MutVertices()
	parallel.ForRange(tr.pool, len(vertices), func(lo, hi int) {
		tr.raise(vertices, lo, hi)
	})
	return shape.Sync()
}

// Draw draws the terrain.
func (tr *Terrain) Draw(frame gpucore.Frame, programs instanced.Programs) error {
	return tr.group.Draw(frame, programs)
}

// RotateAxis rotates the whole terrain.
func (tr *Terrain) RotateAxis(axis int, angle float32) {
	tr.group.RotateAxis(axis, angle)
}

// Release frees the device buffers and the worker pool.
func (tr *Terrain) Release() {
	tr.group.Release()
	if tr.pool != nil {
		tr.pool.Close()
		tr.pool = nil
	}
}

var (
	_ instanced.Object  = (*Terrain)(nil)
	_ instanced.Rotator = (*Terrain)(nil)
)
