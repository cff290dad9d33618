package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/instanced"
)

// LifeSize is the width and height of the default life grid.
const LifeSize = 200

// Cell colors.
var (
	aliveColor = mgl32.Vec4{1, 1, 1, 1}
	deadColor  = mgl32.Vec4{0, 0, 0, 1}
)

// Life is Conway's game of life (B3/S23) on a toroidal grid. Cell i sits
// at column i%width and row i/width and is drawn by attribute i.
//
// BeginTick snapshots the grid so Step can read every neighbour of the
// previous generation while cells of the next one are written
// concurrently.
type Life struct {
	width, height int
	cells         []bool
	prev          []bool
}

// NewLife returns an empty width x height grid.
func NewLife(width, height int) (*Life, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: life grid %dx%d", instanced.ErrInvalidConfig, width, height)
	}
	n := width * height
	return &Life{
		width:  width,
		height: height,
		cells:  make([]bool, n),
		prev:   make([]bool, n),
	}, nil
}

// Randomize sets each cell alive with probability 1/2.
func (l *Life) Randomize(rng *rand.Rand) {
	for i := range l.cells {
		l.cells[i] = rng.IntN(2) == 0
	}
}

// Size returns the grid width and height.
func (l *Life) Size() (width, height int) { return l.width, l.height }

// Len returns the number of cells.
func (l *Life) Len() int { return len(l.cells) }

// Alive reports whether the cell at column x, row y is alive.
func (l *Life) Alive(x, y int) bool { return l.cells[l.index(x, y)] }

// Set changes a cell between ticks.
func (l *Life) Set(x, y int, alive bool) { l.cells[l.index(x, y)] = alive }

// Population returns the number of live cells.
func (l *Life) Population() int {
	n := 0
	for _, c := range l.cells {
		if c {
			n++
		}
	}
	return n
}

func (l *Life) index(x, y int) int {
	x = (x%l.width + l.width) % l.width
	y = (y%l.height + l.height) % l.height
	return y*l.width + x
}

// Attributes lays the cells out over [-2, 2)² at z = -1, colored by state.
func (l *Life) Attributes() []instanced.Attribute {
	attrs := make([]instanced.Attribute, len(l.cells))
	for i := range attrs {
		a := instanced.DefaultAttribute()
		a.WorldPosition = mgl32.Vec3{
			remap(float32(i%l.width), float32(l.width)),
			remap(float32(i/l.width), float32(l.height)),
			-1,
		}
		a.Color = cellColor(l.cells[i])
		attrs[i] = a
	}
	return attrs
}

// CellHalfSize is the half size of a quad that tiles the grid exactly.
func (l *Life) CellHalfSize() float32 {
	return 2 / float32(max(l.width, l.height))
}

// remap maps v in [0, n) to [-2, 2).
func remap(v, n float32) float32 {
	return -2 + 4*v/n
}

func cellColor(alive bool) mgl32.Vec4 {
	if alive {
		return aliveColor
	}
	return deadColor
}

// BeginTick snapshots the current generation.
func (l *Life) BeginTick() {
	copy(l.prev, l.cells)
}

// Step computes the next state of cell i from the snapshot and recolors
// its attribute.
func (l *Life) Step(i int, a *instanced.Attribute) {
	x, y := i%l.width, i/l.width
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && l.prev[l.index(x+dx, y+dy)] {
				n++
			}
		}
	}
	alive := n == 3 || (n == 2 && l.prev[i])
	l.cells[i] = alive
	a.Color = cellColor(alive)
}

var (
	_ instanced.Simulation   = (*Life)(nil)
	_ instanced.TickBeginner = (*Life)(nil)
)
