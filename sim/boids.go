package sim

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/instanced"
)

// Flock defaults.
const (
	BoidRadius   = 0.03
	BoidSegments = 10

	DefaultPull  = 0.0001
	DefaultLimit = 5.0

	initialSpeed = 0.001
)

// Boids moves every instance by its own velocity and pulls the velocity
// towards the origin in the xy plane.
type Boids struct {
	velocity []mgl32.Vec3

	// Pull scales the per-tick acceleration towards the origin.
	Pull float32
	// Limit caps the velocity magnitude.
	Limit float32
}

// NewBoids returns a flock of n boids with random initial velocities of
// up to initialSpeed per component.
func NewBoids(n int, rng *rand.Rand) *Boids {
	b := &Boids{
		velocity: make([]mgl32.Vec3, n),
		Pull:     DefaultPull,
		Limit:    DefaultLimit,
	}
	for i := range b.velocity {
		for k := range 3 {
			b.velocity[i][k] = (rng.Float32()*4 - 2) * initialSpeed
		}
	}
	return b
}

// Len returns the number of boids.
func (b *Boids) Len() int { return len(b.velocity) }

// Velocity returns the velocity of boid i.
func (b *Boids) Velocity(i int) mgl32.Vec3 { return b.velocity[i] }

// Step applies one tick to boid i.
func (b *Boids) Step(i int, a *instanced.Attribute) {
	p := a.WorldPosition
	v := b.velocity[i].Add(mgl32.Vec3{-p[0] * b.Pull, -p[1] * b.Pull, 0})
	if sq := v.LenSqr(); sq > b.Limit*b.Limit {
		v = v.Mul(b.Limit / math32.Sqrt(sq))
	}
	b.velocity[i] = v
	a.WorldPosition = p.Add(v)
}

var _ instanced.Simulation = (*Boids)(nil)
