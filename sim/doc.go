// Package sim holds the simulations and scenes the instanced scheduler
// runs: a flock pulled towards the origin, Conway's game of life on a grid
// of quads, a perlin-noise terrain drawn as line strips, and a field of
// spinning triangles.
//
// Scenes are looked up by name with [Build]:
//
//	objs, err := sim.Build("boids", dev, cfg)
//	if err != nil {
//	    return err
//	}
//	sched.Add(objs...)
//
// Simulations implement [instanced.Simulation]; their Step methods are
// called concurrently for different indices and only touch state owned by
// that index.
package sim
