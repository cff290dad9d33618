// Package shaders holds the default WGSL programs of the instanced render
// loop and compiles WGSL with naga.
package shaders

import (
	"crypto/sha256"
	_ "embed"
	"fmt"

	"github.com/gogpu/instanced/internal/cache"
	"github.com/gogpu/naga"
)

// InstancedVertex is the default vertex stage. It consumes a per-vertex
// stream of (position, normal) and a per-instance stream of (world
// position, rotation matrix, color), and binds the frame uniforms at
// group 0, binding 0.
//
//go:embed instanced_vs.wgsl
var InstancedVertex string

// InstancedFragment is the default fragment stage: instance color shaded
// by the angle between the rotated normal and the light direction.
//
//go:embed instanced_fs.wgsl
var InstancedFragment string

// compiled memoizes Compile by source digest. Programs are recreated with
// the same sources on every run, and naga is the slow part of program
// creation.
var compiled = cache.New[[sha256.Size]byte, compileResult](64)

type compileResult struct {
	words []uint32
	err   error
}

// Compile compiles WGSL source to SPIR-V words. Results, failures
// included, are cached by source; callers must not modify the returned
// slice.
func Compile(wgsl string) ([]uint32, error) {
	r := compiled.GetOrCreate(sha256.Sum256([]byte(wgsl)), func() compileResult {
		words, err := compile(wgsl)
		return compileResult{words: words, err: err}
	})
	return r.words, r.err
}

// CacheStats reports how often Compile was served from its cache.
func CacheStats() cache.Stats { return compiled.Stats() }

func compile(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("shaders: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shaders: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// Validate reports whether both stages of a program compile.
func Validate(vertex, fragment string) error {
	if _, err := Compile(vertex); err != nil {
		return fmt.Errorf("vertex stage: %w", err)
	}
	if _, err := Compile(fragment); err != nil {
		return fmt.Errorf("fragment stage: %w", err)
	}
	return nil
}
