package instanced

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/instanced/gpucore"
	"github.com/gogpu/instanced/shaders"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// ProgramSource is one vertex+fragment program. The index of a program in
// Config.Programs is the draw id shapes select it with.
type ProgramSource struct {
	Label    string `yaml:"label"`
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// Spin is the rotation applied to every group on every tick.
type Spin struct {
	Axis  int     `yaml:"axis"`
	Angle float32 `yaml:"angle"`
}

// Camera describes the perspective the scene is viewed with.
type Camera struct {
	FOV      float32 `yaml:"fov"`
	ZNear    float32 `yaml:"znear"`
	ZFar     float32 `yaml:"zfar"`
	Distance float32 `yaml:"distance"`
}

// Config is everything a scheduler and its scene are built from.
// Start from DefaultConfig and override with the With methods or LoadConfig.
type Config struct {
	Title      string          `yaml:"title"`
	Width      int             `yaml:"width"`
	Height     int             `yaml:"height"`
	VSync      bool            `yaml:"vsync"`
	ClearColor string          `yaml:"clear_color"`
	Instances  int             `yaml:"instances"`
	Workers    int             `yaml:"workers"`
	Scene      string          `yaml:"scene"`
	Seed       uint64          `yaml:"seed"`
	Spin       Spin            `yaml:"spin"`
	Camera     Camera          `yaml:"camera"`
	Light      [3]float32      `yaml:"light"`
	Programs   []ProgramSource `yaml:"programs"`

	// ValidateShaders runs program sources through the naga compiler
	// before a GPU device accepts them.
	ValidateShaders bool `yaml:"validate_shaders"`
}

// DefaultConfig returns an 800x800 window running the boids scene with the
// built-in program.
func DefaultConfig() Config {
	return Config{
		Title:      "Instanced",
		Width:      800,
		Height:     800,
		VSync:      true,
		ClearColor: "black",
		Instances:  1000,
		Scene:      "boids",
		Spin:       Spin{Axis: AxisZ, Angle: 0.005},
		Camera: Camera{
			FOV:      math.Pi / 2,
			ZNear:    0.1,
			ZFar:     1024,
			Distance: 3,
		},
		Light: [3]float32{-1, 0.4, 0.9},
		Programs: []ProgramSource{{
			Label:    "instanced",
			Vertex:   shaders.InstancedVertex,
			Fragment: shaders.InstancedFragment,
		}},
		ValidateShaders: true,
	}
}

// WithTitle returns a copy with the window title set.
func (c Config) WithTitle(title string) Config {
	c.Title = title
	return c
}

// WithSize returns a copy with the surface size set.
func (c Config) WithSize(width, height int) Config {
	c.Width, c.Height = width, height
	return c
}

// WithInstances returns a copy with the per-group instance count set.
func (c Config) WithInstances(n int) Config {
	c.Instances = n
	return c
}

// WithWorkers returns a copy with the fan-out width set.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// WithScene returns a copy with the scene name set.
func (c Config) WithScene(name string) Config {
	c.Scene = name
	return c
}

// WithClearColor returns a copy with the clear color set to a CSS color name.
func (c Config) WithClearColor(name string) Config {
	c.ClearColor = name
	return c
}

// WithSpin returns a copy with the per-tick group rotation set.
func (c Config) WithSpin(axis int, angle float32) Config {
	c.Spin = Spin{Axis: axis, Angle: angle}
	return c
}

// WithPrograms returns a copy with the program list replaced.
func (c Config) WithPrograms(programs ...ProgramSource) Config {
	c.Programs = programs
	return c
}

// Validate checks the config for values no scheduler can run with.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.Instances <= 0:
		return fmt.Errorf("%w: %d instances", ErrInvalidConfig, c.Instances)
	case c.Spin.Axis < AxisX || c.Spin.Axis > AxisZ:
		return fmt.Errorf("%w: spin axis %d", ErrInvalidConfig, c.Spin.Axis)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= math.Pi:
		return fmt.Errorf("%w: fov %v", ErrInvalidConfig, c.Camera.FOV)
	case c.Camera.ZNear <= 0 || c.Camera.ZFar <= c.Camera.ZNear:
		return fmt.Errorf("%w: depth range [%v, %v]", ErrInvalidConfig, c.Camera.ZNear, c.Camera.ZFar)
	case len(c.Programs) == 0:
		return fmt.Errorf("%w: no programs", ErrInvalidConfig)
	}
	for i, p := range c.Programs {
		if p.Vertex == "" || p.Fragment == "" {
			return fmt.Errorf("%w: program %d has an empty stage", ErrInvalidConfig, i)
		}
	}
	if _, ok := colornames.Map[c.ClearColor]; !ok {
		return fmt.Errorf("%w: unknown clear color %q", ErrInvalidConfig, c.ClearColor)
	}
	return nil
}

// Clear returns the clear color. Unknown names clear to black.
func (c Config) Clear() gpucore.Color {
	rgba, ok := colornames.Map[c.ClearColor]
	if !ok {
		return gpucore.Color{A: 1}
	}
	return gpucore.Color{
		R: float64(rgba.R) / 255,
		G: float64(rgba.G) / 255,
		B: float64(rgba.B) / 255,
		A: float64(rgba.A) / 255,
	}
}

// Uniforms returns the frame uniforms for a target of the given size.
func (c Config) Uniforms(width, height int) gpucore.Uniforms {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	proj := mgl32.Perspective(c.Camera.FOV, aspect, c.Camera.ZNear, c.Camera.ZFar)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, c.Camera.Distance},
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 1, 0},
	)
	return gpucore.Uniforms{
		ViewProjection: proj.Mul4(view),
		Light:          mgl32.Vec3(c.Light),
	}
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Program sources may be given inline or as paths prefixed with "@".
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for i := range cfg.Programs {
		p := &cfg.Programs[i]
		var err error
		if p.Vertex, err = readSource(p.Vertex); err != nil {
			return Config{}, err
		}
		if p.Fragment, err = readSource(p.Fragment); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("instanced: load config: %w", err)
	}
	return ParseConfig(data)
}

func readSource(s string) (string, error) {
	if len(s) == 0 || s[0] != '@' {
		return s, nil
	}
	data, err := os.ReadFile(s[1:])
	if err != nil {
		return "", fmt.Errorf("instanced: read shader: %w", err)
	}
	return string(data), nil
}
