package instanced

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/instanced/gpucore"
	"golang.org/x/text/language"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Width != 800 || cfg.Height != 800 || !cfg.VSync {
		t.Errorf("window = %dx%d vsync %v", cfg.Width, cfg.Height, cfg.VSync)
	}
	if !cfg.ValidateShaders {
		t.Error("shader validation off by default")
	}
	if cfg.Clear() != (gpucore.Color{A: 1}) {
		t.Errorf("default clear = %+v, want opaque black", cfg.Clear())
	}
}

func TestConfigWith(t *testing.T) {
	base := DefaultConfig()
	cfg := base.
		WithTitle("t").
		WithSize(320, 200).
		WithInstances(12).
		WithWorkers(3).
		WithScene("life").
		WithClearColor("white").
		WithSpin(AxisX, 0.5).
		WithPrograms(ProgramSource{Label: "p", Vertex: "v", Fragment: "f"})

	if cfg.Title != "t" || cfg.Width != 320 || cfg.Height != 200 || cfg.Instances != 12 ||
		cfg.Workers != 3 || cfg.Scene != "life" || cfg.ClearColor != "white" {
		t.Errorf("With methods not applied: %+v", cfg)
	}
	if cfg.Spin != (Spin{Axis: AxisX, Angle: 0.5}) || len(cfg.Programs) != 1 {
		t.Errorf("spin = %+v, programs = %d", cfg.Spin, len(cfg.Programs))
	}
	if base.Title != "Instanced" || base.Scene != "boids" {
		t.Error("With methods modified the receiver")
	}
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"size", func(c *Config) { c.Height = 0 }},
		{"instances", func(c *Config) { c.Instances = -1 }},
		{"axis", func(c *Config) { c.Spin.Axis = 3 }},
		{"fov", func(c *Config) { c.Camera.FOV = 4 }},
		{"depth", func(c *Config) { c.Camera.ZFar = c.Camera.ZNear }},
		{"no programs", func(c *Config) { c.Programs = nil }},
		{"empty stage", func(c *Config) { c.Programs[0].Fragment = "" }},
		{"color", func(c *Config) { c.ClearColor = "not-a-color" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseConfig(t *testing.T) {
	dir := t.TempDir()
	vs := filepath.Join(dir, "custom_vs.wgsl")
	if err := os.WriteFile(vs, []byte("// vertex"), 0o600); err != nil {
		t.Fatal(err)
	}
	doc := `
title: Terrain
width: 640
height: 480
clear_color: navy
scene: terrain
vsync: false
validate_shaders: false
spin:
  axis: 1
  angle: 0.01
programs:
  - label: custom
    vertex: "@` + vs + `"
    fragment: "inline fragment"
`
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Title != "Terrain" || cfg.Width != 640 || cfg.Height != 480 || cfg.Scene != "terrain" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.VSync || cfg.ValidateShaders {
		t.Errorf("vsync %v, validate_shaders %v, want both off", cfg.VSync, cfg.ValidateShaders)
	}
	if cfg.Spin != (Spin{Axis: AxisY, Angle: 0.01}) {
		t.Errorf("spin = %+v", cfg.Spin)
	}
	if cfg.Instances != DefaultConfig().Instances {
		t.Errorf("unset field lost its default: instances = %d", cfg.Instances)
	}
	p := cfg.Programs[0]
	if p.Vertex != "// vertex" || p.Fragment != "inline fragment" {
		t.Errorf("program = %+v", p)
	}
	if c := cfg.Clear(); c.B != 128.0/255 || c.R != 0 {
		t.Errorf("navy = %+v", c)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", "width: [1, 2"},
		{"invalid", "width: -5"},
		{"missing shader", "programs:\n  - vertex: \"@/does/not/exist.wgsl\"\n    fragment: f\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.doc)); err == nil {
				t.Error("ParseConfig succeeded")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instanced.yaml")
	if err := os.WriteFile(path, []byte("instances: 42\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Instances != 42 {
		t.Errorf("instances = %d", cfg.Instances)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig of a missing file succeeded")
	}
}

func TestConfigUniforms(t *testing.T) {
	cfg := DefaultConfig()
	u := cfg.Uniforms(800, 800)
	if u.Light != (mgl32.Vec3{-1, 0.4, 0.9}) {
		t.Errorf("light = %v", u.Light)
	}

	// The origin projects to the center of clip space, in front of the camera.
	clip := u.ViewProjection.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if clip[3] <= 0 {
		t.Fatalf("origin behind camera: w = %v", clip[3])
	}
	if clip[0] != 0 || clip[1] != 0 {
		t.Errorf("origin projected off-center: %v", clip)
	}

	// A wider target squeezes x.
	wide := cfg.Uniforms(1600, 800).ViewProjection.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	square := u.ViewProjection.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if wide[0] >= square[0] {
		t.Errorf("aspect not applied: wide x %v, square x %v", wide[0], square[0])
	}
}

func TestStatsSummary(t *testing.T) {
	var s Stats
	if s.MeanUpdate() != 0 || s.MeanFrame() != 0 {
		t.Error("empty stats have non-zero means")
	}
	for _, d := range []time.Duration{time.Millisecond, 3 * time.Millisecond} {
		s.observeUpdate(d)
	}
	for range 1500 {
		s.observeFrame(2 * time.Millisecond)
	}
	if s.MeanUpdate() != 2*time.Millisecond || s.UpdateMax != 3*time.Millisecond {
		t.Errorf("update mean %v max %v", s.MeanUpdate(), s.UpdateMax)
	}
	got := s.Summary(language.English)
	if !strings.Contains(got, "1,500 frames") {
		t.Errorf("Summary = %q, want grouped frame count", got)
	}
	if !strings.Contains(got, "2 updates") {
		t.Errorf("Summary = %q", got)
	}
}
