package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadOptions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero radius", func(c *Config) { c.PlanetRadius = 0 }},
		{"negative radius", func(c *Config) { c.PlanetRadius = -1 }},
		{"level zero", func(c *Config) { c.MaxLevel = 0 }},
		{"level too deep", func(c *Config) { c.MaxLevel = 25 }},
		{"grid not power of two", func(c *Config) { c.PatchGridN = 48 }},
		{"grid too small", func(c *Config) { c.PatchGridN = 1 }},
		{"no hysteresis", func(c *Config) { c.SplitPixels = 3; c.MergePixels = 3 }},
		{"merge negative", func(c *Config) { c.MergePixels = -1 }},
		{"epsilon too wide", func(c *Config) { c.BoundaryEpsilon = 1e-3 }},
		{"epsilon zero", func(c *Config) { c.BoundaryEpsilon = 0 }},
		{"quant bits low", func(c *Config) { c.QuantizationBits = 4 }},
		{"quant bits high", func(c *Config) { c.QuantizationBits = 31 }},
		{"error constant", func(c *Config) { c.ErrorConstant = 0 }},
	}
	for _, c := range cases {
		cfg := Default()
		c.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: Validate() = %v, want ErrInvalid", c.name, err)
		}
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planet.toml")
	body := `
planet_radius = 100.0
max_level = 4
patch_grid_n = 16

[viewer]
width = 640
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.PlanetRadius, 100.0; got != want {
		t.Errorf("PlanetRadius = %v, want %v", got, want)
	}
	if got, want := cfg.MaxLevel, uint8(4); got != want {
		t.Errorf("MaxLevel = %v, want %v", got, want)
	}
	if got, want := cfg.Viewer.Width, 640; got != want {
		t.Errorf("Viewer.Width = %v, want %v", got, want)
	}
	// Untouched keys keep their defaults.
	if got, want := cfg.SplitPixels, float32(8); got != want {
		t.Errorf("SplitPixels = %v, want %v", got, want)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("planet_radius = -5.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want ErrInvalid", err)
	}
}
