// Package config provides TOML-backed configuration for the mesher
// and the viewer
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	vmath "planetmesh/pkg/math"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config holds the mesher options
type Config struct {
	PlanetRadius    float64 `toml:"planet_radius"`    // R in meters
	MaxLevel        uint8   `toml:"max_level"`        // deepest quadtree level
	PatchGridN      uint16  `toml:"patch_grid_n"`     // grid cells per patch edge
	SplitPixels     float32 `toml:"split_pixels"`     // screen-space split threshold
	MergePixels     float32 `toml:"merge_pixels"`     // screen-space merge threshold
	BoundaryEpsilon float64 `toml:"boundary_epsilon"` // cube boundary snap distance
	QuantizationBits uint8  `toml:"quantization_bits"`
	ErrorConstant   float64 `toml:"error_constant"` // geometric error scale c
	EnableTJunctionFix    bool `toml:"enable_tjunction_fix"`
	KeepCacheAcrossFrames bool `toml:"keep_cache_across_frames"`

	Viewer Viewer `toml:"viewer"`
}

// Viewer holds the interactive viewer options
type Viewer struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
	Seed   int64  `toml:"seed"`
}

// Default returns the standard Earth-scale configuration
func Default() Config {
	return Config{
		PlanetRadius:          6.371e6,
		MaxLevel:              10,
		PatchGridN:            64,
		SplitPixels:           8,
		MergePixels:           3,
		BoundaryEpsilon:       1e-7,
		QuantizationBits:      30,
		ErrorConstant:         0.5,
		EnableTJunctionFix:    true,
		KeepCacheAcrossFrames: false,
		Viewer: Viewer{
			Width:  1280,
			Height: 720,
			Title:  "Planet Viewer",
			VSync:  true,
			Seed:   1337,
		},
	}
}

// Load reads a TOML file over the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks all options against their allowed ranges
func (c Config) Validate() error {
	if c.PlanetRadius <= 0 {
		return fmt.Errorf("%w: planet_radius %v must be positive", ErrInvalid, c.PlanetRadius)
	}
	if c.MaxLevel == 0 || c.MaxLevel > 24 {
		return fmt.Errorf("%w: max_level %d out of range [1,24]", ErrInvalid, c.MaxLevel)
	}
	if c.PatchGridN < 2 || !vmath.IsPowerOfTwo(int(c.PatchGridN)) {
		return fmt.Errorf("%w: patch_grid_n %d must be a power of two >= 2", ErrInvalid, c.PatchGridN)
	}
	if c.MergePixels <= 0 || c.SplitPixels <= c.MergePixels {
		return fmt.Errorf("%w: need split_pixels > merge_pixels > 0, got %v/%v",
			ErrInvalid, c.SplitPixels, c.MergePixels)
	}
	if c.BoundaryEpsilon <= 0 || c.BoundaryEpsilon >= 1e-3 {
		return fmt.Errorf("%w: boundary_epsilon %v out of range (0, 1e-3)", ErrInvalid, c.BoundaryEpsilon)
	}
	if c.QuantizationBits < 8 || c.QuantizationBits > 30 {
		return fmt.Errorf("%w: quantization_bits %d out of range [8,30]", ErrInvalid, c.QuantizationBits)
	}
	if c.ErrorConstant <= 0 {
		return fmt.Errorf("%w: error_constant %v must be positive", ErrInvalid, c.ErrorConstant)
	}
	return nil
}
