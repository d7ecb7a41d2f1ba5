// Package displace defines the terrain displacement field consumed by
// the mesher, plus the stock field implementations
package displace

import (
	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/core/noise"
	vmath "planetmesh/pkg/math"
)

// TerrainConfig controls the procedural terrain field
type TerrainConfig struct {
	Seed           int64
	ContinentScale float64 // Base frequency of the continent mask
	Amplitude      float64 // Peak height in meters
	OceanDepth     float64 // Deepest sea floor in meters
	MountainWeight float64 // Share of ridged mountains on land
}

// DefaultTerrainConfig returns Earth-like terrain parameters
func DefaultTerrainConfig() TerrainConfig {
	return TerrainConfig{
		Seed:           1337,
		ContinentScale: 1.6,
		Amplitude:      8000,
		OceanDepth:     6000,
		MountainWeight: 0.6,
	}
}

// Terrain is a seam-free procedural displacement field: continents from
// domain-warped FBM, ridged mountain chains on land, turbulent sea
// floor below the coastline.
type Terrain struct {
	cfg       TerrainConfig
	simplex   *noise.SimplexNoise
	continent *noise.FBM
	mountain  *noise.FBM
	seafloor  *noise.FBM
}

// NewTerrain creates a terrain field from the given configuration
func NewTerrain(cfg TerrainConfig) *Terrain {
	base := noise.DefaultFBMConfig()
	base.Scale = cfg.ContinentScale

	mountains := noise.DefaultFBMConfig()
	mountains.Scale = cfg.ContinentScale * 4
	mountains.Octaves = 5

	floor := noise.DefaultFBMConfig()
	floor.Scale = cfg.ContinentScale * 2
	floor.Octaves = 3

	return &Terrain{
		cfg:       cfg,
		simplex:   noise.NewSimplexNoise(cfg.Seed),
		continent: noise.NewFBM(base),
		mountain:  noise.NewFBM(mountains),
		seafloor:  noise.NewFBM(floor),
	}
}

// Displace returns the terrain height for a sphere direction. The
// field has no analytic gradient; normals come from differences.
func (t *Terrain) Displace(n mgl64.Vec3) (float64, *mgl64.Vec3, error) {
	c := t.continent.Warped(t.simplex, n.X(), n.Y(), n.Z(), 0.4)

	// c > 0 is land, c < 0 is ocean; smooth the coastline transition
	land := vmath.Smoothstep(-0.05, 0.15, c)

	ridge := t.mountain.Ridged(t.simplex, n.X(), n.Y(), n.Z())
	upland := c*(1-t.cfg.MountainWeight) + ridge*t.cfg.MountainWeight
	height := land * upland * t.cfg.Amplitude

	if land < 1 {
		depth := 0.3 + 0.7*t.seafloor.Turbulence(t.simplex, n.X(), n.Y(), n.Z())
		height -= (1 - land) * depth * t.cfg.OceanDepth
	}
	return height, nil, nil
}
