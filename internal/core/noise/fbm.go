// Package noise provides procedural noise for planetary displacement
package noise

import (
	"math"
)

// FBMConfig contains configuration for FBM noise
type FBMConfig struct {
	Octaves     int     // Number of noise layers
	Lacunarity  float64 // Frequency multiplier per octave
	Persistence float64 // Amplitude multiplier per octave
	Scale       float64 // Base scale
}

// DefaultFBMConfig returns a default FBM configuration
func DefaultFBMConfig() FBMConfig {
	return FBMConfig{
		Octaves:     6,
		Lacunarity:  2.0,
		Persistence: 0.5,
		Scale:       1.0,
	}
}

// FBM implements Fractal Brownian Motion over the sphere surface.
// Inputs are unit sphere directions, so the field is seam-free.
type FBM struct {
	Config FBMConfig
}

// NewFBM creates a new FBM generator with the given configuration
func NewFBM(config FBMConfig) *FBM {
	return &FBM{Config: config}
}

// Sample samples FBM noise at a 3D point
// Returns a value in the approximate range [-1, 1]
func (f *FBM) Sample(noise *SimplexNoise, x, y, z float64) float64 {
	value := 0.0
	amplitude := 1.0
	frequency := f.Config.Scale
	maxValue := 0.0

	for i := 0; i < f.Config.Octaves; i++ {
		value += amplitude * noise.Noise3D(x*frequency, y*frequency, z*frequency)
		maxValue += amplitude
		amplitude *= f.Config.Persistence
		frequency *= f.Config.Lacunarity
	}

	return value / maxValue
}

// Ridged samples ridged FBM noise (for mountain chains)
// Creates sharp ridges by inverting and squaring the absolute value
func (f *FBM) Ridged(noise *SimplexNoise, x, y, z float64) float64 {
	value := 0.0
	amplitude := 1.0
	frequency := f.Config.Scale
	maxValue := 0.0

	for i := 0; i < f.Config.Octaves; i++ {
		n := noise.Noise3D(x*frequency, y*frequency, z*frequency)
		n = 1 - math.Abs(n) // Ridge
		n = n * n           // Sharpen
		value += amplitude * n
		maxValue += amplitude
		amplitude *= f.Config.Persistence
		frequency *= f.Config.Lacunarity
	}

	return value / maxValue
}

// Turbulence samples turbulent FBM noise (for sea-floor variation)
// Uses absolute value of noise for always-positive contribution
func (f *FBM) Turbulence(noise *SimplexNoise, x, y, z float64) float64 {
	value := 0.0
	amplitude := 1.0
	frequency := f.Config.Scale
	maxValue := 0.0

	for i := 0; i < f.Config.Octaves; i++ {
		value += amplitude * math.Abs(noise.Noise3D(x*frequency, y*frequency, z*frequency))
		maxValue += amplitude
		amplitude *= f.Config.Persistence
		frequency *= f.Config.Lacunarity
	}

	return value / maxValue
}

// Warped samples domain-warped FBM for more varied coastlines
// Uses FBM to distort the input coordinates before sampling
func (f *FBM) Warped(noise *SimplexNoise, x, y, z, warpAmount float64) float64 {
	wx := f.Sample(noise, x*0.5, y*0.5, z*0.5) * warpAmount
	wy := f.Sample(noise, x*0.5+100, y*0.5+100, z*0.5+100) * warpAmount
	wz := f.Sample(noise, x*0.5-100, y*0.5-100, z*0.5-100) * warpAmount
	return f.Sample(noise, x+wx, y+wy, z+wz)
}
