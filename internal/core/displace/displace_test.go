package displace

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestZeroField(t *testing.T) {
	h, grad, err := Zero{}.Displace(mgl64.Vec3{0, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if h != 0 {
		t.Errorf("height = %v, want 0", h)
	}
	if grad == nil || *grad != (mgl64.Vec3{}) {
		t.Errorf("gradient = %v, want exact zero", grad)
	}
}

func TestTerrainIsDeterministic(t *testing.T) {
	a := NewTerrain(DefaultTerrainConfig())
	b := NewTerrain(DefaultTerrainConfig())

	dirs := []mgl64.Vec3{
		{1, 0, 0},
		{0.5773502691896258, 0.5773502691896258, 0.5773502691896258},
		{0, -0.7071067811865476, 0.7071067811865476},
	}
	for _, d := range dirs {
		ha, _, _ := a.Displace(d)
		hb, _, _ := b.Displace(d)
		if ha != hb {
			t.Errorf("Displace(%v): %v != %v across instances", d, ha, hb)
		}
		ha2, _, _ := a.Displace(d)
		if ha != ha2 {
			t.Errorf("Displace(%v) not stable: %v != %v", d, ha, ha2)
		}
	}
}

func TestTerrainSeedChangesField(t *testing.T) {
	cfg := DefaultTerrainConfig()
	a := NewTerrain(cfg)
	cfg.Seed = cfg.Seed + 1
	b := NewTerrain(cfg)

	d := mgl64.Vec3{0.6, 0.64, 0.48}
	ha, _, _ := a.Displace(d)
	hb, _, _ := b.Displace(d)
	if ha == hb {
		t.Error("different seeds produced identical heights")
	}
}

func TestTerrainHeightsBounded(t *testing.T) {
	cfg := DefaultTerrainConfig()
	field := NewTerrain(cfg)
	bound := cfg.Amplitude + cfg.OceanDepth

	for i := 0; i < 500; i++ {
		// Deterministic direction sweep over the +X face region.
		u := float64(i%25)/12.5 - 1
		v := float64(i/25)/10.0 - 1
		d := mgl64.Vec3{1, u, v}.Normalize()
		h, _, err := field.Displace(d)
		if err != nil {
			t.Fatal(err)
		}
		if h > bound || h < -bound {
			t.Fatalf("height %v at %v exceeds bound %v", h, d, bound)
		}
	}
}

func TestCountingWrapperIsConcurrencySafe(t *testing.T) {
	c := NewCounting(Zero{})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Displace(mgl64.Vec3{1, 0, 0})
			}
		}()
	}
	wg.Wait()
	if got, want := c.Calls(), int64(800); got != want {
		t.Errorf("calls = %d, want %d", got, want)
	}
}
