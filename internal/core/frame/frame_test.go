package frame

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/config"
	"planetmesh/internal/core/displace"
	"planetmesh/internal/core/face"
	"planetmesh/internal/core/quadtree"
	"planetmesh/internal/core/vertex"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PatchGridN = 8
	cfg.MaxLevel = 6
	return cfg
}

func testCamera(pos mgl64.Vec3) quadtree.Camera {
	const fov = math.Pi / 3
	view := mgl64.LookAtV(pos, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(fov, 16.0/9.0, 10, 1e9)
	return quadtree.NewCamera(pos, proj.Mul4(view), 1080, fov)
}

// E2: camera at 3R over the +X face with zero displacement. The +X
// face refines to a near-uniform level inside the frustum; the back
// face stays at level 0; the frame has no duplicate vertices.
func TestEarthViewFromThreeRadii(t *testing.T) {
	p, err := New(testConfig(), displace.Zero{}, 0)
	if err != nil {
		t.Fatal(err)
	}

	cam := testCamera(mgl64.Vec3{3 * 6.371e6, 0, 0})
	out, stats, err := p.RenderFrame(cam)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := p.Trees().Tree(face.NegX).LeafCount(), 1; got != want {
		t.Errorf("-X leaf count = %d, want %d (back face stays at level 0)", got, want)
	}

	leaves := p.Trees().CollectVisible(cam.Frustum)
	minLvl, maxLvl := uint8(255), uint8(0)
	for _, l := range leaves {
		if l.Face != face.PosX {
			continue
		}
		if l.Patch.Level < minLvl {
			minLvl = l.Patch.Level
		}
		if l.Patch.Level > maxLvl {
			maxLvl = l.Patch.Level
		}
	}
	if minLvl < 4 || maxLvl > 6 || maxLvl-minLvl > 1 {
		t.Errorf("+X levels in frustum span [%d,%d], want near-uniform within [4,6]", minLvl, maxLvl)
	}

	// Property: distinct identities == vertex buffer length. Recount
	// the identities independently of the cache.
	quant := vertex.DefaultQuantizer()
	ids := make(map[vertex.ID]bool)
	n := int(testConfig().PatchGridN)
	for _, l := range leaves {
		for j := 0; j <= n; j++ {
			for i := 0; i <= n; i++ {
				u := l.Patch.U0 + (l.Patch.U1-l.Patch.U0)*float64(i)/float64(n)
				v := l.Patch.V0 + (l.Patch.V1-l.Patch.V0)*float64(j)/float64(n)
				ids[quant.MakeID(l.Patch.Face.UVToCube(u, v))] = true
			}
		}
	}
	if got, want := len(out.Vertices), len(ids); got != want {
		t.Errorf("vertex buffer length = %d, want %d distinct identities", got, want)
	}

	if stats.Patches != len(leaves) {
		t.Errorf("stats.Patches = %d, want %d", stats.Patches, len(leaves))
	}
}

// Property: the producer runs once per distinct identity.
func TestAtMostOnceMaterializationPerFrame(t *testing.T) {
	field := displace.NewCounting(displace.Zero{})
	p, err := New(testConfig(), field, 0)
	if err != nil {
		t.Fatal(err)
	}

	out, _, err := p.RenderFrame(testCamera(mgl64.Vec3{2 * 6.371e6, 1e6, 0}))
	if err != nil {
		t.Fatal(err)
	}

	if got, want := field.Calls(), int64(len(out.Vertices)); got != want {
		t.Errorf("producer calls = %d, want %d (one per distinct identity)", got, want)
	}
}

// A retained cache answers the whole second frame from memory.
func TestRetainedCacheSkipsRematerialization(t *testing.T) {
	cfg := testConfig()
	cfg.KeepCacheAcrossFrames = true
	field := displace.NewCounting(displace.Zero{})
	p, err := New(cfg, field, 0)
	if err != nil {
		t.Fatal(err)
	}

	cam := testCamera(mgl64.Vec3{3 * 6.371e6, 0, 0})
	if _, _, err := p.RenderFrame(cam); err != nil {
		t.Fatal(err)
	}
	firstCalls := field.Calls()

	_, stats, err := p.RenderFrame(cam)
	if err != nil {
		t.Fatal(err)
	}
	if got := field.Calls(); got != firstCalls {
		t.Errorf("second frame made %d extra producer calls, want 0", got-firstCalls)
	}
	if stats.CacheMisses != 0 {
		t.Errorf("second frame cache misses = %d, want 0", stats.CacheMisses)
	}
}

func TestFrameIsReproducible(t *testing.T) {
	p, err := New(testConfig(), displace.Zero{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	cam := testCamera(mgl64.Vec3{2.5 * 6.371e6, 3e6, -1e6}.Normalize().Mul(2.2 * 6.371e6))

	a, aStats, err := p.RenderFrame(cam)
	if err != nil {
		t.Fatal(err)
	}
	b, bStats, err := p.RenderFrame(cam)
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Indices) != len(b.Indices) || len(a.Vertices) != len(b.Vertices) {
		t.Fatalf("frame sizes differ: %d/%d vs %d/%d",
			len(a.Indices), len(a.Vertices), len(b.Indices), len(b.Vertices))
	}
	if aStats.Patches != bStats.Patches || aStats.CacheMisses != bStats.CacheMisses {
		t.Errorf("stats differ across identical frames: %+v vs %+v", aStats, bStats)
	}
	// Draw lists are ordered by the visible-leaf collection, which is
	// deterministic for a fixed camera.
	if len(a.Draws) != len(b.Draws) {
		t.Fatalf("draw counts differ: %d vs %d", len(a.Draws), len(b.Draws))
	}
	for i := range a.Draws {
		if a.Draws[i].PatchID != b.Draws[i].PatchID {
			t.Fatalf("draw order differs at %d", i)
		}
	}
}

func TestDrawRangesTileIndexBuffer(t *testing.T) {
	p, err := New(testConfig(), displace.Zero{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	out, _, err := p.RenderFrame(testCamera(mgl64.Vec3{3 * 6.371e6, 0, 0}))
	if err != nil {
		t.Fatal(err)
	}

	next := uint32(0)
	for i, d := range out.Draws {
		if d.FirstIndex != next {
			t.Fatalf("draw %d starts at %d, want %d", i, d.FirstIndex, next)
		}
		if d.IndexCount == 0 || d.IndexCount%3 != 0 {
			t.Fatalf("draw %d has index count %d", i, d.IndexCount)
		}
		next += d.IndexCount
	}
	if int(next) != len(out.Indices) {
		t.Errorf("draws cover %d indices, buffer has %d", next, len(out.Indices))
	}
	for _, idx := range out.Indices {
		if int(idx) >= len(out.Vertices) {
			t.Fatalf("index %d out of range (%d vertices)", idx, len(out.Vertices))
		}
	}
}

type failingField struct{}

func (failingField) Displace(mgl64.Vec3) (float64, *mgl64.Vec3, error) {
	return 0, nil, displace.ErrFailed
}

// A displacement failure aborts the frame with a single error.
func TestWorkerErrorAbortsFrame(t *testing.T) {
	p, err := New(testConfig(), failingField{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	out, _, err := p.RenderFrame(testCamera(mgl64.Vec3{3 * 6.371e6, 0, 0}))
	if !errors.Is(err, displace.ErrFailed) {
		t.Fatalf("err = %v, want wrapped displace.ErrFailed", err)
	}
	if out != nil {
		t.Error("aborted frame produced an output")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.PlanetRadius = -1
	if _, err := New(cfg, displace.Zero{}, 0); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("err = %v, want config.ErrInvalid", err)
	}
}
