package quadtree

import (
	"math"
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/core/face"
)

func testConfig() Config {
	return Config{
		Radius:        100,
		MaxLevel:      6,
		SplitPixels:   8,
		MergePixels:   3,
		ErrorConstant: 0.5,
	}
}

func testCamera(pos mgl64.Vec3) Camera {
	const fov = math.Pi / 3
	view := mgl64.LookAtV(pos, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(fov, 16.0/9.0, 0.1, 1e9)
	return NewCamera(pos, proj.Mul4(view), 1080, fov)
}

func leafIDs(s *Set) []uint64 {
	var ids []uint64
	for f := face.ID(0); f < face.Count; f++ {
		s.Tree(f).walkLeaves(0, func(idx int32) {
			ids = append(ids, s.Tree(f).Patch(idx).ID())
		})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Property: every internal node's four children tile its UV region
// with zero overlap and zero gap.
func TestChildrenTileParent(t *testing.T) {
	s := NewSet(testConfig())
	s.Update(testCamera(mgl64.Vec3{150, 20, 10}))

	for f := face.ID(0); f < face.Count; f++ {
		tree := s.Tree(f)
		for i := range tree.nodes {
			n := &tree.nodes[i]
			if n.isLeaf() || isFreed(tree, int32(i)) {
				continue
			}
			p := n.patch
			um, vm := p.Center()
			want := [4]Patch{
				{Face: f, Level: p.Level + 1, U0: p.U0, U1: um, V0: p.V0, V1: vm},
				{Face: f, Level: p.Level + 1, U0: um, U1: p.U1, V0: p.V0, V1: vm},
				{Face: f, Level: p.Level + 1, U0: p.U0, U1: um, V0: vm, V1: p.V1},
				{Face: f, Level: p.Level + 1, U0: um, U1: p.U1, V0: vm, V1: p.V1},
			}
			for q, c := range n.children {
				if got := tree.nodes[c].patch; got != want[q] {
					t.Fatalf("face %v node %d child %d = %+v, want %+v", f, i, q, got, want[q])
				}
			}
		}
	}
}

func isFreed(tr *Tree, idx int32) bool {
	for _, f := range tr.free {
		if f == idx {
			return true
		}
	}
	return false
}

// Property: a camera excursion A -> B -> A restores the exact starting
// patch set; the split/merge hysteresis rules out oscillation.
func TestHysteresisRoundTrip(t *testing.T) {
	s := NewSet(testConfig())

	a := testCamera(mgl64.Vec3{120, 5, 5})
	b := testCamera(mgl64.Vec3{2000, 50, 50})

	s.Update(a)
	start := leafIDs(s)

	// Walk away and back in steps, as a camera would.
	for i := 1; i <= 10; i++ {
		pos := mgl64.Vec3{120 + float64(i)*188, 5 + float64(i)*4.5, 5 + float64(i)*4.5}
		s.Update(testCamera(pos))
	}
	s.Update(b)
	for i := 9; i >= 1; i-- {
		pos := mgl64.Vec3{120 + float64(i)*188, 5 + float64(i)*4.5, 5 + float64(i)*4.5}
		s.Update(testCamera(pos))
	}
	s.Update(a)

	end := leafIDs(s)
	if !equalIDs(start, end) {
		t.Fatalf("patch set changed over a round trip: %d leaves -> %d leaves", len(start), len(end))
	}
}

// Re-running update and collection without a camera change must not
// change the tree nor the emitted sequence.
func TestUpdateIsIdempotent(t *testing.T) {
	s := NewSet(testConfig())
	cam := testCamera(mgl64.Vec3{300, 0, 0})

	s.Update(cam)
	first := leafIDs(s)
	visible1 := s.CollectVisible(cam.Frustum)

	s.Update(cam)
	second := leafIDs(s)
	visible2 := s.CollectVisible(cam.Frustum)

	if !equalIDs(first, second) {
		t.Fatal("leaf set changed on re-update with the same camera")
	}
	if len(visible1) != len(visible2) {
		t.Fatalf("visible counts differ: %d vs %d", len(visible1), len(visible2))
	}
	for i := range visible1 {
		if visible1[i].Patch != visible2[i].Patch {
			t.Fatalf("visible order differs at %d: %v vs %v", i, visible1[i].Patch, visible2[i].Patch)
		}
	}
}

func TestCloseCameraRefinesNearFace(t *testing.T) {
	s := NewSet(testConfig())
	cam := testCamera(mgl64.Vec3{105, 0, 0})
	s.Update(cam)

	near := s.Tree(face.PosX)
	farT := s.Tree(face.NegX)
	if near.LeafCount() <= 1 {
		t.Error("+X tree did not refine under a close camera")
	}
	if got, want := farT.LeafCount(), 1; got != want {
		t.Errorf("-X tree refined to %d leaves, want %d (back face stays level 0)", got, want)
	}
}

func TestSplitDeniedAtMaxLevel(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLevel = 1
	s := NewSet(cfg)
	s.Update(testCamera(mgl64.Vec3{101, 0, 0}))

	if s.SplitDenied() == 0 {
		t.Error("expected denied splits with MaxLevel=1 and a surface-level camera")
	}
	for f := face.ID(0); f < face.Count; f++ {
		s.Tree(f).walkLeaves(0, func(idx int32) {
			if lvl := s.Tree(f).Patch(idx).Level; lvl > 1 {
				t.Errorf("leaf exceeded MaxLevel: level %d", lvl)
			}
		})
	}
}

func TestLeafAt(t *testing.T) {
	tr := NewTree(face.PosX, testConfig())
	tr.split(0)

	_, p := tr.LeafAt(-0.5, -0.5)
	want := Patch{Face: face.PosX, Level: 1, U0: -1, U1: 0, V0: -1, V1: 0}
	if p != want {
		t.Errorf("LeafAt(-0.5,-0.5) = %+v, want %+v", p, want)
	}

	_, p = tr.LeafAt(0.5, 0.5)
	want = Patch{Face: face.PosX, Level: 1, U0: 0, U1: 1, V0: 0, V1: 1}
	if p != want {
		t.Errorf("LeafAt(0.5,0.5) = %+v, want %+v", p, want)
	}
}

func TestNeighborLevelsWithinFace(t *testing.T) {
	s := NewSet(testConfig())
	tr := s.Tree(face.PosX)
	tr.split(0)
	// Refine the SW child once more; its east/north neighbors stay at 1.
	sw := tr.nodes[0].children[0]
	tr.split(sw)

	leafIdx, leafPatch := tr.LeafAt(-0.25, -0.25) // NE grandchild of SW
	if leafPatch.Level != 2 {
		t.Fatalf("setup: leaf level = %d, want 2", leafPatch.Level)
	}
	levels := s.NeighborLevels(Leaf{Face: face.PosX, Node: leafIdx, Patch: leafPatch})

	if got, want := levels[face.East], uint8(1); got != want {
		t.Errorf("east neighbor level = %d, want %d", got, want)
	}
	if got, want := levels[face.North], uint8(1); got != want {
		t.Errorf("north neighbor level = %d, want %d", got, want)
	}
	if got, want := levels[face.West], uint8(2); got != want {
		t.Errorf("west neighbor level = %d, want %d (sibling)", got, want)
	}
}

func TestNeighborLevelsAcrossFaces(t *testing.T) {
	s := NewSet(testConfig())
	tr := s.Tree(face.PosX)
	tr.split(0)

	// The SW child touches the west face boundary; every other tree is
	// still a level-0 root.
	sw := tr.nodes[0].children[0]
	leaf := Leaf{Face: face.PosX, Node: sw, Patch: tr.Patch(sw)}
	levels := s.NeighborLevels(leaf)

	if got, want := levels[face.West], uint8(0); got != want {
		t.Errorf("cross-face west neighbor level = %d, want %d", got, want)
	}
	if got, want := levels[face.South], uint8(0); got != want {
		t.Errorf("cross-face south neighbor level = %d, want %d", got, want)
	}
	if got, want := levels[face.East], uint8(1); got != want {
		t.Errorf("in-face east neighbor level = %d, want %d", got, want)
	}
}

func TestPatchID(t *testing.T) {
	a := Patch{Face: face.PosX, Level: 2, U0: -1, U1: -0.5, V0: 0.5, V1: 1}
	b := Patch{Face: face.PosX, Level: 2, U0: -0.5, U1: 0, V0: 0.5, V1: 1}
	if a.ID() == b.ID() {
		t.Error("sibling patches share an ID")
	}
	if RootPatch(face.PosY).ID() == RootPatch(face.PosZ).ID() {
		t.Error("roots of different faces share an ID")
	}
}
