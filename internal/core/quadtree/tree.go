// Package quadtree provides the per-face patch quadtrees and the
// screen-space-error LOD selection that drives them
package quadtree

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/core/cubesphere"
	"planetmesh/internal/core/face"
)

const noChild = int32(-1)

// Config controls tree refinement
type Config struct {
	Radius            float64 // planet radius R
	MaxLevel          uint8   // L_max
	SplitPixels       float64 // screen-space split threshold
	MergePixels       float64 // screen-space merge threshold
	ErrorConstant     float64 // geometric error scale c
	DisplacementBound float64 // max |height| of the field, pads bounding spheres
}

// DefaultConfig returns Earth-scale refinement defaults
func DefaultConfig() Config {
	return Config{
		Radius:        6.371e6,
		MaxLevel:      10,
		SplitPixels:   8,
		MergePixels:   3,
		ErrorConstant: 0.5,
	}
}

type boundingSphere struct {
	center mgl64.Vec3
	radius float64
}

// Nodes live in a per-tree arena and reference each other by index;
// parent back-edges are indices as well, so the tree holds no cycles.
type node struct {
	patch    Patch
	parent   int32
	children [4]int32
	bsphere  boundingSphere
	samples  [9]mgl64.Vec3 // unit normals: corners, edge midpoints, center
	ssError  float64
	errStale bool
}

func (n *node) isLeaf() bool {
	return n.children[0] == noChild
}

// Tree is one face's patch quadtree
type Tree struct {
	cfg   Config
	face  face.ID
	nodes []node
	free  []int32

	splitDenied int
}

// NewTree creates a tree holding only the face's level-0 root patch
func NewTree(f face.ID, cfg Config) *Tree {
	t := &Tree{cfg: cfg, face: f}
	t.newNode(RootPatch(f), noChild)
	return t
}

// Face returns the face this tree covers
func (t *Tree) Face() face.ID {
	return t.face
}

// Reset drops every node except a fresh root
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.splitDenied = 0
	t.newNode(RootPatch(t.face), noChild)
}

// LeafCount returns the number of leaf patches
func (t *Tree) LeafCount() int {
	count := 0
	t.walkLeaves(0, func(int32) { count++ })
	return count
}

func (t *Tree) newNode(p Patch, parent int32) int32 {
	n := node{patch: p, parent: parent, errStale: true}
	n.children = [4]int32{noChild, noChild, noChild, noChild}
	n.bsphere = t.computeBSphere(p)
	n.samples = sampleNormals(p)

	if len(t.free) > 0 {
		idx := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[idx] = n
		return idx
	}
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

// computeBSphere bounds the displaced patch surface: center on the
// sphere under the patch midpoint, radius covering the corners plus
// the displacement bound.
func (t *Tree) computeBSphere(p Patch) boundingSphere {
	cu, cv := p.Center()
	center := cubesphere.CubeToSphere(p.Face.UVToCube(cu, cv)).Mul(t.cfg.Radius)

	radius := 0.0
	for _, c := range [4][2]float64{{p.U0, p.V0}, {p.U1, p.V0}, {p.U0, p.V1}, {p.U1, p.V1}} {
		corner := cubesphere.CubeToSphere(p.Face.UVToCube(c[0], c[1])).Mul(t.cfg.Radius)
		if d := corner.Sub(center).Len(); d > radius {
			radius = d
		}
	}
	return boundingSphere{center: center, radius: radius + t.cfg.DisplacementBound}
}

func (t *Tree) split(idx int32) {
	n := &t.nodes[idx]
	p := n.patch
	var children [4]int32
	for q := 0; q < 4; q++ {
		children[q] = t.newNode(p.Child(q), idx)
	}
	// Re-take the pointer: newNode may have grown the arena.
	t.nodes[idx].children = children
}

func (t *Tree) merge(idx int32) {
	n := &t.nodes[idx]
	for _, c := range n.children {
		t.free = append(t.free, c)
	}
	n.children = [4]int32{noChild, noChild, noChild, noChild}
}

// sampleNormals returns the sphere normals under the patch corners,
// edge midpoints, and center, used for the horizon test.
func sampleNormals(p Patch) [9]mgl64.Vec3 {
	um, vm := p.Center()
	uvs := [9][2]float64{
		{p.U0, p.V0}, {p.U1, p.V0}, {p.U0, p.V1}, {p.U1, p.V1},
		{um, p.V0}, {um, p.V1}, {p.U0, vm}, {p.U1, vm},
		{um, vm},
	}
	var out [9]mgl64.Vec3
	for i, uv := range uvs {
		out[i] = cubesphere.CubeToSphere(p.Face.UVToCube(uv[0], uv[1]))
	}
	return out
}

// beyondHorizon reports whether the whole patch sits on the far side
// of the planet's limb as seen from the camera. Hidden patches keep
// their current level and collapse back toward the root.
func (t *Tree) beyondHorizon(n *node, cam Camera) bool {
	d := cam.Pos.Len()
	if d <= t.cfg.Radius+t.cfg.DisplacementBound {
		return false
	}
	horizonCos := t.cfg.Radius / d
	camDir := cam.Pos.Mul(1 / d)

	maxDot := -1.0
	for _, s := range n.samples {
		if dot := s.Dot(camDir); dot > maxDot {
			maxDot = dot
		}
	}
	// Slack absorbs patch curvature between samples and displacement.
	slack := 0.05 + t.cfg.DisplacementBound/t.cfg.Radius
	return maxDot < horizonCos-slack
}

// geometricError is the world-space error a patch at the given level
// stands in for: R * 2^-level * c.
func (t *Tree) geometricError(level uint8) float64 {
	return t.cfg.Radius * math.Pow(2, -float64(level)) * t.cfg.ErrorConstant
}

// screenError projects a node's geometric error through the camera:
// error / distance * perspective scale, in pixels. A camera inside
// the bounding sphere forces refinement.
func (t *Tree) screenError(n *node, cam Camera) float64 {
	dist := cam.Pos.Sub(n.bsphere.center).Len() - n.bsphere.radius
	if dist <= 0 {
		return math.Inf(1)
	}
	return t.geometricError(n.patch.Level) / dist * cam.perspectiveScale()
}

// LeafAt descends to the leaf containing (u, v). Points on shared
// child boundaries resolve to the lower quadrant.
func (t *Tree) LeafAt(u, v float64) (int32, Patch) {
	idx := int32(0)
	for {
		n := &t.nodes[idx]
		if n.isLeaf() {
			return idx, n.patch
		}
		um, vm := n.patch.Center()
		q := 0
		if u > um {
			q |= 1
		}
		if v > vm {
			q |= 2
		}
		idx = n.children[q]
	}
}

// Patch returns the patch stored at a node index
func (t *Tree) Patch(idx int32) Patch {
	return t.nodes[idx].patch
}

// BoundingSphere returns a node's world-space bounding sphere
func (t *Tree) BoundingSphere(idx int32) (mgl64.Vec3, float64) {
	b := t.nodes[idx].bsphere
	return b.center, b.radius
}

func (t *Tree) walkLeaves(idx int32, visit func(int32)) {
	n := &t.nodes[idx]
	if n.isLeaf() {
		visit(idx)
		return
	}
	for _, c := range n.children {
		t.walkLeaves(c, visit)
	}
}

// update refines the subtree under idx against the camera and returns
// this node's screen error.
func (t *Tree) update(idx int32, cam Camera) float64 {
	n := &t.nodes[idx]
	err := t.screenError(n, cam)
	if t.beyondHorizon(n, cam) {
		// Far-side patches contribute no visible error; they stop
		// splitting and merge back toward the root.
		err = 0
	}
	n.ssError = err
	n.errStale = false

	if n.isLeaf() {
		if err > t.cfg.SplitPixels {
			if n.patch.Level >= t.cfg.MaxLevel {
				t.splitDenied++
				return err
			}
			t.split(idx)
			n = &t.nodes[idx]
		} else {
			return err
		}
	}

	// children is an array copy, so growing the arena inside the
	// child updates cannot invalidate the iteration.
	children := n.children
	canMerge := true
	for _, c := range children {
		childErr := t.update(c, cam)
		if childErr >= t.cfg.MergePixels || !t.nodes[c].isLeaf() {
			canMerge = false
		}
	}
	if canMerge {
		t.merge(idx)
	}
	return err
}

func (t *Tree) markStale(idx int32) {
	n := &t.nodes[idx]
	n.errStale = true
	if n.isLeaf() {
		return
	}
	for _, c := range n.children {
		t.markStale(c)
	}
}
