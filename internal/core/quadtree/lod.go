// Package quadtree provides the per-face patch quadtrees and the
// screen-space-error LOD selection that drives them
package quadtree

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/core/face"
	vmath "planetmesh/pkg/math"
)

// Camera is the read-only per-frame camera pose handed in by the
// embedding application.
type Camera struct {
	Pos            mgl64.Vec3
	ViewProj       mgl64.Mat4
	Frustum        vmath.Frustum
	ViewportHeight float64
	FOV            float64 // vertical field of view, radians
}

// NewCamera builds a camera pose, deriving the frustum planes from
// the view-projection matrix.
func NewCamera(pos mgl64.Vec3, viewProj mgl64.Mat4, viewportHeight, fov float64) Camera {
	return Camera{
		Pos:            pos,
		ViewProj:       viewProj,
		Frustum:        vmath.ExtractFrustum(viewProj),
		ViewportHeight: viewportHeight,
		FOV:            fov,
	}
}

// perspectiveScale converts world-space size over distance to pixels
func (c Camera) perspectiveScale() float64 {
	return c.ViewportHeight / (2 * math.Tan(c.FOV/2))
}

func (c Camera) equal(o Camera) bool {
	return c.Pos == o.Pos && c.ViewProj == o.ViewProj &&
		c.ViewportHeight == o.ViewportHeight && c.FOV == o.FOV
}

// Leaf references one visible leaf patch
type Leaf struct {
	Face  face.ID
	Node  int32
	Patch Patch
}

// NeighborLevels holds the level of the adjacent leaf across each of
// a patch's four sides, indexed by face.Side.
type NeighborLevels [face.SideCount]uint8

// Set is the six-face forest. Update and CollectVisible together run
// exactly once per frame; re-running either without a camera change
// is side-effect-free.
type Set struct {
	cfg   Config
	trees [face.Count]*Tree

	lastCam Camera
	updated bool
}

// NewSet creates the six level-0 rooted trees
func NewSet(cfg Config) *Set {
	s := &Set{cfg: cfg}
	for f := face.ID(0); f < face.Count; f++ {
		s.trees[f] = NewTree(f, cfg)
	}
	return s
}

// Tree returns the quadtree of one face
func (s *Set) Tree(f face.ID) *Tree {
	return s.trees[f]
}

// Reset drops all trees back to their roots
func (s *Set) Reset() {
	for _, t := range s.trees {
		t.Reset()
	}
	s.updated = false
}

// Update refines all six trees against the camera. Calling it again
// with an unchanged camera is a no-op.
func (s *Set) Update(cam Camera) {
	if s.updated && cam.equal(s.lastCam) {
		return
	}
	for _, t := range s.trees {
		t.markStale(0)
		t.splitDenied = 0
		t.update(0, cam)
	}
	s.lastCam = cam
	s.updated = true
}

// SplitDenied returns how many splits the last Update refused because
// a patch already sat at MaxLevel.
func (s *Set) SplitDenied() int {
	total := 0
	for _, t := range s.trees {
		total += t.splitDenied
	}
	return total
}

// CollectVisible returns the leaf patches intersecting the frustum, in
// deterministic face-then-depth-first order.
func (s *Set) CollectVisible(fr vmath.Frustum) []Leaf {
	var leaves []Leaf
	for _, t := range s.trees {
		t.walkLeaves(0, func(idx int32) {
			b := t.nodes[idx].bsphere
			if fr.ContainsSphere(b.center, b.radius) {
				leaves = append(leaves, Leaf{Face: t.face, Node: idx, Patch: t.nodes[idx].patch})
			}
		})
	}
	return leaves
}

// NeighborLevels returns the level of the adjacent leaf across each
// side of a leaf patch, resolving cross-face edges through the face
// adjacency table.
func (s *Set) NeighborLevels(l Leaf) NeighborLevels {
	var levels NeighborLevels
	for side := face.Side(0); side < face.SideCount; side++ {
		levels[side] = s.neighborLevel(l.Patch, side)
	}
	return levels
}

// neighborLevel probes the leaf just across a side's midpoint. A
// coarser neighbor spans the whole side, so one probe suffices.
func (s *Set) neighborLevel(p Patch, side face.Side) uint8 {
	delta := math.Pow(2, -float64(s.cfg.MaxLevel)-2)
	eu, ev := edgeMidpoint(p, side)

	if p.TouchesSide(side) {
		// Crossing to another face: transform the on-edge point, then
		// step off the neighbor's boundary.
		nf, nu, nv := face.TransformAcross(p.Face, side, eu, ev)
		adj := face.Neighbor(p.Face, side)
		nu, nv = stepInward(adj.Side, nu, nv, delta)
		_, leaf := s.trees[nf].LeafAt(nu, nv)
		return leaf.Level
	}

	pu, pv := stepOutward(side, eu, ev, delta)
	_, leaf := s.trees[p.Face].LeafAt(pu, pv)
	return leaf.Level
}

func edgeMidpoint(p Patch, side face.Side) (float64, float64) {
	cu, cv := p.Center()
	switch side {
	case face.West:
		return p.U0, cv
	case face.East:
		return p.U1, cv
	case face.South:
		return cu, p.V0
	default:
		return cu, p.V1
	}
}

func stepOutward(side face.Side, u, v, delta float64) (float64, float64) {
	switch side {
	case face.West:
		return u - delta, v
	case face.East:
		return u + delta, v
	case face.South:
		return u, v - delta
	default:
		return u, v + delta
	}
}

// stepInward nudges a point sitting on a face boundary side into the
// face interior.
func stepInward(side face.Side, u, v, delta float64) (float64, float64) {
	switch side {
	case face.West:
		return u + delta, v
	case face.East:
		return u - delta, v
	case face.South:
		return u, v + delta
	default:
		return u, v - delta
	}
}
