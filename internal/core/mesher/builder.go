// Package mesher turns leaf patches into triangle meshes over the
// shared vertex cache, stitching resolution seams without skirts
package mesher

import (
	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/core/face"
)

// meshBuilder accumulates triangles for one patch, rejecting
// cube-space degenerates as it goes.
type meshBuilder struct {
	mesh    *PatchMesh
	cube    []mgl64.Vec3
	n       int
	minArea float64
}

func (b *meshBuilder) grid(i, j int) int {
	return j*(b.n+1) + i
}

// emit appends one triangle of grid vertices unless its cube-space
// area falls under the degenerate cutoff.
func (b *meshBuilder) emit(a, c, d int) {
	pa, pc, pd := b.cube[a], b.cube[c], b.cube[d]
	area := pc.Sub(pa).Cross(pd.Sub(pa)).Len() / 2
	if area < b.minArea {
		b.mesh.Degenerate++
		return
	}
	b.mesh.Indices = append(b.mesh.Indices,
		b.mesh.Slots[a], b.mesh.Slots[c], b.mesh.Slots[d])
}

// emitCell triangulates one interior cell. The diagonal alternates
// with the parity of i+j to avoid a directional bias under lighting.
func (b *meshBuilder) emitCell(i, j int) {
	a := b.grid(i, j)
	c := b.grid(i+1, j)
	d := b.grid(i+1, j+1)
	e := b.grid(i, j+1)
	if (i+j)&1 == 0 {
		b.emit(a, e, d)
		b.emit(a, d, c)
	} else {
		b.emit(c, a, e)
		b.emit(c, e, d)
	}
}

// stripFrame maps strip-local coordinates (a along the edge, b steps
// inward) onto the grid, with a winding flip where the local frame is
// left-handed.
type stripFrame struct {
	idx  func(bld *meshBuilder, a, b int) int
	flip bool
}

var stripFrames = [face.SideCount]stripFrame{
	face.West:  {idx: func(bld *meshBuilder, a, b int) int { return bld.grid(b, a) }, flip: true},
	face.East:  {idx: func(bld *meshBuilder, a, b int) int { return bld.grid(bld.n-b, a) }, flip: false},
	face.South: {idx: func(bld *meshBuilder, a, b int) int { return bld.grid(a, b) }, flip: false},
	face.North: {idx: func(bld *meshBuilder, a, b int) int { return bld.grid(a, bld.n-b) }, flip: true},
}

func (b *meshBuilder) emitOriented(flip bool, x, y, z int) {
	if flip {
		b.emit(x, z, y)
	} else {
		b.emit(x, y, z)
	}
}

// emitStrip re-triangulates the one-cell band along an edge whose
// neighbor samples at the given stride. Base vertices are exactly the
// neighbor's samples; the inner row connects to them as fans, so the
// seam is vertex-for-vertex shared with the coarser side.
func (b *meshBuilder) emitStrip(side face.Side, stride int, all [face.SideCount]int) {
	fr := stripFrames[side]
	n := b.n

	// Sides meeting this one at a=0 and a=n; when those are also
	// coarse seams the diagonal corner vertex belongs to them.
	var prev, next face.Side
	if side == face.West || side == face.East {
		prev, next = face.South, face.North
	} else {
		prev, next = face.West, face.East
	}
	innerLo, innerHi := 0, n
	if all[prev] > 1 {
		innerLo = 1
	}
	if all[next] > 1 {
		innerHi = n - 1
	}

	for base := 0; base < n; base += stride {
		apex0 := fr.idx(b, base, 0)
		apex1 := fr.idx(b, base+stride, 0)
		mid := base + stride/2

		lo := base
		if lo < innerLo {
			lo = innerLo
		}
		hi := base + stride
		if hi > innerHi {
			hi = innerHi
		}

		for a := lo; a < mid; a++ {
			b.emitOriented(fr.flip, apex0, fr.idx(b, a, 1), fr.idx(b, a+1, 1))
		}
		b.emitOriented(fr.flip, apex0, fr.idx(b, mid, 1), apex1)
		for a := mid; a < hi; a++ {
			b.emitOriented(fr.flip, apex1, fr.idx(b, a, 1), fr.idx(b, a+1, 1))
		}
	}
}
