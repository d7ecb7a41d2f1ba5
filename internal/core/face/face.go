// Package face enumerates the six cube faces and their UV
// parameterizations, and resolves adjacency across shared edges
package face

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ID identifies one of the six cube faces
type ID uint8

// Face identifiers
const (
	PosX ID = iota // x = +1
	NegX           // x = -1
	PosY           // y = +1
	NegY           // y = -1
	PosZ           // z = +1
	NegZ           // z = -1
)

// Count is the number of cube faces
const Count = 6

// Side identifies one of the four UV-boundary edges of a face
type Side uint8

// Side identifiers in patch UV space
const (
	West  Side = iota // u = -1
	East              // u = +1
	South             // v = -1
	North             // v = +1
)

// SideCount is the number of sides per face
const SideCount = 4

// Frame is a face's parameterization: a point at (u, v) is
// Normal + u*U + v*V with u, v in [-1, 1].
type Frame struct {
	Normal mgl64.Vec3
	U      mgl64.Vec3
	V      mgl64.Vec3
}

// The fixed UV table. Every shared cube edge evaluates to pointwise
// identical cube positions from both incident faces; adjacency below
// is derived from this table, so the two can never drift apart.
var frames = [Count]Frame{
	PosX: {Normal: mgl64.Vec3{1, 0, 0}, U: mgl64.Vec3{0, 0, 1}, V: mgl64.Vec3{0, 1, 0}},
	NegX: {Normal: mgl64.Vec3{-1, 0, 0}, U: mgl64.Vec3{0, 0, -1}, V: mgl64.Vec3{0, 1, 0}},
	PosY: {Normal: mgl64.Vec3{0, 1, 0}, U: mgl64.Vec3{1, 0, 0}, V: mgl64.Vec3{0, 0, 1}},
	NegY: {Normal: mgl64.Vec3{0, -1, 0}, U: mgl64.Vec3{1, 0, 0}, V: mgl64.Vec3{0, 0, -1}},
	PosZ: {Normal: mgl64.Vec3{0, 0, 1}, U: mgl64.Vec3{-1, 0, 0}, V: mgl64.Vec3{0, 1, 0}},
	NegZ: {Normal: mgl64.Vec3{0, 0, -1}, U: mgl64.Vec3{1, 0, 0}, V: mgl64.Vec3{0, 1, 0}},
}

var faceNames = [Count]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

// Frame returns the face's parameterization
func (f ID) Frame() Frame {
	return frames[f]
}

// String returns the axis name of the face
func (f ID) String() string {
	return faceNames[f]
}

// Mask returns the face's bit in a face mask
func (f ID) Mask() uint8 {
	return 1 << f
}

// UVToCube maps patch UV coordinates to a cube-space position
func (f ID) UVToCube(u, v float64) mgl64.Vec3 {
	fr := frames[f]
	return fr.Normal.Add(fr.U.Mul(u)).Add(fr.V.Mul(v))
}

// FromDirection returns the face under a world direction, picking the
// dominant axis. Ties resolve to the lower face id.
func FromDirection(n mgl64.Vec3) ID {
	ax, ay, az := math.Abs(n.X()), math.Abs(n.Y()), math.Abs(n.Z())
	switch {
	case ax >= ay && ax >= az:
		if n.X() >= 0 {
			return PosX
		}
		return NegX
	case ay >= az:
		if n.Y() >= 0 {
			return PosY
		}
		return NegY
	default:
		if n.Z() >= 0 {
			return PosZ
		}
		return NegZ
	}
}

// Adjacency describes the face on the far side of one of a face's
// four sides. Reversed is true when the shared edge's parameter runs
// in opposite directions on the two faces.
type Adjacency struct {
	Face     ID
	Side     Side
	Reversed bool
}

var adjacency [Count][SideCount]Adjacency

// sideEndpoints returns the cube positions at parameter -1 and +1
// along a side of a face.
func sideEndpoints(f ID, s Side) (mgl64.Vec3, mgl64.Vec3) {
	switch s {
	case West:
		return f.UVToCube(-1, -1), f.UVToCube(-1, 1)
	case East:
		return f.UVToCube(1, -1), f.UVToCube(1, 1)
	case South:
		return f.UVToCube(-1, -1), f.UVToCube(1, -1)
	default: // North
		return f.UVToCube(-1, 1), f.UVToCube(1, 1)
	}
}

func init() {
	// Match each (face, side) to its partner by edge endpoints. The
	// table above is exact at the corners, so comparison is exact too.
	for f := ID(0); f < Count; f++ {
		for s := Side(0); s < SideCount; s++ {
			a0, a1 := sideEndpoints(f, s)
			found := false
			for g := ID(0); g < Count && !found; g++ {
				if g == f {
					continue
				}
				for t := Side(0); t < SideCount; t++ {
					b0, b1 := sideEndpoints(g, t)
					if a0 == b0 && a1 == b1 {
						adjacency[f][s] = Adjacency{Face: g, Side: t}
						found = true
						break
					}
					if a0 == b1 && a1 == b0 {
						adjacency[f][s] = Adjacency{Face: g, Side: t, Reversed: true}
						found = true
						break
					}
				}
			}
			if !found {
				panic("face: adjacency table derivation failed for " + f.String())
			}
		}
	}
}

// Neighbor returns the adjacency record for a side of a face
func Neighbor(f ID, s Side) Adjacency {
	return adjacency[f][s]
}

// EdgeParam extracts the along-edge parameter of a point (u, v) lying
// on side s: the v coordinate for west/east sides, u for south/north.
func EdgeParam(s Side, u, v float64) float64 {
	if s == West || s == East {
		return v
	}
	return u
}

// SideUV places an along-edge parameter back onto a side, returning
// the full (u, v) on that side's face.
func SideUV(s Side, t float64) (u, v float64) {
	switch s {
	case West:
		return -1, t
	case East:
		return 1, t
	case South:
		return t, -1
	default: // North
		return t, 1
	}
}

// TransformAcross maps a point on side s of face f to the equivalent
// (face, u, v) on the neighboring face.
func TransformAcross(f ID, s Side, u, v float64) (ID, float64, float64) {
	adj := adjacency[f][s]
	t := EdgeParam(s, u, v)
	if adj.Reversed {
		t = -t
	}
	nu, nv := SideUV(adj.Side, t)
	return adj.Face, nu, nv
}

// Edge is one of the 12 cube edges, identified by its two incident
// (face, side) pairs.
type Edge struct {
	A, B     ID
	ASide    Side
	BSide    Side
	Reversed bool
}

// Edges enumerates the 12 cube edges exactly once each
func Edges() []Edge {
	var edges []Edge
	for f := ID(0); f < Count; f++ {
		for s := Side(0); s < SideCount; s++ {
			adj := adjacency[f][s]
			if adj.Face < f || (adj.Face == f && adj.Side <= s) {
				continue // counted from the other face
			}
			edges = append(edges, Edge{A: f, ASide: s, B: adj.Face, BSide: adj.Side, Reversed: adj.Reversed})
		}
	}
	return edges
}
