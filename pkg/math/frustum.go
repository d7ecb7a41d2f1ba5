// Package math provides mathematical utilities for planet meshing
package math

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Plane is a half-space in Hessian normal form: Normal·p + D >= 0 inside
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Frustum holds the six clip planes of a view-projection matrix,
// ordered left, right, bottom, top, near, far
type Frustum [6]Plane

// ExtractFrustum derives the six planes from a combined view-projection
// matrix using the Gribb-Hartmann row method. Planes are normalized so
// signed distances are in world units.
func ExtractFrustum(vp mgl64.Mat4) Frustum {
	// mgl matrices are column-major; Row(i) gives the i-th row
	r0 := vp.Row(0)
	r1 := vp.Row(1)
	r2 := vp.Row(2)
	r3 := vp.Row(3)

	planes := [6]mgl64.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}

	var f Frustum
	for i, p := range planes {
		n := mgl64.Vec3{p.X(), p.Y(), p.Z()}
		l := n.Len()
		if l > 0 {
			f[i] = Plane{Normal: n.Mul(1 / l), D: p.W() / l}
		}
	}
	return f
}

// ContainsSphere reports whether a sphere intersects the frustum volume
func (f Frustum) ContainsSphere(center mgl64.Vec3, radius float64) bool {
	for _, p := range f {
		if p.Normal.Dot(center)+p.D < -radius {
			return false
		}
	}
	return true
}
