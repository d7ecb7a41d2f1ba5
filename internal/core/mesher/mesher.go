// Package mesher turns leaf patches into triangle meshes over the
// shared vertex cache, stitching resolution seams without skirts
package mesher

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/core/cubesphere"
	"planetmesh/internal/core/displace"
	"planetmesh/internal/core/face"
	"planetmesh/internal/core/quadtree"
	"planetmesh/internal/core/vertex"
	vmath "planetmesh/pkg/math"
)

// DefaultDegenerateArea is the cube-space area below which triangles
// are discarded. Cube space keeps the threshold scale-independent.
const DefaultDegenerateArea = 1e-6

// normalStep is the fixed angular step (radians) for the central
// difference normal fallback. A fixed step keeps the record for an
// identity independent of which patch materialized it.
const normalStep = 1.0 / 65536

// Config controls patch meshing
type Config struct {
	GridN          int     // cells per patch edge, power of two
	Radius         float64 // planet radius R
	TJunctionFix   bool    // stitch seams against coarser neighbors
	DegenerateArea float64 // cube-space area cutoff
}

// DefaultConfig returns the standard meshing parameters
func DefaultConfig() Config {
	return Config{
		GridN:          64,
		Radius:         6.371e6,
		TJunctionFix:   true,
		DegenerateArea: DefaultDegenerateArea,
	}
}

// PatchMesh is one leaf patch's triangle mesh. Indices reference
// slots in the frame's shared vertex cache.
type PatchMesh struct {
	Patch      quadtree.Patch
	Slots      []uint32 // grid vertices in row-major order
	Indices    []uint32
	Degenerate int // triangles dropped by the area cutoff
}

// Mesher produces patch meshes. Multiple patches may be meshed
// concurrently; all cross-patch serialization happens in the cache.
type Mesher struct {
	cfg   Config
	quant *vertex.Quantizer
	cache *vertex.Cache
	field displace.Field
}

// New creates a mesher over a shared cache and displacement field
func New(cfg Config, quant *vertex.Quantizer, cache *vertex.Cache, field displace.Field) *Mesher {
	if cfg.DegenerateArea == 0 {
		cfg.DegenerateArea = DefaultDegenerateArea
	}
	return &Mesher{cfg: cfg, quant: quant, cache: cache, field: field}
}

// MeshPatch meshes one leaf patch. neighbors carries the levels of
// the adjacent leaves; edges with coarser neighbors are
// re-triangulated as fans over exactly the vertices the neighbor
// shares, so no T-junctions survive.
func (m *Mesher) MeshPatch(p quadtree.Patch, neighbors quadtree.NeighborLevels) (*PatchMesh, error) {
	n := m.cfg.GridN
	stride := [face.SideCount]int{1, 1, 1, 1}
	if m.cfg.TJunctionFix {
		for s := face.Side(0); s < face.SideCount; s++ {
			if delta := int(p.Level) - int(neighbors[s]); delta > 0 {
				stride[s] = 1 << vmath.ClampInt(delta, 0, log2(n))
			}
		}
	}

	// Sample the grid: snap before identity so boundary samples key
	// identically from every face, then materialize through the cache.
	cube := make([]mgl64.Vec3, (n+1)*(n+1))
	slots := make([]uint32, (n+1)*(n+1))
	mask := p.Face.Mask()
	for j := 0; j <= n; j++ {
		v := vmath.Lerp(p.V0, p.V1, float64(j)/float64(n))
		for i := 0; i <= n; i++ {
			u := vmath.Lerp(p.U0, p.U1, float64(i)/float64(n))
			c := m.quant.Snap(p.Face.UVToCube(u, v))
			cube[j*(n+1)+i] = c

			slot, err := m.cache.GetOrCreate(m.quant.MakeID(c), mask, func() (vertex.Vertex, error) {
				return m.produce(c)
			})
			if err != nil {
				return nil, fmt.Errorf("patch %v vertex (%d,%d): %w", p, i, j, err)
			}
			slots[j*(n+1)+i] = slot
		}
	}

	out := &PatchMesh{Patch: p, Slots: slots}
	b := meshBuilder{mesh: out, cube: cube, n: n, minArea: m.cfg.DegenerateArea}

	// Interior cells; cells inside an active seam strip are handled
	// by the strip triangulation below.
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			if (i == 0 && stride[face.West] > 1) || (i == n-1 && stride[face.East] > 1) ||
				(j == 0 && stride[face.South] > 1) || (j == n-1 && stride[face.North] > 1) {
				continue
			}
			b.emitCell(i, j)
		}
	}

	for s := face.Side(0); s < face.SideCount; s++ {
		if stride[s] > 1 {
			b.emitStrip(s, stride[s], stride)
		}
	}
	return out, nil
}

// produce materializes one vertex: spherify, displace, shade normal.
func (m *Mesher) produce(c mgl64.Vec3) (vertex.Vertex, error) {
	s := cubesphere.CubeToSphere(c)
	h, grad, err := m.field.Displace(s)
	if err != nil {
		return vertex.Vertex{}, err
	}

	v := vertex.Vertex{
		Pos:   s.Mul(m.cfg.Radius + h),
		TexUV: sphereUV(s),
	}
	if grad != nil {
		v.Normal = analyticNormal(s, *grad, m.cfg.Radius+h)
	} else {
		v.Normal = m.differenceNormal(s)
	}
	return v, nil
}

// analyticNormal tilts the sphere normal against the tangent-space
// height gradient.
func analyticNormal(s, grad mgl64.Vec3, r float64) mgl64.Vec3 {
	if r <= 0 {
		return s
	}
	return s.Sub(grad.Mul(1 / r)).Normalize()
}

// differenceNormal derives the surface normal by central differences
// over the displaced sphere, using a fixed angular step so the result
// does not depend on the requesting patch.
func (m *Mesher) differenceNormal(s mgl64.Vec3) mgl64.Vec3 {
	t1, t2 := tangentBasis(s)

	sample := func(dir mgl64.Vec3) mgl64.Vec3 {
		p := s.Add(dir.Mul(normalStep)).Normalize()
		h, _, err := m.field.Displace(p)
		if err != nil {
			h = 0
		}
		return p.Mul(m.cfg.Radius + h)
	}

	du := sample(t1).Sub(sample(t1.Mul(-1)))
	dv := sample(t2).Sub(sample(t2.Mul(-1)))
	n := du.Cross(dv)
	if n.Len() == 0 {
		return s
	}
	n = n.Normalize()
	if n.Dot(s) < 0 {
		n = n.Mul(-1)
	}
	return n
}

// tangentBasis builds a deterministic orthonormal basis around a unit
// direction.
func tangentBasis(s mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	a := mgl64.Vec3{1, 0, 0}
	if math.Abs(s.X()) > 0.9 {
		a = mgl64.Vec3{0, 1, 0}
	}
	t1 := s.Cross(a).Normalize()
	return t1, s.Cross(t1)
}

// sphereUV maps a sphere normal to equirectangular texture
// coordinates, independent of the producing face.
func sphereUV(s mgl64.Vec3) [2]float32 {
	lon := math.Atan2(s.Z(), s.X())
	lat := math.Asin(vmath.Clamp(s.Y(), -1, 1))
	return [2]float32{
		float32(lon/(2*math.Pi) + 0.5),
		float32(lat/math.Pi + 0.5),
	}
}

func log2(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}
