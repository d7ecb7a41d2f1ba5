// Package vertex provides the face-independent vertex identity keys
// and the shared concurrent vertex cache
package vertex

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/core/cubesphere"
)

// ID is a 64-bit canonical key for a cube-surface point. Two points
// share an ID iff they agree after boundary snapping and quantization,
// no matter which face produced them.
type ID uint64

// DefaultQuantBits is the default quantization grid: 2^30 steps across
// [-1, 1], a pitch of ~1.86e-9 in cube space (~1.2 cm at Earth radius).
const DefaultQuantBits = 30

// ID bit layout, high to low:
//
//	63..62  canonical fixed axis (0=x, 1=y, 2=z)
//	61      fixed axis sign (1 = +1)
//	60      corner tag (all three coordinates at +/-1)
//	59..30  quantized first free coordinate
//	29..0   quantized second free coordinate
const (
	axisShift   = 62
	signShift   = 61
	cornerShift = 60
	qaShift     = 30
	qMask       = (1 << 30) - 1
)

// Quantizer derives vertex identities with a configurable boundary
// epsilon and grid resolution.
type Quantizer struct {
	eps   float64
	scale float64
}

// NewQuantizer creates a quantizer with the given snap epsilon and
// grid bit count (steps = 2^bits across [-1, 1]).
func NewQuantizer(eps float64, bits uint8) *Quantizer {
	return &Quantizer{
		eps:   eps,
		scale: float64((uint64(1)<<bits)-1) / 2,
	}
}

// DefaultQuantizer returns a quantizer with the standard epsilon and
// grid resolution.
func DefaultQuantizer() *Quantizer {
	return NewQuantizer(cubesphere.BoundaryEpsilon, DefaultQuantBits)
}

// quantize maps a coordinate in [-1, 1] to the integer grid. The ends
// map exactly to the first and last grid steps, so snapped boundary
// coordinates survive quantization unchanged.
func (q *Quantizer) quantize(c float64) uint64 {
	return uint64(math.Round((c + 1) * q.scale))
}

// MakeID computes the canonical identity of a cube-space point: clamp,
// snap to the cube boundary, then pack the canonical fixed axis with
// the two quantized free coordinates.
//
// The canonical fixed axis is the lowest-index coordinate sitting at
// exactly +/-1 after snapping, so edge and corner points key the same
// way from every incident face.
func (q *Quantizer) MakeID(p mgl64.Vec3) ID {
	p = cubesphere.SnapToBoundary(p, q.eps)

	axis := -1
	onBoundary := 0
	for i := 0; i < 3; i++ {
		if p[i] == 1 || p[i] == -1 {
			if axis < 0 {
				axis = i
			}
			onBoundary++
		}
	}
	if axis < 0 {
		// Mesher-produced points always lie on the cube surface; a
		// point that does not is keyed off its dominant axis so the
		// result is still deterministic.
		axis = dominantAxis(p)
	}

	var key uint64
	key |= uint64(axis) << axisShift
	if p[axis] > 0 {
		key |= 1 << signShift
	}
	if onBoundary == 3 {
		key |= 1 << cornerShift
	}

	a, b := freeAxes(axis)
	key |= q.quantize(p[a]) << qaShift
	key |= q.quantize(p[b])
	return ID(key)
}

// Snap applies the quantizer's boundary snap without deriving a key
func (q *Quantizer) Snap(p mgl64.Vec3) mgl64.Vec3 {
	return cubesphere.SnapToBoundary(p, q.eps)
}

// Epsilon returns the quantizer's boundary snap distance
func (q *Quantizer) Epsilon() float64 {
	return q.eps
}

func freeAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

func dominantAxis(p mgl64.Vec3) int {
	ax, ay, az := math.Abs(p.X()), math.Abs(p.Y()), math.Abs(p.Z())
	if ax >= ay && ax >= az {
		return 0
	}
	if ay >= az {
		return 1
	}
	return 2
}
