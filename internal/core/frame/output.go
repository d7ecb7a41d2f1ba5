// Package frame runs the per-frame pipeline: LOD update, parallel
// patch meshing, and assembly of the renderer-facing buffers
package frame

import (
	"github.com/go-gl/mathgl/mgl64"
)

// PackedVertex is the GPU vertex layout: positions are camera-relative
// and narrowed to f32 only here, so planetary-scale coordinates never
// lose precision before the subtraction.
type PackedVertex struct {
	Pos      [3]float32
	Normal   [3]float32
	UV       [2]float32
	FaceMask uint8
	_        [3]byte
}

// PackedVertexSize is the byte stride of PackedVertex
const PackedVertexSize = 36

// Draw is one patch's range in the frame index buffer
type Draw struct {
	FirstIndex uint32
	IndexCount uint32
	PatchID    uint64
}

// Bounds is a patch's world-space bounding sphere, for culling and
// render submission.
type Bounds struct {
	PatchID uint64
	Center  mgl64.Vec3
	Radius  float64
}

// Output is the renderer-facing frame product. Index order follows
// the visible-leaf collection order; vertex order is first-
// materialization order and not deterministic across runs.
type Output struct {
	CameraPos mgl64.Vec3
	Vertices  []PackedVertex
	Indices   []uint32
	Draws     []Draw
	Bounds    []Bounds
}

// Stats is the per-frame statistics record returned alongside the
// output in place of any global diagnostic state.
type Stats struct {
	Patches     int
	Vertices    int
	Indices     int
	CacheHits   int64
	CacheMisses int64
	SplitDenied int
	Degenerate  int
}

// Renderer consumes frame outputs. Submitting the same output twice
// must be safe; when RenderFrame aborts on a worker error, the caller
// may re-submit the previous frame's output.
type Renderer interface {
	Submit(*Output) error
}
