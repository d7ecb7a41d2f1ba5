// Package frame runs the per-frame pipeline: LOD update, parallel
// patch meshing, and assembly of the renderer-facing buffers
package frame

import (
	"planetmesh/internal/core/mesher"
	"planetmesh/internal/core/quadtree"
)

// assemble concatenates the per-patch meshes into the frame buffers.
// The vertex buffer is the cache's dense record array packed camera-
// relative; patch index ranges follow the collection order.
func (p *Pipeline) assemble(cam quadtree.Camera, leaves []quadtree.Leaf, meshes []*mesher.PatchMesh) *Output {
	out := &Output{CameraPos: cam.Pos}

	total := 0
	for _, m := range meshes {
		total += len(m.Indices)
	}
	out.Indices = make([]uint32, 0, total)
	out.Draws = make([]Draw, 0, len(meshes))
	out.Bounds = make([]Bounds, 0, len(meshes))

	for i, m := range meshes {
		if len(m.Indices) == 0 {
			continue
		}
		first := uint32(len(out.Indices))
		out.Indices = append(out.Indices, m.Indices...)

		id := m.Patch.ID()
		out.Draws = append(out.Draws, Draw{
			FirstIndex: first,
			IndexCount: uint32(len(m.Indices)),
			PatchID:    id,
		})

		center, radius := p.set.Tree(leaves[i].Face).BoundingSphere(leaves[i].Node)
		out.Bounds = append(out.Bounds, Bounds{PatchID: id, Center: center, Radius: radius})
	}

	out.Vertices = make([]PackedVertex, p.cache.Len())
	for slot := range out.Vertices {
		v := p.cache.Vertex(uint32(slot))
		rel := v.Pos.Sub(cam.Pos)
		out.Vertices[slot] = PackedVertex{
			Pos:      [3]float32{float32(rel.X()), float32(rel.Y()), float32(rel.Z())},
			Normal:   [3]float32{float32(v.Normal.X()), float32(v.Normal.Y()), float32(v.Normal.Z())},
			UV:       v.TexUV,
			FaceMask: v.FaceMask,
		}
	}
	return out
}
