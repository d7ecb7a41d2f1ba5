// Package frame runs the per-frame pipeline: LOD update, parallel
// patch meshing, and assembly of the renderer-facing buffers
package frame

import (
	"fmt"
	"runtime"
	"sync"

	"planetmesh/internal/config"
	"planetmesh/internal/core/displace"
	"planetmesh/internal/core/mesher"
	"planetmesh/internal/core/quadtree"
	"planetmesh/internal/core/vertex"
)

// Pipeline owns the six quadtrees, the shared vertex cache, and the
// mesher, and turns a camera pose into a frame output. A frame is a
// fork-join: serial LOD update, parallel patch meshing, serial
// assembly.
type Pipeline struct {
	cfg   config.Config
	set   *quadtree.Set
	cache *vertex.Cache
	mesh  *mesher.Mesher

	workers int

	// Cumulative cache counters at the end of the last frame, for
	// per-frame deltas.
	lastHits, lastMisses int64
}

// New validates the configuration and builds a pipeline over the
// given displacement field.
func New(cfg config.Config, field displace.Field, displacementBound float64) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache := vertex.NewCache(cfg.KeepCacheAcrossFrames)
	quant := vertex.NewQuantizer(cfg.BoundaryEpsilon, cfg.QuantizationBits)

	set := quadtree.NewSet(quadtree.Config{
		Radius:            cfg.PlanetRadius,
		MaxLevel:          cfg.MaxLevel,
		SplitPixels:       float64(cfg.SplitPixels),
		MergePixels:       float64(cfg.MergePixels),
		ErrorConstant:     cfg.ErrorConstant,
		DisplacementBound: displacementBound,
	})

	m := mesher.New(mesher.Config{
		GridN:          int(cfg.PatchGridN),
		Radius:         cfg.PlanetRadius,
		TJunctionFix:   cfg.EnableTJunctionFix,
		DegenerateArea: mesher.DefaultDegenerateArea,
	}, quant, cache, field)

	return &Pipeline{
		cfg:     cfg,
		set:     set,
		cache:   cache,
		mesh:    m,
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

// Trees exposes the quadtree forest, read-only between frames
func (p *Pipeline) Trees() *quadtree.Set {
	return p.set
}

// Cache exposes the shared vertex cache
func (p *Pipeline) Cache() *vertex.Cache {
	return p.cache
}

// RenderFrame produces the frame for one camera pose. On a worker
// error the frame is aborted and the error returned; the caller may
// re-submit the previous frame's output.
func (p *Pipeline) RenderFrame(cam quadtree.Camera) (*Output, *Stats, error) {
	p.cache.BeginFrame()

	// Stage one, serial: refine the six trees and collect the view.
	p.set.Update(cam)
	leaves := p.set.CollectVisible(cam.Frustum)

	// Stage two, parallel: mesh every visible leaf. Workers share
	// nothing but the vertex cache; results land by leaf index so the
	// output order matches the collection order.
	meshes := make([]*mesher.PatchMesh, len(leaves))
	errs := make([]error, p.workers)

	var wg sync.WaitGroup
	next := make(chan int)
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range next {
				if errs[w] != nil {
					continue // drain; the frame is already aborted
				}
				leaf := leaves[i]
				m, err := p.mesh.MeshPatch(leaf.Patch, p.set.NeighborLevels(leaf))
				if err != nil {
					errs[w] = fmt.Errorf("patch %v: %w", leaf.Patch, err)
					continue
				}
				meshes[i] = m
			}
		}(w)
	}
	for i := range leaves {
		next <- i
	}
	close(next)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}

	// Stage three, serial: concatenate the per-patch outputs.
	out := p.assemble(cam, leaves, meshes)

	hits, misses := p.cache.Stats()
	stats := &Stats{
		Patches:     len(leaves),
		Vertices:    len(out.Vertices),
		Indices:     len(out.Indices),
		CacheHits:   hits - p.lastHits,
		CacheMisses: misses - p.lastMisses,
		SplitDenied: p.set.SplitDenied(),
	}
	for _, m := range meshes {
		stats.Degenerate += m.Degenerate
	}
	p.lastHits, p.lastMisses = hits, misses

	return out, stats, nil
}
