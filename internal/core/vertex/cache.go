// Package vertex provides the face-independent vertex identity keys
// and the shared concurrent vertex cache
package vertex

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrPoisoned is returned for every lookup of an identity whose
// producer panicked, until the cache is cleared.
var ErrPoisoned = errors.New("vertex cache entry poisoned")

// Vertex is a fully materialized vertex record
type Vertex struct {
	Pos      mgl64.Vec3 // displaced world position
	Normal   mgl64.Vec3
	TexUV    [2]float32
	FaceMask uint8 // OR of faces that referenced this vertex
}

// Producer materializes the vertex record for an identity. It must be
// pure with respect to the identity: every call for the same identity
// yields the same record.
type Producer func() (Vertex, error)

// pageSize keeps record addresses stable while the store grows, so a
// slot reference handed out during meshing never dangles.
const pageSize = 4096

const shardCount = 64

type entry struct {
	slot   uint32
	err    error
	ready  chan struct{}
	maskMu sync.Mutex
}

type shard struct {
	mu      sync.Mutex
	entries map[ID]*entry
}

type page = [pageSize]Vertex

// Cache is the shared identity-to-vertex mapping. The first caller of
// GetOrCreate for an identity runs the producer; concurrent callers
// for the same identity block until the record is published. Each
// distinct identity is materialized at most once per frame.
type Cache struct {
	shards [shardCount]shard

	growMu sync.Mutex
	pages  atomic.Pointer[[]*page]
	count  atomic.Uint32

	hits   atomic.Int64
	misses atomic.Int64

	retain bool
}

// NewCache creates a vertex cache. When retain is true the cache keeps
// identities and records across frames; otherwise BeginFrame clears it.
func NewCache(retain bool) *Cache {
	c := &Cache{retain: retain}
	for i := range c.shards {
		c.shards[i].entries = make(map[ID]*entry)
	}
	empty := []*page{}
	c.pages.Store(&empty)
	return c
}

// GetOrCreate returns the slot for an identity, materializing the
// vertex via produce if this is the first request. The face mask bit
// is OR-merged into the record on every call.
func (c *Cache) GetOrCreate(id ID, faceMask uint8, produce Producer) (slot uint32, err error) {
	sh := &c.shards[uint64(id)%shardCount]

	sh.mu.Lock()
	if e, ok := sh.entries[id]; ok {
		sh.mu.Unlock()
		c.hits.Add(1)
		<-e.ready
		if e.err != nil {
			return 0, e.err
		}
		c.orMask(e, faceMask)
		return e.slot, nil
	}

	e := &entry{ready: make(chan struct{})}
	sh.entries[id] = e
	sh.mu.Unlock()
	c.misses.Add(1)

	defer close(e.ready)
	defer func() {
		if r := recover(); r != nil {
			// Poison the entry and surface the same error to the
			// panicking caller itself, not just to later waiters.
			e.err = fmt.Errorf("%w: producer panic: %v", ErrPoisoned, r)
			slot, err = 0, e.err
		}
	}()

	v, perr := produce()
	if perr != nil {
		e.err = perr
		return 0, perr
	}
	v.FaceMask |= faceMask
	e.slot = c.append(v)
	return e.slot, nil
}

// Lookup returns the slot for an identity without materializing
func (c *Cache) Lookup(id ID) (uint32, bool) {
	sh := &c.shards[uint64(id)%shardCount]
	sh.mu.Lock()
	e, ok := sh.entries[id]
	sh.mu.Unlock()
	if !ok {
		return 0, false
	}
	<-e.ready
	if e.err != nil {
		return 0, false
	}
	return e.slot, true
}

// Vertex returns the record at a slot. The reference is stable for the
// lifetime of the frame.
func (c *Cache) Vertex(slot uint32) *Vertex {
	pages := *c.pages.Load()
	return &pages[slot/pageSize][slot%pageSize]
}

// Len returns the number of materialized vertices
func (c *Cache) Len() int {
	return int(c.count.Load())
}

// Stats returns cumulative hit and miss counts
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Retained reports whether the cache keeps vertices across frames
func (c *Cache) Retained() bool {
	return c.retain
}

// BeginFrame prepares the cache for a new frame. Poison and records
// are dropped unless retention is enabled.
func (c *Cache) BeginFrame() {
	if !c.retain {
		c.Clear()
	}
}

// Clear drops all identities and records. Page storage is kept for
// reuse, so steady-state frames allocate nothing here.
func (c *Cache) Clear() {
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.Lock()
		clear(sh.entries)
		sh.mu.Unlock()
	}
	c.growMu.Lock()
	c.count.Store(0)
	c.growMu.Unlock()
}

func (c *Cache) append(v Vertex) uint32 {
	c.growMu.Lock()
	slot := c.count.Load()
	pages := *c.pages.Load()
	if idx := int(slot / pageSize); idx == len(pages) {
		grown := make([]*page, idx+1)
		copy(grown, pages)
		grown[idx] = new(page)
		c.pages.Store(&grown)
		pages = grown
	}
	pages[slot/pageSize][slot%pageSize] = v
	c.count.Store(slot + 1)
	c.growMu.Unlock()
	return slot
}

func (c *Cache) orMask(e *entry, mask uint8) {
	e.maskMu.Lock()
	c.Vertex(e.slot).FaceMask |= mask
	e.maskMu.Unlock()
}
