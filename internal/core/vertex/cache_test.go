package vertex

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func testVertex(x float64) Vertex {
	return Vertex{Pos: mgl64.Vec3{x, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}}
}

// Property: concurrent GetOrCreate calls for one identity run the
// producer exactly once; everybody sees the same slot.
func TestAtMostOnceMaterialization(t *testing.T) {
	c := NewCache(false)
	var calls atomic.Int64

	const workers = 32
	slots := make([]uint32, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			slot, err := c.GetOrCreate(ID(42), 1, func() (Vertex, error) {
				calls.Add(1)
				time.Sleep(time.Millisecond)
				return testVertex(1), nil
			})
			if err != nil {
				t.Errorf("worker %d: %v", w, err)
				return
			}
			slots[w] = slot
		}(w)
	}
	wg.Wait()

	if got, want := calls.Load(), int64(1); got != want {
		t.Errorf("producer calls = %d, want %d", got, want)
	}
	for w := 1; w < workers; w++ {
		if slots[w] != slots[0] {
			t.Fatalf("worker %d got slot %d, want %d", w, slots[w], slots[0])
		}
	}
	if got, want := c.Len(), 1; got != want {
		t.Errorf("cache len = %d, want %d", got, want)
	}
}

// Two interleaved meshing passes over overlapping identity sets with a
// retained cache: producer call count equals the number of distinct
// identities across both passes.
func TestRetainedCacheSharesAcrossFrames(t *testing.T) {
	c := NewCache(true)
	var calls atomic.Int64
	produce := func() (Vertex, error) {
		calls.Add(1)
		time.Sleep(time.Millisecond)
		return testVertex(0), nil
	}

	frame := func(ids []ID) {
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id ID) {
				defer wg.Done()
				if _, err := c.GetOrCreate(id, 2, produce); err != nil {
					t.Errorf("GetOrCreate(%x): %v", id, err)
				}
			}(id)
		}
		wg.Wait()
	}

	a := []ID{1, 2, 3, 4, 5, 6, 7, 8}
	b := []ID{5, 6, 7, 8, 9, 10, 11, 12}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.BeginFrame(); frame(a) }()
	go func() { defer wg.Done(); c.BeginFrame(); frame(b) }()
	wg.Wait()

	if got, want := calls.Load(), int64(12); got != want {
		t.Errorf("producer calls = %d, want %d distinct identities", got, want)
	}
}

func TestFaceMaskMerging(t *testing.T) {
	c := NewCache(false)
	produce := func() (Vertex, error) { return testVertex(0), nil }

	slot, err := c.GetOrCreate(ID(7), 0b001, produce)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCreate(ID(7), 0b100, produce); err != nil {
		t.Fatal(err)
	}

	if got, want := c.Vertex(slot).FaceMask, uint8(0b101); got != want {
		t.Errorf("face mask = %b, want %b", got, want)
	}
}

func TestProducerErrorPropagates(t *testing.T) {
	c := NewCache(false)
	wantErr := errors.New("displacement failed")
	_, err := c.GetOrCreate(ID(1), 1, func() (Vertex, error) {
		return Vertex{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

// A panicking producer poisons the entry: every later lookup returns
// the same error until the cache is cleared.
func TestPanicPoisonsEntry(t *testing.T) {
	c := NewCache(false)

	_, err := c.GetOrCreate(ID(9), 1, func() (Vertex, error) {
		panic("boom")
	})
	if !errors.Is(err, ErrPoisoned) {
		t.Fatalf("first lookup err = %v, want ErrPoisoned", err)
	}

	_, err = c.GetOrCreate(ID(9), 1, func() (Vertex, error) {
		return testVertex(0), nil
	})
	if !errors.Is(err, ErrPoisoned) {
		t.Fatalf("second lookup err = %v, want ErrPoisoned", err)
	}

	c.Clear()
	if _, err := c.GetOrCreate(ID(9), 1, func() (Vertex, error) {
		return testVertex(0), nil
	}); err != nil {
		t.Fatalf("after Clear: %v", err)
	}
}

func TestClearResetsSlots(t *testing.T) {
	c := NewCache(false)
	produce := func() (Vertex, error) { return testVertex(3), nil }
	if _, err := c.GetOrCreate(ID(1), 1, produce); err != nil {
		t.Fatal(err)
	}
	c.BeginFrame()
	if got, want := c.Len(), 0; got != want {
		t.Errorf("len after BeginFrame = %d, want %d", got, want)
	}
	slot, err := c.GetOrCreate(ID(2), 1, produce)
	if err != nil {
		t.Fatal(err)
	}
	if slot != 0 {
		t.Errorf("slot after clear = %d, want 0", slot)
	}
}

func TestLookup(t *testing.T) {
	c := NewCache(false)
	if _, ok := c.Lookup(ID(5)); ok {
		t.Error("Lookup on empty cache reported a hit")
	}
	slot, err := c.GetOrCreate(ID(5), 1, func() (Vertex, error) { return testVertex(1), nil })
	if err != nil {
		t.Fatal(err)
	}
	got, ok := c.Lookup(ID(5))
	if !ok || got != slot {
		t.Errorf("Lookup = (%d, %v), want (%d, true)", got, ok, slot)
	}
}
