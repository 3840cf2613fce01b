package pool

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, size int64) *Pool {
	t.Helper()
	p, err := New(size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// assertDisjoint verifies the fundamental allocator invariant: all live
// allocation byte ranges are pairwise disjoint and inside [0, size).
func assertDisjoint(t *testing.T, p *Pool, live map[int64]int64) {
	t.Helper()
	offs := make([]int64, 0, len(live))
	for off := range live {
		offs = append(offs, off)
	}
	sort.Slice(offs, func(i, j int) bool { return offs[i] < offs[j] })
	prevEnd := int64(0)
	for _, off := range offs {
		require.GreaterOrEqual(t, off, prevEnd, "allocation at %d overlaps previous", off)
		prevEnd = off + live[off]
		require.LessOrEqual(t, prevEnd, p.Size())
	}
}

// TestPool_AllocFree exercises a randomized allocate/free sequence and checks
// disjointness throughout.
func TestPool_AllocFree(t *testing.T) {
	p := newTestPool(t, 1<<20)
	rng := rand.New(rand.NewSource(7))

	live := map[int64]int64{}
	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			for off, size := range live {
				p.Free(off, size)
				delete(live, off)
				break
			}
			continue
		}
		size := int64(rng.Intn(4096) + 1)
		off, err := p.Alloc(size)
		if err != nil {
			// Under pressure: drain and continue.
			for o, s := range live {
				p.Free(o, s)
				delete(live, o)
			}
			continue
		}
		live[off] = size
		assertDisjoint(t, p, live)
	}
}

// TestPool_BestFit verifies the smallest sufficient free block is chosen.
func TestPool_BestFit(t *testing.T) {
	p := newTestPool(t, 1<<20)

	a, err := p.Alloc(4096)
	require.NoError(t, err)
	b, err := p.Alloc(1024)
	require.NoError(t, err)
	c, err := p.Alloc(2048)
	require.NoError(t, err)
	_, err = p.Alloc(64) // spacer pins the bump watermark
	require.NoError(t, err)

	p.Free(a, 4096)
	p.Free(c, 2048)

	// Both free blocks fit; best-fit must take the 2048 block, not the 4096 one.
	got, err := p.Alloc(2048)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	// And the 4096 block is still whole.
	got2, err := p.Alloc(4096)
	require.NoError(t, err)
	assert.Equal(t, a, got2)

	_ = b
}

// TestPool_CoalesceAdjacent verifies freeing two adjacent blocks in either
// order yields one block that satisfies the combined size.
func TestPool_CoalesceAdjacent(t *testing.T) {
	for _, order := range []string{"forward", "reverse"} {
		t.Run(order, func(t *testing.T) {
			p := newTestPool(t, 1<<20)

			a, err := p.Alloc(4096)
			require.NoError(t, err)
			b, err := p.Alloc(4096)
			require.NoError(t, err)
			_, err = p.Alloc(64) // spacer so the tail cannot serve the combined request
			require.NoError(t, err)

			// Consume the remaining tail so the combined allocation can only
			// come from the coalesced block.
			stats := p.Stats()
			tail, err := p.Alloc(int64(stats.Available))
			require.NoError(t, err)

			if order == "forward" {
				p.Free(a, 4096)
				p.Free(b, 4096)
			} else {
				p.Free(b, 4096)
				p.Free(a, 4096)
			}

			st := p.Stats()
			assert.Equal(t, 1, st.FreeBlocks, "adjacent frees must coalesce")

			got, err := p.Alloc(8192)
			require.NoError(t, err)
			assert.Equal(t, a, got)

			p.Free(tail, int64(stats.Available))
		})
	}
}

// TestPool_SplitRemainder verifies a large free block is split and the
// remainder stays allocatable.
func TestPool_SplitRemainder(t *testing.T) {
	p := newTestPool(t, 1<<20)

	a, err := p.Alloc(8192)
	require.NoError(t, err)
	_, err = p.Alloc(64)
	require.NoError(t, err)
	p.Free(a, 8192)

	small, err := p.Alloc(1024)
	require.NoError(t, err)
	assert.Equal(t, a, small)

	rest, err := p.Alloc(8192 - 1024)
	require.NoError(t, err)
	assert.Equal(t, a+1024, rest)
}

// TestPool_OutOfMemory verifies exhaustion fails with ErrNoSpace rather than
// panicking, and that freeing restores capacity.
func TestPool_OutOfMemory(t *testing.T) {
	p := newTestPool(t, 64<<10)

	off, err := p.Alloc(64 << 10)
	require.NoError(t, err)

	_, err = p.Alloc(16)
	assert.ErrorIs(t, err, ErrNoSpace)

	p.Free(off, 64<<10)
	_, err = p.Alloc(64 << 10)
	assert.NoError(t, err)
}

// TestPool_FreeOutOfRange verifies invalid frees panic; they indicate memory
// corruption and must not be absorbed.
func TestPool_FreeOutOfRange(t *testing.T) {
	p := newTestPool(t, 64<<10)
	_, err := p.Alloc(1024)
	require.NoError(t, err)

	assert.Panics(t, func() { p.Free(1<<40, 16) })
	assert.Panics(t, func() { p.Free(0, -5) })
	assert.Panics(t, func() { p.Free(3, 16) }) // misaligned
}

// TestPool_Defragment verifies compaction moves live spans to the base,
// rewrites offsets, and restores a single contiguous free region.
func TestPool_Defragment(t *testing.T) {
	p := newTestPool(t, 1<<20)

	offs := make([]int64, 8)
	for i := range offs {
		var err error
		offs[i], err = p.Alloc(4096)
		require.NoError(t, err)
		b := p.Bytes(offs[i], 4096)
		for j := range b {
			b[j] = byte(i)
		}
	}

	// Punch holes at every other allocation.
	var spans []Span
	for i, off := range offs {
		if i%2 == 0 {
			p.Free(off, 4096)
		} else {
			spans = append(spans, Span{Off: off, Size: 4096})
		}
	}

	moved := p.Defragment(spans)
	assert.Positive(t, moved)

	// Survivors are now contiguous from the base, contents intact.
	for i, s := range spans {
		assert.Equal(t, int64(i*4096), s.Off)
		b := p.Bytes(s.Off, 4096)
		assert.Equal(t, byte(2*i+1), b[0])
		assert.Equal(t, byte(2*i+1), b[4095])
	}

	st := p.Stats()
	assert.Equal(t, 0, st.FreeBlocks)
	assert.Zero(t, st.Fragmentation)

	// The reclaimed space is immediately allocatable as one piece.
	_, err := p.Alloc(int64(st.Available))
	assert.NoError(t, err)
}

// TestPool_StatsTracking verifies live/peak accounting across a cycle.
func TestPool_StatsTracking(t *testing.T) {
	p := newTestPool(t, 1<<20)

	a, err := p.Alloc(1000) // rounds to 1008
	require.NoError(t, err)
	assert.Equal(t, int64(1008), p.LiveBytes())

	b, err := p.Alloc(512)
	require.NoError(t, err)
	assert.Equal(t, int64(1520), p.LiveBytes())
	assert.Equal(t, int64(1520), p.PeakLiveBytes())

	p.Free(a, 1000)
	p.Free(b, 512)
	assert.Zero(t, p.LiveBytes())
	assert.Equal(t, int64(1520), p.PeakLiveBytes())
}
