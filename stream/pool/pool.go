package pool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joshuapare/streamkit/internal/arena"
	"github.com/joshuapare/streamkit/internal/format"
	"github.com/joshuapare/streamkit/pkg/types"
)

const (
	// splitThreshold is the minimum remainder worth keeping as its own free
	// block when a best-fit allocation splits a larger one.
	splitThreshold = 256

	// defragScratchSize bounds the copy buffer used during compaction so a
	// multi-gigabyte pool never needs a matching scratch allocation.
	defragScratchSize = 64 << 10
)

// Span is a live allocation handed to Defragment. Off is rewritten in place
// to the allocation's post-compaction offset.
type Span struct {
	Off  int64
	Size int64
}

// freeBlock is a node in the singly-linked free list.
type freeBlock struct {
	off  int64
	size int64
	next *freeBlock
}

// Pool is a fixed-size arena allocator. See the package documentation for
// the allocation strategy and safety rules.
type Pool struct {
	mu      sync.Mutex
	data    []byte
	release func() error

	size int64
	used int64 // bump watermark; grows only via tail allocation

	freeHead  *freeBlock
	freeBytes int64
	freeCount int

	liveBytes int64
	peakLive  int64
}

// New maps an arena of the given byte size.
func New(size int64) (*Pool, error) {
	data, release, err := arena.Map(int(size))
	if err != nil {
		return nil, err
	}
	return &Pool{data: data, release: release, size: size}, nil
}

// Close releases the backing arena. The pool must not be used afterward.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	if p.release == nil {
		return nil
	}
	release := p.release
	p.release = nil
	return release()
}

// Size returns the arena capacity in bytes.
func (p *Pool) Size() int64 { return p.size }

// LiveBytes returns the number of bytes held by live allocations.
func (p *Pool) LiveBytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liveBytes
}

// Alloc claims size bytes and returns the allocation's arena offset.
// The size is rounded up to the pool alignment; callers free with the same
// size they allocated.
func (p *Pool) Alloc(size int64) (int64, error) {
	if size <= 0 {
		return 0, fmt.Errorf("pool: invalid allocation size %d", size)
	}
	size = format.Align16(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	// Best fit: smallest free block that satisfies the request.
	var best, bestPrev *freeBlock
	var prev *freeBlock
	for cur := p.freeHead; cur != nil; cur = cur.next {
		if cur.size >= size && (best == nil || cur.size < best.size) {
			best, bestPrev = cur, prev
		}
		prev = cur
	}

	if best == nil {
		// Bump from the untouched tail.
		if p.used+size > p.size {
			return 0, ErrNoSpace
		}
		off := p.used
		p.used += size
		p.claim(size)
		return off, nil
	}

	if bestPrev != nil {
		bestPrev.next = best.next
	} else {
		p.freeHead = best.next
	}
	p.freeCount--
	p.freeBytes -= best.size

	if rem := best.size - size; rem >= splitThreshold {
		p.pushFree(best.off+size, rem)
	}
	// Sub-threshold remainders are absorbed; Defragment reclaims them.

	p.claim(size)
	return best.off, nil
}

// Free returns the allocation at off with the given size to the free list and
// coalesces address-adjacent free blocks. Offset or size mismatches indicate
// memory corruption and panic.
func (p *Pool) Free(off, size int64) {
	if size <= 0 {
		panic(fmt.Sprintf("pool: free with invalid size %d", size))
	}
	size = format.Align16(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	if off < 0 || off%format.PoolAlignment != 0 || off+size > p.used {
		panic(fmt.Sprintf("pool: free out of range (off=%d size=%d used=%d)", off, size, p.used))
	}

	p.pushFree(off, size)
	p.coalesce()
	p.liveBytes -= size
}

// Bytes returns a view of the allocation at off. The view is invalidated by
// Defragment.
func (p *Pool) Bytes(off, size int64) []byte {
	if off < 0 || size < 0 || off+size > p.size {
		panic(fmt.Sprintf("pool: bytes out of range (off=%d size=%d cap=%d)", off, size, p.size))
	}
	return p.data[off : off+size : off+size]
}

// Stats returns a snapshot of pool occupancy.
func (p *Pool) Stats() types.MemoryStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := (p.size - p.used) + p.freeBytes
	var frag float32
	if available > 0 {
		frag = float32(p.freeBytes) / float32(available)
	}
	return types.MemoryStats{
		Used:          uint64(p.liveBytes),
		Available:     uint64(available),
		FreeBlocks:    p.freeCount,
		Fragmentation: frag,
	}
}

// PeakLiveBytes returns the high-water mark of live allocation bytes.
func (p *Pool) PeakLiveBytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peakLive
}

// Defragment compacts the given live spans toward the arena base, copying
// through a bounded scratch buffer, and rewrites each Span.Off in place.
// The free list collapses into the restored bump tail, so after the pass the
// arena is a single live prefix followed by a single free region.
//
// The pool mutex is held for the entire pass: no allocation or free can be
// in flight. Spans must cover every live allocation; the caller must stop
// reading arena views for the duration and re-fetch them afterward.
func (p *Pool) Defragment(spans []Span) (moved int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sort.Slice(spans, func(i, j int) bool { return spans[i].Off < spans[j].Off })

	var scratch [defragScratchSize]byte
	write := int64(0)
	for i := range spans {
		s := &spans[i]
		size := format.Align16(s.Size)
		if s.Off != write {
			remaining := size
			src, dst := s.Off, write
			for remaining > 0 {
				chunk := remaining
				if chunk > defragScratchSize {
					chunk = defragScratchSize
				}
				copy(scratch[:chunk], p.data[src:src+chunk])
				copy(p.data[dst:dst+chunk], scratch[:chunk])
				src += chunk
				dst += chunk
				remaining -= chunk
			}
			moved += size
			s.Off = write
		}
		write += size
	}

	p.used = write
	p.freeHead = nil
	p.freeBytes = 0
	p.freeCount = 0
	return moved
}

func (p *Pool) claim(size int64) {
	p.liveBytes += size
	if p.liveBytes > p.peakLive {
		p.peakLive = p.liveBytes
	}
}

func (p *Pool) pushFree(off, size int64) {
	p.freeHead = &freeBlock{off: off, size: size, next: p.freeHead}
	p.freeCount++
	p.freeBytes += size
}

// coalesce merges any free block whose end address equals another free
// block's start. Each merge shortens the list, so the restart loop is
// bounded by the list length.
func (p *Pool) coalesce() {
	for {
		merged := false
	scan:
		for a := p.freeHead; a != nil; a = a.next {
			prev := (*freeBlock)(nil)
			for b := p.freeHead; b != nil; prev, b = b, b.next {
				if b == a {
					continue
				}
				if a.off+a.size == b.off {
					a.size += b.size
					if prev != nil {
						prev.next = b.next
					} else {
						p.freeHead = b.next
					}
					p.freeCount--
					merged = true
					break scan
				}
			}
		}
		if !merged {
			return
		}
	}
}
