package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/joshuapare/streamkit/pkg/types"
	"github.com/joshuapare/streamkit/stream/pool"
)

const (
	numBuckets = 4096
	bucketMask = numBuckets - 1

	// DefaultCapacity is the default number of resident-asset slots.
	DefaultCapacity = 4096

	nilSlot = int32(-1)
)

// ErrFull indicates every resident-asset slot is occupied. The caller should
// evict and retry.
var ErrFull = errors.New("registry: resident asset capacity exhausted")

// Buffer locates one LOD payload inside the streaming pool.
// A negative offset means the slot is empty.
type Buffer struct {
	Off  int64
	Size int64
}

// Present reports whether the buffer references pool memory.
func (b Buffer) Present() bool { return b.Off >= 0 }

var noBuffer = Buffer{Off: -1}

// asset is one resident-asset slot. Linkage fields hold slot indices.
type asset struct {
	id              types.AssetID
	typ             types.AssetType
	currentLOD      uint32
	lastAccessFrame uint64
	refCount        int32
	lods            [types.LODLevels]Buffer

	hashNext int32
	lruPrev  int32
	lruNext  int32
	nextFree int32
}

// Info is a read-only snapshot of one resident asset, used by state dumps.
type Info struct {
	ID              types.AssetID   `json:"id"`
	Type            types.AssetType `json:"type"`
	CurrentLOD      uint32          `json:"current_lod"`
	RefCount        int32           `json:"ref_count"`
	LastAccessFrame uint64          `json:"last_access_frame"`
	ResidentBytes   int64           `json:"resident_bytes"`
}

// Registry is the resident-asset table. All methods are safe for concurrent
// use; each takes the registry's single mutex.
type Registry struct {
	mu       sync.Mutex
	slots    []asset
	freeHead int32
	buckets  [numBuckets]int32
	lruHead  int32 // least recently used
	lruTail  int32 // most recently used
	count    int
}

// New creates a registry with the given number of resident-asset slots.
func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Registry{
		slots:    make([]asset, capacity),
		lruHead:  nilSlot,
		lruTail:  nilSlot,
		freeHead: 0,
	}
	for i := range r.buckets {
		r.buckets[i] = nilSlot
	}
	for i := range r.slots {
		r.slots[i].nextFree = int32(i + 1)
		for l := range r.slots[i].lods {
			r.slots[i].lods[l] = noBuffer
		}
	}
	r.slots[capacity-1].nextFree = nilSlot
	return r
}

// hashID mixes the asset id through a 64-bit finalizer so sequential ids
// spread across buckets.
func hashID(id types.AssetID) uint32 {
	h := uint64(id)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return uint32(h) & bucketMask
}

// Len returns the number of resident assets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Touch marks the asset most recently used and stamps its access frame.
func (r *Registry) Touch(id types.AssetID, frame uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nilSlot {
		return false
	}
	r.touch(s, frame)
	return true
}

// Resident reports whether the asset can serve the requested LOD: either that
// exact LOD is loaded, or a finer one (lower index) is loaded and current.
func (r *Registry) Resident(id types.AssetID, lod uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nilSlot {
		return false
	}
	return r.serviceable(&r.slots[s], lod).Present()
}

// Data returns the pool buffer serving the requested LOD and touches the
// asset. The second return is false when nothing serviceable is resident.
func (r *Registry) Data(id types.AssetID, lod uint32, frame uint64) (Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nilSlot {
		return noBuffer, false
	}
	buf := r.serviceable(&r.slots[s], lod)
	if !buf.Present() {
		return noBuffer, false
	}
	r.touch(s, frame)
	return buf, true
}

// Install records a freshly loaded LOD buffer for the asset, creating the
// resident entry if needed. It returns the previous buffer occupying that
// LOD slot (for release to the pool) when one is replaced.
func (r *Registry) Install(id types.AssetID, typ types.AssetType, lod uint32, buf Buffer, frame uint64) (old Buffer, err error) {
	if lod >= types.LODLevels {
		panic("registry: lod out of range")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(id)
	if s == nilSlot {
		s = r.freeHead
		if s == nilSlot {
			return noBuffer, ErrFull
		}
		r.freeHead = r.slots[s].nextFree
		a := &r.slots[s]
		*a = asset{id: id, typ: typ, hashNext: nilSlot, lruPrev: nilSlot, lruNext: nilSlot, nextFree: nilSlot}
		for l := range a.lods {
			a.lods[l] = noBuffer
		}
		b := hashID(id)
		a.hashNext = r.buckets[b]
		r.buckets[b] = s
		r.lruAppend(s)
		r.count++
	}

	a := &r.slots[s]
	old = a.lods[lod]
	a.lods[lod] = buf
	a.currentLOD = lod
	r.touch(s, frame)
	return old, nil
}

// Pin increments the asset's ref count, excluding it from eviction.
func (r *Registry) Pin(id types.AssetID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nilSlot {
		return false
	}
	r.slots[s].refCount++
	return true
}

// Unpin decrements the asset's ref count. Unpinning below zero panics: it
// means a lock/unlock pairing bug in the caller.
func (r *Registry) Unpin(id types.AssetID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nilSlot {
		return false
	}
	if r.slots[s].refCount <= 0 {
		panic("registry: unpin without matching pin")
	}
	r.slots[s].refCount--
	return true
}

// Evict removes least-recently-used unpinned assets until at least quota
// bytes of LOD buffers have been gathered or the list is exhausted. The
// victims' buffers are returned for the caller to free; pinned assets are
// skipped and contribute nothing.
func (r *Registry) Evict(quota int64) (bufs []Buffer, freed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lruHead
	for s != nilSlot && freed < quota {
		next := r.slots[s].lruNext
		a := &r.slots[s]
		if a.refCount == 0 {
			for l := range a.lods {
				if a.lods[l].Present() {
					bufs = append(bufs, a.lods[l])
					freed += a.lods[l].Size
					a.lods[l] = noBuffer
				}
			}
			r.remove(s)
		}
		s = next
	}
	return bufs, freed
}

// SwitchLOD makes an already-loaded LOD current. Returns false when that LOD
// is not resident; the caller should request it instead.
func (r *Registry) SwitchLOD(id types.AssetID, lod uint32) bool {
	if lod >= types.LODLevels {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nilSlot || !r.slots[s].lods[lod].Present() {
		return false
	}
	r.slots[s].currentLOD = lod
	return true
}

// CurrentLOD returns the asset's current LOD level.
func (r *Registry) CurrentLOD(id types.AssetID) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nilSlot {
		return 0, false
	}
	return r.slots[s].currentLOD, true
}

// ResidentBytes returns the total pool bytes referenced by resident assets.
func (r *Registry) ResidentBytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for s := r.lruHead; s != nilSlot; s = r.slots[s].lruNext {
		for _, b := range r.slots[s].lods {
			if b.Present() {
				total += b.Size
			}
		}
	}
	return total
}

// Snapshot returns per-asset info in LRU order (least recent first).
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Info, 0, r.count)
	for s := r.lruHead; s != nilSlot; s = r.slots[s].lruNext {
		a := &r.slots[s]
		var bytes int64
		for _, b := range a.lods {
			if b.Present() {
				bytes += b.Size
			}
		}
		out = append(out, Info{
			ID:              a.id,
			Type:            a.typ,
			CurrentLOD:      a.currentLOD,
			RefCount:        a.refCount,
			LastAccessFrame: a.lastAccessFrame,
			ResidentBytes:   bytes,
		})
	}
	return out
}

// Compact gathers every resident LOD buffer into a span list, compacts the
// pool, and writes the rewritten offsets back. Both locks are held for the
// whole pass (registry first, then pool); no other code path nests them in
// the other order. The caller must guarantee no pool allocation is held
// outside the registry for the duration; the pipeline's WithLoadsPaused
// provides that. Returns the number of bytes moved.
func (r *Registry) Compact(p *pool.Pool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var spans []pool.Span
	var owners []bufOwner
	for s := r.lruHead; s != nilSlot; s = r.slots[s].lruNext {
		for l := range r.slots[s].lods {
			if b := r.slots[s].lods[l]; b.Present() {
				spans = append(spans, pool.Span{Off: b.Off, Size: b.Size})
				owners = append(owners, bufOwner{slot: s, lod: l})
			}
		}
	}
	if len(spans) == 0 {
		return 0
	}

	// Defragment sorts spans by offset in place; presort the pairs so the
	// owner list stays aligned with its span.
	sort.Sort(&spanOwners{spans: spans, owners: owners})
	moved := p.Defragment(spans)
	for i, o := range owners {
		r.slots[o.slot].lods[o.lod].Off = spans[i].Off
	}
	return moved
}

// bufOwner records which LOD slot a span belongs to during compaction.
type bufOwner struct {
	slot int32
	lod  int
}

type spanOwners struct {
	spans  []pool.Span
	owners []bufOwner
}

func (so *spanOwners) Len() int           { return len(so.spans) }
func (so *spanOwners) Less(i, j int) bool { return so.spans[i].Off < so.spans[j].Off }
func (so *spanOwners) Swap(i, j int) {
	so.spans[i], so.spans[j] = so.spans[j], so.spans[i]
	so.owners[i], so.owners[j] = so.owners[j], so.owners[i]
}

// ---- internal (caller holds r.mu) ----

func (r *Registry) lookup(id types.AssetID) int32 {
	for s := r.buckets[hashID(id)]; s != nilSlot; s = r.slots[s].hashNext {
		if r.slots[s].id == id {
			return s
		}
	}
	return nilSlot
}

// serviceable returns the buffer that can serve the requested LOD: the exact
// level if loaded, otherwise the current level when it is at least as fine.
func (r *Registry) serviceable(a *asset, lod uint32) Buffer {
	if lod < types.LODLevels && a.lods[lod].Present() {
		return a.lods[lod]
	}
	if a.currentLOD <= lod && a.lods[a.currentLOD].Present() {
		return a.lods[a.currentLOD]
	}
	return noBuffer
}

func (r *Registry) touch(s int32, frame uint64) {
	r.lruUnlink(s)
	r.lruAppend(s)
	r.slots[s].lastAccessFrame = frame
}

func (r *Registry) lruUnlink(s int32) {
	a := &r.slots[s]
	if a.lruPrev != nilSlot {
		r.slots[a.lruPrev].lruNext = a.lruNext
	} else if r.lruHead == s {
		r.lruHead = a.lruNext
	}
	if a.lruNext != nilSlot {
		r.slots[a.lruNext].lruPrev = a.lruPrev
	} else if r.lruTail == s {
		r.lruTail = a.lruPrev
	}
	a.lruPrev = nilSlot
	a.lruNext = nilSlot
}

func (r *Registry) lruAppend(s int32) {
	a := &r.slots[s]
	a.lruNext = nilSlot
	a.lruPrev = r.lruTail
	if r.lruTail != nilSlot {
		r.slots[r.lruTail].lruNext = s
	}
	r.lruTail = s
	if r.lruHead == nilSlot {
		r.lruHead = s
	}
}

// remove takes the slot out of both the hash chain and the LRU list and
// returns it to the free list. Hash and LRU membership change together; a
// slot is in one iff it is in the other.
func (r *Registry) remove(s int32) {
	a := &r.slots[s]
	b := hashID(a.id)
	if r.buckets[b] == s {
		r.buckets[b] = a.hashNext
	} else {
		for cur := r.buckets[b]; cur != nilSlot; cur = r.slots[cur].hashNext {
			if r.slots[cur].hashNext == s {
				r.slots[cur].hashNext = a.hashNext
				break
			}
		}
	}
	r.lruUnlink(s)
	a.hashNext = nilSlot
	a.nextFree = r.freeHead
	r.freeHead = s
	r.count--
}
