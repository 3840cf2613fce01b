package pipeline

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/joshuapare/streamkit/pkg/types"
	"github.com/joshuapare/streamkit/stream/pool"
	"github.com/joshuapare/streamkit/stream/registry"
)

const (
	// DefaultQueueCapacity is the default request slot count.
	DefaultQueueCapacity = 1024

	// DefaultWorkers is the default loader goroutine count.
	DefaultWorkers = 2

	// workerIdleSleep is how long an idle worker naps between queue polls.
	workerIdleSleep = time.Millisecond

	nilReq = int32(-1)
)

// Handle identifies an in-flight request. The zero Handle is not valid; use
// the value returned by Enqueue.
type Handle struct {
	slot int32
	gen  uint32
}

const completedSlot = int32(-2)

// Completed returns a handle that always polls StatusComplete. It stands in
// for requests satisfied from resident memory without touching the queue.
func Completed() Handle { return Handle{slot: completedSlot} }

// request is one slot of the fixed request pool. status and gen are atomics
// so Status polls without taking the queue lock.
type request struct {
	id       types.AssetID
	lod      uint32
	priority types.Priority
	callback func(types.RequestStatus)

	gen    atomic.Uint32
	status atomic.Int32
	next   int32 // intrusive link within the priority queue
}

// Config wires a Pipeline to its collaborators.
type Config struct {
	Workers       int
	QueueCapacity int
	AssetDir      string
	Logger        *slog.Logger

	// Frame supplies the current frame counter for LRU stamping.
	Frame func() uint64
}

// Pipeline owns the request slots, the priority queues, and the workers.
type Pipeline struct {
	mu     sync.Mutex
	slots  []request
	cursor int
	heads  [types.PriorityCount]int32

	ldr *loader
	log *slog.Logger

	frame func() uint64

	wg     conc.WaitGroup
	closed atomic.Bool

	stats counters
}

// counters are the pipeline's telemetry atomics; see types.Stats for meaning.
type counters struct {
	total        atomic.Uint64
	completed    atomic.Uint64
	failed       atomic.Uint64
	cacheHits    atomic.Uint64
	cacheMisses  atomic.Uint64
	bytesLoaded  atomic.Uint64
	bytesEvicted atomic.Uint64
}

// New builds the pipeline and starts its workers.
func New(cfg Config, p *pool.Pool, reg *registry.Registry) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Frame == nil {
		cfg.Frame = func() uint64 { return 0 }
	}

	pl := &Pipeline{
		slots: make([]request, cfg.QueueCapacity),
		log:   cfg.Logger,
		frame: cfg.Frame,
	}
	for i := range pl.heads {
		pl.heads[i] = nilReq
	}
	for i := range pl.slots {
		pl.slots[i].status.Store(int32(types.StatusComplete)) // recyclable
		pl.slots[i].next = nilReq
	}
	pl.ldr = newLoader(cfg.AssetDir, cfg.Logger, p, reg, &pl.stats)

	for i := 0; i < cfg.Workers; i++ {
		pl.wg.Go(pl.work)
	}
	return pl
}

// Shutdown stops the workers, waits for in-flight loads, and closes cached
// file handles. Further Enqueue calls fail with ErrShutdown.
func (pl *Pipeline) Shutdown() error {
	if pl.closed.Swap(true) {
		return nil
	}
	pl.wg.Wait()
	return pl.ldr.close()
}

// Enqueue queues an asynchronous load of the asset's LOD at the given
// priority and returns a pollable handle.
func (pl *Pipeline) Enqueue(id types.AssetID, lod uint32, priority types.Priority) (Handle, error) {
	return pl.EnqueueFunc(id, lod, priority, nil)
}

// EnqueueFunc is Enqueue with an optional completion callback. The worker
// goroutine that settles the request invokes done with the final status,
// Complete or Failed. done must not block and must not call back into the
// pipeline's queue.
func (pl *Pipeline) EnqueueFunc(id types.AssetID, lod uint32, priority types.Priority, done func(types.RequestStatus)) (Handle, error) {
	if priority >= types.PriorityCount {
		priority = types.PriorityLow
	}
	if pl.closed.Load() {
		return Handle{slot: nilReq}, types.ErrShutdown
	}

	pl.mu.Lock()
	slot := int32(pl.cursor)
	st := types.RequestStatus(pl.slots[slot].status.Load())
	if st == types.StatusPending || st == types.StatusLoading {
		pl.mu.Unlock()
		return Handle{slot: nilReq}, types.ErrQueueFull
	}
	pl.cursor = (pl.cursor + 1) % len(pl.slots)

	r := &pl.slots[slot]
	gen := r.gen.Add(1)
	r.id = id
	r.lod = lod
	r.priority = priority
	r.callback = done
	r.status.Store(int32(types.StatusPending))
	r.next = pl.heads[priority]
	pl.heads[priority] = slot
	pl.mu.Unlock()

	pl.stats.total.Add(1)
	return Handle{slot: slot, gen: gen}, nil
}

// Status polls a handle. Stale handles (slot since recycled) report
// StatusInvalid.
func (pl *Pipeline) Status(h Handle) types.RequestStatus {
	if h.slot == completedSlot {
		return types.StatusComplete
	}
	if h.slot < 0 || int(h.slot) >= len(pl.slots) {
		return types.StatusInvalid
	}
	r := &pl.slots[h.slot]
	if r.gen.Load() != h.gen {
		return types.StatusInvalid
	}
	st := types.RequestStatus(r.status.Load())
	// The slot may have been recycled between the two loads above, in which
	// case st belongs to the new occupant. Recheck the generation so a stale
	// handle never reports another request's status.
	if r.gen.Load() != h.gen {
		return types.StatusInvalid
	}
	return st
}

// NoteCacheHit records a request satisfied from resident memory.
func (pl *Pipeline) NoteCacheHit() { pl.stats.cacheHits.Add(1) }

// NoteCacheMiss records a request that had to touch the disk.
func (pl *Pipeline) NoteCacheMiss() { pl.stats.cacheMisses.Add(1) }

// NoteEvicted adds to the evicted-byte counter; the controller calls this for
// evictions it performs outside a load.
func (pl *Pipeline) NoteEvicted(n uint64) { pl.stats.bytesEvicted.Add(n) }

// Snapshot returns the current telemetry counters. Memory fields are filled
// by the caller, which owns the pool.
func (pl *Pipeline) Snapshot() types.Stats {
	return types.Stats{
		TotalRequests:     pl.stats.total.Load(),
		CompletedRequests: pl.stats.completed.Load(),
		FailedRequests:    pl.stats.failed.Load(),
		CacheHits:         pl.stats.cacheHits.Load(),
		CacheMisses:       pl.stats.cacheMisses.Load(),
		BytesLoaded:       pl.stats.bytesLoaded.Load(),
		BytesEvicted:      pl.stats.bytesEvicted.Load(),
	}
}

// ResetStats zeroes every telemetry counter.
func (pl *Pipeline) ResetStats() {
	pl.stats.total.Store(0)
	pl.stats.completed.Store(0)
	pl.stats.failed.Store(0)
	pl.stats.cacheHits.Store(0)
	pl.stats.cacheMisses.Store(0)
	pl.stats.bytesLoaded.Store(0)
	pl.stats.bytesEvicted.Store(0)
}

// WithLoadsPaused runs f while no worker holds a pool allocation the registry
// cannot see. Compaction must run under it, or a buffer staged between Alloc
// and Install would be moved out from under its loader.
func (pl *Pipeline) WithLoadsPaused(f func()) {
	pl.ldr.pauseLoads(f)
}

// CloseIdleFiles closes cached file handles not used for idleFrames frames.
func (pl *Pipeline) CloseIdleFiles(now, idleFrames uint64) int {
	return pl.ldr.closeIdle(now, idleFrames)
}

// Drain blocks until every queued request has settled or the timeout
// expires. Intended for tests and shutdown paths, not the frame loop.
func (pl *Pipeline) Drain(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if pl.idle() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(workerIdleSleep)
	}
}

func (pl *Pipeline) idle() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	// A request between dequeue and processing is still Pending but in no
	// queue, so scan slot statuses rather than the queue heads.
	for i := range pl.slots {
		st := types.RequestStatus(pl.slots[i].status.Load())
		if st == types.StatusPending || st == types.StatusLoading {
			return false
		}
	}
	return true
}

// work is the loader goroutine body: pop the most urgent request, load it,
// settle its status.
func (pl *Pipeline) work() {
	for !pl.closed.Load() {
		slot := pl.dequeue()
		if slot == nilReq {
			time.Sleep(workerIdleSleep)
			continue
		}
		pl.process(slot)
	}
}

// dequeue pops from the highest-priority non-empty queue.
func (pl *Pipeline) dequeue() int32 {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	for p := range pl.heads {
		if slot := pl.heads[p]; slot != nilReq {
			pl.heads[p] = pl.slots[slot].next
			pl.slots[slot].next = nilReq
			return slot
		}
	}
	return nilReq
}

func (pl *Pipeline) process(slot int32) {
	r := &pl.slots[slot]
	// Copy before settling: once the status leaves Loading the slot may be
	// recycled and its fields rewritten under the queue lock.
	id, lod, priority, done := r.id, r.lod, r.priority, r.callback
	r.status.Store(int32(types.StatusLoading))

	// An earlier load may have satisfied a duplicate request while this one
	// sat queued; serve it from resident memory without touching the disk.
	if pl.ldr.resident(id, lod, pl.frame()) {
		pl.stats.cacheHits.Add(1)
		pl.stats.completed.Add(1)
		r.status.Store(int32(types.StatusComplete))
		if done != nil {
			done(types.StatusComplete)
		}
		return
	}
	pl.stats.cacheMisses.Add(1)

	n, err := pl.ldr.load(id, lod, pl.frame())
	if err != nil {
		pl.stats.failed.Add(1)
		r.status.Store(int32(types.StatusFailed))
		if done != nil {
			done(types.StatusFailed)
		}
		pl.log.Warn("asset load failed",
			"asset", id,
			"lod", lod,
			"priority", priority.String(),
			"error", err)
		return
	}

	pl.stats.completed.Add(1)
	pl.stats.bytesLoaded.Add(uint64(n))
	r.status.Store(int32(types.StatusComplete))
	if done != nil {
		done(types.StatusComplete)
	}
}
