package stream

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/swiss"

	"github.com/joshuapare/streamkit/pkg/types"
	"github.com/joshuapare/streamkit/stream/pipeline"
	"github.com/joshuapare/streamkit/stream/pool"
	"github.com/joshuapare/streamkit/stream/registry"
	"github.com/joshuapare/streamkit/stream/spatial"
	"github.com/joshuapare/streamkit/stream/vtex"
)

// Handle aliases the pipeline's request handle so callers only import this
// package.
type Handle = pipeline.Handle

// System is the streaming controller. All methods are safe for concurrent
// use; Update is expected to be called from a single frame loop.
type System struct {
	opts Options
	log  *slog.Logger

	pool  *pool.Pool
	reg   *registry.Registry
	pl    *pipeline.Pipeline
	index *spatial.Index

	ringMu sync.Mutex
	rings  []Ring

	tmu      sync.Mutex
	textures *swiss.Map[types.AssetID, *vtex.Texture]

	camMu   sync.Mutex
	lastVel types.Vec3

	frame  atomic.Uint64
	closed atomic.Bool
}

// New builds and starts a streaming system.
func New(opts Options) (*System, error) {
	if opts.MemoryBudget <= 0 {
		return nil, &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("stream: invalid memory budget %d", opts.MemoryBudget),
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(opts.Rings) == 0 {
		opts.Rings = DefaultRings()
	}
	if opts.PredictFrames <= 0 {
		opts.PredictFrames = 8
	}

	p, err := pool.New(opts.MemoryBudget)
	if err != nil {
		return nil, fmt.Errorf("stream: map pool: %w", err)
	}

	s := &System{
		opts:     opts,
		log:      opts.Logger,
		pool:     p,
		reg:      registry.New(opts.RegistryCapacity),
		index:    spatial.New(opts.WorldMin, opts.WorldMax),
		rings:    append([]Ring(nil), opts.Rings...),
		textures: swiss.New[types.AssetID, *vtex.Texture](16),
	}
	s.pl = pipeline.New(pipeline.Config{
		Workers:       opts.Workers,
		QueueCapacity: opts.QueueCapacity,
		AssetDir:      opts.AssetDir,
		Logger:        opts.Logger,
		Frame:         s.frame.Load,
	}, s.pool, s.reg)

	s.log.Info("streaming system up",
		"budget_bytes", opts.MemoryBudget,
		"workers", opts.Workers,
		"asset_dir", opts.AssetDir)
	return s, nil
}

// Shutdown stops the workers and releases the pool. Idempotent.
func (s *System) Shutdown() error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.pl.Shutdown()
	if cerr := s.pool.Close(); err == nil {
		err = cerr
	}
	return err
}

// RegisterAsset places an asset in the world so streaming rings can find it.
func (s *System) RegisterAsset(id types.AssetID, pos types.Vec3, radius float32) {
	s.index.Insert(id, pos, radius)
}

// RequestAsset queues a load of the asset's LOD, or reports an immediate hit
// when a serviceable LOD is already resident.
func (s *System) RequestAsset(id types.AssetID, lod uint32, priority types.Priority) (Handle, error) {
	return s.RequestAssetFunc(id, lod, priority, nil)
}

// RequestAssetFunc is RequestAsset with an optional completion callback. On a
// cache hit done runs synchronously before returning; otherwise the worker
// that settles the request invokes it with the final status.
func (s *System) RequestAssetFunc(id types.AssetID, lod uint32, priority types.Priority, done func(types.RequestStatus)) (Handle, error) {
	if s.closed.Load() {
		return Handle{}, types.ErrShutdown
	}
	if s.reg.Resident(id, lod) {
		s.reg.Touch(id, s.frame.Load())
		s.pl.NoteCacheHit()
		if done != nil {
			done(types.StatusComplete)
		}
		return pipeline.Completed(), nil
	}
	return s.pl.EnqueueFunc(id, lod, priority, done)
}

// RequestStatus polls a request handle.
func (s *System) RequestStatus(h Handle) types.RequestStatus {
	return s.pl.Status(h)
}

// IsResident reports whether the asset can serve the LOD from memory.
func (s *System) IsResident(id types.AssetID, lod uint32) bool {
	return s.reg.Resident(id, lod)
}

// AssetData returns the resident bytes serving the asset's LOD. The view is
// invalidated by Defragment; callers pin around longer-lived use.
func (s *System) AssetData(id types.AssetID, lod uint32) ([]byte, bool) {
	buf, ok := s.reg.Data(id, lod, s.frame.Load())
	if !ok {
		return nil, false
	}
	return s.pool.Bytes(buf.Off, buf.Size), true
}

// LockAsset pins the asset against eviction.
func (s *System) LockAsset(id types.AssetID) bool { return s.reg.Pin(id) }

// UnlockAsset releases a pin taken by LockAsset.
func (s *System) UnlockAsset(id types.AssetID) bool { return s.reg.Unpin(id) }

// SwitchLOD makes an already-resident LOD current, or queues a high-priority
// load when it is not resident yet. Returns true only on an immediate switch.
func (s *System) SwitchLOD(id types.AssetID, lod uint32) bool {
	if s.reg.SwitchLOD(id, lod) {
		return true
	}
	if _, err := s.RequestAsset(id, lod, types.PriorityHigh); err != nil {
		s.log.Warn("lod switch request failed", "asset", id, "lod", lod, "error", err)
	}
	return false
}

// CurrentLOD returns the asset's current LOD level.
func (s *System) CurrentLOD(id types.AssetID) (uint32, bool) {
	return s.reg.CurrentLOD(id)
}

// PrefetchRadius queues loads for every registered asset within radius of
// center that is not already resident.
func (s *System) PrefetchRadius(center types.Vec3, radius float32) int {
	queued := 0
	for _, e := range s.index.QueryRadius(center, radius, 0) {
		dist := center.Sub(e.Pos).Length()
		lod := CalculateLOD(e.Radius, dist)
		if s.reg.Resident(e.ID, lod) {
			continue
		}
		if _, err := s.RequestAsset(e.ID, lod, types.PriorityPrefetch); err != nil {
			break // queue full; the next Update retries
		}
		queued++
	}
	return queued
}

// ConfigureRings replaces the streaming band configuration.
func (s *System) ConfigureRings(rings []Ring) {
	s.ringMu.Lock()
	defer s.ringMu.Unlock()
	s.rings = append([]Ring(nil), rings...)
}

// Defragment compacts the pool and rewrites every resident buffer offset.
// Loads are paused for the duration so no worker holds a buffer the
// compaction cannot see. Views from AssetData and PageData are invalid
// afterward.
func (s *System) Defragment() int64 {
	var moved int64
	s.pl.WithLoadsPaused(func() {
		moved = s.reg.Compact(s.pool)
	})
	if moved > 0 {
		s.log.Info("pool compacted", "bytes_moved", moved)
	}
	return moved
}

// MemoryStats returns the pool occupancy snapshot.
func (s *System) MemoryStats() types.MemoryStats { return s.pool.Stats() }

// Stats returns the streaming telemetry snapshot.
func (s *System) Stats() types.Stats {
	st := s.pl.Snapshot()
	st.CurrentMemoryUsage = uint64(s.pool.LiveBytes())
	st.PeakMemoryUsage = uint64(s.pool.PeakLiveBytes())
	return st
}

// ResetStats zeroes the telemetry counters. Memory gauges are live values
// and are not affected.
func (s *System) ResetStats() { s.pl.ResetStats() }

// Frame returns the current frame counter.
func (s *System) Frame() uint64 { return s.frame.Load() }

// CalculateLOD picks a LOD level from an asset's bounding radius and its
// distance to the camera, halving the screen-size threshold per step.
func CalculateLOD(radius, distance float32) uint32 {
	if distance <= 0 {
		return 0
	}
	screen := radius / distance
	switch {
	case screen > 0.5:
		return 0
	case screen > 0.25:
		return 1
	case screen > 0.125:
		return 2
	case screen > 0.0625:
		return 3
	default:
		return 4
	}
}
