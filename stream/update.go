package stream

import (
	"github.com/joshuapare/streamkit/pkg/types"
)

const (
	// frameDT is the frame duration assumed by camera prediction.
	frameDT = 1.0 / 60.0

	// defragFragThreshold triggers compaction when the free space is this
	// fragmented and memory is low.
	defragFragThreshold = 0.3

	// fileMaintenanceInterval is how often (in frames) idle asset file
	// handles are swept.
	fileMaintenanceInterval = 600

	// fileIdleFrames is how long a file handle may sit unused before the
	// sweep closes it.
	fileIdleFrames = 3600
)

// Update advances one frame: walk the streaming rings around the camera,
// queue loads for anything missing, and run periodic maintenance.
func (s *System) Update(camPos, camVel types.Vec3) {
	if s.closed.Load() {
		return
	}
	frame := s.frame.Add(1)
	predicted := s.predict(camPos, camVel)

	s.ringMu.Lock()
	rings := append([]Ring(nil), s.rings...)
	s.ringMu.Unlock()

	for _, ring := range rings {
		// Prefetch-and-beyond rings center on where the camera is heading.
		center := camPos
		if ring.Priority >= types.PriorityPrefetch {
			center = predicted
		}
		for _, e := range s.index.QueryRadius(center, ring.MaxDist, ring.MaxAssets) {
			dist := center.Sub(e.Pos).Length()
			if dist < ring.MinDist {
				continue // an inner ring already covers it
			}
			lod := CalculateLOD(e.Radius, dist)
			if s.reg.Resident(e.ID, lod) {
				s.reg.Touch(e.ID, frame)
				continue
			}
			if _, err := s.pl.Enqueue(e.ID, lod, ring.Priority); err != nil {
				// Queue full: lower rings would only be fuller. Next
				// frame picks up where this one stopped.
				return
			}
		}
	}

	s.maintain(frame)
}

// predict extrapolates the camera position a few frames ahead, folding in
// acceleration estimated from the velocity change since the last Update.
func (s *System) predict(pos, vel types.Vec3) types.Vec3 {
	s.camMu.Lock()
	accel := vel.Sub(s.lastVel).Scale(1.0 / frameDT)
	s.lastVel = vel
	s.camMu.Unlock()

	t := float32(s.opts.PredictFrames) * frameDT
	return pos.Add(vel.Scale(t)).Add(accel.Scale(0.5 * t * t))
}

// maintain runs the periodic work hung off the frame counter.
func (s *System) maintain(frame uint64) {
	st := s.pool.Stats()
	lowMemory := st.Available < uint64(s.opts.MemoryBudget/8)
	if st.Fragmentation > defragFragThreshold && lowMemory {
		s.Defragment()
	}

	if frame%fileMaintenanceInterval == 0 {
		if n := s.pl.CloseIdleFiles(frame, fileIdleFrames); n > 0 {
			s.log.Debug("closed idle asset files", "count", n, "frame", frame)
		}
	}
}
