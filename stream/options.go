package stream

import (
	"log/slog"

	"github.com/joshuapare/streamkit/pkg/types"
)

// Ring is one concentric streaming band around the camera. Assets whose
// distance falls inside [MinDist, MaxDist) stream at the ring's priority.
type Ring struct {
	MinDist  float32
	MaxDist  float32
	Priority types.Priority

	// MaxAssets caps how many assets one Update considers in this ring.
	// Zero means unlimited.
	MaxAssets int
}

// DefaultRings returns the standard four-band configuration: a tight critical
// core, two active bands, and a wide prefetch band.
func DefaultRings() []Ring {
	return []Ring{
		{MinDist: 0, MaxDist: 50, Priority: types.PriorityCritical, MaxAssets: 100},
		{MinDist: 50, MaxDist: 150, Priority: types.PriorityHigh, MaxAssets: 200},
		{MinDist: 150, MaxDist: 300, Priority: types.PriorityNormal, MaxAssets: 400},
		{MinDist: 300, MaxDist: 500, Priority: types.PriorityPrefetch, MaxAssets: 800},
	}
}

// Options configures a streaming System. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	// MemoryBudget is the streaming pool size in bytes.
	MemoryBudget int64

	// Workers is the number of loader goroutines.
	Workers int

	// QueueCapacity is the request slot count.
	QueueCapacity int

	// RegistryCapacity is the maximum number of resident assets.
	RegistryCapacity int

	// AssetDir is the directory holding the asset containers.
	AssetDir string

	// WorldMin and WorldMax bound the spatial index.
	WorldMin, WorldMax types.Vec3

	// Rings is the streaming band configuration, sorted by MinDist.
	Rings []Ring

	// PredictFrames is how far ahead (in frames at 60 Hz) camera motion is
	// extrapolated when biasing prefetch rings.
	PredictFrames int

	// Logger receives load failures and maintenance events. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns a 256 MiB system with the standard rings, indexing a
// 10 km cube around the origin.
func DefaultOptions(assetDir string) Options {
	return Options{
		MemoryBudget:     256 << 20,
		Workers:          2,
		QueueCapacity:    1024,
		RegistryCapacity: 4096,
		AssetDir:         assetDir,
		WorldMin:         types.Vec3{X: -5000, Y: -5000, Z: -5000},
		WorldMax:         types.Vec3{X: 5000, Y: 5000, Z: 5000},
		Rings:            DefaultRings(),
		PredictFrames:    8,
	}
}
