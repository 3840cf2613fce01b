package types

// AssetID uniquely identifies a streamable asset. Virtual-texture pages pack
// texture id, mip, and page coordinates into the same 64-bit space.
type AssetID uint64

// Structural limits of the asset container format.
const (
	// LODLevels is the fixed size of the per-asset LOD table.
	LODLevels = 5
	// MaxDependencies is the fixed size of the per-asset dependency table.
	MaxDependencies = 16
	// AssetNameSize is the fixed size of the NUL-padded asset name field.
	AssetNameSize = 64
)

// AssetType classifies what kind of payload an asset carries.
type AssetType uint32

const (
	TypeTexture AssetType = iota
	TypeMesh
	TypeAudio
	TypeAnimation
	TypeWorldChunk

	TypeCount
)

func (t AssetType) String() string {
	switch t {
	case TypeTexture:
		return "texture"
	case TypeMesh:
		return "mesh"
	case TypeAudio:
		return "audio"
	case TypeAnimation:
		return "animation"
	case TypeWorldChunk:
		return "world_chunk"
	default:
		return "unknown"
	}
}

// Priority orders streaming requests. Lower values are more urgent; workers
// always drain higher-priority queues first.
type Priority uint8

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityPrefetch
	PriorityLow

	PriorityCount
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityPrefetch:
		return "prefetch"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Compression tags a payload's encoding in the asset container.
type Compression uint32

const (
	// CompressionNone stores the payload verbatim.
	CompressionNone Compression = iota
	// CompressionLZ is the built-in byte-oriented LZ scheme.
	CompressionLZ
	// CompressionZstd is the legacy tag whose payloads are actually
	// run-length encoded. Kept for container compatibility.
	CompressionZstd
	// CompressionBC7 is GPU block-compressed data, passed through untouched.
	CompressionBC7
	// CompressionASTC is GPU block-compressed data, passed through untouched.
	CompressionASTC
	// CompressionZstdReal is a genuine Zstandard frame.
	CompressionZstdReal
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ:
		return "lz"
	case CompressionZstd:
		return "zstd"
	case CompressionBC7:
		return "bc7"
	case CompressionASTC:
		return "astc"
	case CompressionZstdReal:
		return "zstd_real"
	default:
		return "unknown"
	}
}

// RequestStatus is the lifecycle state of a streaming request.
type RequestStatus int32

// StatusInvalid is reported for stale handles whose request slot has been
// recycled.
const StatusInvalid RequestStatus = -1

const (
	StatusPending RequestStatus = iota
	StatusLoading
	StatusComplete
	StatusFailed
)

func (s RequestStatus) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusPending:
		return "pending"
	case StatusLoading:
		return "loading"
	case StatusComplete:
		return "complete"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LODInfo is one entry of the per-asset LOD table. Offsets are relative to
// the end of the container header.
type LODInfo struct {
	VertexCount         uint32
	IndexCount          uint32
	ScreenSizeThreshold float32
	DataOffset          uint32
	DataSize            uint32
	CompressedSize      uint32
	Compression         Compression
}
