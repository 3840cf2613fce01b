package format

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/joshuapare/streamkit/internal/buf"
	"github.com/joshuapare/streamkit/pkg/types"
)

// Header is the decoded form of an asset container header.
type Header struct {
	Version          uint32
	AssetID          types.AssetID
	Type             types.AssetType
	Flags            uint32
	Compression      types.Compression
	UncompressedSize uint64
	CompressedSize   uint64
	LODCount         uint32
	LODs             [types.LODLevels]types.LODInfo
	DependencyCount  uint32
	Dependencies     [types.MaxDependencies]types.AssetID
	Name             [types.AssetNameSize]byte
	Checksum         uint32
}

// NameString returns the NUL-trimmed asset name.
func (h *Header) NameString() string {
	for i, c := range h.Name {
		if c == 0 {
			return string(h.Name[:i])
		}
	}
	return string(h.Name[:])
}

// SetName copies name into the fixed name field, truncating if necessary.
func (h *Header) SetName(name string) {
	h.Name = [types.AssetNameSize]byte{}
	copy(h.Name[:], name)
}

// ClampLOD clamps a requested LOD level to the header's LOD table.
func (h *Header) ClampLOD(lod uint32) uint32 {
	if h.LODCount == 0 {
		return 0
	}
	if lod >= h.LODCount {
		return h.LODCount - 1
	}
	return lod
}

// ComputeChecksum hashes the header bytes that precede the checksum field.
func ComputeChecksum(b []byte) uint32 {
	return uint32(xxh3.Hash(b[:checksumOffset]))
}

// ParseHeader validates and extracts an asset header from b.
// Files with a mismatched magic are rejected outright; a stored checksum of
// zero skips verification (tooling that has not sealed the header yet).
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("asset header: %w", ErrTruncated)
	}
	if buf.U32LE(b[magicOffset:]) != Magic {
		return Header{}, fmt.Errorf("asset header: %w", ErrBadMagic)
	}
	var h Header
	h.Version = buf.U32LE(b[versionOffset:])
	if h.Version != Version {
		return Header{}, fmt.Errorf("asset header: %w (%d)", ErrBadVersion, h.Version)
	}
	h.AssetID = types.AssetID(buf.U64LE(b[assetIDOffset:]))
	h.Type = types.AssetType(buf.U32LE(b[typeOffset:]))
	h.Flags = buf.U32LE(b[flagsOffset:])
	h.Compression = types.Compression(buf.U32LE(b[compressionOffset:]))
	h.UncompressedSize = buf.U64LE(b[uncompressedOffset:])
	h.CompressedSize = buf.U64LE(b[compressedOffset:])
	h.LODCount = buf.U32LE(b[lodCountOffset:])
	if h.LODCount == 0 || h.LODCount > types.LODLevels {
		return Header{}, fmt.Errorf("asset header: %w (%d)", ErrBadLODCount, h.LODCount)
	}
	for i := 0; i < types.LODLevels; i++ {
		e := b[lodTableOffset+i*LODEntrySize:]
		h.LODs[i] = types.LODInfo{
			VertexCount:         buf.U32LE(e[0:]),
			IndexCount:          buf.U32LE(e[4:]),
			ScreenSizeThreshold: buf.F32LE(e[8:]),
			DataOffset:          buf.U32LE(e[12:]),
			DataSize:            buf.U32LE(e[16:]),
			CompressedSize:      buf.U32LE(e[20:]),
			Compression:         types.Compression(buf.U32LE(e[24:])),
		}
	}
	h.DependencyCount = buf.U32LE(b[depCountOffset:])
	if h.DependencyCount > types.MaxDependencies {
		h.DependencyCount = types.MaxDependencies
	}
	for i := 0; i < types.MaxDependencies; i++ {
		h.Dependencies[i] = types.AssetID(buf.U64LE(b[depTableOffset+i*8:]))
	}
	copy(h.Name[:], b[nameOffset:nameOffset+types.AssetNameSize])
	h.Checksum = buf.U32LE(b[checksumOffset:])
	if h.Checksum != 0 && h.Checksum != ComputeChecksum(b) {
		return Header{}, fmt.Errorf("asset header: %w", ErrBadChecksum)
	}
	return h, nil
}

// PutHeader serializes h into b, computing and storing the checksum.
// b must hold at least HeaderSize bytes.
func PutHeader(b []byte, h *Header) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("asset header: %w", ErrTruncated)
	}
	if h.LODCount == 0 || h.LODCount > types.LODLevels {
		return fmt.Errorf("asset header: %w (%d)", ErrBadLODCount, h.LODCount)
	}
	buf.PutU32LE(b[magicOffset:], Magic)
	buf.PutU32LE(b[versionOffset:], Version)
	buf.PutU64LE(b[assetIDOffset:], uint64(h.AssetID))
	buf.PutU32LE(b[typeOffset:], uint32(h.Type))
	buf.PutU32LE(b[flagsOffset:], h.Flags)
	buf.PutU32LE(b[compressionOffset:], uint32(h.Compression))
	buf.PutU64LE(b[uncompressedOffset:], h.UncompressedSize)
	buf.PutU64LE(b[compressedOffset:], h.CompressedSize)
	buf.PutU32LE(b[lodCountOffset:], h.LODCount)
	for i := 0; i < types.LODLevels; i++ {
		e := b[lodTableOffset+i*LODEntrySize:]
		lod := &h.LODs[i]
		buf.PutU32LE(e[0:], lod.VertexCount)
		buf.PutU32LE(e[4:], lod.IndexCount)
		buf.PutF32LE(e[8:], lod.ScreenSizeThreshold)
		buf.PutU32LE(e[12:], lod.DataOffset)
		buf.PutU32LE(e[16:], lod.DataSize)
		buf.PutU32LE(e[20:], lod.CompressedSize)
		buf.PutU32LE(e[24:], uint32(lod.Compression))
	}
	buf.PutU32LE(b[depCountOffset:], h.DependencyCount)
	for i := 0; i < types.MaxDependencies; i++ {
		buf.PutU64LE(b[depTableOffset+i*8:], uint64(h.Dependencies[i]))
	}
	copy(b[nameOffset:nameOffset+types.AssetNameSize], h.Name[:])
	h.Checksum = ComputeChecksum(b)
	buf.PutU32LE(b[checksumOffset:], h.Checksum)
	return nil
}
