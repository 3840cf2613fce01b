// Package format defines the on-disk asset container: a fixed 388-byte header
// followed by each LOD's raw or compressed payload. All multi-byte fields are
// little-endian and the layout is packed (no implicit padding).
package format

// Magic is the asset container signature, 'HMAS' read as a little-endian u32.
const Magic uint32 = 0x534D4148

// Version is the current container version.
const Version uint32 = 1

// Header field offsets. The layout is packed; offsets are cumulative.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    Magic 'HMAS'
//	 0x004   4    Version
//	 0x008   8    Asset ID
//	 0x010   4    Asset type
//	 0x014   4    Flags
//	 0x018   4    Whole-file compression tag
//	 0x01C   8    Uncompressed size
//	 0x024   8    Compressed size
//	 0x02C   4    LOD count
//	 0x030 140    LOD table (5 entries x 28 bytes)
//	 0x0BC   4    Dependency count
//	 0x0C0 128    Dependency IDs (16 x u64)
//	 0x140  64    Name (NUL-padded)
//	 0x180   4    Checksum over bytes [0, 0x180)
const (
	magicOffset        = 0x000
	versionOffset      = 0x004
	assetIDOffset      = 0x008
	typeOffset         = 0x010
	flagsOffset        = 0x014
	compressionOffset  = 0x018
	uncompressedOffset = 0x01C
	compressedOffset   = 0x024
	lodCountOffset     = 0x02C
	lodTableOffset     = 0x030
	depCountOffset     = 0x0BC
	depTableOffset     = 0x0C0
	nameOffset         = 0x140
	checksumOffset     = 0x180

	// LODEntrySize is the packed size of one LOD table entry.
	LODEntrySize = 28

	// HeaderSize is the total packed header size. LOD payload offsets in the
	// LOD table are relative to this position in the file.
	HeaderSize = 388
)
