package format

import "errors"

var (
	// ErrBadMagic indicates the file does not start with the 'HMAS' signature.
	ErrBadMagic = errors.New("format: bad magic")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadVersion indicates an unsupported container version.
	ErrBadVersion = errors.New("format: unsupported version")
	// ErrBadChecksum indicates the header checksum did not match its contents.
	ErrBadChecksum = errors.New("format: header checksum mismatch")
	// ErrBadLODCount indicates a LOD count outside [1, LODLevels].
	ErrBadLODCount = errors.New("format: bad lod count")
)
