// Package codec implements the byte-stream compression schemes used by the
// asset container. All functions are stateless: the caller supplies both the
// source and a destination buffer sized for the expected output.
//
// Decompression of the engine-native schemes (LZ and the RLE placeholder)
// never fails on malformed input. A token that lacks its trailing bytes stops
// the decode and the byte count produced so far is returned; the loader
// detects corruption by comparing that count against the size declared in the
// asset header.
package codec

import (
	"errors"

	"github.com/joshuapare/streamkit/pkg/types"
)

var (
	// ErrShortBuffer indicates the destination buffer cannot hold the output.
	ErrShortBuffer = errors.New("codec: destination buffer too small")
	// ErrUnknownCompression indicates an unrecognized compression tag.
	ErrUnknownCompression = errors.New("codec: unknown compression type")
)

// Compress encodes src into dst using the given scheme and returns the number
// of bytes written.
func Compress(src, dst []byte, c types.Compression) (int, error) {
	switch c {
	case types.CompressionNone, types.CompressionBC7, types.CompressionASTC:
		// GPU block formats are pre-compressed; store them verbatim.
		return copyBounded(src, dst)
	case types.CompressionLZ:
		return compressLZ(src, dst)
	case types.CompressionZstd:
		// Placeholder slot: run-length encoding, not Zstandard.
		return compressRLE(src, dst)
	case types.CompressionZstdReal:
		return compressZstd(src, dst)
	default:
		return 0, ErrUnknownCompression
	}
}

// Decompress decodes src into dst using the given scheme and returns the
// number of bytes produced.
func Decompress(src, dst []byte, c types.Compression) (int, error) {
	switch c {
	case types.CompressionNone, types.CompressionBC7, types.CompressionASTC:
		return copyBounded(src, dst)
	case types.CompressionLZ:
		return decompressLZ(src, dst)
	case types.CompressionZstd:
		return decompressRLE(src, dst)
	case types.CompressionZstdReal:
		return decompressZstd(src, dst)
	default:
		return 0, ErrUnknownCompression
	}
}

func copyBounded(src, dst []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, ErrShortBuffer
	}
	return copy(dst, src), nil
}
