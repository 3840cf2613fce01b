package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Shared stateless-codec instances. EncodeAll/DecodeAll are safe for
// concurrent use on a single encoder/decoder.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic(fmt.Sprintf("codec: zstd encoder init: %v", err))
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic(fmt.Sprintf("codec: zstd decoder init: %v", err))
	}
}

func compressZstd(src, dst []byte) (int, error) {
	out := zstdEncoder.EncodeAll(src, nil)
	if len(out) > len(dst) {
		return 0, ErrShortBuffer
	}
	return copy(dst, out), nil
}

func decompressZstd(src, dst []byte) (int, error) {
	out, err := zstdDecoder.DecodeAll(src, nil)
	if err != nil {
		return 0, fmt.Errorf("codec: zstd decode: %w", err)
	}
	if len(out) > len(dst) {
		return 0, ErrShortBuffer
	}
	return copy(dst, out), nil
}
