package codec

// Run-length scheme behind the legacy CompressionZstd tag. 0xFF introduces a
// run token {0xFF, count, value}; any other byte is a literal. A literal 0xFF
// is always emitted as a run of one, so the marker never appears bare.
const (
	rleMarker = 0xFF
	rleMaxRun = 255
)

func compressRLE(src, dst []byte) (int, error) {
	sp, dp := 0, 0
	for sp < len(src) {
		v := src[sp]
		run := 1
		for sp+run < len(src) && src[sp+run] == v && run < rleMaxRun {
			run++
		}
		if run > 2 || v == rleMarker {
			if dp+3 > len(dst) {
				return 0, ErrShortBuffer
			}
			dst[dp] = rleMarker
			dst[dp+1] = byte(run)
			dst[dp+2] = v
			dp += 3
			sp += run
		} else {
			if dp+run > len(dst) {
				return 0, ErrShortBuffer
			}
			for i := 0; i < run; i++ {
				dst[dp] = v
				dp++
			}
			sp += run
		}
	}
	return dp, nil
}

func decompressRLE(src, dst []byte) (int, error) {
	sp, dp := 0, 0
	for sp < len(src) && dp < len(dst) {
		if src[sp] == rleMarker {
			if sp+3 > len(src) {
				return dp, nil // truncated run token
			}
			run := int(src[sp+1])
			v := src[sp+2]
			sp += 3
			for i := 0; i < run && dp < len(dst); i++ {
				dst[dp] = v
				dp++
			}
		} else {
			dst[dp] = src[sp]
			dp++
			sp++
		}
	}
	return dp, nil
}
